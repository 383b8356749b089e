package client

import (
	"context"
	"net/url"
	"sync"

	wserrors "github.com/ajitpratap0/wsclient-go/pkg/errors"
	"github.com/ajitpratap0/wsclient-go/pkg/logging"
	"github.com/ajitpratap0/wsclient-go/pkg/message"
	"github.com/ajitpratap0/wsclient-go/pkg/transport"
)

// Template performs message exchanges. Each exchange resolves its
// destination to a fresh connection, sends one request, optionally reads
// one response and closes the connection on every exit path.
//
// A Template is safe for concurrent use when its senders, message factory,
// marshaller and unmarshaller are.
type Template struct {
	mu      sync.RWMutex
	senders transport.Senders

	defaultURI    string
	factory       message.Factory
	marshaller    message.Marshaller
	unmarshaller  message.Unmarshaller
	callbacks     []RequestCallback
	interceptors  []ClientInterceptor
	faultResolver FaultResolver
	logger        logging.Logger
	senderMetrics transport.MetricsRecorder
}

// Option configures a Template
type Option func(*Template)

// WithDefaultURI sets the destination used when an exchange names none
func WithDefaultURI(uri string) Option {
	return func(t *Template) {
		t.defaultURI = uri
	}
}

// WithMessageFactory sets the factory that creates requests and parses responses
func WithMessageFactory(factory message.Factory) Option {
	return func(t *Template) {
		t.factory = factory
	}
}

// WithMessageSenders sets the senders destinations are resolved against, in order
func WithMessageSenders(senders ...transport.MessageSender) Option {
	return func(t *Template) {
		t.senders = append(transport.Senders(nil), senders...)
	}
}

// WithMarshaller sets the marshaller used by MarshalSendAndReceive
func WithMarshaller(m message.Marshaller) Option {
	return func(t *Template) {
		t.marshaller = m
	}
}

// WithUnmarshaller sets the unmarshaller used by MarshalSendAndReceive
func WithUnmarshaller(u message.Unmarshaller) Option {
	return func(t *Template) {
		t.unmarshaller = u
	}
}

// WithMarshalling sets a value that both marshals and unmarshals
func WithMarshalling(m interface {
	message.Marshaller
	message.Unmarshaller
}) Option {
	return func(t *Template) {
		t.marshaller = m
		t.unmarshaller = m
	}
}

// WithRequestCallbacks adds callbacks run on every request, in order, before
// the per-call callback.
func WithRequestCallbacks(callbacks ...RequestCallback) Option {
	return func(t *Template) {
		t.callbacks = append(t.callbacks, callbacks...)
	}
}

// WithInterceptors adds client interceptors
func WithInterceptors(interceptors ...ClientInterceptor) Option {
	return func(t *Template) {
		t.interceptors = append(t.interceptors, interceptors...)
	}
}

// WithFaultResolver sets how fault responses become errors. A nil resolver
// hands fault responses to the extractor like any other response.
func WithFaultResolver(resolver FaultResolver) Option {
	return func(t *Template) {
		t.faultResolver = resolver
	}
}

// WithLogger sets the logger
func WithLogger(logger logging.Logger) Option {
	return func(t *Template) {
		t.logger = logger
	}
}

// WithTransportMetrics sets the recorder handed to senders built by NewFromConfig
func WithTransportMetrics(recorder transport.MetricsRecorder) Option {
	return func(t *Template) {
		t.senderMetrics = recorder
	}
}

// New creates a Template. Without options it uses the envelope message
// factory, JSON marshalling and the default fault resolver, and has no
// senders.
func New(options ...Option) (*Template, error) {
	marshalling := message.JSONMarshaller{}
	t := &Template{
		factory:       message.NewEnvelopeFactory(),
		marshaller:    marshalling,
		unmarshaller:  marshalling,
		faultResolver: DefaultFaultResolver(),
	}
	for _, opt := range options {
		opt(t)
	}

	if t.factory == nil {
		return nil, wserrors.MissingParameter("message_factory")
	}
	if t.logger == nil {
		t.logger = logging.NewNop()
	}
	t.logger = t.logger.WithFields(logging.String("component", "Template"))
	return t, nil
}

// DefaultURI returns the destination used when an exchange names none
func (t *Template) DefaultURI() string {
	return t.defaultURI
}

// MessageFactory returns the message factory
func (t *Template) MessageFactory() message.Factory {
	return t.factory
}

// MessageSenders returns a copy of the configured senders
func (t *Template) MessageSenders() transport.Senders {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append(transport.Senders(nil), t.senders...)
}

// SetMessageSenders replaces the senders. Exchanges already in flight keep
// the senders they started with.
func (t *Template) SetMessageSenders(senders ...transport.MessageSender) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.senders = append(transport.Senders(nil), senders...)
}

// Close releases resources held by the senders
func (t *Template) Close() error {
	return t.MessageSenders().Close()
}

// SendAndReceive sends a request built by callback to uri and extracts the
// response with extractor. An empty uri selects the default destination.
// The result is nil when the destination sends no response.
func (t *Template) SendAndReceive(ctx context.Context, uri string, callback RequestCallback, extractor ResponseExtractor) (interface{}, error) {
	return t.exchange(ctx, uri, callback, func(ctx context.Context, conn transport.Connection, mc *MessageContext) (interface{}, error) {
		return t.receive(ctx, conn, mc, extractor)
	})
}

// SendAndReceiveWithConnection is SendAndReceive with an extractor that
// borrows the open connection and receives the response itself.
// Interceptors' response and fault stages and the fault resolver do not run.
func (t *Template) SendAndReceiveWithConnection(ctx context.Context, uri string, callback RequestCallback, extractor ConnectionExtractor) (interface{}, error) {
	return t.exchange(ctx, uri, callback, func(ctx context.Context, conn transport.Connection, mc *MessageContext) (interface{}, error) {
		if extractor == nil {
			return nil, nil
		}
		return extractor(ctx, conn, t.factory)
	})
}

// Send sends a request built by callback and reports whether a response
// arrived. The response is discarded; faults are still resolved.
func (t *Template) Send(ctx context.Context, uri string, callback RequestCallback) (bool, error) {
	received := func(context.Context, message.Message) (interface{}, error) {
		return true, nil
	}
	result, err := t.SendAndReceive(ctx, uri, callback, received)
	return result != nil, err
}

// responseHandler runs once the request was sent and a response is available
type responseHandler func(ctx context.Context, conn transport.Connection, mc *MessageContext) (interface{}, error)

// exchange is the one place a connection is opened, and it closes it on
// every path including panics.
func (t *Template) exchange(ctx context.Context, uri string, callback RequestCallback, handle responseHandler) (result interface{}, err error) {
	target, err := t.destination(uri)
	if err != nil {
		return nil, err
	}
	if t.factory == nil {
		return nil, wserrors.MissingParameter("message_factory")
	}

	conn, err := t.MessageSenders().Resolve(ctx, target)
	if err != nil {
		t.logger.Debug("Destination not resolved", logging.String("uri", target.String()), logging.ErrorField(err))
		return nil, err
	}
	defer t.closeConnection(conn)

	request := t.factory.CreateMessage()
	mc := &MessageContext{URI: target, Request: request}
	ctx = logging.ContextWithMessageID(ctx, request.ID())
	defer func() {
		t.afterCompletion(ctx, mc, err)
	}()

	for _, cb := range t.callbacks {
		if err = cb(ctx, request); err != nil {
			return nil, err
		}
	}
	if callback != nil {
		if err = callback(ctx, request); err != nil {
			return nil, err
		}
	}

	for _, interceptor := range t.interceptors {
		var next context.Context
		if next, err = interceptor.HandleRequest(ctx, mc); err != nil {
			return nil, err
		}
		if next != nil {
			ctx = next
		}
	}

	if err = conn.Send(ctx, request); err != nil {
		t.logger.WithContext(ctx).WithError(err).Warn("Send failed", logging.String("uri", target.String()))
		return nil, err
	}

	if !conn.HasResponse() {
		t.logger.WithContext(ctx).Debug("No response", logging.String("uri", target.String()))
		return nil, nil
	}
	return handle(ctx, conn, mc)
}

// destination picks and parses the destination of an exchange
func (t *Template) destination(uri string) (*url.URL, error) {
	if uri == "" {
		uri = t.defaultURI
	}
	if uri == "" {
		return nil, wserrors.ConfigurationError("default_uri", "no destination given and no default destination configured")
	}
	return transport.ParseDestination(uri)
}

// receive reads the response and routes it to the fault or response path
func (t *Template) receive(ctx context.Context, conn transport.Connection, mc *MessageContext, extractor ResponseExtractor) (interface{}, error) {
	response, err := conn.Receive(ctx, t.factory)
	if err != nil {
		t.logger.WithContext(ctx).WithError(err).Warn("Receive failed", logging.String("uri", mc.URI.String()))
		return nil, err
	}
	if response == nil {
		return nil, nil
	}
	mc.Response = response

	if response.HasFault() && t.faultResolver != nil {
		for i := len(t.interceptors) - 1; i >= 0; i-- {
			if err := t.interceptors[i].HandleFault(ctx, mc); err != nil {
				return nil, err
			}
		}
		t.logger.WithContext(ctx).Debug("Fault received",
			logging.String("uri", mc.URI.String()),
			logging.String("fault_code", string(response.Fault().Code)))
		return nil, t.faultResolver.ResolveFault(ctx, response)
	}

	for i := len(t.interceptors) - 1; i >= 0; i-- {
		if err := t.interceptors[i].HandleResponse(ctx, mc); err != nil {
			return nil, err
		}
	}
	if extractor == nil {
		return nil, nil
	}
	return extractor(ctx, response)
}

// afterCompletion notifies interceptors in reverse order
func (t *Template) afterCompletion(ctx context.Context, mc *MessageContext, err error) {
	for i := len(t.interceptors) - 1; i >= 0; i-- {
		t.interceptors[i].AfterCompletion(ctx, mc, err)
	}
}

// closeConnection closes conn; a close failure is logged, never returned
func (t *Template) closeConnection(conn transport.Connection) {
	if err := conn.Close(); err != nil {
		t.logger.WithError(err).Warn("Failed to close connection", logging.String("uri", conn.URI().String()))
	}
}
