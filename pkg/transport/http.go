package transport

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"net/url"

	wserrors "github.com/ajitpratap0/wsclient-go/pkg/errors"
	"github.com/ajitpratap0/wsclient-go/pkg/logging"
	"github.com/ajitpratap0/wsclient-go/pkg/message"
)

// HTTPMessageSender posts JSON envelopes to http and https destinations.
type HTTPMessageSender struct {
	client         *http.Client
	headers        map[string]string
	maxMessageSize int64
	logger         logging.Logger
}

// NewHTTPMessageSender creates an HTTP sender with a pooled client
func NewHTTPMessageSender(config Config) *HTTPMessageSender {
	dialer := &net.Dialer{
		Timeout:   config.Connection.Timeout,
		KeepAlive: config.Connection.KeepAlive,
	}
	client := &http.Client{
		Timeout: config.Connection.Timeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			DialContext:         dialer.DialContext,
			MaxIdleConns:        config.Connection.MaxIdleConns,
			MaxConnsPerHost:     config.Connection.MaxConnsPerHost,
			IdleConnTimeout:     config.Connection.IdleConnTimeout,
			TLSHandshakeTimeout: config.Connection.Timeout,
		},
	}
	return NewHTTPMessageSenderWithClient(client, config)
}

// NewHTTPMessageSenderWithClient creates an HTTP sender around an existing client
func NewHTTPMessageSenderWithClient(client *http.Client, config Config) *HTTPMessageSender {
	logger := config.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	headers := make(map[string]string, len(config.HTTP.Headers))
	for k, v := range config.HTTP.Headers {
		headers[k] = v
	}
	return &HTTPMessageSender{
		client:         client,
		headers:        headers,
		maxMessageSize: config.Connection.MaxMessageSize,
		logger:         logger.WithFields(logging.String("component", "HTTPMessageSender")),
	}
}

// Supports reports whether uri is an http or https destination
func (s *HTTPMessageSender) Supports(uri *url.URL) bool {
	return schemeSupported(uri, "http", "https")
}

// CreateConnection creates a connection for one POST exchange
func (s *HTTPMessageSender) CreateConnection(ctx context.Context, uri *url.URL) (Connection, error) {
	if uri.Host == "" {
		return nil, wserrors.InvalidDestination(uri.String(), errMissingHost)
	}
	return &httpConnection{sender: s, uri: uri}, nil
}

// Close releases idle pooled connections
func (s *HTTPMessageSender) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

type httpConnection struct {
	sender *HTTPMessageSender
	uri    *url.URL
	status int
	body   []byte
}

func (c *httpConnection) URI() *url.URL { return c.uri }

// Send posts the request and buffers the response body
func (c *httpConnection) Send(ctx context.Context, request message.Message) error {
	data, err := message.Encode(request)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.uri.String(), bytes.NewReader(data))
	if err != nil {
		return wserrors.MessageSendError("http", c.uri.String(), err)
	}
	for k, v := range c.sender.headers {
		req.Header.Set(k, v)
	}
	req.Header.Set(message.HeaderContentType, "application/json")
	req.Header.Set(message.HeaderMessageID, request.ID())
	if action := request.Action(); action != "" {
		req.Header.Set(message.HeaderAction, action)
	}

	resp, err := c.sender.client.Do(req)
	if err != nil {
		return wserrors.MessageSendError("http", c.uri.String(), err).WithContext(&wserrors.Context{
			MessageID: request.ID(),
			Action:    request.Action(),
			URI:       c.uri.String(),
			Component: "HTTPMessageSender",
			Operation: "send",
		})
	}
	defer resp.Body.Close()

	var reader io.Reader = resp.Body
	if c.sender.maxMessageSize > 0 {
		reader = io.LimitReader(resp.Body, c.sender.maxMessageSize+1)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return wserrors.MessageReceiveError("http", c.uri.String(), err)
	}
	if c.sender.maxMessageSize > 0 && int64(len(body)) > c.sender.maxMessageSize {
		return wserrors.MessageTooLarge("http", int64(len(body)), c.sender.maxMessageSize)
	}

	c.status = resp.StatusCode
	c.body = body
	c.sender.logger.Debug("HTTP exchange completed",
		logging.String("uri", c.uri.String()),
		logging.Int("status", resp.StatusCode),
		logging.Int("bytes", len(body)))
	return nil
}

// HasResponse reports false for 202, 204 and empty successful bodies.
// Error statuses always count as a response so that Receive can raise them.
func (c *httpConnection) HasResponse() bool {
	if c.status >= http.StatusBadRequest {
		return true
	}
	if c.status == http.StatusAccepted || c.status == http.StatusNoContent {
		return false
	}
	return len(bytes.TrimSpace(c.body)) > 0
}

// Receive parses the buffered body. An error status is returned as a fault
// message when the body is a fault envelope, or as a transport fault otherwise.
func (c *httpConnection) Receive(ctx context.Context, factory message.Factory) (message.Message, error) {
	if !c.HasResponse() {
		return nil, nil
	}
	if c.status >= http.StatusBadRequest && !message.IsFaultEnvelope(c.body) {
		return nil, wserrors.TransportFault("http", c.status, http.StatusText(c.status))
	}

	resp, err := factory.ReadMessage(bytes.NewReader(c.body))
	if err != nil {
		if wserrors.IsTransportError(err) {
			return nil, err
		}
		return nil, wserrors.MessageReceiveError("http", c.uri.String(), err)
	}
	return resp, nil
}

// Close drops the buffered response
func (c *httpConnection) Close() error {
	c.body = nil
	return nil
}
