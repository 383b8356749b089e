package transport

import (
	"bytes"
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	wserrors "github.com/ajitpratap0/wsclient-go/pkg/errors"
	"github.com/ajitpratap0/wsclient-go/pkg/logging"
	"github.com/ajitpratap0/wsclient-go/pkg/message"
)

// NATSMessageSender exchanges envelopes over NATS request/reply.
//
// Destinations are nats:subject or nats://host/subject; the host names the
// cluster the sender is connected to and is not dialled per exchange.
// Adding oneway=true to the query publishes without waiting for a reply.
type NATSMessageSender struct {
	conn           *nats.Conn
	ownsConn       bool
	requestTimeout time.Duration
	maxMessageSize int64
	logger         logging.Logger
}

// DialNATSMessageSender connects to the configured NATS server
func DialNATSMessageSender(config Config) (*NATSMessageSender, error) {
	opts := []nats.Option{}
	if config.NATS.Name != "" {
		opts = append(opts, nats.Name(config.NATS.Name))
	}
	if config.Connection.Timeout > 0 {
		opts = append(opts, nats.Timeout(config.Connection.Timeout))
	}

	nc, err := nats.Connect(config.NATS.URL, opts...)
	if err != nil {
		return nil, wserrors.ConnectionFailed("nats", config.NATS.URL, err)
	}

	sender := NewNATSMessageSender(nc, config)
	sender.ownsConn = true
	return sender, nil
}

// NewNATSMessageSender creates a sender over an existing NATS connection.
// The caller keeps ownership of nc.
func NewNATSMessageSender(nc *nats.Conn, config Config) *NATSMessageSender {
	logger := config.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	timeout := config.NATS.RequestTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &NATSMessageSender{
		conn:           nc,
		requestTimeout: timeout,
		maxMessageSize: config.Connection.MaxMessageSize,
		logger:         logger.WithFields(logging.String("component", "NATSMessageSender")),
	}
}

// Supports reports whether uri is a nats destination
func (s *NATSMessageSender) Supports(uri *url.URL) bool {
	return schemeSupported(uri, "nats")
}

// CreateConnection binds a connection to the destination subject
func (s *NATSMessageSender) CreateConnection(ctx context.Context, uri *url.URL) (Connection, error) {
	subject := natsSubject(uri)
	if subject == "" {
		return nil, wserrors.InvalidDestination(uri.String(), errMissingSubject)
	}
	if s.conn.IsClosed() {
		return nil, wserrors.ConnectionLost("nats", uri.String(), nats.ErrConnectionClosed)
	}
	return &natsConnection{
		sender:  s,
		uri:     uri,
		subject: subject,
		oneWay:  IsOneWay(uri),
	}, nil
}

// Close drains the NATS connection when the sender dialled it
func (s *NATSMessageSender) Close() error {
	if !s.ownsConn {
		return nil
	}
	if err := s.conn.Drain(); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
		s.conn.Close()
		return err
	}
	return nil
}

// natsSubject extracts the subject from nats:subject or nats://host/subject
func natsSubject(uri *url.URL) string {
	if uri.Opaque != "" {
		return uri.Opaque
	}
	return strings.TrimPrefix(uri.Path, "/")
}

type natsConnection struct {
	sender  *NATSMessageSender
	uri     *url.URL
	subject string
	oneWay  bool
	reply   *nats.Msg
}

func (c *natsConnection) URI() *url.URL { return c.uri }

// Send publishes the request, waiting for a reply unless the destination is one-way
func (c *natsConnection) Send(ctx context.Context, request message.Message) error {
	data, err := message.Encode(request)
	if err != nil {
		return err
	}

	msg := nats.NewMsg(c.subject)
	msg.Data = data
	msg.Header.Set(message.HeaderContentType, "application/json")
	msg.Header.Set(message.HeaderMessageID, request.ID())
	if action := request.Action(); action != "" {
		msg.Header.Set(message.HeaderAction, action)
	}

	reqCtx, cancel := c.withTimeout(ctx)
	defer cancel()

	if c.oneWay {
		if err := c.sender.conn.PublishMsg(msg); err != nil {
			return wserrors.MessageSendError("nats", c.subject, err)
		}
		if err := c.sender.conn.FlushWithContext(reqCtx); err != nil {
			return wserrors.MessageSendError("nats", c.subject, err)
		}
		return nil
	}

	reply, err := c.sender.conn.RequestMsgWithContext(reqCtx, msg)
	switch {
	case err == nil:
	case errors.Is(err, nats.ErrNoResponders):
		return wserrors.TransportError("nats", "request", err)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, nats.ErrTimeout):
		return wserrors.ConnectionTimeout("nats", c.subject, c.sender.requestTimeout)
	default:
		return wserrors.MessageSendError("nats", c.subject, err)
	}

	if c.sender.maxMessageSize > 0 && int64(len(reply.Data)) > c.sender.maxMessageSize {
		return wserrors.MessageTooLarge("nats", int64(len(reply.Data)), c.sender.maxMessageSize)
	}
	c.reply = reply
	c.sender.logger.Debug("NATS request answered",
		logging.String("subject", c.subject),
		logging.Int("bytes", len(reply.Data)))
	return nil
}

// withTimeout applies the request timeout when ctx has no deadline of its own
func (c *natsConnection) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.sender.requestTimeout)
}

// HasResponse reports whether a non-empty reply arrived
func (c *natsConnection) HasResponse() bool {
	return c.reply != nil && len(bytes.TrimSpace(c.reply.Data)) > 0
}

// Receive parses the reply
func (c *natsConnection) Receive(ctx context.Context, factory message.Factory) (message.Message, error) {
	if !c.HasResponse() {
		return nil, nil
	}
	resp, err := factory.ReadMessage(bytes.NewReader(c.reply.Data))
	if err != nil {
		return nil, wserrors.MessageReceiveError("nats", c.subject, err)
	}
	return resp, nil
}

// Close drops the reply; the shared NATS connection stays open
func (c *natsConnection) Close() error {
	c.reply = nil
	return nil
}
