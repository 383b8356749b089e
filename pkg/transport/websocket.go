package transport

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	wserrors "github.com/ajitpratap0/wsclient-go/pkg/errors"
	"github.com/ajitpratap0/wsclient-go/pkg/logging"
	"github.com/ajitpratap0/wsclient-go/pkg/message"
)

// closeGracePeriod bounds the wait for the peer to acknowledge a close frame
const closeGracePeriod = time.Second

// WebSocketMessageSender dials one WebSocket per exchange, writes the
// request as a text frame and reads a single frame back. Adding oneway=true
// to the query skips the read.
type WebSocketMessageSender struct {
	dialer         *websocket.Dialer
	headers        http.Header
	maxMessageSize int64
	logger         logging.Logger
}

// NewWebSocketMessageSender creates a WebSocket sender
func NewWebSocketMessageSender(config Config) *WebSocketMessageSender {
	logger := config.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	headers := http.Header{}
	for k, v := range config.HTTP.Headers {
		headers.Set(k, v)
	}
	return &WebSocketMessageSender{
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: config.WebSocket.HandshakeTimeout,
			ReadBufferSize:   config.WebSocket.ReadBufferSize,
			WriteBufferSize:  config.WebSocket.WriteBufferSize,
			Subprotocols:     config.WebSocket.Subprotocols,
		},
		headers:        headers,
		maxMessageSize: config.Connection.MaxMessageSize,
		logger:         logger.WithFields(logging.String("component", "WebSocketMessageSender")),
	}
}

// Supports reports whether uri is a ws or wss destination
func (s *WebSocketMessageSender) Supports(uri *url.URL) bool {
	return schemeSupported(uri, "ws", "wss")
}

// CreateConnection performs the WebSocket handshake
func (s *WebSocketMessageSender) CreateConnection(ctx context.Context, uri *url.URL) (Connection, error) {
	if uri.Host == "" {
		return nil, wserrors.InvalidDestination(uri.String(), errMissingHost)
	}

	target := *uri
	query := target.Query()
	query.Del("oneway")
	target.RawQuery = query.Encode()

	conn, resp, err := s.dialer.DialContext(ctx, target.String(), s.headers)
	if err != nil {
		if resp != nil {
			return nil, wserrors.HTTPTransportError("handshake", uri.String(), resp.StatusCode, err)
		}
		return nil, wserrors.ConnectionFailed("websocket", uri.String(), err)
	}
	if s.maxMessageSize > 0 {
		conn.SetReadLimit(s.maxMessageSize)
	}

	s.logger.Debug("WebSocket connected", logging.String("uri", uri.String()))
	return &webSocketConnection{
		sender: s,
		uri:    uri,
		conn:   conn,
		oneWay: IsOneWay(uri),
	}, nil
}

type webSocketConnection struct {
	sender    *WebSocketMessageSender
	uri       *url.URL
	conn      *websocket.Conn
	oneWay    bool
	closeOnce sync.Once
	closeErr  error
}

func (c *webSocketConnection) URI() *url.URL { return c.uri }

// Send writes the request as a single text frame
func (c *webSocketConnection) Send(ctx context.Context, request message.Message) error {
	data, err := message.Encode(request)
	if err != nil {
		return err
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = c.conn.SetWriteDeadline(deadline)
	}
	stop := context.AfterFunc(ctx, func() {
		_ = c.conn.SetWriteDeadline(time.Now())
	})
	defer stop()

	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return wserrors.MessageSendError("websocket", c.uri.String(), err)
	}
	return nil
}

// HasResponse reports whether a reply frame is expected
func (c *webSocketConnection) HasResponse() bool {
	return !c.oneWay
}

// Receive reads one frame and parses it
func (c *webSocketConnection) Receive(ctx context.Context, factory message.Factory) (message.Message, error) {
	if c.oneWay {
		return nil, nil
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = c.conn.SetReadDeadline(deadline)
	}
	stop := context.AfterFunc(ctx, func() {
		_ = c.conn.SetReadDeadline(time.Now())
	})
	defer stop()

	_, data, err := c.conn.ReadMessage()
	if err != nil {
		if ctx.Err() != nil {
			return nil, wserrors.MessageReceiveError("websocket", c.uri.String(), ctx.Err())
		}
		if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
			return nil, nil
		}
		if err == websocket.ErrReadLimit {
			return nil, wserrors.MessageTooLarge("websocket", c.sender.maxMessageSize+1, c.sender.maxMessageSize)
		}
		return nil, wserrors.MessageReceiveError("websocket", c.uri.String(), err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	resp, err := factory.ReadMessage(bytes.NewReader(data))
	if err != nil {
		return nil, wserrors.MessageReceiveError("websocket", c.uri.String(), err)
	}
	return resp, nil
}

// Close sends a close frame and releases the socket
func (c *webSocketConnection) Close() error {
	c.closeOnce.Do(func() {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeGracePeriod))
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}
