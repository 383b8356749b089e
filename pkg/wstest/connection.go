package wstest

import (
	"context"
	"net/url"

	"github.com/ajitpratap0/wsclient-go/pkg/logging"
	"github.com/ajitpratap0/wsclient-go/pkg/message"
	"github.com/ajitpratap0/wsclient-go/pkg/transport"
)

// scheme names the mock transport in errors
const scheme = "mock"

// mockSender accepts every destination and hands out connections backed by
// the server's expectations
type mockSender struct {
	server *MockServer
}

func (m *mockSender) Supports(*url.URL) bool { return true }

func (m *mockSender) CreateConnection(ctx context.Context, uri *url.URL) (transport.Connection, error) {
	m.server.opened++
	return &mockConnection{server: m.server, uri: uri}, nil
}

func (m *mockSender) Close() error { return nil }

// mockConnection matches the request on Send and runs the creator on Receive
type mockConnection struct {
	server  *MockServer
	uri     *url.URL
	request message.Message
	creator ResponseCreator
	closed  bool
}

func (c *mockConnection) URI() *url.URL { return c.uri }

func (c *mockConnection) Send(ctx context.Context, request message.Message) error {
	c.request = request
	e, err := c.server.expectations.match(c.uri, request)
	if err != nil {
		c.server.logger.Debug("Request did not match",
			logging.String("uri", c.uri.String()),
			logging.ErrorField(err))
		return err
	}
	c.creator = e.creator
	c.server.logger.Debug("Request matched",
		logging.String("uri", c.uri.String()),
		logging.String("message_id", request.ID()))
	return nil
}

func (c *mockConnection) HasResponse() bool {
	if c.creator == nil {
		return false
	}
	_, none := c.creator.(noResponse)
	return !none
}

func (c *mockConnection) Receive(ctx context.Context, factory message.Factory) (message.Message, error) {
	if !c.HasResponse() {
		return nil, nil
	}
	return c.creator.CreateResponse(c.uri, c.request, factory)
}

func (c *mockConnection) Close() error {
	if !c.closed {
		c.closed = true
		c.server.closed++
	}
	return nil
}
