package transport

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"sync"

	wserrors "github.com/ajitpratap0/wsclient-go/pkg/errors"
	"github.com/ajitpratap0/wsclient-go/pkg/message"
)

// Handler serves an in-process endpoint. Returning a nil message means the
// endpoint sends no response; returning an error simulates an I/O failure.
type Handler func(ctx context.Context, request message.Message) (message.Message, error)

// MemoryMessageSender routes mem:name destinations to in-process handlers.
// Requests and responses are encoded and parsed on the way through so
// that the same read and write paths as a network transport are exercised.
type MemoryMessageSender struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	codec    *message.EnvelopeFactory
}

// NewMemoryMessageSender creates an in-process sender with no endpoints
func NewMemoryMessageSender() *MemoryMessageSender {
	return &MemoryMessageSender{
		handlers: make(map[string]Handler),
		codec:    message.NewEnvelopeFactory(),
	}
}

// Handle binds a handler to an endpoint name, replacing any previous one
func (s *MemoryMessageSender) Handle(name string, handler Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[name] = handler
}

// Remove unbinds an endpoint name
func (s *MemoryMessageSender) Remove(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.handlers, name)
}

// Supports reports whether uri is a mem destination
func (s *MemoryMessageSender) Supports(uri *url.URL) bool {
	return schemeSupported(uri, "mem")
}

// CreateConnection looks up the endpoint bound to the destination name
func (s *MemoryMessageSender) CreateConnection(ctx context.Context, uri *url.URL) (Connection, error) {
	name := uri.Opaque
	if name == "" {
		name = uri.Host + uri.Path
	}
	if name == "" {
		return nil, wserrors.InvalidDestination(uri.String(), errMissingName)
	}

	s.mu.RLock()
	handler, ok := s.handlers[name]
	s.mu.RUnlock()
	if !ok {
		return nil, wserrors.ConnectionFailed("mem", uri.String(), fmt.Errorf("no endpoint bound to %q", name))
	}

	return &memoryConnection{sender: s, uri: uri, handler: handler}, nil
}

type memoryConnection struct {
	sender   *MemoryMessageSender
	uri      *url.URL
	handler  Handler
	response []byte
}

func (c *memoryConnection) URI() *url.URL { return c.uri }

// Send hands a decoded copy of the request to the handler
func (c *memoryConnection) Send(ctx context.Context, request message.Message) error {
	data, err := message.Encode(request)
	if err != nil {
		return err
	}
	received, err := c.sender.codec.ReadMessage(bytes.NewReader(data))
	if err != nil {
		return wserrors.MessageSendError("mem", c.uri.String(), err)
	}

	resp, err := c.handler(ctx, received)
	if err != nil {
		return wserrors.TransportError("mem", "send", err)
	}
	if resp == nil {
		return nil
	}

	encoded, err := message.Encode(resp)
	if err != nil {
		return wserrors.MessageReceiveError("mem", c.uri.String(), err)
	}
	c.response = encoded
	return nil
}

// HasResponse reports whether the handler produced a response
func (c *memoryConnection) HasResponse() bool {
	return c.response != nil
}

// Receive parses the handler's response with factory
func (c *memoryConnection) Receive(ctx context.Context, factory message.Factory) (message.Message, error) {
	if c.response == nil {
		return nil, nil
	}
	resp, err := factory.ReadMessage(bytes.NewReader(c.response))
	if err != nil {
		return nil, wserrors.MessageReceiveError("mem", c.uri.String(), err)
	}
	return resp, nil
}

// Close drops the buffered response
func (c *memoryConnection) Close() error {
	c.response = nil
	return nil
}
