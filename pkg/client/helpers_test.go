package client

import (
	"context"
	"encoding/json"
	"net/url"
	"sync"
	"testing"

	"github.com/ajitpratap0/wsclient-go/pkg/message"
	"github.com/ajitpratap0/wsclient-go/pkg/transport"
)

// exchangeScript decides how every connection of a recordingSender behaves
type exchangeScript struct {
	sendErr    error
	receiveErr error
	// respond builds the response; nil means the destination never answers
	respond func(request message.Message) message.Message
}

// recordingSender counts connections and records what was sent through them
type recordingSender struct {
	scheme string
	script exchangeScript

	mu       sync.Mutex
	opened   int
	closed   int
	uris     []string
	requests []message.Message
	sendCtxs []context.Context
	shutdown bool
}

func newRecordingSender(script exchangeScript) *recordingSender {
	return &recordingSender{scheme: "test", script: script}
}

func (s *recordingSender) Supports(uri *url.URL) bool { return uri.Scheme == s.scheme }

func (s *recordingSender) CreateConnection(ctx context.Context, uri *url.URL) (transport.Connection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opened++
	s.uris = append(s.uris, uri.String())
	return &recordingConnection{sender: s, uri: uri}, nil
}

func (s *recordingSender) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shutdown = true
	return nil
}

func (s *recordingSender) counts() (opened, closed int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opened, s.closed
}

func (s *recordingSender) lastRequest() message.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return nil
	}
	return s.requests[len(s.requests)-1]
}

type recordingConnection struct {
	sender  *recordingSender
	uri     *url.URL
	request message.Message
	closes  int
}

func (c *recordingConnection) URI() *url.URL { return c.uri }

func (c *recordingConnection) Send(ctx context.Context, request message.Message) error {
	c.sender.mu.Lock()
	c.sender.requests = append(c.sender.requests, request)
	c.sender.sendCtxs = append(c.sender.sendCtxs, ctx)
	c.sender.mu.Unlock()

	c.request = request
	return c.sender.script.sendErr
}

func (c *recordingConnection) HasResponse() bool {
	return c.request != nil && c.sender.script.sendErr == nil && c.sender.script.respond != nil
}

func (c *recordingConnection) Receive(ctx context.Context, factory message.Factory) (message.Message, error) {
	if c.sender.script.receiveErr != nil {
		return nil, c.sender.script.receiveErr
	}
	if !c.HasResponse() {
		return nil, nil
	}
	return c.sender.script.respond(c.request), nil
}

func (c *recordingConnection) Close() error {
	c.closes++
	c.sender.mu.Lock()
	c.sender.closed++
	c.sender.mu.Unlock()
	return nil
}

// replyWith answers with a fixed payload
func replyWith(payload string) func(message.Message) message.Message {
	return func(request message.Message) message.Message {
		reply := message.NewReply(request)
		_ = reply.SetPayload(json.RawMessage(payload))
		return reply
	}
}

// echo answers with the request payload
func echo(request message.Message) message.Message {
	reply := message.NewReply(request)
	_ = reply.SetPayload(request.Payload())
	return reply
}

// faultWith answers with a fault
func faultWith(code message.FaultCode, reason string) func(message.Message) message.Message {
	return func(request message.Message) message.Message {
		reply := message.NewReply(request)
		reply.SetFault(&message.Fault{Code: code, Reason: reason})
		return reply
	}
}

func newTemplate(t *testing.T, sender transport.MessageSender, options ...Option) *Template {
	t.Helper()
	opts := append([]Option{WithDefaultURI("test:endpoint"), WithMessageSenders(sender)}, options...)
	tpl, err := New(opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return tpl
}

// payloadOf extracts the raw response body
func payloadOf(ctx context.Context, response message.Message) (interface{}, error) {
	return string(response.Payload()), nil
}

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	uri, err := transport.ParseDestination(raw)
	if err != nil {
		t.Fatalf("ParseDestination: %v", err)
	}
	return uri
}
