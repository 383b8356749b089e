package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/ajitpratap0/wsclient-go/pkg/message"
)

// envelopeServer is an HTTP endpoint that records posted envelopes and
// answers with a configurable status and body.
type envelopeServer struct {
	*httptest.Server
	mu       sync.Mutex
	requests []*http.Request
	bodies   [][]byte
	status   int
	reply    func(req message.Message) []byte
}

func newEnvelopeServer(t *testing.T) *envelopeServer {
	t.Helper()
	s := &envelopeServer{status: http.StatusOK}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)
	return s
}

func (s *envelopeServer) handle(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	s.mu.Lock()
	s.requests = append(s.requests, r)
	s.bodies = append(s.bodies, body)
	status, reply := s.status, s.reply
	s.mu.Unlock()

	var out []byte
	if reply != nil {
		req, err := message.NewEnvelopeFactory().ReadMessage(bytes.NewReader(body))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		out = reply(req)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(out)
}

func (s *envelopeServer) respond(status int, reply func(req message.Message) []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
	s.reply = reply
}

func (s *envelopeServer) lastRequest() *http.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return nil
	}
	return s.requests[len(s.requests)-1]
}

// echoReply answers with the request payload wrapped as {"echo": ...}
func echoReply(req message.Message) []byte {
	reply := message.NewReply(req)
	_ = reply.SetPayload(json.RawMessage(`{"echo":` + string(req.Payload()) + `}`))
	data, _ := message.Encode(reply)
	return data
}

// faultReply answers with a server fault envelope
func faultReply(req message.Message) []byte {
	reply := message.NewReply(req)
	reply.SetFault(&message.Fault{Code: message.FaultServer, Reason: "boom"})
	data, _ := message.Encode(reply)
	return data
}

// newRequest builds a request with an action and payload
func newRequest(t *testing.T, action, payload string) message.Message {
	t.Helper()
	req := message.NewEnvelopeFactory().CreateMessage()
	req.SetAction(action)
	if payload != "" {
		AssertNoError(t, req.SetPayload(json.RawMessage(payload)), "SetPayload")
	}
	return req
}

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	uri, err := ParseDestination(raw)
	AssertNoError(t, err, "ParseDestination")
	return uri
}

// fakeSender is a scriptable MessageSender
type fakeSender struct {
	mu         sync.Mutex
	scheme     string
	createErrs []error
	sendErr    error
	creates    int
	conns      []*fakeConnection
	closed     bool
}

func (f *fakeSender) Supports(uri *url.URL) bool { return uri.Scheme == f.scheme }

func (f *fakeSender) CreateConnection(ctx context.Context, uri *url.URL) (Connection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	if len(f.createErrs) > 0 {
		err := f.createErrs[0]
		f.createErrs = f.createErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	conn := &fakeConnection{uri: uri, sendErr: f.sendErr}
	f.conns = append(f.conns, conn)
	return conn, nil
}

func (f *fakeSender) Close() error {
	f.closed = true
	return nil
}

func (f *fakeSender) createCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.creates
}

// fakeConnection answers every request with an empty reply
type fakeConnection struct {
	uri     *url.URL
	sendErr error
	sent    message.Message
	closes  int
}

func (c *fakeConnection) URI() *url.URL { return c.uri }

func (c *fakeConnection) Send(ctx context.Context, request message.Message) error {
	c.sent = request
	return c.sendErr
}

func (c *fakeConnection) HasResponse() bool { return c.sent != nil && c.sendErr == nil }

func (c *fakeConnection) Receive(ctx context.Context, factory message.Factory) (message.Message, error) {
	if !c.HasResponse() {
		return nil, nil
	}
	return message.NewReply(c.sent), nil
}

func (c *fakeConnection) Close() error {
	c.closes++
	return nil
}

// recordedEvent is one call to a MetricsRecorder
type recordedEvent struct {
	scheme string
	event  string
	failed bool
}

type fakeRecorder struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (r *fakeRecorder) RecordTransportEvent(ctx context.Context, scheme, event string, duration time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{scheme: scheme, event: event, failed: err != nil})
}

// AssertNoError fails the test if err is not nil
func AssertNoError(t *testing.T, err error, msg string) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s: %v", msg, err)
	}
}

// AssertError fails the test if err is nil
func AssertError(t *testing.T, err error, msg string) {
	t.Helper()
	if err == nil {
		t.Fatalf("%s: expected error but got nil", msg)
	}
}

// WaitForCondition waits for a condition to be true or times out
func WaitForCondition(t *testing.T, timeout time.Duration, check func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if check() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("Timeout waiting for condition: %s", msg)
}
