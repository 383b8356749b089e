package wstest

import (
	"github.com/ajitpratap0/wsclient-go/pkg/client"
	wserrors "github.com/ajitpratap0/wsclient-go/pkg/errors"
	"github.com/ajitpratap0/wsclient-go/pkg/logging"
	"github.com/ajitpratap0/wsclient-go/pkg/transport"
)

// TemplateHolder is anything that exposes the template it sends through,
// typically an application client built on client.Template
type TemplateHolder interface {
	Template() *client.Template
}

// ServerOption configures a MockServer
type ServerOption func(*MockServer)

// WithUnorderedExpectations lets a request match any unsatisfied
// expectation instead of only the next one in registration order
func WithUnorderedExpectations() ServerOption {
	return func(s *MockServer) {
		s.expectations.unordered = true
	}
}

// WithLogger sets the logger used to trace matching
func WithLogger(logger logging.Logger) ServerOption {
	return func(s *MockServer) {
		s.logger = logger
	}
}

// MockServer takes over a template's senders and answers its exchanges from
// a list of recorded expectations.
//
// A MockServer is not safe for concurrent exchanges: expectations are
// consumed in exchange order and tests must drive the template from a
// single goroutine.
type MockServer struct {
	template     *client.Template
	previous     transport.Senders
	expectations queue
	logger       logging.Logger

	// connection bookkeeping, read by tests
	opened int
	closed int
}

// CreateServer installs a mock sender on tpl. Every destination the
// template resolves afterwards is answered by the returned server.
func CreateServer(tpl *client.Template, opts ...ServerOption) *MockServer {
	s := &MockServer{
		template: tpl,
		previous: tpl.MessageSenders(),
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithFields(logging.String("component", "MockServer"))

	tpl.SetMessageSenders(&mockSender{server: s})
	return s
}

// CreateServerFor installs a mock sender on the template held by holder
func CreateServerFor(holder TemplateHolder, opts ...ServerOption) *MockServer {
	return CreateServer(holder.Template(), opts...)
}

// Expect records an expectation for the next request. A nil matcher
// accepts any request.
func (s *MockServer) Expect(matcher RequestMatcher) ResponseActions {
	return s.expectations.add(matcher)
}

// Verify fails with an assertion error listing every expectation that was
// never satisfied. It can be called any number of times.
func (s *MockServer) Verify() error {
	unmet := s.expectations.unmet()
	if len(unmet) == 0 {
		return nil
	}
	return wserrors.UnmetExpectations(unmet, len(s.expectations.entries))
}

// Reset drops all expectations. The mock sender stays installed.
func (s *MockServer) Reset() {
	s.expectations.reset()
}

// Close restores the senders the template had before CreateServer
func (s *MockServer) Close() {
	s.template.SetMessageSenders(s.previous...)
}
