package transport

import (
	"context"
	"io"
	"net/url"

	"github.com/ajitpratap0/wsclient-go/pkg/message"
)

// Middleware wraps a message sender to add functionality such as
// reliability or observability without the engine knowing about it.
type Middleware interface {
	// Wrap wraps the given sender with middleware functionality
	Wrap(sender MessageSender) MessageSender
}

// MiddlewareFunc is an adapter to allow the use of ordinary functions as middleware
type MiddlewareFunc func(MessageSender) MessageSender

// Wrap implements the Middleware interface
func (f MiddlewareFunc) Wrap(s MessageSender) MessageSender {
	return f(s)
}

// ChainMiddleware chains multiple middleware together
func ChainMiddleware(middleware ...Middleware) Middleware {
	return MiddlewareFunc(func(sender MessageSender) MessageSender {
		// Apply middleware in reverse order so the first middleware is the outermost
		for i := len(middleware) - 1; i >= 0; i-- {
			sender = middleware[i].Wrap(sender)
		}
		return sender
	})
}

// middlewareSender is a base type for middleware implementations
type middlewareSender struct {
	next MessageSender
}

// Supports delegates to the wrapped sender
func (m *middlewareSender) Supports(uri *url.URL) bool {
	return m.next.Supports(uri)
}

// CreateConnection delegates to the wrapped sender
func (m *middlewareSender) CreateConnection(ctx context.Context, uri *url.URL) (Connection, error) {
	return m.next.CreateConnection(ctx, uri)
}

// Close closes the wrapped sender when it holds resources
func (m *middlewareSender) Close() error {
	if c, ok := m.next.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// middlewareConnection is a base type for connection wrappers
type middlewareConnection struct {
	next Connection
}

// URI delegates to the wrapped connection
func (m *middlewareConnection) URI() *url.URL {
	return m.next.URI()
}

// Send delegates to the wrapped connection
func (m *middlewareConnection) Send(ctx context.Context, request message.Message) error {
	return m.next.Send(ctx, request)
}

// HasResponse delegates to the wrapped connection
func (m *middlewareConnection) HasResponse() bool {
	return m.next.HasResponse()
}

// Receive delegates to the wrapped connection
func (m *middlewareConnection) Receive(ctx context.Context, factory message.Factory) (message.Message, error) {
	return m.next.Receive(ctx, factory)
}

// Close delegates to the wrapped connection
func (m *middlewareConnection) Close() error {
	return m.next.Close()
}

// MiddlewareBuilder builds middleware from configuration
type MiddlewareBuilder struct {
	config Config
}

// NewMiddlewareBuilder creates a new middleware builder
func NewMiddlewareBuilder(config Config) *MiddlewareBuilder {
	return &MiddlewareBuilder{config: config}
}

// Build constructs the middleware chain based on configuration
func (mb *MiddlewareBuilder) Build() []Middleware {
	var middleware []Middleware

	// First is outermost; observability sits inside reliability so that
	// every connection attempt is recorded.
	if mb.config.Features.EnableReliability {
		middleware = append(middleware, NewReliabilityMiddleware(mb.config.Reliability, mb.config.Logger))
	}

	if mb.config.Features.EnableObservability {
		middleware = append(middleware, NewObservabilityMiddleware(mb.config.Observability, mb.config.Logger, mb.config.Metrics))
	}

	middleware = append(middleware, mb.config.Middleware...)

	return middleware
}
