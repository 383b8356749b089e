package transport

import (
	"context"
	"net/url"
	"time"

	"github.com/ajitpratap0/wsclient-go/pkg/logging"
	"github.com/ajitpratap0/wsclient-go/pkg/message"
)

// Transport events reported to a MetricsRecorder
const (
	EventOpen    = "open"
	EventSend    = "send"
	EventReceive = "receive"
	EventClose   = "close"
)

// MetricsRecorder receives timing for every transport event. A nil error
// means the event succeeded.
type MetricsRecorder interface {
	RecordTransportEvent(ctx context.Context, scheme, event string, duration time.Duration, err error)
}

// ObservabilityMiddleware adds logging and metrics to connection lifecycles
type ObservabilityMiddleware struct {
	config  ObservabilityConfig
	logger  logging.Logger
	metrics MetricsRecorder
}

// NewObservabilityMiddleware creates a new observability middleware
func NewObservabilityMiddleware(config ObservabilityConfig, logger logging.Logger, metrics MetricsRecorder) *ObservabilityMiddleware {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logger.WithFields(logging.String("component", "ObservabilityMiddleware"))
	if config.LogLevel != "" {
		logger.SetLevel(parseLevel(config.LogLevel))
	}

	return &ObservabilityMiddleware{
		config:  config,
		logger:  logger,
		metrics: metrics,
	}
}

// Wrap implements the Middleware interface
func (om *ObservabilityMiddleware) Wrap(sender MessageSender) MessageSender {
	return &observabilitySender{
		middlewareSender: middlewareSender{next: sender},
		middleware:       om,
	}
}

// observe logs and records one transport event
func (om *ObservabilityMiddleware) observe(ctx context.Context, uri *url.URL, event string, start time.Time, err error) {
	duration := time.Since(start)

	if om.config.EnableLogging {
		logger := om.logger.WithContext(ctx)
		fields := []logging.Field{
			logging.String("event", event),
			logging.String("uri", uri.String()),
			logging.Duration("duration", duration),
		}
		if err != nil {
			logger.WithError(err).Warn("Transport event failed", fields...)
		} else {
			logger.Debug("Transport event completed", fields...)
		}
	}

	if om.config.EnableMetrics && om.metrics != nil {
		om.metrics.RecordTransportEvent(ctx, uri.Scheme, event, duration, err)
	}
}

// observabilitySender wraps a sender with observability features
type observabilitySender struct {
	middlewareSender
	middleware *ObservabilityMiddleware
}

// CreateConnection observes connection establishment
func (s *observabilitySender) CreateConnection(ctx context.Context, uri *url.URL) (Connection, error) {
	start := time.Now()
	conn, err := s.middlewareSender.CreateConnection(ctx, uri)
	s.middleware.observe(ctx, uri, EventOpen, start, err)
	if err != nil {
		return nil, err
	}
	return &observabilityConnection{
		middlewareConnection: middlewareConnection{next: conn},
		middleware:           s.middleware,
		ctx:                  ctx,
	}, nil
}

// observabilityConnection observes send, receive and close
type observabilityConnection struct {
	middlewareConnection
	middleware *ObservabilityMiddleware
	ctx        context.Context
}

// Send observes the wrapped Send
func (oc *observabilityConnection) Send(ctx context.Context, request message.Message) error {
	start := time.Now()
	err := oc.middlewareConnection.Send(ctx, request)
	oc.middleware.observe(ctx, oc.URI(), EventSend, start, err)
	return err
}

// Receive observes the wrapped Receive
func (oc *observabilityConnection) Receive(ctx context.Context, factory message.Factory) (message.Message, error) {
	start := time.Now()
	resp, err := oc.middlewareConnection.Receive(ctx, factory)
	oc.middleware.observe(ctx, oc.URI(), EventReceive, start, err)
	return resp, err
}

// Close observes the wrapped Close
func (oc *observabilityConnection) Close() error {
	start := time.Now()
	err := oc.middlewareConnection.Close()
	oc.middleware.observe(oc.ctx, oc.URI(), EventClose, start, err)
	return err
}

// parseLevel maps a configured level name to a logging level
func parseLevel(level string) logging.Level {
	switch level {
	case "debug":
		return logging.DebugLevel
	case "warn", "warning":
		return logging.WarnLevel
	case "error":
		return logging.ErrorLevel
	default:
		return logging.InfoLevel
	}
}
