package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	wserrors "github.com/ajitpratap0/wsclient-go/pkg/errors"
	"github.com/ajitpratap0/wsclient-go/pkg/logging"
	"github.com/ajitpratap0/wsclient-go/pkg/message"
)

// Connection carries exactly one request and at most one response.
// A Connection is single-use; the caller closes it once the exchange ends,
// on every exit path.
type Connection interface {
	// URI returns the destination this connection is bound to.
	URI() *url.URL

	// Send transmits the fully populated request. The request must not be
	// modified after Send returns.
	Send(ctx context.Context, request message.Message) error

	// HasResponse reports whether a response is available after Send.
	HasResponse() bool

	// Receive reads the response with factory. It returns (nil, nil) when
	// the transport legitimately has no response.
	Receive(ctx context.Context, factory message.Factory) (message.Message, error)

	// Close releases transport resources.
	Close() error
}

// MessageSender creates connections for the destinations it supports.
// Implementations must be safe for concurrent use.
type MessageSender interface {
	// Supports reports whether uri can be served by this sender.
	Supports(uri *url.URL) bool

	// CreateConnection opens a connection bound to uri.
	CreateConnection(ctx context.Context, uri *url.URL) (Connection, error)
}

// Senders is an ordered list of message senders. Registration order breaks
// ties when more than one sender supports a destination.
type Senders []MessageSender

// Resolve opens a connection with the first sender that supports uri
func (s Senders) Resolve(ctx context.Context, uri *url.URL) (Connection, error) {
	for _, sender := range s {
		if sender.Supports(uri) {
			return sender.CreateConnection(ctx, uri)
		}
	}
	return nil, wserrors.UnresolvedDestination(uri.String())
}

// Close closes every sender that holds resources of its own
func (s Senders) Close() error {
	var firstErr error
	for _, sender := range s {
		if c, ok := sender.(io.Closer); ok {
			if err := c.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// ParseDestination parses a destination URI. A destination must be absolute.
func ParseDestination(raw string) (*url.URL, error) {
	uri, err := url.Parse(raw)
	if err != nil {
		return nil, wserrors.InvalidDestination(raw, err)
	}
	if uri.Scheme == "" {
		return nil, wserrors.InvalidDestination(raw, fmt.Errorf("missing scheme"))
	}
	return uri, nil
}

// IsOneWay reports whether the destination asks for fire-and-forget delivery
// with the oneway=true query parameter.
func IsOneWay(uri *url.URL) bool {
	return strings.EqualFold(uri.Query().Get("oneway"), "true")
}

// schemeSupported reports whether uri uses one of schemes
func schemeSupported(uri *url.URL, schemes ...string) bool {
	for _, s := range schemes {
		if strings.EqualFold(uri.Scheme, s) {
			return true
		}
	}
	return false
}

// Errors
var (
	errMissingHost    = errors.New("destination has no host")
	errMissingSubject = errors.New("destination has no subject")
	errMissingName    = errors.New("destination has no endpoint name")
)

// SenderType identifies a message sender implementation
type SenderType string

const (
	SenderTypeHTTP      SenderType = "http"
	SenderTypeNATS      SenderType = "nats"
	SenderTypeWebSocket SenderType = "websocket"
	SenderTypeMemory    SenderType = "memory"
)

// Config is the unified configuration for message senders
type Config struct {
	// Type of sender to create
	Type SenderType `json:"type" yaml:"type"`

	// Feature configuration
	Features FeatureConfig `json:"features" yaml:"features"`

	// Component configurations
	Connection    ConnectionConfig    `json:"connection" yaml:"connection"`
	HTTP          HTTPConfig          `json:"http" yaml:"http"`
	NATS          NATSConfig          `json:"nats" yaml:"nats"`
	WebSocket     WebSocketConfig     `json:"websocket" yaml:"websocket"`
	Reliability   ReliabilityConfig   `json:"reliability" yaml:"reliability"`
	Observability ObservabilityConfig `json:"observability" yaml:"observability"`

	// Logger receives sender and middleware logs; nil discards them
	Logger logging.Logger `json:"-" yaml:"-"`

	// Metrics records transport events when observability is enabled
	Metrics MetricsRecorder `json:"-" yaml:"-"`

	// Middleware is applied inside the built-in middleware, closest to
	// the sender
	Middleware []Middleware `json:"-" yaml:"-"`
}

// FeatureConfig controls which middleware are enabled
type FeatureConfig struct {
	EnableReliability   bool `json:"enable_reliability" yaml:"enable_reliability"`
	EnableObservability bool `json:"enable_observability" yaml:"enable_observability"`
}

// ConnectionConfig for connection management
type ConnectionConfig struct {
	Timeout         time.Duration `json:"timeout" yaml:"timeout"`
	KeepAlive       time.Duration `json:"keep_alive" yaml:"keep_alive"`
	MaxIdleConns    int           `json:"max_idle_conns" yaml:"max_idle_conns"`
	MaxConnsPerHost int           `json:"max_conns_per_host" yaml:"max_conns_per_host"`
	IdleConnTimeout time.Duration `json:"idle_conn_timeout" yaml:"idle_conn_timeout"`
	MaxMessageSize  int64         `json:"max_message_size" yaml:"max_message_size"`
}

// HTTPConfig holds HTTP sender settings
type HTTPConfig struct {
	// Headers are added to every request
	Headers map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
}

// NATSConfig holds NATS sender settings
type NATSConfig struct {
	URL            string        `json:"url" yaml:"url"`
	Name           string        `json:"name,omitempty" yaml:"name,omitempty"`
	RequestTimeout time.Duration `json:"request_timeout" yaml:"request_timeout"`
}

// WebSocketConfig holds WebSocket sender settings
type WebSocketConfig struct {
	HandshakeTimeout time.Duration `json:"handshake_timeout" yaml:"handshake_timeout"`
	ReadBufferSize   int           `json:"read_buffer_size" yaml:"read_buffer_size"`
	WriteBufferSize  int           `json:"write_buffer_size" yaml:"write_buffer_size"`
	Subprotocols     []string      `json:"subprotocols,omitempty" yaml:"subprotocols,omitempty"`
}

// ReliabilityConfig for retry and resilience
type ReliabilityConfig struct {
	MaxRetries         int                  `json:"max_retries" yaml:"max_retries"`
	InitialRetryDelay  time.Duration        `json:"initial_retry_delay" yaml:"initial_retry_delay"`
	MaxRetryDelay      time.Duration        `json:"max_retry_delay" yaml:"max_retry_delay"`
	RetryBackoffFactor float64              `json:"retry_backoff_factor" yaml:"retry_backoff_factor"`
	CircuitBreaker     CircuitBreakerConfig `json:"circuit_breaker" yaml:"circuit_breaker"`
}

// CircuitBreakerConfig for circuit breaker pattern
type CircuitBreakerConfig struct {
	Enabled          bool          `json:"enabled" yaml:"enabled"`
	FailureThreshold int           `json:"failure_threshold" yaml:"failure_threshold"`
	SuccessThreshold int           `json:"success_threshold" yaml:"success_threshold"`
	Timeout          time.Duration `json:"timeout" yaml:"timeout"`
}

// ObservabilityConfig for metrics and logging
type ObservabilityConfig struct {
	EnableMetrics bool   `json:"enable_metrics" yaml:"enable_metrics"`
	EnableLogging bool   `json:"enable_logging" yaml:"enable_logging"`
	LogLevel      string `json:"log_level" yaml:"log_level"`
}

// NewMessageSender creates a message sender from configuration and wraps it
// in the configured middleware.
func NewMessageSender(config Config) (MessageSender, error) {
	if err := validateConfig(config); err != nil {
		return nil, err
	}
	if config.Logger == nil {
		config.Logger = logging.NewNop()
	}

	var base MessageSender
	var err error

	switch config.Type {
	case SenderTypeHTTP:
		base = NewHTTPMessageSender(config)
	case SenderTypeNATS:
		base, err = DialNATSMessageSender(config)
	case SenderTypeWebSocket:
		base = NewWebSocketMessageSender(config)
	case SenderTypeMemory:
		base = NewMemoryMessageSender()
	}
	if err != nil {
		return nil, err
	}

	middleware := NewMiddlewareBuilder(config).Build()
	return ChainMiddleware(middleware...).Wrap(base), nil
}

// validateConfig validates the sender configuration
func validateConfig(config Config) error {
	switch config.Type {
	case SenderTypeHTTP, SenderTypeWebSocket, SenderTypeMemory:
		return nil
	case SenderTypeNATS:
		if config.NATS.URL == "" {
			return wserrors.MissingParameter("nats.url")
		}
		return nil
	default:
		return wserrors.InvalidParameter("type", config.Type, "one of http, nats, websocket, memory")
	}
}

// DefaultConfig returns a sender configuration with sensible defaults
func DefaultConfig(senderType SenderType) Config {
	return Config{
		Type: senderType,
		Features: FeatureConfig{
			EnableReliability:   true,
			EnableObservability: true,
		},
		Connection: ConnectionConfig{
			Timeout:         30 * time.Second,
			KeepAlive:       30 * time.Second,
			MaxIdleConns:    100,
			MaxConnsPerHost: 10,
			IdleConnTimeout: 90 * time.Second,
			MaxMessageSize:  10 << 20,
		},
		NATS: NATSConfig{
			RequestTimeout: 5 * time.Second,
		},
		WebSocket: WebSocketConfig{
			HandshakeTimeout: 10 * time.Second,
			ReadBufferSize:   4096,
			WriteBufferSize:  4096,
		},
		Reliability: ReliabilityConfig{
			MaxRetries:         3,
			InitialRetryDelay:  100 * time.Millisecond,
			MaxRetryDelay:      5 * time.Second,
			RetryBackoffFactor: 2.0,
			CircuitBreaker: CircuitBreakerConfig{
				Enabled:          true,
				FailureThreshold: 5,
				SuccessThreshold: 2,
				Timeout:          30 * time.Second,
			},
		},
		Observability: ObservabilityConfig{
			EnableMetrics: true,
			EnableLogging: true,
			LogLevel:      "info",
		},
	}
}
