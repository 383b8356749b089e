package transport

import (
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	wserrors "github.com/ajitpratap0/wsclient-go/pkg/errors"
	"github.com/ajitpratap0/wsclient-go/pkg/logging"
	"github.com/ajitpratap0/wsclient-go/pkg/message"
)

// ReliabilityMiddleware retries connection establishment and trips a
// circuit breaker per destination host. A request is never resent once
// Send has been attempted: the peer may already have acted on it.
type ReliabilityMiddleware struct {
	config   ReliabilityConfig
	logger   logging.Logger
	mu       sync.Mutex
	breakers map[string]*circuitBreaker
}

// NewReliabilityMiddleware creates a new reliability middleware
func NewReliabilityMiddleware(config ReliabilityConfig, logger logging.Logger) *ReliabilityMiddleware {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &ReliabilityMiddleware{
		config:   config,
		logger:   logger.WithFields(logging.String("component", "ReliabilityMiddleware")),
		breakers: make(map[string]*circuitBreaker),
	}
}

// Wrap implements the Middleware interface
func (rm *ReliabilityMiddleware) Wrap(sender MessageSender) MessageSender {
	return &reliabilitySender{
		middlewareSender: middlewareSender{next: sender},
		middleware:       rm,
	}
}

// breakerFor returns the circuit breaker guarding uri, or nil when disabled
func (rm *ReliabilityMiddleware) breakerFor(uri *url.URL) *circuitBreaker {
	if !rm.config.CircuitBreaker.Enabled {
		return nil
	}
	key := uri.Scheme + "://" + uri.Host
	if uri.Host == "" {
		key = uri.Scheme + ":" + uri.Opaque
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()
	cb, ok := rm.breakers[key]
	if !ok {
		cb = newCircuitBreaker(rm.config.CircuitBreaker)
		rm.breakers[key] = cb
	}
	return cb
}

// newBackOff builds the retry schedule for one connection attempt sequence
func (rm *ReliabilityMiddleware) newBackOff(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	if rm.config.InitialRetryDelay > 0 {
		exp.InitialInterval = rm.config.InitialRetryDelay
	}
	if rm.config.MaxRetryDelay > 0 {
		exp.MaxInterval = rm.config.MaxRetryDelay
	}
	if rm.config.RetryBackoffFactor >= 1 {
		exp.Multiplier = rm.config.RetryBackoffFactor
	}
	exp.RandomizationFactor = 0.1
	exp.MaxElapsedTime = 0
	exp.Reset()

	maxRetries := rm.config.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(maxRetries)), ctx)
}

// reliabilitySender wraps a sender with reliability features
type reliabilitySender struct {
	middlewareSender
	middleware *ReliabilityMiddleware
}

// CreateConnection retries the wrapped CreateConnection on retryable errors
func (rs *reliabilitySender) CreateConnection(ctx context.Context, uri *url.URL) (Connection, error) {
	rm := rs.middleware
	cb := rm.breakerFor(uri)

	if cb != nil && !cb.canMakeCall() {
		return nil, wserrors.CircuitOpen(uri.String()).WithContext(&wserrors.Context{
			URI:       uri.String(),
			Component: "ReliabilityMiddleware",
			Operation: "circuit_breaker_check",
		})
	}

	attempt := 0
	operation := func() (Connection, error) {
		attempt++
		conn, err := rs.middlewareSender.CreateConnection(ctx, uri)
		if err == nil {
			return conn, nil
		}
		if !isRetryableConnectError(err) {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}

	notify := func(err error, delay time.Duration) {
		rm.logger.Warn("Retrying connection",
			logging.String("uri", uri.String()),
			logging.Int("attempt", attempt),
			logging.Duration("delay", delay),
			logging.ErrorField(err))
	}

	conn, err := backoff.RetryNotifyWithData(operation, rm.newBackOff(ctx), notify)
	if err != nil {
		if cb != nil {
			cb.recordFailure()
		}
		return nil, err
	}

	if cb == nil {
		return conn, nil
	}
	return &reliabilityConnection{middlewareConnection: middlewareConnection{next: conn}, breaker: cb}, nil
}

// isRetryableConnectError determines if a connection error should trigger a retry
func isRetryableConnectError(err error) bool {
	if err == nil {
		return false
	}
	if wserrors.IsUnresolvedDestination(err) || wserrors.IsConfigurationError(err) {
		return false
	}
	return wserrors.IsRetryableError(err)
}

// reliabilityConnection feeds send outcomes to the circuit breaker
type reliabilityConnection struct {
	middlewareConnection
	breaker *circuitBreaker
}

// Send records transport failures with the circuit breaker
func (rc *reliabilityConnection) Send(ctx context.Context, request message.Message) error {
	err := rc.middlewareConnection.Send(ctx, request)
	if err != nil && wserrors.IsTransportError(err) {
		rc.breaker.recordFailure()
		return err
	}
	rc.breaker.recordSuccess()
	return err
}

// circuitBreaker implements a simple circuit breaker
type circuitBreaker struct {
	config    CircuitBreakerConfig
	state     circuitState
	failures  int
	successes int
	lastError time.Time
	mu        sync.Mutex
}

type circuitState int

const (
	circuitClosed circuitState = iota
	circuitOpen
	circuitHalfOpen
)

func newCircuitBreaker(config CircuitBreakerConfig) *circuitBreaker {
	return &circuitBreaker{
		config: config,
		state:  circuitClosed,
	}
}

func (cb *circuitBreaker) canMakeCall() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case circuitClosed:
		return true
	case circuitOpen:
		if time.Since(cb.lastError) > cb.config.Timeout {
			cb.state = circuitHalfOpen
			cb.successes = 0
			return true
		}
		return false
	case circuitHalfOpen:
		return true
	}

	return false
}

func (cb *circuitBreaker) recordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures = 0

	if cb.state == circuitHalfOpen {
		cb.successes++
		if cb.successes >= cb.config.SuccessThreshold {
			cb.state = circuitClosed
		}
	}
}

func (cb *circuitBreaker) recordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.lastError = time.Now()
	cb.failures++

	if cb.state == circuitHalfOpen {
		cb.state = circuitOpen
		return
	}

	if cb.failures >= cb.config.FailureThreshold {
		cb.state = circuitOpen
	}
}

func (cb *circuitBreaker) currentState() circuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}
