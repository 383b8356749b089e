package auth

import (
	"context"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"

	wserrors "github.com/ajitpratap0/wsclient-go/pkg/errors"
	"github.com/ajitpratap0/wsclient-go/pkg/transport"
)

// RateLimitConfig bounds how often connections may be opened to a single
// destination.
type RateLimitConfig struct {
	Enabled           bool `json:"enabled" yaml:"enabled"`
	RequestsPerMinute int  `json:"requests_per_minute" yaml:"requests_per_minute"`
	BurstSize         int  `json:"burst_size" yaml:"burst_size"`

	// Wait blocks until a token is available instead of failing with a
	// RateLimited error
	Wait bool `json:"wait,omitempty" yaml:"wait,omitempty"`

	// IdleTimeout drops the limiter of a destination unused for this long
	// (default: 10 minutes)
	IdleTimeout time.Duration `json:"idle_timeout,omitempty" yaml:"idle_timeout,omitempty"`
}

// RateLimitMiddleware applies a token bucket per destination before a
// connection is opened. It plugs into transport.Config.Middleware.
type RateLimitMiddleware struct {
	config RateLimitConfig

	mu        sync.Mutex
	limiters  map[string]*limiterEntry
	lastPrune time.Time
	now       func() time.Time
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastUsed time.Time
}

var _ transport.Middleware = (*RateLimitMiddleware)(nil)

// NewRateLimitMiddleware creates a new rate limiting middleware
func NewRateLimitMiddleware(config RateLimitConfig) *RateLimitMiddleware {
	if config.RequestsPerMinute <= 0 {
		config.RequestsPerMinute = 60
	}
	if config.BurstSize <= 0 {
		config.BurstSize = 10
	}
	if config.IdleTimeout <= 0 {
		config.IdleTimeout = 10 * time.Minute
	}

	return &RateLimitMiddleware{
		config:   config,
		limiters: make(map[string]*limiterEntry),
		now:      time.Now,
	}
}

// Wrap implements the Middleware interface
func (m *RateLimitMiddleware) Wrap(sender transport.MessageSender) transport.MessageSender {
	if !m.config.Enabled {
		return sender
	}
	return &rateLimitedSender{next: sender, limits: m}
}

// Allow reserves a token for uri. In wait mode it blocks until the token is
// available or ctx is done.
func (m *RateLimitMiddleware) Allow(ctx context.Context, uri *url.URL) error {
	key := rateLimitKey(uri)
	limiter := m.limiter(key)

	if m.config.Wait {
		if err := limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return wserrors.RateLimited(key, 0)
		}
		return nil
	}

	reservation := limiter.ReserveN(m.now(), 1)
	if !reservation.OK() {
		return wserrors.RateLimited(key, 0)
	}
	if delay := reservation.DelayFrom(m.now()); delay > 0 {
		reservation.CancelAt(m.now())
		return wserrors.RateLimited(key, delay)
	}
	return nil
}

func (m *RateLimitMiddleware) limiter(key string) *rate.Limiter {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if now.Sub(m.lastPrune) > m.config.IdleTimeout {
		for k, e := range m.limiters {
			if now.Sub(e.lastUsed) > m.config.IdleTimeout {
				delete(m.limiters, k)
			}
		}
		m.lastPrune = now
	}

	e, ok := m.limiters[key]
	if !ok {
		perSecond := rate.Limit(float64(m.config.RequestsPerMinute) / 60.0)
		e = &limiterEntry{limiter: rate.NewLimiter(perSecond, m.config.BurstSize)}
		m.limiters[key] = e
	}
	e.lastUsed = now
	return e.limiter
}

// rateLimitKey groups destinations by host, or by the opaque part for
// schemes like nats:subject
func rateLimitKey(uri *url.URL) string {
	switch {
	case uri.Host != "":
		return uri.Scheme + "://" + uri.Host
	case uri.Opaque != "":
		return uri.Scheme + ":" + uri.Opaque
	default:
		return uri.String()
	}
}

type rateLimitedSender struct {
	next   transport.MessageSender
	limits *RateLimitMiddleware
}

func (s *rateLimitedSender) Supports(uri *url.URL) bool {
	return s.next.Supports(uri)
}

func (s *rateLimitedSender) CreateConnection(ctx context.Context, uri *url.URL) (transport.Connection, error) {
	if err := s.limits.Allow(ctx, uri); err != nil {
		return nil, err
	}
	return s.next.CreateConnection(ctx, uri)
}

func (s *rateLimitedSender) Close() error {
	if c, ok := s.next.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
