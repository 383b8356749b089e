package auth_test

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/wsclient-go/pkg/auth"
	"github.com/ajitpratap0/wsclient-go/pkg/client"
	wserrors "github.com/ajitpratap0/wsclient-go/pkg/errors"
	"github.com/ajitpratap0/wsclient-go/pkg/message"
	"github.com/ajitpratap0/wsclient-go/pkg/transport"
)

// echoEndpoint records the headers of every request it serves
type echoEndpoint struct {
	mu      sync.Mutex
	headers []message.Header
}

func (e *echoEndpoint) handle(ctx context.Context, request message.Message) (message.Message, error) {
	e.mu.Lock()
	e.headers = append(e.headers, request.Header().Clone())
	e.mu.Unlock()

	reply := message.NewReply(request)
	if err := reply.SetPayload([]byte(`{"ok":true}`)); err != nil {
		return nil, err
	}
	return reply, nil
}

func (e *echoEndpoint) last() message.Header {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.headers) == 0 {
		return nil
	}
	return e.headers[len(e.headers)-1]
}

func newTemplate(t *testing.T, sender transport.MessageSender, opts ...client.Option) *client.Template {
	t.Helper()
	tpl, err := client.New(append([]client.Option{client.WithMessageSenders(sender)}, opts...)...)
	require.NoError(t, err)
	return tpl
}

// trackingSender counts the connections it opens and closes
type trackingSender struct {
	transport.MessageSender

	mu     sync.Mutex
	opened int
	closed int
}

type trackedConnection struct {
	transport.Connection
	sender *trackingSender
}

func (s *trackingSender) CreateConnection(ctx context.Context, uri *url.URL) (transport.Connection, error) {
	conn, err := s.MessageSender.CreateConnection(ctx, uri)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.opened++
	s.mu.Unlock()
	return &trackedConnection{Connection: conn, sender: s}, nil
}

func (c *trackedConnection) Close() error {
	c.sender.mu.Lock()
	c.sender.closed++
	c.sender.mu.Unlock()
	return c.Connection.Close()
}

func newEndpoint() (*transport.MemoryMessageSender, *echoEndpoint) {
	sender := transport.NewMemoryMessageSender()
	endpoint := &echoEndpoint{}
	sender.Handle("echo", endpoint.handle)
	return sender, endpoint
}

func TestBearerTokenProvider(t *testing.T) {
	sender, endpoint := newEndpoint()
	provider := auth.NewBearerTokenProvider(&auth.BearerTokenConfig{Token: "abc123"})
	tpl := newTemplate(t, sender, client.WithRequestCallbacks(auth.Callback(provider)))

	_, err := tpl.SendDocument(context.Background(), "mem:echo", []byte(`{"ping":{}}`))
	require.NoError(t, err)

	assert.Equal(t, "Bearer abc123", endpoint.last().Get(auth.HeaderAuthorization))
	assert.Equal(t, auth.TypeBearer, provider.Type())
}

func TestBearerTokenSource(t *testing.T) {
	fetches := 0
	source := func(ctx context.Context) (string, time.Time, error) {
		fetches++
		return "token-" + string(rune('0'+fetches)), time.Now().Add(time.Hour), nil
	}
	provider := auth.NewBearerTokenProvider(&auth.BearerTokenConfig{Source: source})

	token, err := provider.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "token-1", token)

	token, err = provider.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "token-1", token, "cached token is reused")
	assert.Equal(t, 1, fetches)

	provider.Invalidate()
	token, err = provider.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "token-2", token)
}

func TestBearerTokenRefreshesBeforeExpiry(t *testing.T) {
	fetches := 0
	source := func(ctx context.Context) (string, time.Time, error) {
		fetches++
		return "fresh", time.Now().Add(time.Hour), nil
	}
	provider := auth.NewBearerTokenProvider(&auth.BearerTokenConfig{
		Source:           source,
		RefreshThreshold: time.Minute,
	})
	provider.SetToken("stale", time.Now().Add(10*time.Second))

	token, err := provider.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fresh", token)
	assert.Equal(t, 1, fetches)
}

func TestBearerTokenErrors(t *testing.T) {
	t.Run("no token", func(t *testing.T) {
		provider := auth.NewBearerTokenProvider(nil)
		_, err := provider.Token(context.Background())
		assert.True(t, wserrors.IsCode(err, wserrors.CodeCredentials))
	})

	t.Run("expired static token", func(t *testing.T) {
		provider := auth.NewBearerTokenProvider(&auth.BearerTokenConfig{Token: "old"})
		provider.SetToken("old", time.Now().Add(-time.Minute))
		_, err := provider.Token(context.Background())
		require.Error(t, err)
		assert.True(t, errors.Is(err, auth.ErrTokenExpired))
	})

	t.Run("source failure", func(t *testing.T) {
		boom := errors.New("identity provider down")
		provider := auth.NewBearerTokenProvider(&auth.BearerTokenConfig{
			Source: func(context.Context) (string, time.Time, error) { return "", time.Time{}, boom },
		})
		_, err := provider.Token(context.Background())
		assert.True(t, errors.Is(err, boom))
		assert.True(t, wserrors.IsRetryableError(err))
	})

	t.Run("exchange aborted before send", func(t *testing.T) {
		sender, endpoint := newEndpoint()
		provider := auth.NewBearerTokenProvider(nil)
		tpl := newTemplate(t, sender, client.WithRequestCallbacks(auth.Callback(provider)))

		_, err := tpl.SendDocument(context.Background(), "mem:echo", []byte(`{}`))
		assert.True(t, wserrors.IsCode(err, wserrors.CodeCredentials))
		assert.Nil(t, endpoint.last(), "request never reached the endpoint")
	})

	t.Run("connection resolved before credentials", func(t *testing.T) {
		inner, endpoint := newEndpoint()
		sender := &trackingSender{MessageSender: inner}
		provider := auth.NewBearerTokenProvider(nil)
		tpl := newTemplate(t, sender, client.WithRequestCallbacks(auth.Callback(provider)))

		_, err := tpl.SendDocument(context.Background(), "mem:echo", []byte(`{}`))
		assert.True(t, wserrors.IsCode(err, wserrors.CodeCredentials))
		assert.Nil(t, endpoint.last())
		assert.Equal(t, 1, sender.opened)
		assert.Equal(t, 1, sender.closed, "the unused connection is released")
	})
}

func TestAPIKeyProvider(t *testing.T) {
	sender, endpoint := newEndpoint()
	provider := auth.NewAPIKeyProvider(&auth.APIKeyConfig{Key: "k-42"})
	custom := auth.NewAPIKeyProvider(&auth.APIKeyConfig{Key: "k-43", Header: "X-Tenant-Key"})
	tpl := newTemplate(t, sender, client.WithRequestCallbacks(auth.Callback(provider), auth.Callback(custom)))

	_, err := tpl.SendDocument(context.Background(), "mem:echo", []byte(`{}`))
	require.NoError(t, err)

	headers := endpoint.last()
	assert.Equal(t, "k-42", headers.Get(auth.HeaderAPIKey))
	assert.Equal(t, "k-43", headers.Get("X-Tenant-Key"))

	empty := auth.NewAPIKeyProvider(nil)
	err = empty.Apply(context.Background(), message.NewEnvelopeMessage("m"))
	assert.True(t, wserrors.IsCode(err, wserrors.CodeCredentials))
}

func TestNewProvider(t *testing.T) {
	tests := []struct {
		name     string
		config   auth.Config
		wantType string
		wantErr  int
	}{
		{"bearer", auth.Config{Type: "bearer", Token: "t"}, auth.TypeBearer, 0},
		{"bearer with expiry", auth.Config{Type: "bearer", Token: "t", TokenExpiry: time.Hour}, auth.TypeBearer, 0},
		{"bearer without token", auth.Config{Type: "bearer"}, "", wserrors.CodeMissingParameter},
		{"apikey", auth.Config{Type: "apikey", Key: "k"}, auth.TypeAPIKey, 0},
		{"apikey without key", auth.Config{Type: "apikey"}, "", wserrors.CodeMissingParameter},
		{"unknown", auth.Config{Type: "kerberos"}, "", wserrors.CodeInvalidParameter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider, err := auth.NewProvider(tt.config)
			if tt.wantErr != 0 {
				assert.True(t, wserrors.IsCode(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, provider.Type())
		})
	}
}

func TestRateLimitRejects(t *testing.T) {
	sender, _ := newEndpoint()
	limits := auth.NewRateLimitMiddleware(auth.RateLimitConfig{
		Enabled:           true,
		RequestsPerMinute: 1,
		BurstSize:         2,
	})
	tpl := newTemplate(t, limits.Wrap(sender))

	for i := 0; i < 2; i++ {
		_, err := tpl.SendDocument(context.Background(), "mem:echo", []byte(`{}`))
		require.NoError(t, err, "request %d is within the burst", i)
	}

	_, err := tpl.SendDocument(context.Background(), "mem:echo", []byte(`{}`))
	require.Error(t, err)
	assert.True(t, wserrors.IsCode(err, wserrors.CodeRateLimited))
	assert.False(t, wserrors.IsRetryableError(err))

	// a different destination has its own bucket
	sender.Handle("other", (&echoEndpoint{}).handle)
	_, err = tpl.SendDocument(context.Background(), "mem:other", []byte(`{}`))
	assert.NoError(t, err)
}

func TestRateLimitWaits(t *testing.T) {
	sender, endpoint := newEndpoint()
	limits := auth.NewRateLimitMiddleware(auth.RateLimitConfig{
		Enabled:           true,
		RequestsPerMinute: 6000,
		BurstSize:         1,
		Wait:              true,
	})
	tpl := newTemplate(t, limits.Wrap(sender))

	for i := 0; i < 3; i++ {
		_, err := tpl.SendDocument(context.Background(), "mem:echo", []byte(`{}`))
		require.NoError(t, err)
	}
	assert.Len(t, endpoint.headers, 3)
}

func TestRateLimitWaitRespectsDeadline(t *testing.T) {
	sender, _ := newEndpoint()
	limits := auth.NewRateLimitMiddleware(auth.RateLimitConfig{
		Enabled:           true,
		RequestsPerMinute: 1,
		BurstSize:         1,
		Wait:              true,
	})
	tpl := newTemplate(t, limits.Wrap(sender))

	_, err := tpl.SendDocument(context.Background(), "mem:echo", []byte(`{}`))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = tpl.SendDocument(ctx, "mem:echo", []byte(`{}`))
	require.Error(t, err)
	assert.True(t, wserrors.IsCode(err, wserrors.CodeRateLimited) || errors.Is(err, context.DeadlineExceeded), "got %v", err)
}

func TestRateLimitDisabled(t *testing.T) {
	sender, _ := newEndpoint()
	limits := auth.NewRateLimitMiddleware(auth.RateLimitConfig{RequestsPerMinute: 1, BurstSize: 1})
	assert.Same(t, sender, limits.Wrap(sender))
}

func TestRateLimitViaTransportConfig(t *testing.T) {
	sender, _ := newEndpoint()
	config := transport.Config{
		Middleware: []transport.Middleware{
			auth.NewRateLimitMiddleware(auth.RateLimitConfig{Enabled: true, RequestsPerMinute: 1, BurstSize: 1}),
		},
	}
	wrapped := transport.ChainMiddleware(transport.NewMiddlewareBuilder(config).Build()...).Wrap(sender)
	tpl := newTemplate(t, wrapped)

	_, err := tpl.SendDocument(context.Background(), "mem:echo", []byte(`{}`))
	require.NoError(t, err)
	_, err = tpl.SendDocument(context.Background(), "mem:echo", []byte(`{}`))
	assert.True(t, wserrors.IsCode(err, wserrors.CodeRateLimited), "got %v", err)
}
