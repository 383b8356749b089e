package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	wserrors "github.com/ajitpratap0/wsclient-go/pkg/errors"
	"github.com/ajitpratap0/wsclient-go/pkg/message"
)

// HeaderAuthorization carries bearer tokens
const HeaderAuthorization = "Authorization"

// ErrTokenExpired is returned when a static token has passed its expiry and
// there is no token source to replace it
var ErrTokenExpired = errors.New("token expired")

// TokenSource fetches a fresh token. A zero expiresAt means the token does
// not expire.
type TokenSource func(ctx context.Context) (token string, expiresAt time.Time, err error)

// BearerTokenConfig configures the bearer token provider
type BearerTokenConfig struct {
	// Token is a static token used until it expires or Source replaces it
	Token string

	// Source fetches tokens on demand
	Source TokenSource

	// RefreshThreshold refreshes a token this long before it expires
	// (default: 30 seconds)
	RefreshThreshold time.Duration

	// Header overrides the Authorization header
	Header string
}

// BearerTokenProvider writes "Bearer <token>" to the Authorization header.
// Tokens from a TokenSource are cached until they come within the refresh
// threshold of their expiry.
type BearerTokenProvider struct {
	mu        sync.Mutex
	token     string
	expiresAt time.Time

	source    TokenSource
	threshold time.Duration
	header    string
	now       func() time.Time
}

// NewBearerTokenProvider creates a new bearer token provider
func NewBearerTokenProvider(config *BearerTokenConfig) *BearerTokenProvider {
	if config == nil {
		config = &BearerTokenConfig{}
	}

	p := &BearerTokenProvider{
		token:     config.Token,
		source:    config.Source,
		threshold: config.RefreshThreshold,
		header:    config.Header,
		now:       time.Now,
	}
	if p.threshold == 0 {
		p.threshold = 30 * time.Second
	}
	if p.header == "" {
		p.header = HeaderAuthorization
	}
	return p
}

// Type returns the authentication type identifier
func (p *BearerTokenProvider) Type() string {
	return TypeBearer
}

// Apply sets the bearer token on request, fetching one if needed
func (p *BearerTokenProvider) Apply(ctx context.Context, request message.Message) error {
	token, err := p.Token(ctx)
	if err != nil {
		return err
	}
	request.Header().Set(p.header, "Bearer "+token)
	return nil
}

// Token returns the cached token or fetches a new one from the source
func (p *BearerTokenProvider) Token(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.token != "" && !p.expiring() {
		return p.token, nil
	}
	if p.source == nil {
		if p.token == "" {
			return "", wserrors.CredentialsUnavailable(TypeBearer, errors.New("no token configured"))
		}
		return "", wserrors.CredentialsUnavailable(TypeBearer, ErrTokenExpired)
	}

	token, expiresAt, err := p.source(ctx)
	if err != nil {
		return "", wserrors.CredentialsUnavailable(TypeBearer, err)
	}
	if token == "" {
		return "", wserrors.CredentialsUnavailable(TypeBearer, errors.New("token source returned an empty token"))
	}
	p.token = token
	p.expiresAt = expiresAt
	return token, nil
}

// SetToken replaces the cached token
func (p *BearerTokenProvider) SetToken(token string, expiresAt time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.token = token
	p.expiresAt = expiresAt
}

// Invalidate drops the cached token so the next request fetches a new one,
// typically after the endpoint rejected it
func (p *BearerTokenProvider) Invalidate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.source != nil {
		p.token = ""
		p.expiresAt = time.Time{}
	}
}

// expiring must be called with p.mu held
func (p *BearerTokenProvider) expiring() bool {
	if p.expiresAt.IsZero() {
		return false
	}
	return !p.now().Add(p.threshold).Before(p.expiresAt)
}
