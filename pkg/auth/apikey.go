package auth

import (
	"context"
	"errors"

	wserrors "github.com/ajitpratap0/wsclient-go/pkg/errors"
	"github.com/ajitpratap0/wsclient-go/pkg/message"
)

// HeaderAPIKey is the default header carrying the API key
const HeaderAPIKey = "X-API-Key"

// APIKeyConfig configures the API key provider
type APIKeyConfig struct {
	// Key is sent verbatim on every request
	Key string

	// Header overrides X-API-Key
	Header string
}

// APIKeyProvider writes a fixed API key to a request header
type APIKeyProvider struct {
	key    string
	header string
}

// NewAPIKeyProvider creates a new API key provider
func NewAPIKeyProvider(config *APIKeyConfig) *APIKeyProvider {
	if config == nil {
		config = &APIKeyConfig{}
	}

	header := config.Header
	if header == "" {
		header = HeaderAPIKey
	}
	return &APIKeyProvider{key: config.Key, header: header}
}

// Type returns the authentication type identifier
func (p *APIKeyProvider) Type() string {
	return TypeAPIKey
}

// Apply sets the API key header on request
func (p *APIKeyProvider) Apply(ctx context.Context, request message.Message) error {
	if p.key == "" {
		return wserrors.CredentialsUnavailable(TypeAPIKey, errors.New("API key required"))
	}
	request.Header().Set(p.header, p.key)
	return nil
}
