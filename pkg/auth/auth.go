// Package auth attaches credentials to outgoing requests and throttles the
// rate at which connections are opened.
//
// Credentials travel as message headers, so they reach the endpoint on
// every transport that carries the envelope:
//
//	provider := auth.NewBearerTokenProvider(&auth.BearerTokenConfig{Token: token})
//	tpl, err := client.New(client.WithRequestCallbacks(auth.Callback(provider)))
package auth

import (
	"context"
	"time"

	wserrors "github.com/ajitpratap0/wsclient-go/pkg/errors"
	"github.com/ajitpratap0/wsclient-go/pkg/message"
)

// Provider adds credentials to a request before it is sent.
type Provider interface {
	// Apply sets the provider's credential on request
	Apply(ctx context.Context, request message.Message) error

	// Type returns the authentication type identifier
	Type() string
}

// Callback adapts p to the request callback signature used by
// client.WithRequestCallbacks
func Callback(p Provider) func(ctx context.Context, request message.Message) error {
	return p.Apply
}

// Authentication types
const (
	TypeBearer = "bearer"
	TypeAPIKey = "apikey"
)

// Config selects and configures a provider from a configuration file.
type Config struct {
	// Type is either "bearer" or "apikey"
	Type string `json:"type" yaml:"type"`

	// Token is the static bearer token
	Token string `json:"token,omitempty" yaml:"token,omitempty"`

	// TokenExpiry bounds how long a static token is used before it is
	// reported as expired. Zero means it never expires.
	TokenExpiry time.Duration `json:"token_expiry,omitempty" yaml:"token_expiry,omitempty"`

	// Key is the API key
	Key string `json:"key,omitempty" yaml:"key,omitempty"`

	// Header overrides the header the credential is written to
	Header string `json:"header,omitempty" yaml:"header,omitempty"`
}

// NewProvider builds the provider named by config.Type
func NewProvider(config Config) (Provider, error) {
	switch config.Type {
	case TypeBearer:
		if config.Token == "" {
			return nil, wserrors.MissingParameter("credentials.token")
		}
		provider := NewBearerTokenProvider(&BearerTokenConfig{
			Token:  config.Token,
			Header: config.Header,
		})
		if config.TokenExpiry > 0 {
			provider.SetToken(config.Token, time.Now().Add(config.TokenExpiry))
		}
		return provider, nil

	case TypeAPIKey:
		if config.Key == "" {
			return nil, wserrors.MissingParameter("credentials.key")
		}
		return NewAPIKeyProvider(&APIKeyConfig{
			Key:    config.Key,
			Header: config.Header,
		}), nil

	default:
		return nil, wserrors.InvalidParameter("credentials.type", config.Type, "bearer or apikey")
	}
}
