package wsclient

import (
	"github.com/ajitpratap0/wsclient-go/pkg/auth"
	"github.com/ajitpratap0/wsclient-go/pkg/client"
	"github.com/ajitpratap0/wsclient-go/pkg/message"
	"github.com/ajitpratap0/wsclient-go/pkg/transport"
)

// Version represents the current version of the SDK
const Version = "1.0.0"

// These exports provide direct access to the core SDK components
var (
	// NewTemplate creates a new Template
	NewTemplate = client.New

	// NewTemplateFromConfig creates a Template and its senders from a file config
	NewTemplateFromConfig = client.NewFromConfig

	// LoadConfig reads a YAML configuration file
	LoadConfig = client.LoadConfig

	// NewMessageSender builds a sender with its middleware from a transport config
	NewMessageSender = transport.NewMessageSender

	// NewHTTPMessageSender creates an HTTP sender
	NewHTTPMessageSender = transport.NewHTTPMessageSender

	// NewWebSocketMessageSender creates a WebSocket sender
	NewWebSocketMessageSender = transport.NewWebSocketMessageSender

	// DialNATSMessageSender connects to NATS and creates a sender
	DialNATSMessageSender = transport.DialNATSMessageSender

	// NewMemoryMessageSender creates an in-process sender
	NewMemoryMessageSender = transport.NewMemoryMessageSender

	// DefaultSenderConfig returns the defaults for a sender type
	DefaultSenderConfig = transport.DefaultConfig
)

// Sender types
const (
	SenderTypeHTTP      = transport.SenderTypeHTTP
	SenderTypeWebSocket = transport.SenderTypeWebSocket
	SenderTypeNATS      = transport.SenderTypeNATS
	SenderTypeMemory    = transport.SenderTypeMemory
)

// Template options
var (
	WithDefaultURI       = client.WithDefaultURI
	WithMessageFactory   = client.WithMessageFactory
	WithMessageSenders   = client.WithMessageSenders
	WithMarshaller       = client.WithMarshaller
	WithUnmarshaller     = client.WithUnmarshaller
	WithMarshalling      = client.WithMarshalling
	WithRequestCallbacks = client.WithRequestCallbacks
	WithInterceptors     = client.WithInterceptors
	WithFaultResolver    = client.WithFaultResolver
	WithLogger           = client.WithLogger
	WithTransportMetrics = client.WithTransportMetrics
	DefaultFaultResolver = client.DefaultFaultResolver
	ActionCallback       = client.ActionCallback
	HeaderCallback       = client.HeaderCallback
	ChainCallbacks       = client.ChainCallbacks
	NewEnvelopeFactory   = message.NewEnvelopeFactory
	NewReply             = message.NewReply
)

// Credentials and rate limiting
var (
	CredentialsCallback = auth.Callback
	NewRateLimit        = auth.NewRateLimitMiddleware
	NewBearerToken      = auth.NewBearerTokenProvider
	NewAPIKey           = auth.NewAPIKeyProvider
)

// Fault codes
const (
	FaultClient          = message.FaultClient
	FaultServer          = message.FaultServer
	FaultVersionMismatch = message.FaultVersionMismatch
	FaultMustUnderstand  = message.FaultMustUnderstand
)
