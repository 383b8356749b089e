package client

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/ajitpratap0/wsclient-go/pkg/auth"
	wserrors "github.com/ajitpratap0/wsclient-go/pkg/errors"
	"github.com/ajitpratap0/wsclient-go/pkg/logging"
	"github.com/ajitpratap0/wsclient-go/pkg/message"
	"github.com/ajitpratap0/wsclient-go/pkg/transport"
)

// FileConfig describes a Template in a YAML file:
//
//	default_uri: https://orders.example.com/ws
//	marshaller: json
//	max_message_size: 1048576
//	logging:
//	  level: debug
//	  format: json
//	credentials:
//	  type: bearer
//	  token: s3cr3t
//	senders:
//	  - type: http
//	    http:
//	      timeout: 10s
//	    rate_limit:
//	      enabled: true
//	      requests_per_minute: 600
//	      burst_size: 20
//	  - type: nats
//	    nats:
//	      url: nats://127.0.0.1:4222
//	      request_timeout: 2s
//
// Each sender starts from transport.DefaultConfig for its type; the file
// only needs to name what differs.
type FileConfig struct {
	DefaultURI     string         `json:"default_uri" yaml:"default_uri"`
	Marshaller     string         `json:"marshaller" yaml:"marshaller"`
	MaxMessageSize int64          `json:"max_message_size" yaml:"max_message_size"`
	Logging        LoggingConfig  `json:"logging" yaml:"logging"`
	Credentials    *auth.Config   `json:"credentials,omitempty" yaml:"credentials,omitempty"`
	Senders        []SenderConfig `json:"senders" yaml:"senders"`
}

// LoggingConfig selects the logger built by NewFromConfig
type LoggingConfig struct {
	// Level is one of debug, info, warn, error
	Level string `json:"level" yaml:"level"`

	// Format is text, json or zerolog
	Format string `json:"format" yaml:"format"`
}

// SenderConfig is a transport configuration decoded on top of the defaults
// for its type.
type SenderConfig struct {
	transport.Config `yaml:",inline"`

	// RateLimit throttles connections opened by this sender
	RateLimit auth.RateLimitConfig `json:"rate_limit" yaml:"rate_limit"`
}

// UnmarshalYAML decodes the sender type first, then overlays the rest of
// the node on transport.DefaultConfig for that type.
func (s *SenderConfig) UnmarshalYAML(node *yaml.Node) error {
	var head struct {
		Type      transport.SenderType `yaml:"type"`
		RateLimit auth.RateLimitConfig `yaml:"rate_limit"`
	}
	if err := node.Decode(&head); err != nil {
		return err
	}
	if head.Type == "" {
		head.Type = transport.SenderTypeHTTP
	}

	config := transport.DefaultConfig(head.Type)
	if err := node.Decode(&config); err != nil {
		return err
	}
	config.Type = head.Type
	s.Config = config
	s.RateLimit = head.RateLimit
	return nil
}

// LoadConfig reads a YAML configuration file
func LoadConfig(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, wserrors.ConfigurationError("config_file", err.Error())
	}
	return ParseConfig(data)
}

// ParseConfig decodes YAML configuration
func ParseConfig(data []byte) (*FileConfig, error) {
	var cfg FileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, wserrors.ConfigurationError("config_file", err.Error())
	}
	return &cfg, nil
}

// NewFromConfig builds a Template and its senders from cfg. Options are
// applied after the file settings and win over them.
func NewFromConfig(cfg *FileConfig, options ...Option) (*Template, error) {
	if cfg == nil {
		return nil, wserrors.MissingParameter("config")
	}

	logger, err := cfg.Logging.newLogger()
	if err != nil {
		return nil, err
	}

	factory := message.NewEnvelopeFactory()
	if cfg.MaxMessageSize > 0 {
		factory.MaxMessageSize = cfg.MaxMessageSize
	}

	fileOptions := []Option{
		WithDefaultURI(cfg.DefaultURI),
		WithMessageFactory(factory),
		WithLogger(logger),
	}
	switch strings.ToLower(cfg.Marshaller) {
	case "", "json":
		fileOptions = append(fileOptions, WithMarshalling(message.JSONMarshaller{}))
	case "protojson":
		fileOptions = append(fileOptions, WithMarshalling(message.ProtoJSONMarshaller{}))
	default:
		return nil, wserrors.InvalidParameter("marshaller", cfg.Marshaller, "json or protojson")
	}
	if cfg.Credentials != nil {
		provider, err := auth.NewProvider(*cfg.Credentials)
		if err != nil {
			return nil, err
		}
		fileOptions = append(fileOptions, WithRequestCallbacks(auth.Callback(provider)))
	}

	t, err := New(append(fileOptions, options...)...)
	if err != nil {
		return nil, err
	}

	senderConfigs := cfg.Senders
	if len(senderConfigs) == 0 {
		senderConfigs = []SenderConfig{{Config: transport.DefaultConfig(transport.SenderTypeHTTP)}}
	}

	senders := make(transport.Senders, 0, len(senderConfigs))
	for i, sc := range senderConfigs {
		config := sc.Config
		config.Logger = logger
		config.Metrics = t.senderMetrics
		if sc.RateLimit.Enabled {
			config.Middleware = append(config.Middleware, auth.NewRateLimitMiddleware(sc.RateLimit))
		}
		sender, err := transport.NewMessageSender(config)
		if err != nil {
			_ = senders.Close()
			if sdkErr, ok := wserrors.AsSDKError(err); ok {
				return nil, sdkErr.WithDetail(fmt.Sprintf("senders[%d]", i))
			}
			return nil, err
		}
		senders = append(senders, sender)
	}
	t.SetMessageSenders(senders...)
	return t, nil
}

// newLogger builds the configured logger writing to stderr
func (c LoggingConfig) newLogger() (logging.Logger, error) {
	var logger logging.Logger
	switch strings.ToLower(c.Format) {
	case "", "text":
		logger = logging.New(os.Stderr, logging.FormatText)
	case "json":
		logger = logging.New(os.Stderr, logging.FormatJSON)
	case "zerolog":
		logger = logging.NewZerologAdapter(zerolog.New(os.Stderr).With().Timestamp().Logger())
	default:
		return nil, wserrors.InvalidParameter("logging.format", c.Format, "text, json or zerolog")
	}

	switch strings.ToLower(c.Level) {
	case "", "info":
		logger.SetLevel(logging.InfoLevel)
	case "debug":
		logger.SetLevel(logging.DebugLevel)
	case "warn", "warning":
		logger.SetLevel(logging.WarnLevel)
	case "error":
		logger.SetLevel(logging.ErrorLevel)
	default:
		return nil, wserrors.InvalidParameter("logging.level", c.Level, "debug, info, warn or error")
	}
	return logger, nil
}
