// Package logging is the structured logger used by the template, the
// transports and the mock server. Every Logger is backed by zerolog; New
// picks between line-delimited JSON and a human-readable console layout.
package logging

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Level represents the severity of a log message
type Level int

const (
	// DebugLevel is for detailed information useful for debugging
	DebugLevel Level = iota - 1
	// InfoLevel is for general informational messages
	InfoLevel
	// WarnLevel is for warning messages
	WarnLevel
	// ErrorLevel is for error messages
	ErrorLevel
	// FatalLevel is for fatal errors that will terminate the program
	FatalLevel

	// disabledLevel filters every entry
	disabledLevel
)

func (l Level) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	case FatalLevel:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// Field is a key-value pair attached to an entry
type Field struct {
	Key   string
	Value interface{}
}

func String(key, value string) Field { return Field{Key: key, Value: value} }

func Int(key string, value int) Field { return Field{Key: key, Value: value} }

func Bool(key string, value bool) Field { return Field{Key: key, Value: value} }

// ErrorField attaches err under the "error" key
func ErrorField(err error) Field { return Field{Key: zerolog.ErrorFieldName, Value: err} }

func Duration(key string, value time.Duration) Field { return Field{Key: key, Value: value} }

func Time(key string, value time.Time) Field { return Field{Key: key, Value: value} }

// Any attaches a value encoded with encoding/json
func Any(key string, value interface{}) Field { return Field{Key: key, Value: value} }

// Logger is the interface for structured logging
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	// Fatal logs and exits the process
	Fatal(msg string, fields ...Field)

	// WithFields returns a child logger carrying fields on every entry
	WithFields(fields ...Field) Logger
	// WithContext returns a child logger carrying the message id of ctx
	WithContext(ctx context.Context) Logger
	// WithError returns a child logger carrying err and, for SDK errors,
	// its code, category, severity and origin
	WithError(err error) Logger

	SetLevel(level Level)
	GetLevel() Level
}

// Format selects the output layout of New
type Format string

const (
	// FormatText writes one aligned line per entry, fields sorted by key
	FormatText Format = "text"
	// FormatJSON writes one JSON object per line
	FormatJSON Format = "json"
)

// TextTimeFormat is the timestamp layout of FormatText
const TextTimeFormat = "2006-01-02 15:04:05.000"

// New returns a logger writing to output at InfoLevel. A nil output means
// stdout; an unknown format falls back to FormatText. Writes are serialized
// so output may be shared between goroutines.
func New(output io.Writer, format Format) Logger {
	if output == nil {
		output = os.Stdout
	}
	output = zerolog.SyncWriter(output)
	if format != FormatJSON {
		output = zerolog.ConsoleWriter{Out: output, NoColor: true, TimeFormat: TextTimeFormat}
	}
	zl := zerolog.New(output).With().Timestamp().Logger()
	a := NewZerologAdapter(zl)
	a.SetLevel(InfoLevel)
	return a
}

// NewNop returns a logger that discards every entry.
func NewNop() Logger {
	return &ZerologAdapter{logger: zerolog.Nop(), level: disabledLevel}
}

type contextKey string

const messageIDKey contextKey = "message_id"

// ContextWithMessageID returns a context carrying the id of the message being exchanged
func ContextWithMessageID(ctx context.Context, messageID string) context.Context {
	return context.WithValue(ctx, messageIDKey, messageID)
}

// MessageIDFromContext extracts the message ID from a context
func MessageIDFromContext(ctx context.Context) string {
	if messageID, ok := ctx.Value(messageIDKey).(string); ok {
		return messageID
	}
	return ""
}
