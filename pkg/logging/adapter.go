package logging

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	wserrors "github.com/ajitpratap0/wsclient-go/pkg/errors"
)

// ZerologAdapter implements Logger on a zerolog.Logger. New builds one;
// applications already logging through zerolog can wrap their own logger
// and hand it to the template and transports.
type ZerologAdapter struct {
	mu     sync.RWMutex
	logger zerolog.Logger
	level  Level
}

// NewZerologAdapter wraps logger, keeping its level
func NewZerologAdapter(logger zerolog.Logger) *ZerologAdapter {
	return &ZerologAdapter{
		logger: logger,
		level:  fromZerologLevel(logger.GetLevel()),
	}
}

func (a *ZerologAdapter) Debug(msg string, fields ...Field) {
	withFields(a.current().Debug(), fields).Msg(msg)
}

func (a *ZerologAdapter) Info(msg string, fields ...Field) {
	withFields(a.current().Info(), fields).Msg(msg)
}

func (a *ZerologAdapter) Warn(msg string, fields ...Field) {
	withFields(a.current().Warn(), fields).Msg(msg)
}

func (a *ZerologAdapter) Error(msg string, fields ...Field) {
	withFields(a.current().Error(), fields).Msg(msg)
}

// Fatal logs at fatal level; zerolog exits the process
func (a *ZerologAdapter) Fatal(msg string, fields ...Field) {
	withFields(a.current().Fatal(), fields).Msg(msg)
}

func (a *ZerologAdapter) WithFields(fields ...Field) Logger {
	child := a.current().With()
	if len(fields) > 0 {
		child = child.Fields(fieldList(fields))
	}
	return &ZerologAdapter{logger: child.Logger(), level: a.GetLevel()}
}

func (a *ZerologAdapter) WithContext(ctx context.Context) Logger {
	if messageID := MessageIDFromContext(ctx); messageID != "" {
		return a.WithFields(String("message_id", messageID))
	}
	return a.WithFields()
}

func (a *ZerologAdapter) WithError(err error) Logger {
	fields := []Field{ErrorField(err)}

	if sdkErr, ok := wserrors.AsSDKError(err); ok {
		fields = append(fields,
			Int("error_code", sdkErr.Code()),
			String("error_category", string(sdkErr.Category())),
			String("error_severity", string(sdkErr.Severity())),
		)
		if origin := sdkErr.Context(); origin != nil {
			if origin.MessageID != "" {
				fields = append(fields, String("message_id", origin.MessageID))
			}
			if origin.Component != "" {
				fields = append(fields, String("component", origin.Component))
			}
			if origin.Operation != "" {
				fields = append(fields, String("operation", origin.Operation))
			}
		}
	}

	return a.WithFields(fields...)
}

func (a *ZerologAdapter) SetLevel(level Level) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.level = level
	a.logger = a.logger.Level(toZerologLevel(level))
}

func (a *ZerologAdapter) GetLevel() Level {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.level
}

func (a *ZerologAdapter) current() *zerolog.Logger {
	a.mu.RLock()
	defer a.mu.RUnlock()
	l := a.logger
	return &l
}

// withFields adds fields to e, which is nil when the level is filtered
func withFields(e *zerolog.Event, fields []Field) *zerolog.Event {
	if e == nil || len(fields) == 0 {
		return e
	}
	return e.Fields(fieldList(fields))
}

// fieldList flattens fields into the key-value form zerolog accepts,
// keeping their order
func fieldList(fields []Field) []interface{} {
	kv := make([]interface{}, 0, 2*len(fields))
	for _, f := range fields {
		kv = append(kv, f.Key, f.Value)
	}
	return kv
}

func toZerologLevel(level Level) zerolog.Level {
	switch level {
	case DebugLevel:
		return zerolog.DebugLevel
	case InfoLevel:
		return zerolog.InfoLevel
	case WarnLevel:
		return zerolog.WarnLevel
	case ErrorLevel:
		return zerolog.ErrorLevel
	case FatalLevel:
		return zerolog.FatalLevel
	default:
		return zerolog.Disabled
	}
}

func fromZerologLevel(level zerolog.Level) Level {
	switch level {
	case zerolog.TraceLevel, zerolog.DebugLevel:
		return DebugLevel
	case zerolog.InfoLevel:
		return InfoLevel
	case zerolog.WarnLevel:
		return WarnLevel
	case zerolog.ErrorLevel:
		return ErrorLevel
	case zerolog.FatalLevel, zerolog.PanicLevel:
		return FatalLevel
	default:
		return disabledLevel
	}
}
