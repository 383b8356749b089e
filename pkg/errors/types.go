// Package errors provides structured error handling for the wsclient SDK.
// It defines the error taxonomy of a message exchange (configuration,
// destination resolution, transport, fault, marshalling and test assertion
// failures) and carries rich context for debugging and programmatic handling.
package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"
)

// Category represents the type/category of an error for classification and handling
type Category string

const (
	CategoryConfiguration Category = "configuration"
	CategoryDestination   Category = "destination"
	CategoryTransport     Category = "transport"
	CategoryFault         Category = "fault"
	CategoryMarshalling   Category = "marshalling"
	CategoryAssertion     Category = "assertion"
	CategoryInternal      Category = "internal"
	CategoryTimeout       Category = "timeout"
)

// Severity indicates how critical an error is
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// Context provides additional context about where and when an error occurred
type Context struct {
	MessageID  string                 `json:"message_id,omitempty"`
	Action     string                 `json:"action,omitempty"`
	URI        string                 `json:"uri,omitempty"`
	Parameters map[string]interface{} `json:"parameters,omitempty"`
	Timestamp  time.Time              `json:"timestamp"`
	Component  string                 `json:"component,omitempty"`
	Operation  string                 `json:"operation,omitempty"`
	TraceID    string                 `json:"trace_id,omitempty"`
}

// SDKError defines the interface for all wsclient SDK errors
type SDKError interface {
	error

	// Code returns the numeric error code
	Code() int

	// Message returns a human-readable error message
	Message() string

	// Details returns detailed technical description for debugging
	Details() string

	// Data returns structured error data for programmatic handling
	Data() interface{}

	// Category returns the error category for classification
	Category() Category

	// Severity returns the error severity level
	Severity() Severity

	// Context returns the error context information
	Context() *Context

	// WithContext returns a new error with the provided context
	WithContext(ctx *Context) SDKError

	// WithDetail returns a new error with additional detail
	WithDetail(detail string) SDKError

	// WithData returns a new error with structured data
	WithData(data interface{}) SDKError

	// Unwrap returns the underlying error for error chain traversal
	Unwrap() error

	// ToJSON returns the error as a JSON-serializable map
	ToJSON() map[string]interface{}
}

// baseError implements the SDKError interface
type baseError struct {
	code     int
	message  string
	details  string
	data     interface{}
	category Category
	severity Severity
	context  *Context
	cause    error
}

// Error implements the error interface
func (e *baseError) Error() string {
	if e.details != "" {
		return fmt.Sprintf("%s: %s", e.message, e.details)
	}
	return e.message
}

// Code returns the numeric error code
func (e *baseError) Code() int {
	return e.code
}

// Message returns the human-readable error message
func (e *baseError) Message() string {
	return e.message
}

// Details returns detailed technical description
func (e *baseError) Details() string {
	return e.details
}

// Data returns structured error data
func (e *baseError) Data() interface{} {
	return e.data
}

// Category returns the error category
func (e *baseError) Category() Category {
	return e.category
}

// Severity returns the error severity
func (e *baseError) Severity() Severity {
	return e.severity
}

// Context returns the error context
func (e *baseError) Context() *Context {
	return e.context
}

// WithContext returns a new error with the provided context
func (e *baseError) WithContext(ctx *Context) SDKError {
	newErr := *e
	newErr.context = ctx
	return &newErr
}

// WithDetail returns a new error with additional detail
func (e *baseError) WithDetail(detail string) SDKError {
	newErr := *e
	if newErr.details != "" {
		newErr.details = fmt.Sprintf("%s; %s", newErr.details, detail)
	} else {
		newErr.details = detail
	}
	return &newErr
}

// WithData returns a new error with structured data
func (e *baseError) WithData(data interface{}) SDKError {
	newErr := *e
	newErr.data = data
	return &newErr
}

// Unwrap returns the underlying error
func (e *baseError) Unwrap() error {
	return e.cause
}

// ToJSON returns the error as a JSON-serializable map
func (e *baseError) ToJSON() map[string]interface{} {
	result := map[string]interface{}{
		"code":     e.code,
		"message":  e.message,
		"category": string(e.category),
		"severity": string(e.severity),
	}

	if e.details != "" {
		result["details"] = e.details
	}

	if e.data != nil {
		result["data"] = e.data
	}

	if e.context != nil {
		result["context"] = e.context
	}

	if e.cause != nil {
		result["cause"] = e.cause.Error()
	}

	return result
}

// MarshalJSON implements json.Marshaler for baseError
func (e *baseError) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.ToJSON())
}

// NewError creates a new SDKError with the specified parameters
func NewError(code int, message string, category Category, severity Severity) SDKError {
	return &baseError{
		code:     code,
		message:  message,
		category: category,
		severity: severity,
		context: &Context{
			Timestamp: time.Now(),
		},
	}
}

// NewErrorf creates a new SDKError with formatted message
func NewErrorf(code int, category Category, severity Severity, format string, args ...interface{}) SDKError {
	return NewError(code, fmt.Sprintf(format, args...), category, severity)
}

// WrapError wraps an existing error as an SDKError
func WrapError(err error, code int, message string, category Category, severity Severity) SDKError {
	return &baseError{
		code:     code,
		message:  message,
		category: category,
		severity: severity,
		cause:    err,
		context: &Context{
			Timestamp: time.Now(),
		},
	}
}

// WrapErrorf wraps an existing error as an SDKError with formatted message
func WrapErrorf(err error, code int, category Category, severity Severity, format string, args ...interface{}) SDKError {
	return WrapError(err, code, fmt.Sprintf(format, args...), category, severity)
}

// AsSDKError extracts the first SDKError in err's chain.
func AsSDKError(err error) (SDKError, bool) {
	if err == nil {
		return nil, false
	}

	var sdkErr SDKError
	if stderrors.As(err, &sdkErr) {
		return sdkErr, true
	}

	return nil, false
}

// IsSDKError checks if an error is an SDKError
func IsSDKError(err error) bool {
	_, ok := AsSDKError(err)
	return ok
}

// IsCategory checks if an error is of a specific category
func IsCategory(err error, category Category) bool {
	if sdkErr, ok := AsSDKError(err); ok {
		return sdkErr.Category() == category
	}
	return false
}

// IsCode checks if an error has a specific error code
func IsCode(err error, code int) bool {
	if sdkErr, ok := AsSDKError(err); ok {
		return sdkErr.Code() == code
	}
	return false
}
