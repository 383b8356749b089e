package errors

import (
	"fmt"
	"net/url"
	"time"
)

// TransportErrorData contains structured data for transport-related errors
type TransportErrorData struct {
	Transport    string        `json:"transport"`
	Operation    string        `json:"operation,omitempty"`
	Endpoint     string        `json:"endpoint,omitempty"`
	Connected    bool          `json:"connected"`
	Retryable    bool          `json:"retryable"`
	Reason       string        `json:"reason,omitempty"`
	StatusCode   int           `json:"status_code,omitempty"`
	ResponseTime time.Duration `json:"response_time,omitempty"`
}

// ConnectionErrorData contains structured data for connection-related errors
type ConnectionErrorData struct {
	Transport string        `json:"transport"`
	Endpoint  string        `json:"endpoint,omitempty"`
	Timeout   time.Duration `json:"timeout,omitempty"`
	Retryable bool          `json:"retryable"`
	Reason    string        `json:"reason,omitempty"`
}

func reasonOf(cause error) string {
	if cause == nil {
		return ""
	}
	return cause.Error()
}

// TransportError creates a generic transport error
func TransportError(transport, operation string, cause error) SDKError {
	message := fmt.Sprintf("%s transport error", transport)
	if operation != "" {
		message = fmt.Sprintf("%s transport error during %s", transport, operation)
	}
	if cause != nil {
		message = fmt.Sprintf("%s: %s", message, cause.Error())
	}

	return WrapError(
		cause,
		CodeTransportError,
		message,
		CategoryTransport,
		SeverityError,
	).WithData(&TransportErrorData{
		Transport: transport,
		Operation: operation,
		Connected: false,
		Retryable: true,
		Reason:    reasonOf(cause),
	})
}

// ConnectionFailed creates an error for connection failures
func ConnectionFailed(transport, endpoint string, cause error) SDKError {
	message := fmt.Sprintf("Failed to connect via %s", transport)
	if endpoint != "" {
		message = fmt.Sprintf("Failed to connect to %s via %s", endpoint, transport)
	}
	if cause != nil {
		message = fmt.Sprintf("%s: %s", message, cause.Error())
	}

	var endpointData string
	if endpoint != "" {
		if u, err := url.Parse(endpoint); err == nil && u.Host != "" {
			endpointData = u.Host
		} else {
			endpointData = endpoint
		}
	}

	return WrapError(
		cause,
		CodeConnectionFailed,
		message,
		CategoryTransport,
		SeverityCritical,
	).WithData(&ConnectionErrorData{
		Transport: transport,
		Endpoint:  endpointData,
		Retryable: true,
		Reason:    reasonOf(cause),
	})
}

// ConnectionLost creates an error for lost connections
func ConnectionLost(transport, endpoint string, cause error) SDKError {
	message := fmt.Sprintf("Lost connection via %s", transport)
	if endpoint != "" {
		message = fmt.Sprintf("Lost connection to %s via %s", endpoint, transport)
	}
	if cause != nil {
		message = fmt.Sprintf("%s: %s", message, cause.Error())
	}

	return WrapError(
		cause,
		CodeConnectionLost,
		message,
		CategoryTransport,
		SeverityError,
	).WithData(&ConnectionErrorData{
		Transport: transport,
		Endpoint:  endpoint,
		Retryable: true,
		Reason:    reasonOf(cause),
	})
}

// ConnectionTimeout creates an error for connection timeouts
func ConnectionTimeout(transport, endpoint string, timeout time.Duration) SDKError {
	message := fmt.Sprintf("Connection timeout via %s", transport)
	if endpoint != "" {
		message = fmt.Sprintf("Connection timeout to %s via %s", endpoint, transport)
	}
	if timeout > 0 {
		message = fmt.Sprintf("%s after %v", message, timeout)
	}

	return NewError(
		CodeConnectionTimeout,
		message,
		CategoryTransport,
		SeverityError,
	).WithData(&ConnectionErrorData{
		Transport: transport,
		Endpoint:  endpoint,
		Timeout:   timeout,
		Retryable: true,
		Reason:    "timeout",
	})
}

// HTTPTransportError creates an error for HTTP transport issues
func HTTPTransportError(operation, endpoint string, statusCode int, cause error) SDKError {
	message := fmt.Sprintf("HTTP transport error during %s", operation)
	if statusCode > 0 {
		message = fmt.Sprintf("HTTP %d error during %s", statusCode, operation)
	}
	if endpoint != "" {
		message = fmt.Sprintf("%s to %s", message, endpoint)
	}
	if cause != nil {
		message = fmt.Sprintf("%s: %s", message, cause.Error())
	}

	retryable := statusCode >= 500 || statusCode == 429 || statusCode == 408

	return WrapError(
		cause,
		CodeTransportError,
		message,
		CategoryTransport,
		SeverityError,
	).WithData(&TransportErrorData{
		Transport:  "http",
		Operation:  operation,
		Endpoint:   endpoint,
		Connected:  statusCode > 0,
		Retryable:  retryable,
		StatusCode: statusCode,
		Reason:     reasonOf(cause),
	})
}

// MessageSendError creates an error for message sending failures
func MessageSendError(transport, endpoint string, cause error) SDKError {
	message := fmt.Sprintf("Failed to send message via %s", transport)
	if endpoint != "" {
		message = fmt.Sprintf("Failed to send message to %s via %s", endpoint, transport)
	}
	if cause != nil {
		message = fmt.Sprintf("%s: %s", message, cause.Error())
	}

	return WrapError(
		cause,
		CodeTransportError,
		message,
		CategoryTransport,
		SeverityError,
	).WithData(&TransportErrorData{
		Transport: transport,
		Operation: "send_message",
		Endpoint:  endpoint,
		Connected: true,
		Retryable: false,
		Reason:    reasonOf(cause),
	})
}

// MessageReceiveError creates an error for message receiving failures
func MessageReceiveError(transport, endpoint string, cause error) SDKError {
	message := fmt.Sprintf("Failed to receive message via %s", transport)
	if endpoint != "" {
		message = fmt.Sprintf("Failed to receive message from %s via %s", endpoint, transport)
	}
	if cause != nil {
		message = fmt.Sprintf("%s: %s", message, cause.Error())
	}

	return WrapError(
		cause,
		CodeTransportError,
		message,
		CategoryTransport,
		SeverityError,
	).WithData(&TransportErrorData{
		Transport: transport,
		Operation: "receive_message",
		Endpoint:  endpoint,
		Connected: true,
		Retryable: false,
		Reason:    reasonOf(cause),
	})
}

// MessageTooLarge creates an error for messages that exceed size limits
func MessageTooLarge(transport string, messageSize, maxSize int64) SDKError {
	return NewError(
		CodeMessageTooLarge,
		fmt.Sprintf("Message size %d exceeds maximum allowed size %d for %s transport", messageSize, maxSize, transport),
		CategoryTransport,
		SeverityError,
	).WithData(&TransportErrorData{
		Transport: transport,
		Operation: "receive_message",
		Connected: true,
		Retryable: false,
		Reason:    fmt.Sprintf("message size %d > max %d", messageSize, maxSize),
	})
}

// CircuitOpen creates an error for calls rejected by an open circuit breaker
func CircuitOpen(endpoint string) SDKError {
	return NewError(
		CodeCircuitOpen,
		fmt.Sprintf("Circuit breaker is open for %s", endpoint),
		CategoryTransport,
		SeverityWarning,
	).WithData(&TransportErrorData{
		Operation: "open_connection",
		Endpoint:  endpoint,
		Retryable: true,
		Reason:    "circuit open",
	})
}

// RateLimited creates an error for calls rejected by a client-side rate limit
func RateLimited(endpoint string, retryAfter time.Duration) SDKError {
	return NewError(
		CodeRateLimited,
		fmt.Sprintf("Rate limit exceeded for %s, retry after %s", endpoint, retryAfter),
		CategoryTransport,
		SeverityWarning,
	).WithData(&TransportErrorData{
		Operation: "open_connection",
		Endpoint:  endpoint,
		Retryable: false,
		Reason:    "rate limited",
	})
}

// CredentialsUnavailable creates an error for a credentials provider that
// could not produce a credential for the request
func CredentialsUnavailable(provider string, cause error) SDKError {
	return WrapError(
		cause,
		CodeCredentials,
		fmt.Sprintf("%s credentials unavailable: %s", provider, reasonOf(cause)),
		CategoryTransport,
		SeverityError,
	).WithData(&TransportErrorData{
		Transport: provider,
		Operation: "authenticate",
		Retryable: true,
		Reason:    reasonOf(cause),
	})
}

// IsRetryableError reports whether the error is a transport failure that may
// succeed when attempted again.
func IsRetryableError(err error) bool {
	sdkErr, ok := AsSDKError(err)
	if !ok {
		return false
	}
	switch data := sdkErr.Data().(type) {
	case *TransportErrorData:
		return data.Retryable
	case *ConnectionErrorData:
		return data.Retryable
	}
	return false
}
