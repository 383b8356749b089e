package errors

// Error codes. Ranges group related failures so that callers can test a
// whole family with a single comparison.
const (
	// Configuration Errors (-32000 to -32099)
	CodeConfigurationError int = -32000 // Template or transport misconfigured
	CodeMissingParameter   int = -32001 // Required setting missing
	CodeInvalidParameter   int = -32002 // Setting has an invalid value

	// Destination Errors (-32100 to -32199)
	CodeUnresolvedDestination int = -32100 // No sender supports the destination
	CodeInvalidDestination    int = -32101 // Destination is not a valid URI

	// Transport Errors (-32500 to -32599)
	CodeTransportError    int = -32500 // Generic transport error
	CodeConnectionFailed  int = -32501 // Failed to establish connection
	CodeConnectionLost    int = -32502 // Connection lost during operation
	CodeConnectionTimeout int = -32503 // Connection timed out
	CodeMessageTooLarge   int = -32504 // Message exceeds transport limit
	CodeCircuitOpen       int = -32505 // Circuit breaker rejected the call
	CodeRateLimited       int = -32506 // Client-side rate limit rejected the call
	CodeCredentials       int = -32507 // Credentials could not be obtained

	// Fault Errors (-32600 to -32649)
	CodeFault          int = -32600 // Generic fault answer
	CodeClientFault    int = -32601 // Fault blamed on the sender
	CodeServerFault    int = -32602 // Fault blamed on the receiver
	CodeTransportFault int = -32603 // Transport signalled an application-level error

	// Marshalling Errors (-32700 to -32749)
	CodeMarshallingFailure   int = -32700 // Object could not be written to a payload
	CodeUnmarshallingFailure int = -32701 // Payload could not be read into an object
	CodeInvalidPayload       int = -32702 // Payload is not a well-formed document

	// Assertion Errors (-32900 to -32949)
	CodeAssertionFailed   int = -32900 // Expectation did not match
	CodeUnexpectedRequest int = -32901 // Request arrived with no expectation left
	CodeUnmetExpectation  int = -32902 // Expectation never satisfied

	// Internal Errors (-32950 to -32999)
	CodeInternalError int = -32950
)

// ErrorCodeInfo provides human-readable information about error codes
type ErrorCodeInfo struct {
	Code        int
	Name        string
	Description string
	Category    Category
	Severity    Severity
}

// errorCodeRegistry maps error codes to their information
var errorCodeRegistry = map[int]ErrorCodeInfo{
	CodeConfigurationError: {CodeConfigurationError, "ConfigurationError", "Configuration error", CategoryConfiguration, SeverityCritical},
	CodeMissingParameter:   {CodeMissingParameter, "MissingParameter", "Required setting missing", CategoryConfiguration, SeverityCritical},
	CodeInvalidParameter:   {CodeInvalidParameter, "InvalidParameter", "Invalid setting value", CategoryConfiguration, SeverityCritical},

	CodeUnresolvedDestination: {CodeUnresolvedDestination, "UnresolvedDestination", "No message sender supports destination", CategoryDestination, SeverityError},
	CodeInvalidDestination:    {CodeInvalidDestination, "InvalidDestination", "Destination is not a valid URI", CategoryDestination, SeverityError},

	CodeTransportError:    {CodeTransportError, "TransportError", "Transport error", CategoryTransport, SeverityError},
	CodeConnectionFailed:  {CodeConnectionFailed, "ConnectionFailed", "Connection failed", CategoryTransport, SeverityCritical},
	CodeConnectionLost:    {CodeConnectionLost, "ConnectionLost", "Connection lost", CategoryTransport, SeverityError},
	CodeConnectionTimeout: {CodeConnectionTimeout, "ConnectionTimeout", "Connection timeout", CategoryTransport, SeverityError},
	CodeMessageTooLarge:   {CodeMessageTooLarge, "MessageTooLarge", "Message too large", CategoryTransport, SeverityError},
	CodeCircuitOpen:       {CodeCircuitOpen, "CircuitOpen", "Circuit breaker is open", CategoryTransport, SeverityWarning},
	CodeRateLimited:       {CodeRateLimited, "RateLimited", "Rate limit exceeded", CategoryTransport, SeverityWarning},
	CodeCredentials:       {CodeCredentials, "CredentialsUnavailable", "Credentials unavailable", CategoryTransport, SeverityError},

	CodeFault:          {CodeFault, "Fault", "Fault response", CategoryFault, SeverityError},
	CodeClientFault:    {CodeClientFault, "ClientFault", "Fault caused by the request", CategoryFault, SeverityError},
	CodeServerFault:    {CodeServerFault, "ServerFault", "Fault caused by the endpoint", CategoryFault, SeverityError},
	CodeTransportFault: {CodeTransportFault, "TransportFault", "Transport-level fault", CategoryFault, SeverityError},

	CodeMarshallingFailure:   {CodeMarshallingFailure, "MarshallingFailure", "Marshalling failed", CategoryMarshalling, SeverityError},
	CodeUnmarshallingFailure: {CodeUnmarshallingFailure, "UnmarshallingFailure", "Unmarshalling failed", CategoryMarshalling, SeverityError},
	CodeInvalidPayload:       {CodeInvalidPayload, "InvalidPayload", "Payload is not a valid document", CategoryMarshalling, SeverityError},

	CodeAssertionFailed:   {CodeAssertionFailed, "AssertionFailed", "Expectation did not match", CategoryAssertion, SeverityError},
	CodeUnexpectedRequest: {CodeUnexpectedRequest, "UnexpectedRequest", "Unexpected request", CategoryAssertion, SeverityError},
	CodeUnmetExpectation:  {CodeUnmetExpectation, "UnmetExpectation", "Expectation not satisfied", CategoryAssertion, SeverityError},

	CodeInternalError: {CodeInternalError, "InternalError", "Internal error", CategoryInternal, SeverityError},
}

// GetErrorCodeInfo returns information about an error code
func GetErrorCodeInfo(code int) (ErrorCodeInfo, bool) {
	info, exists := errorCodeRegistry[code]
	return info, exists
}

// GetErrorCodeName returns the name of an error code
func GetErrorCodeName(code int) string {
	if info, exists := errorCodeRegistry[code]; exists {
		return info.Name
	}
	return "UnknownError"
}

// GetErrorCodeCategory returns the category of an error code
func GetErrorCodeCategory(code int) Category {
	if info, exists := errorCodeRegistry[code]; exists {
		return info.Category
	}
	return CategoryInternal
}

// ListErrorCodes returns all registered error codes
func ListErrorCodes() []ErrorCodeInfo {
	codes := make([]ErrorCodeInfo, 0, len(errorCodeRegistry))
	for _, info := range errorCodeRegistry {
		codes = append(codes, info)
	}
	return codes
}
