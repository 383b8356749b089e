package errors

import (
	"fmt"
	"net/url"
	"strings"
)

// ConfigurationErrorData contains structured data for configuration errors
type ConfigurationErrorData struct {
	Parameter string `json:"parameter"`
	Reason    string `json:"reason,omitempty"`
}

// DestinationErrorData contains structured data for destination errors
type DestinationErrorData struct {
	URI    string `json:"uri"`
	Scheme string `json:"scheme,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// FaultErrorData describes a fault answer received from an endpoint.
type FaultErrorData struct {
	FaultCode  string `json:"fault_code,omitempty"`
	Reason     string `json:"reason,omitempty"`
	Actor      string `json:"actor,omitempty"`
	Detail     string `json:"detail,omitempty"`
	StatusCode int    `json:"status_code,omitempty"`
}

// AssertionErrorData identifies the expectation and content that failed to match
type AssertionErrorData struct {
	Matcher     string `json:"matcher,omitempty"`
	Expectation int    `json:"expectation"`
	Expected    string `json:"expected,omitempty"`
	Actual      string `json:"actual,omitempty"`
}

// ConfigurationError creates an error for a setting that prevents any exchange
func ConfigurationError(parameter, reason string) SDKError {
	return NewError(
		CodeConfigurationError,
		fmt.Sprintf("Invalid configuration for '%s': %s", parameter, reason),
		CategoryConfiguration,
		SeverityCritical,
	).WithData(&ConfigurationErrorData{
		Parameter: parameter,
		Reason:    reason,
	})
}

// MissingParameter creates an error for a required setting that was not provided
func MissingParameter(parameter string) SDKError {
	return NewError(
		CodeMissingParameter,
		fmt.Sprintf("Required setting '%s' is missing", parameter),
		CategoryConfiguration,
		SeverityCritical,
	).WithData(&ConfigurationErrorData{
		Parameter: parameter,
		Reason:    "missing",
	})
}

// InvalidParameter creates an error for a setting with an unusable value
func InvalidParameter(parameter string, value interface{}, expected string) SDKError {
	return NewError(
		CodeInvalidParameter,
		fmt.Sprintf("Setting '%s' has invalid value %v, expected %s", parameter, value, expected),
		CategoryConfiguration,
		SeverityCritical,
	).WithData(&ConfigurationErrorData{
		Parameter: parameter,
		Reason:    fmt.Sprintf("expected %s", expected),
	})
}

// UnresolvedDestination creates an error for a destination no message sender supports
func UnresolvedDestination(uri string) SDKError {
	scheme := ""
	if u, err := url.Parse(uri); err == nil {
		scheme = u.Scheme
	}
	return NewError(
		CodeUnresolvedDestination,
		fmt.Sprintf("No message sender supports destination '%s'", uri),
		CategoryDestination,
		SeverityError,
	).WithData(&DestinationErrorData{
		URI:    uri,
		Scheme: scheme,
		Reason: "unsupported scheme",
	})
}

// InvalidDestination creates an error for a destination that is not a valid URI
func InvalidDestination(uri string, cause error) SDKError {
	return WrapError(
		cause,
		CodeInvalidDestination,
		fmt.Sprintf("Destination '%s' is not a valid URI: %s", uri, reasonOf(cause)),
		CategoryDestination,
		SeverityError,
	).WithData(&DestinationErrorData{
		URI:    uri,
		Reason: reasonOf(cause),
	})
}

// FaultError creates an error for a fault answer. The code selects the
// client/server family when it names one.
func FaultError(faultCode, reason, actor string) SDKError {
	code := CodeFault
	switch strings.ToLower(faultCode) {
	case "client", "sender":
		code = CodeClientFault
	case "server", "receiver":
		code = CodeServerFault
	}

	message := "Fault received"
	if faultCode != "" {
		message = fmt.Sprintf("%s fault received", faultCode)
	}
	if reason != "" {
		message = fmt.Sprintf("%s: %s", message, reason)
	}

	return NewError(code, message, CategoryFault, SeverityError).WithData(&FaultErrorData{
		FaultCode: faultCode,
		Reason:    reason,
		Actor:     actor,
	})
}

// TransportFault creates an error for an application-level error signalled by
// the transport itself, such as an HTTP error status without a fault body.
func TransportFault(transport string, statusCode int, reason string) SDKError {
	message := fmt.Sprintf("%s transport signalled a fault", transport)
	if statusCode > 0 {
		message = fmt.Sprintf("%s transport signalled fault status %d", transport, statusCode)
	}
	if reason != "" {
		message = fmt.Sprintf("%s: %s", message, reason)
	}

	return NewError(CodeTransportFault, message, CategoryFault, SeverityError).WithData(&FaultErrorData{
		Reason:     reason,
		StatusCode: statusCode,
	})
}

// MarshallingFailure creates an error for an object that could not be written as a payload
func MarshallingFailure(target string, cause error) SDKError {
	return WrapError(
		cause,
		CodeMarshallingFailure,
		fmt.Sprintf("Failed to marshal %s: %s", target, reasonOf(cause)),
		CategoryMarshalling,
		SeverityError,
	)
}

// UnmarshallingFailure creates an error for a payload that could not be read into an object
func UnmarshallingFailure(target string, cause error) SDKError {
	return WrapError(
		cause,
		CodeUnmarshallingFailure,
		fmt.Sprintf("Failed to unmarshal %s: %s", target, reasonOf(cause)),
		CategoryMarshalling,
		SeverityError,
	)
}

// InvalidPayload creates an error for a payload that is not a well-formed document
func InvalidPayload(reason string) SDKError {
	return NewError(
		CodeInvalidPayload,
		fmt.Sprintf("Invalid payload: %s", reason),
		CategoryMarshalling,
		SeverityError,
	)
}

// AssertionFailed creates an error for an expectation that did not match
func AssertionFailed(expectation int, matcher, expected, actual string) SDKError {
	message := fmt.Sprintf("Expectation #%d failed: %s", expectation+1, matcher)
	err := NewError(CodeAssertionFailed, message, CategoryAssertion, SeverityError).WithData(&AssertionErrorData{
		Matcher:     matcher,
		Expectation: expectation,
		Expected:    expected,
		Actual:      actual,
	})
	if expected != "" || actual != "" {
		err = err.WithDetail(fmt.Sprintf("expected <%s> but was <%s>", expected, actual))
	}
	return err
}

// UnexpectedRequest creates an error for a request that arrived after every
// expectation was already used.
func UnexpectedRequest(uri string, expectations int) SDKError {
	return NewError(
		CodeUnexpectedRequest,
		fmt.Sprintf("Unexpected request to '%s': no further requests expected (%d expectation(s) registered)", uri, expectations),
		CategoryAssertion,
		SeverityError,
	).WithData(&AssertionErrorData{
		Expectation: expectations,
		Actual:      uri,
	})
}

// UnmetExpectations creates an error listing the expectations never satisfied
func UnmetExpectations(unmet []int, total int) SDKError {
	numbers := make([]string, len(unmet))
	for i, idx := range unmet {
		numbers[i] = fmt.Sprintf("#%d", idx+1)
	}
	return NewError(
		CodeUnmetExpectation,
		fmt.Sprintf("Further request(s) expected: %d of %d expectation(s) not satisfied (%s)", len(unmet), total, strings.Join(numbers, ", ")),
		CategoryAssertion,
		SeverityError,
	)
}

// IsConfigurationError reports whether err is a configuration error
func IsConfigurationError(err error) bool {
	return IsCategory(err, CategoryConfiguration)
}

// IsUnresolvedDestination reports whether err is a destination resolution error
func IsUnresolvedDestination(err error) bool {
	return IsCategory(err, CategoryDestination)
}

// IsTransportError reports whether err is a transport I/O error
func IsTransportError(err error) bool {
	return IsCategory(err, CategoryTransport)
}

// IsFault reports whether err is a fault answer
func IsFault(err error) bool {
	return IsCategory(err, CategoryFault)
}

// IsMarshallingError reports whether err is a marshalling or unmarshalling error
func IsMarshallingError(err error) bool {
	return IsCategory(err, CategoryMarshalling)
}

// IsAssertion reports whether err is a test harness assertion error
func IsAssertion(err error) bool {
	return IsCategory(err, CategoryAssertion)
}
