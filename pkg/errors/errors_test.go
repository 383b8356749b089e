package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestSDKErrorInterface(t *testing.T) {
	tests := []struct {
		name     string
		err      SDKError
		wantCode int
		wantCat  Category
		wantSev  Severity
	}{
		{
			name:     "configuration error",
			err:      ConfigurationError("default_uri", "no destination"),
			wantCode: CodeConfigurationError,
			wantCat:  CategoryConfiguration,
			wantSev:  SeverityCritical,
		},
		{
			name:     "unresolved destination",
			err:      UnresolvedDestination("ftp://example.com/x"),
			wantCode: CodeUnresolvedDestination,
			wantCat:  CategoryDestination,
			wantSev:  SeverityError,
		},
		{
			name:     "server fault",
			err:      FaultError("Server", "boom", ""),
			wantCode: CodeServerFault,
			wantCat:  CategoryFault,
			wantSev:  SeverityError,
		},
		{
			name:     "client fault",
			err:      FaultError("Sender", "bad input", "urn:actor"),
			wantCode: CodeClientFault,
			wantCat:  CategoryFault,
			wantSev:  SeverityError,
		},
		{
			name:     "unexpected request",
			err:      UnexpectedRequest("mem:orders", 0),
			wantCode: CodeUnexpectedRequest,
			wantCat:  CategoryAssertion,
			wantSev:  SeverityError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Code(); got != tt.wantCode {
				t.Errorf("Code() = %v, want %v", got, tt.wantCode)
			}
			if got := tt.err.Category(); got != tt.wantCat {
				t.Errorf("Category() = %v, want %v", got, tt.wantCat)
			}
			if got := tt.err.Severity(); got != tt.wantSev {
				t.Errorf("Severity() = %v, want %v", got, tt.wantSev)
			}
			if msg := tt.err.Error(); msg == "" {
				t.Error("Error() returned empty string")
			}
		})
	}
}

func TestErrorContext(t *testing.T) {
	err := ConfigurationError("message_factory", "nil")

	if ctx := err.Context(); ctx == nil {
		t.Error("Context() should never return nil")
	}

	exchangeCtx := &Context{
		MessageID: "123",
		Action:    "urn:orders:create",
		URI:       "http://example.com/orders",
		Component: "Template",
	}

	errWithCtx := err.WithContext(exchangeCtx)
	if got := errWithCtx.Context(); got != exchangeCtx {
		t.Errorf("WithContext() failed, got %v, want %v", got, exchangeCtx)
	}

	if err.Context().MessageID != "" {
		t.Error("Original error was modified by WithContext()")
	}
}

func TestErrorChaining(t *testing.T) {
	cause := fmt.Errorf("underlying cause")
	err := TransportError("http", "send", cause)

	if unwrapped := err.Unwrap(); unwrapped != cause {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, cause)
	}
	if !stderrors.Is(err, cause) {
		t.Error("errors.Is should find the cause")
	}

	wrapped := fmt.Errorf("outer: %w", err)
	if !IsTransportError(wrapped) {
		t.Error("IsTransportError should see through fmt wrapping")
	}
}

func TestNilCauseDoesNotPanic(t *testing.T) {
	err := TransportError("mem", "receive", nil)
	if err.Unwrap() != nil {
		t.Error("Unwrap() should be nil")
	}
	data, ok := err.Data().(*TransportErrorData)
	if !ok {
		t.Fatalf("Data() = %T, want *TransportErrorData", err.Data())
	}
	if data.Reason != "" {
		t.Errorf("Reason = %q, want empty", data.Reason)
	}
}

func TestErrorSerialization(t *testing.T) {
	err := UnresolvedDestination("gopher://example.com").
		WithContext(&Context{MessageID: "123", Action: "urn:ping"}).
		WithDetail("Additional detail information")

	jsonData := err.ToJSON()
	if jsonData["code"] != CodeUnresolvedDestination {
		t.Errorf("ToJSON() code = %v, want %v", jsonData["code"], CodeUnresolvedDestination)
	}

	jsonBytes, err2 := json.Marshal(err)
	if err2 != nil {
		t.Fatalf("Failed to marshal error: %v", err2)
	}

	var unmarshaled map[string]interface{}
	if err2 := json.Unmarshal(jsonBytes, &unmarshaled); err2 != nil {
		t.Fatalf("Failed to unmarshal error: %v", err2)
	}

	if unmarshaled["code"] != float64(CodeUnresolvedDestination) {
		t.Errorf("Unmarshaled code = %v, want %v", unmarshaled["code"], CodeUnresolvedDestination)
	}
	if unmarshaled["category"] != string(CategoryDestination) {
		t.Errorf("Unmarshaled category = %v, want %v", unmarshaled["category"], CategoryDestination)
	}
}

func TestUnresolvedDestinationData(t *testing.T) {
	err := UnresolvedDestination("gopher://example.com/x")
	data, ok := err.Data().(*DestinationErrorData)
	if !ok {
		t.Fatalf("Data() = %T, want *DestinationErrorData", err.Data())
	}
	if data.Scheme != "gopher" {
		t.Errorf("Scheme = %q, want gopher", data.Scheme)
	}
}

func TestTransportErrors(t *testing.T) {
	tests := []struct {
		name string
		err  SDKError
	}{
		{
			name: "connection failed",
			err:  ConnectionFailed("http", "http://example.com", fmt.Errorf("connection refused")),
		},
		{
			name: "transport error",
			err:  TransportError("nats", "send", fmt.Errorf("no responders")),
		},
		{
			name: "connection timeout",
			err:  ConnectionTimeout("http", "http://example.com", 30*time.Second),
		},
		{
			name: "receive error",
			err:  MessageReceiveError("websocket", "ws://example.com", fmt.Errorf("eof")),
		},
		{
			name: "circuit open",
			err:  CircuitOpen("http://example.com"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Category() != CategoryTransport {
				t.Errorf("Category() = %v, want %v", tt.err.Category(), CategoryTransport)
			}
			if data := tt.err.Data(); data == nil {
				t.Error("Data() should not be nil for transport errors")
			}
		})
	}
}

func TestTransportFaultIsFaultNotTransport(t *testing.T) {
	err := TransportFault("http", 500, "Internal Server Error")
	if !IsFault(err) {
		t.Error("TransportFault should be a fault")
	}
	if IsTransportError(err) {
		t.Error("TransportFault should not be a transport I/O error")
	}
	data := err.Data().(*FaultErrorData)
	if data.StatusCode != 500 {
		t.Errorf("StatusCode = %d, want 500", data.StatusCode)
	}
}

func TestAssertionFailedDetail(t *testing.T) {
	err := AssertionFailed(1, "payload", `{"a":1}`, `{"b":1}`)
	msg := err.Error()
	for _, want := range []string{"#2", "payload", `{"a":1}`, `{"b":1}`} {
		if !strings.Contains(msg, want) {
			t.Errorf("Error() = %q, missing %q", msg, want)
		}
	}
}

func TestUnmetExpectations(t *testing.T) {
	err := UnmetExpectations([]int{0, 2}, 3)
	if !IsAssertion(err) {
		t.Fatal("UnmetExpectations should be an assertion error")
	}
	if !strings.Contains(err.Error(), "#1, #3") {
		t.Errorf("Error() = %q, want expectation numbers", err.Error())
	}
}

func TestErrorRegistry(t *testing.T) {
	tests := []struct {
		code     int
		wantName string
		wantCat  Category
	}{
		{CodeUnresolvedDestination, "UnresolvedDestination", CategoryDestination},
		{CodeTransportFault, "TransportFault", CategoryFault},
		{CodeAssertionFailed, "AssertionFailed", CategoryAssertion},
		{CodeInternalError, "InternalError", CategoryInternal},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("code_%d", tt.code), func(t *testing.T) {
			if name := GetErrorCodeName(tt.code); name != tt.wantName {
				t.Errorf("GetErrorCodeName() = %v, want %v", name, tt.wantName)
			}
			if cat := GetErrorCodeCategory(tt.code); cat != tt.wantCat {
				t.Errorf("GetErrorCodeCategory() = %v, want %v", cat, tt.wantCat)
			}
			if info, exists := GetErrorCodeInfo(tt.code); !exists {
				t.Errorf("GetErrorCodeInfo() should exist for code %d", tt.code)
			} else if info.Name != tt.wantName {
				t.Errorf("ErrorCodeInfo.Name = %v, want %v", info.Name, tt.wantName)
			}
		})
	}

	if GetErrorCodeName(1) != "UnknownError" {
		t.Error("unknown codes should be named UnknownError")
	}
	if len(ListErrorCodes()) != len(errorCodeRegistry) {
		t.Error("ListErrorCodes() should list every registered code")
	}
}

func TestErrorHelpers(t *testing.T) {
	t.Run("AsSDKError", func(t *testing.T) {
		sdkErr := ConfigurationError("x", "y")

		if extracted, ok := AsSDKError(sdkErr); !ok || extracted != sdkErr {
			t.Error("AsSDKError() failed for SDKError")
		}
		if _, ok := AsSDKError(fmt.Errorf("regular error")); ok {
			t.Error("AsSDKError() should return false for regular errors")
		}
		if _, ok := AsSDKError(nil); ok {
			t.Error("AsSDKError() should return false for nil")
		}
	})

	t.Run("IsCode", func(t *testing.T) {
		err := UnresolvedDestination("x:y")
		if !IsCode(err, CodeUnresolvedDestination) {
			t.Error("IsCode() should return true for matching code")
		}
		if IsCode(err, CodeTransportError) {
			t.Error("IsCode() should return false for non-matching code")
		}
	})

	t.Run("IsRetryableError", func(t *testing.T) {
		if !IsRetryableError(ConnectionTimeout("http", "http://example.com", 30*time.Second)) {
			t.Error("IsRetryableError() should return true for timeout errors")
		}
		if IsRetryableError(MessageSendError("http", "", fmt.Errorf("broken pipe"))) {
			t.Error("IsRetryableError() should return false once a request was written")
		}
		if IsRetryableError(UnresolvedDestination("x:y")) {
			t.Error("IsRetryableError() should return false for destination errors")
		}
	})
}
