package message

import (
	"encoding/json"
	"io"
	"sort"
	"strings"

	wserrors "github.com/ajitpratap0/wsclient-go/pkg/errors"
)

// Well-known header names
const (
	HeaderContentType = "Content-Type"
	HeaderAction      = "X-WS-Action"
	HeaderMessageID   = "X-WS-Message-ID"
	HeaderRelatesTo   = "X-WS-Relates-To"
)

// Header holds protocol metadata carried alongside the body.
// It satisfies the OpenTelemetry propagation.TextMapCarrier contract.
type Header map[string]string

// Get returns the value for key, or "" when absent.
func (h Header) Get(key string) string {
	if h == nil {
		return ""
	}
	return h[key]
}

// Set stores a value under key.
func (h Header) Set(key, value string) {
	h[key] = value
}

// Del removes key.
func (h Header) Del(key string) {
	delete(h, key)
}

// Keys lists the header names in sorted order.
func (h Header) Keys() []string {
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a copy of the header map
func (h Header) Clone() Header {
	out := make(Header, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}

// FaultCode classifies the party responsible for a fault.
type FaultCode string

// Fault codes
const (
	FaultClient          FaultCode = "Client"
	FaultServer          FaultCode = "Server"
	FaultVersionMismatch FaultCode = "VersionMismatch"
	FaultMustUnderstand  FaultCode = "MustUnderstand"
)

// Fault is an application-level error answer carried in a response message.
type Fault struct {
	// Code identifies who is to blame for the fault.
	Code FaultCode `json:"code"`

	// Reason is a human-readable explanation.
	Reason string `json:"reason"`

	// Actor optionally identifies the node that raised the fault.
	Actor string `json:"actor,omitempty"`

	// Detail carries application-specific error information.
	Detail json.RawMessage `json:"detail,omitempty"`
}

// Err converts the fault into a structured fault error.
func (f *Fault) Err() error {
	err := wserrors.FaultError(string(f.Code), f.Reason, f.Actor)
	if len(f.Detail) > 0 {
		if data, ok := err.Data().(*wserrors.FaultErrorData); ok {
			data.Detail = string(f.Detail)
		}
	}
	return err
}

// Message is a structured payload container: a JSON document body plus
// protocol metadata. Messages are created by a Factory. Pre-send callbacks
// and transports may mutate a request; a message handed to a response
// extractor must be treated as read-only.
type Message interface {
	// ID returns the message identifier assigned by the factory.
	ID() string

	// Action returns the action this message addresses.
	Action() string

	// SetAction sets the action this message addresses.
	SetAction(action string)

	// Header returns the live header map.
	Header() Header

	// Payload returns the body document, or nil when empty.
	Payload() json.RawMessage

	// SetPayload replaces the body document. Input that is not
	// well-formed JSON is rejected.
	SetPayload(payload json.RawMessage) error

	// Fault returns the fault carried by the message, if any.
	Fault() *Fault

	// SetFault marks the message as a fault answer.
	SetFault(fault *Fault)

	// HasFault reports whether the message carries a fault.
	HasFault() bool

	// WriteTo serialises the message.
	WriteTo(w io.Writer) (int64, error)
}

// envelope is the wire representation of an EnvelopeMessage
type envelope struct {
	ID      string          `json:"id"`
	Action  string          `json:"action,omitempty"`
	Headers Header          `json:"headers,omitempty"`
	Body    json.RawMessage `json:"body,omitempty"`
	Fault   *Fault          `json:"fault,omitempty"`
}

// EnvelopeMessage is the default Message implementation.
type EnvelopeMessage struct {
	env envelope
}

// NewEnvelopeMessage creates an empty message with the given id
func NewEnvelopeMessage(id string) *EnvelopeMessage {
	return &EnvelopeMessage{env: envelope{ID: id, Headers: Header{}}}
}

// ID returns the message identifier
func (m *EnvelopeMessage) ID() string { return m.env.ID }

// Action returns the message action
func (m *EnvelopeMessage) Action() string { return m.env.Action }

// SetAction sets the message action
func (m *EnvelopeMessage) SetAction(action string) { m.env.Action = action }

// Header returns the message headers
func (m *EnvelopeMessage) Header() Header {
	if m.env.Headers == nil {
		m.env.Headers = Header{}
	}
	return m.env.Headers
}

// Payload returns the body document
func (m *EnvelopeMessage) Payload() json.RawMessage { return m.env.Body }

// SetPayload replaces the body document
func (m *EnvelopeMessage) SetPayload(payload json.RawMessage) error {
	if len(payload) == 0 {
		m.env.Body = nil
		return nil
	}
	if !json.Valid(payload) {
		return wserrors.InvalidPayload("body is not a well-formed JSON document")
	}
	body := make(json.RawMessage, len(payload))
	copy(body, payload)
	m.env.Body = body
	return nil
}

// Fault returns the fault, if any
func (m *EnvelopeMessage) Fault() *Fault { return m.env.Fault }

// SetFault sets the fault
func (m *EnvelopeMessage) SetFault(fault *Fault) { m.env.Fault = fault }

// HasFault reports whether a fault is present
func (m *EnvelopeMessage) HasFault() bool { return m.env.Fault != nil }

// WriteTo writes the JSON envelope to w
func (m *EnvelopeMessage) WriteTo(w io.Writer) (int64, error) {
	data, err := json.Marshal(&m.env)
	if err != nil {
		return 0, wserrors.MarshallingFailure("message envelope", err)
	}
	n, err := w.Write(data)
	return int64(n), err
}

// MarshalJSON encodes the envelope
func (m *EnvelopeMessage) MarshalJSON() ([]byte, error) {
	return json.Marshal(&m.env)
}

// String renders the message for logs and assertion output
func (m *EnvelopeMessage) String() string {
	var sb strings.Builder
	if _, err := m.WriteTo(&sb); err != nil {
		return "<invalid message: " + err.Error() + ">"
	}
	return sb.String()
}
