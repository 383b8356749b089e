package message

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/google/uuid"

	wserrors "github.com/ajitpratap0/wsclient-go/pkg/errors"
)

// Factory creates outgoing messages and parses incoming ones.
// Implementations must be safe for concurrent use.
type Factory interface {
	// CreateMessage creates an empty message.
	CreateMessage() Message

	// ReadMessage parses a message from a stream.
	ReadMessage(r io.Reader) (Message, error)
}

// EnvelopeFactory reads and writes messages as JSON envelopes of the form
// {"id","action","headers","body","fault"}.
type EnvelopeFactory struct {
	// MaxMessageSize limits the size of parsed messages; zero means no limit.
	MaxMessageSize int64
}

// NewEnvelopeFactory creates a factory with no size limit
func NewEnvelopeFactory() *EnvelopeFactory {
	return &EnvelopeFactory{}
}

// CreateMessage creates an empty message with a fresh id
func (f *EnvelopeFactory) CreateMessage() Message {
	return NewEnvelopeMessage(uuid.New().String())
}

// ReadMessage parses a JSON envelope
func (f *EnvelopeFactory) ReadMessage(r io.Reader) (Message, error) {
	if r == nil {
		return nil, wserrors.InvalidPayload("nil message stream")
	}

	reader := r
	if f.MaxMessageSize > 0 {
		reader = io.LimitReader(r, f.MaxMessageSize+1)
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, wserrors.UnmarshallingFailure("message envelope", err)
	}
	if f.MaxMessageSize > 0 && int64(len(data)) > f.MaxMessageSize {
		return nil, wserrors.MessageTooLarge("envelope", int64(len(data)), f.MaxMessageSize)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, wserrors.InvalidPayload("empty message")
	}

	msg := &EnvelopeMessage{}
	if err := json.Unmarshal(data, &msg.env); err != nil {
		return nil, wserrors.UnmarshallingFailure("message envelope", err)
	}
	if msg.env.Headers == nil {
		msg.env.Headers = Header{}
	}
	return msg, nil
}

// Encode serialises a message into a byte slice
func Encode(m Message) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := m.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// IsFaultEnvelope reports whether data is an envelope carrying a fault.
// Transports use it to tell fault answers apart from arbitrary error bodies.
func IsFaultEnvelope(data []byte) bool {
	var envelope struct {
		Fault *Fault `json:"fault"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return false
	}
	return envelope.Fault != nil
}

// NewReply creates a response message correlated with request.
func NewReply(request Message) *EnvelopeMessage {
	reply := NewEnvelopeMessage(uuid.New().String())
	reply.Header().Set(HeaderRelatesTo, request.ID())
	if action := request.Action(); action != "" {
		reply.SetAction(action + "Response")
	}
	return reply
}
