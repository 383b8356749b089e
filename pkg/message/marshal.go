package message

import (
	"bytes"
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"

	wserrors "github.com/ajitpratap0/wsclient-go/pkg/errors"
)

// Marshaller converts application objects into body documents.
type Marshaller interface {
	Marshal(v interface{}) (json.RawMessage, error)
}

// Unmarshaller converts body documents into application objects.
type Unmarshaller interface {
	Unmarshal(data json.RawMessage, v interface{}) error
}

// MarshalFunc adapts a function to Marshaller
type MarshalFunc func(v interface{}) (json.RawMessage, error)

// Marshal calls f(v)
func (f MarshalFunc) Marshal(v interface{}) (json.RawMessage, error) { return f(v) }

// UnmarshalFunc adapts a function to Unmarshaller
type UnmarshalFunc func(data json.RawMessage, v interface{}) error

// Unmarshal calls f(data, v)
func (f UnmarshalFunc) Unmarshal(data json.RawMessage, v interface{}) error { return f(data, v) }

// JSONMarshaller marshals with encoding/json.
type JSONMarshaller struct {
	// DisallowUnknownFields rejects documents with fields the target lacks.
	DisallowUnknownFields bool
}

// Marshal encodes v as JSON
func (m JSONMarshaller) Marshal(v interface{}) (json.RawMessage, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, wserrors.MarshallingFailure(fmt.Sprintf("%T", v), err)
	}
	return data, nil
}

// Unmarshal decodes data into v
func (m JSONMarshaller) Unmarshal(data json.RawMessage, v interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	if m.DisallowUnknownFields {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(v); err != nil {
		return wserrors.UnmarshallingFailure(fmt.Sprintf("%T", v), err)
	}
	return nil
}

// ProtoJSONMarshaller marshals protocol buffer messages using the canonical
// JSON mapping. Values that are not proto.Message are rejected.
type ProtoJSONMarshaller struct {
	MarshalOptions   protojson.MarshalOptions
	UnmarshalOptions protojson.UnmarshalOptions
}

// Marshal encodes a proto.Message as JSON
func (m ProtoJSONMarshaller) Marshal(v interface{}) (json.RawMessage, error) {
	pm, ok := v.(proto.Message)
	if !ok {
		return nil, wserrors.MarshallingFailure(fmt.Sprintf("%T", v), fmt.Errorf("value is not a proto.Message"))
	}
	data, err := m.MarshalOptions.Marshal(pm)
	if err != nil {
		return nil, wserrors.MarshallingFailure(fmt.Sprintf("%T", v), err)
	}
	return data, nil
}

// Unmarshal decodes JSON into a proto.Message
func (m ProtoJSONMarshaller) Unmarshal(data json.RawMessage, v interface{}) error {
	pm, ok := v.(proto.Message)
	if !ok {
		return wserrors.UnmarshallingFailure(fmt.Sprintf("%T", v), fmt.Errorf("value is not a proto.Message"))
	}
	if err := m.UnmarshalOptions.Unmarshal(data, pm); err != nil {
		return wserrors.UnmarshallingFailure(fmt.Sprintf("%T", v), err)
	}
	return nil
}
