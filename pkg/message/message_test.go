package message

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"

	wserrors "github.com/ajitpratap0/wsclient-go/pkg/errors"
)

func TestHeader(t *testing.T) {
	var nilHeader Header
	assert.Equal(t, "", nilHeader.Get("missing"))

	h := Header{}
	h.Set("b", "2")
	h.Set("a", "1")
	assert.Equal(t, "1", h.Get("a"))
	assert.Equal(t, []string{"a", "b"}, h.Keys())

	clone := h.Clone()
	h.Del("a")
	assert.Equal(t, "", h.Get("a"))
	assert.Equal(t, "1", clone.Get("a"), "clone must not share storage")
}

func TestSetPayload(t *testing.T) {
	msg := NewEnvelopeMessage("1")

	require.NoError(t, msg.SetPayload(json.RawMessage(`{"ping":{}}`)))
	assert.JSONEq(t, `{"ping":{}}`, string(msg.Payload()))

	err := msg.SetPayload(json.RawMessage(`<ping/>`))
	require.Error(t, err)
	assert.True(t, wserrors.IsCode(err, wserrors.CodeInvalidPayload))
	assert.JSONEq(t, `{"ping":{}}`, string(msg.Payload()), "rejected payload must not replace the body")

	require.NoError(t, msg.SetPayload(nil))
	assert.Nil(t, msg.Payload())
}

func TestSetPayloadCopiesInput(t *testing.T) {
	msg := NewEnvelopeMessage("1")
	buf := []byte(`{"n":1}`)
	require.NoError(t, msg.SetPayload(buf))
	buf[5] = '2'
	assert.JSONEq(t, `{"n":1}`, string(msg.Payload()))
}

func TestFactoryRoundTrip(t *testing.T) {
	factory := NewEnvelopeFactory()
	req := factory.CreateMessage()
	assert.NotEmpty(t, req.ID())

	req.SetAction("urn:orders:create")
	req.Header().Set("X-Tenant", "acme")
	require.NoError(t, req.SetPayload(json.RawMessage(`{"order":{"id":7}}`)))

	data, err := Encode(req)
	require.NoError(t, err)

	got, err := factory.ReadMessage(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, req.ID(), got.ID())
	assert.Equal(t, "urn:orders:create", got.Action())
	assert.Equal(t, "acme", got.Header().Get("X-Tenant"))
	assert.JSONEq(t, `{"order":{"id":7}}`, string(got.Payload()))
	assert.False(t, got.HasFault())
}

func TestFactoryFaultEnvelope(t *testing.T) {
	factory := NewEnvelopeFactory()
	msg := factory.CreateMessage()
	msg.SetFault(&Fault{Code: FaultServer, Reason: "database unavailable", Detail: json.RawMessage(`{"retry":true}`)})

	data, err := Encode(msg)
	require.NoError(t, err)
	assert.True(t, IsFaultEnvelope(data))
	assert.False(t, IsFaultEnvelope([]byte(`{"id":"x","body":{}}`)))
	assert.False(t, IsFaultEnvelope([]byte(`Internal Server Error`)))

	got, err := factory.ReadMessage(bytes.NewReader(data))
	require.NoError(t, err)
	require.True(t, got.HasFault())

	faultErr := got.Fault().Err()
	assert.True(t, wserrors.IsCode(faultErr, wserrors.CodeServerFault))
	sdkErr, _ := wserrors.AsSDKError(faultErr)
	data2 := sdkErr.Data().(*wserrors.FaultErrorData)
	assert.Equal(t, "database unavailable", data2.Reason)
	assert.JSONEq(t, `{"retry":true}`, data2.Detail)
}

func TestReadMessageErrors(t *testing.T) {
	tests := []struct {
		name     string
		factory  *EnvelopeFactory
		input    string
		wantCode int
	}{
		{"empty", NewEnvelopeFactory(), "  ", wserrors.CodeInvalidPayload},
		{"malformed", NewEnvelopeFactory(), `{"id":`, wserrors.CodeUnmarshallingFailure},
		{"not json", NewEnvelopeFactory(), `<pong/>`, wserrors.CodeUnmarshallingFailure},
		{"too large", &EnvelopeFactory{MaxMessageSize: 8}, `{"id":"0123456789"}`, wserrors.CodeMessageTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.factory.ReadMessage(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.True(t, wserrors.IsCode(err, tt.wantCode), "got %v", err)
		})
	}
}

func TestJSONMarshaller(t *testing.T) {
	type order struct {
		ID   int    `json:"id"`
		Item string `json:"item"`
	}

	m := JSONMarshaller{}
	data, err := m.Marshal(order{ID: 1, Item: "book"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":1,"item":"book"}`, string(data))

	var got order
	require.NoError(t, m.Unmarshal(json.RawMessage(`{"id":2,"item":"pen","extra":true}`), &got))
	assert.Equal(t, order{ID: 2, Item: "pen"}, got)

	strict := JSONMarshaller{DisallowUnknownFields: true}
	err = strict.Unmarshal(json.RawMessage(`{"id":2,"extra":true}`), &got)
	require.Error(t, err)
	assert.True(t, wserrors.IsMarshallingError(err))

	_, err = m.Marshal(make(chan int))
	require.Error(t, err)
	assert.True(t, wserrors.IsCode(err, wserrors.CodeMarshallingFailure))
}

func TestProtoJSONMarshaller(t *testing.T) {
	m := ProtoJSONMarshaller{}

	in, err := structpb.NewStruct(map[string]interface{}{"greeting": "hello"})
	require.NoError(t, err)

	data, err := m.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"greeting":"hello"}`, string(data))

	out := &structpb.Struct{}
	require.NoError(t, m.Unmarshal(data, out))
	assert.Equal(t, "hello", out.Fields["greeting"].GetStringValue())

	_, err = m.Marshal(struct{}{})
	assert.True(t, wserrors.IsCode(err, wserrors.CodeMarshallingFailure))

	var notProto map[string]interface{}
	err = m.Unmarshal(data, &notProto)
	assert.True(t, wserrors.IsCode(err, wserrors.CodeUnmarshallingFailure))
}

func TestMarshalFuncAdapters(t *testing.T) {
	var m Marshaller = MarshalFunc(func(v interface{}) (json.RawMessage, error) {
		return json.RawMessage(`"fixed"`), nil
	})
	data, err := m.Marshal(nil)
	require.NoError(t, err)
	assert.Equal(t, `"fixed"`, string(data))

	var called bool
	var u Unmarshaller = UnmarshalFunc(func(data json.RawMessage, v interface{}) error {
		called = true
		return nil
	})
	require.NoError(t, u.Unmarshal(nil, nil))
	assert.True(t, called)
}

func TestNewReply(t *testing.T) {
	req := NewEnvelopeFactory().CreateMessage()
	req.SetAction("urn:ping")

	reply := NewReply(req)
	assert.NotEqual(t, req.ID(), reply.ID())
	assert.Equal(t, req.ID(), reply.Header().Get(HeaderRelatesTo))
	assert.Equal(t, "urn:pingResponse", reply.Action())
}
