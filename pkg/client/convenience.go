package client

import (
	"context"
	"encoding/json"
	"io"

	wserrors "github.com/ajitpratap0/wsclient-go/pkg/errors"
	"github.com/ajitpratap0/wsclient-go/pkg/message"
)

// SendDocument sends doc as the request body and returns a copy of the
// response body. The result is nil when no response arrives or when the
// response carries no body, as with a fault handled without a resolver.
func (t *Template) SendDocument(ctx context.Context, uri string, doc json.RawMessage, callbacks ...RequestCallback) (json.RawMessage, error) {
	callback := ChainCallbacks(append([]RequestCallback{payloadCallback(doc)}, callbacks...)...)
	result, err := t.SendAndReceive(ctx, uri, callback, func(ctx context.Context, response message.Message) (interface{}, error) {
		body := response.Payload()
		if len(body) == 0 {
			return nil, nil
		}
		out := make(json.RawMessage, len(body))
		copy(out, body)
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	out, _ := result.(json.RawMessage)
	return out, nil
}

// SendDocumentToWriter reads the request body from src and writes the
// response body to dst. It reports whether a response was written.
func (t *Template) SendDocumentToWriter(ctx context.Context, uri string, src io.Reader, dst io.Writer, callbacks ...RequestCallback) (bool, error) {
	doc, err := io.ReadAll(src)
	if err != nil {
		return false, wserrors.InvalidPayload(err.Error())
	}

	callback := ChainCallbacks(append([]RequestCallback{payloadCallback(doc)}, callbacks...)...)
	result, err := t.SendAndReceive(ctx, uri, callback, func(ctx context.Context, response message.Message) (interface{}, error) {
		if _, err := dst.Write(response.Payload()); err != nil {
			return nil, err
		}
		return true, nil
	})
	return result != nil, err
}

// MarshalSendAndReceive marshals request into the request body and, when a
// response arrives and response is not nil, unmarshals the response body
// into it. It reports whether a response arrived.
func (t *Template) MarshalSendAndReceive(ctx context.Context, uri string, request, response interface{}, callbacks ...RequestCallback) (bool, error) {
	if t.marshaller == nil {
		return false, wserrors.MissingParameter("marshaller")
	}
	if response != nil && t.unmarshaller == nil {
		return false, wserrors.MissingParameter("unmarshaller")
	}

	marshal := func(ctx context.Context, msg message.Message) error {
		body, err := t.marshaller.Marshal(request)
		if err != nil {
			return asMarshallingError(err, wserrors.MarshallingFailure, "request")
		}
		return msg.SetPayload(body)
	}

	callback := ChainCallbacks(append([]RequestCallback{marshal}, callbacks...)...)
	result, err := t.SendAndReceive(ctx, uri, callback, func(ctx context.Context, msg message.Message) (interface{}, error) {
		if response != nil {
			if err := t.unmarshaller.Unmarshal(msg.Payload(), response); err != nil {
				return nil, asMarshallingError(err, wserrors.UnmarshallingFailure, "response")
			}
		}
		return true, nil
	})
	return result != nil, err
}

// asMarshallingError keeps structured errors as they are and classifies the rest
func asMarshallingError(err error, wrap func(string, error) wserrors.SDKError, target string) error {
	if wserrors.IsSDKError(err) {
		return err
	}
	return wrap(target, err)
}
