package client

import (
	"context"

	"github.com/ajitpratap0/wsclient-go/pkg/message"
	"github.com/ajitpratap0/wsclient-go/pkg/transport"
)

// RequestCallback populates or decorates a request before it is sent.
// Returning an error aborts the exchange.
type RequestCallback func(ctx context.Context, request message.Message) error

// ResponseExtractor turns a received response into a result. It runs while
// the connection is still open.
type ResponseExtractor func(ctx context.Context, response message.Message) (interface{}, error)

// ConnectionExtractor is handed the still-open connection after the request
// was sent and a response is available. It is responsible for receiving the
// response itself; the template closes the connection once it returns.
type ConnectionExtractor func(ctx context.Context, conn transport.Connection, factory message.Factory) (interface{}, error)

// ActionCallback sets the action of the request
func ActionCallback(action string) RequestCallback {
	return func(ctx context.Context, request message.Message) error {
		request.SetAction(action)
		return nil
	}
}

// HeaderCallback sets a header on the request
func HeaderCallback(name, value string) RequestCallback {
	return func(ctx context.Context, request message.Message) error {
		request.Header().Set(name, value)
		return nil
	}
}

// ChainCallbacks runs callbacks in order, stopping at the first error
func ChainCallbacks(callbacks ...RequestCallback) RequestCallback {
	return func(ctx context.Context, request message.Message) error {
		for _, cb := range callbacks {
			if cb == nil {
				continue
			}
			if err := cb(ctx, request); err != nil {
				return err
			}
		}
		return nil
	}
}

// payloadCallback sets the request body to doc
func payloadCallback(doc []byte) RequestCallback {
	return func(ctx context.Context, request message.Message) error {
		return request.SetPayload(doc)
	}
}
