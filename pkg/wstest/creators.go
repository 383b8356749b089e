package wstest

import (
	"encoding/json"
	"errors"
	"net/url"

	wserrors "github.com/ajitpratap0/wsclient-go/pkg/errors"
	"github.com/ajitpratap0/wsclient-go/pkg/message"
)

// ResponseCreator produces the answer to a matched request: a response
// message, or an error the mock connection raises on receive. It must not
// depend on harness state.
type ResponseCreator interface {
	CreateResponse(uri *url.URL, request message.Message, factory message.Factory) (message.Message, error)
}

// ResponseCreatorFunc adapts a function to ResponseCreator
type ResponseCreatorFunc func(uri *url.URL, request message.Message, factory message.Factory) (message.Message, error)

// CreateResponse implements ResponseCreator
func (f ResponseCreatorFunc) CreateResponse(uri *url.URL, request message.Message, factory message.Factory) (message.Message, error) {
	return f(uri, request, factory)
}

// WithPayload answers with a response carrying doc
func WithPayload(doc json.RawMessage) ResponseCreator {
	return ResponseCreatorFunc(func(_ *url.URL, request message.Message, factory message.Factory) (message.Message, error) {
		response := reply(request, factory)
		if err := response.SetPayload(doc); err != nil {
			return nil, err
		}
		return response, nil
	})
}

// WithFault answers with a fault message
func WithFault(code message.FaultCode, reason string) ResponseCreator {
	return ResponseCreatorFunc(func(_ *url.URL, request message.Message, factory message.Factory) (message.Message, error) {
		response := reply(request, factory)
		response.SetFault(&message.Fault{Code: code, Reason: reason})
		return response, nil
	})
}

// WithClientFault answers with a fault blaming the sender
func WithClientFault(reason string) ResponseCreator {
	return WithFault(message.FaultClient, reason)
}

// WithServerFault answers with a fault blaming the receiver
func WithServerFault(reason string) ResponseCreator {
	return WithFault(message.FaultServer, reason)
}

// WithError makes the connection fail with an I/O error while receiving
func WithError(reason string) ResponseCreator {
	return ResponseCreatorFunc(func(uri *url.URL, _ message.Message, _ message.Factory) (message.Message, error) {
		return nil, wserrors.MessageReceiveError(scheme, uri.String(), errors.New(reason))
	})
}

// WithException makes the connection raise err unchanged while receiving
func WithException(err error) ResponseCreator {
	return ResponseCreatorFunc(func(*url.URL, message.Message, message.Factory) (message.Message, error) {
		return nil, err
	})
}

// WithTransportFault makes the connection report a fault signalled by the
// transport itself, such as an HTTP error status
func WithTransportFault(statusCode int, reason string) ResponseCreator {
	return ResponseCreatorFunc(func(*url.URL, message.Message, message.Factory) (message.Message, error) {
		return nil, wserrors.TransportFault(scheme, statusCode, reason)
	})
}

// WithNoResponse makes the destination accept the request without answering
func WithNoResponse() ResponseCreator {
	return noResponse{}
}

type noResponse struct{}

func (noResponse) CreateResponse(*url.URL, message.Message, message.Factory) (message.Message, error) {
	return nil, nil
}

// reply creates a response correlated with request
func reply(request message.Message, factory message.Factory) message.Message {
	response := factory.CreateMessage()
	response.Header().Set(message.HeaderRelatesTo, request.ID())
	if action := request.Action(); action != "" {
		response.SetAction(action + "Response")
	}
	return response
}
