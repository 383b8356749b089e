package client

import (
	"context"
	"net/url"

	"github.com/ajitpratap0/wsclient-go/pkg/message"
)

// MessageContext carries the request and response of one exchange through
// the interceptor chain.
type MessageContext struct {
	// URI is the resolved destination.
	URI *url.URL

	// Request is the outgoing message.
	Request message.Message

	// Response is the received message, nil until one arrives.
	Response message.Message

	properties map[string]interface{}
}

// SetProperty stores a value for later interceptor stages
func (mc *MessageContext) SetProperty(name string, value interface{}) {
	if mc.properties == nil {
		mc.properties = make(map[string]interface{})
	}
	mc.properties[name] = value
}

// Property returns a value stored with SetProperty
func (mc *MessageContext) Property(name string) (interface{}, bool) {
	v, ok := mc.properties[name]
	return v, ok
}

// ClientInterceptor observes and may veto an exchange.
//
// HandleRequest runs in registration order after the request callbacks and
// before Send; it may return a derived context used for the rest of the
// exchange. HandleResponse and HandleFault run in reverse order once a
// response arrives. AfterCompletion always runs, in reverse order, with the
// error the exchange ends with.
type ClientInterceptor interface {
	HandleRequest(ctx context.Context, mc *MessageContext) (context.Context, error)
	HandleResponse(ctx context.Context, mc *MessageContext) error
	HandleFault(ctx context.Context, mc *MessageContext) error
	AfterCompletion(ctx context.Context, mc *MessageContext, err error)
}

// InterceptorFuncs builds a ClientInterceptor from optional functions
type InterceptorFuncs struct {
	Request    func(ctx context.Context, mc *MessageContext) (context.Context, error)
	Response   func(ctx context.Context, mc *MessageContext) error
	Fault      func(ctx context.Context, mc *MessageContext) error
	Completion func(ctx context.Context, mc *MessageContext, err error)
}

// HandleRequest implements ClientInterceptor
func (f InterceptorFuncs) HandleRequest(ctx context.Context, mc *MessageContext) (context.Context, error) {
	if f.Request == nil {
		return ctx, nil
	}
	return f.Request(ctx, mc)
}

// HandleResponse implements ClientInterceptor
func (f InterceptorFuncs) HandleResponse(ctx context.Context, mc *MessageContext) error {
	if f.Response == nil {
		return nil
	}
	return f.Response(ctx, mc)
}

// HandleFault implements ClientInterceptor
func (f InterceptorFuncs) HandleFault(ctx context.Context, mc *MessageContext) error {
	if f.Fault == nil {
		return nil
	}
	return f.Fault(ctx, mc)
}

// AfterCompletion implements ClientInterceptor
func (f InterceptorFuncs) AfterCompletion(ctx context.Context, mc *MessageContext, err error) {
	if f.Completion != nil {
		f.Completion(ctx, mc, err)
	}
}
