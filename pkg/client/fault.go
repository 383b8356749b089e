package client

import (
	"context"

	"github.com/ajitpratap0/wsclient-go/pkg/message"
)

// FaultResolver turns a fault response into the error returned to the caller
type FaultResolver interface {
	ResolveFault(ctx context.Context, response message.Message) error
}

// FaultResolverFunc adapts a function to FaultResolver
type FaultResolverFunc func(ctx context.Context, response message.Message) error

// ResolveFault implements FaultResolver
func (f FaultResolverFunc) ResolveFault(ctx context.Context, response message.Message) error {
	return f(ctx, response)
}

// DefaultFaultResolver returns a structured fault error for the response's fault
func DefaultFaultResolver() FaultResolver {
	return FaultResolverFunc(func(ctx context.Context, response message.Message) error {
		return response.Fault().Err()
	})
}
