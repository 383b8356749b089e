package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ajitpratap0/wsclient-go/pkg/client"
	wserrors "github.com/ajitpratap0/wsclient-go/pkg/errors"
)

const (
	spanProperty  = "observability.span"
	startProperty = "observability.start"
)

// MetricsInterceptor records every template exchange in a MetricsProvider
type MetricsInterceptor struct {
	metrics MetricsProvider
}

// NewMetricsInterceptor creates a metrics interceptor
func NewMetricsInterceptor(metrics MetricsProvider) *MetricsInterceptor {
	return &MetricsInterceptor{metrics: metrics}
}

// HandleRequest implements client.ClientInterceptor
func (i *MetricsInterceptor) HandleRequest(ctx context.Context, mc *client.MessageContext) (context.Context, error) {
	mc.SetProperty(startProperty, time.Now())
	i.metrics.RecordActiveExchanges(ctx, 1)
	return ctx, nil
}

// HandleResponse implements client.ClientInterceptor
func (i *MetricsInterceptor) HandleResponse(ctx context.Context, mc *client.MessageContext) error {
	return nil
}

// HandleFault implements client.ClientInterceptor
func (i *MetricsInterceptor) HandleFault(ctx context.Context, mc *client.MessageContext) error {
	i.metrics.RecordFault(ctx, mc.URI.Scheme, string(mc.Response.Fault().Code))
	return nil
}

// AfterCompletion implements client.ClientInterceptor. Exchanges that never
// reached this interceptor's HandleRequest are not counted.
func (i *MetricsInterceptor) AfterCompletion(ctx context.Context, mc *client.MessageContext, err error) {
	v, ok := mc.Property(startProperty)
	if !ok {
		return
	}
	start := v.(time.Time)
	i.metrics.RecordActiveExchanges(ctx, -1)

	status := StatusSuccess
	switch {
	case err != nil && wserrors.IsFault(err):
		status = StatusFault
	case err != nil:
		status = StatusError
		i.metrics.RecordError(ctx, mc.URI.Scheme, err)
	case mc.Response != nil && mc.Response.HasFault():
		status = StatusFault
	}

	i.metrics.RecordExchange(ctx, mc.URI.Scheme, mc.Request.Action(), status, time.Since(start))
}

// TracingInterceptor wraps every template exchange in a client span and
// propagates the trace context in the request headers
type TracingInterceptor struct {
	tracer *TracingProvider

	// CaptureRequestPayload records request bodies as span attributes
	CaptureRequestPayload bool
	// CaptureResponsePayload records response bodies as span attributes
	CaptureResponsePayload bool
}

// NewTracingInterceptor creates a tracing interceptor
func NewTracingInterceptor(tracer *TracingProvider) *TracingInterceptor {
	return &TracingInterceptor{tracer: tracer}
}

// HandleRequest implements client.ClientInterceptor
func (i *TracingInterceptor) HandleRequest(ctx context.Context, mc *client.MessageContext) (context.Context, error) {
	ctx, span := i.tracer.StartExchangeSpan(ctx, mc.URI, mc.Request.Action())
	span.SetAttributes(AttrMessageID.String(mc.Request.ID()))
	if i.CaptureRequestPayload && len(mc.Request.Payload()) > 0 {
		span.SetAttributes(attribute.String("ws.request.payload", string(mc.Request.Payload())))
	}

	i.tracer.Inject(ctx, mc.Request.Header())
	mc.SetProperty(spanProperty, span)
	return ctx, nil
}

// HandleResponse implements client.ClientInterceptor
func (i *TracingInterceptor) HandleResponse(ctx context.Context, mc *client.MessageContext) error {
	span := spanOf(mc)
	if span == nil {
		return nil
	}
	span.AddEvent("response", trace.WithAttributes(AttrMessageID.String(mc.Response.ID())))
	if i.CaptureResponsePayload && len(mc.Response.Payload()) > 0 {
		span.SetAttributes(attribute.String("ws.response.payload", string(mc.Response.Payload())))
	}
	return nil
}

// HandleFault implements client.ClientInterceptor
func (i *TracingInterceptor) HandleFault(ctx context.Context, mc *client.MessageContext) error {
	span := spanOf(mc)
	if span == nil {
		return nil
	}
	fault := mc.Response.Fault()
	span.SetAttributes(AttrFaultCode.String(string(fault.Code)))
	span.AddEvent("fault", trace.WithAttributes(attribute.String("ws.fault.reason", fault.Reason)))
	return nil
}

// AfterCompletion implements client.ClientInterceptor
func (i *TracingInterceptor) AfterCompletion(ctx context.Context, mc *client.MessageContext, err error) {
	span := spanOf(mc)
	if span == nil {
		return
	}
	if err != nil {
		recordSpanError(span, err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

func spanOf(mc *client.MessageContext) trace.Span {
	v, ok := mc.Property(spanProperty)
	if !ok {
		return nil
	}
	span, _ := v.(trace.Span)
	return span
}
