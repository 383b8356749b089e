// Package observability provides Prometheus metrics and OpenTelemetry
// tracing for template exchanges and the transports beneath them.
//
// A MetricsInterceptor and a TracingInterceptor plug into a client.Template;
// the PrometheusMetricsProvider also satisfies transport.MetricsRecorder so
// connection lifecycle events land in the same registry.
package observability

import (
	"context"
	"fmt"

	"github.com/ajitpratap0/wsclient-go/pkg/client"
	"github.com/ajitpratap0/wsclient-go/pkg/transport"
)

// ObservabilityConfig selects the observability features of a template
type ObservabilityConfig struct {
	// Tracing configuration
	EnableTracing bool
	TracingConfig TracingConfig

	// Metrics configuration
	EnableMetrics bool
	MetricsConfig MetricsConfig

	// Record message bodies on spans
	CaptureRequestPayload  bool
	CaptureResponsePayload bool
}

// Observability bundles the configured providers
type Observability struct {
	config  ObservabilityConfig
	tracer  *TracingProvider
	metrics *PrometheusMetricsProvider
}

// New creates the providers enabled in config
func New(config ObservabilityConfig) (*Observability, error) {
	o := &Observability{config: config}

	if config.EnableTracing {
		t, err := NewTracingProvider(config.TracingConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to create tracing provider: %w", err)
		}
		o.tracer = t
	}

	if config.EnableMetrics {
		m, err := NewMetricsProvider(config.MetricsConfig)
		if err != nil {
			if o.tracer != nil {
				_ = o.tracer.Shutdown(context.Background())
			}
			return nil, fmt.Errorf("failed to create metrics provider: %w", err)
		}
		o.metrics = m
	}

	return o, nil
}

// Tracer returns the tracing provider, nil when tracing is disabled
func (o *Observability) Tracer() *TracingProvider { return o.tracer }

// Metrics returns the metrics provider, nil when metrics are disabled
func (o *Observability) Metrics() *PrometheusMetricsProvider { return o.metrics }

// Interceptors returns the client interceptors for the enabled features.
// Tracing comes first so its span covers the metrics interceptor.
func (o *Observability) Interceptors() []client.ClientInterceptor {
	var interceptors []client.ClientInterceptor
	if o.tracer != nil {
		ti := NewTracingInterceptor(o.tracer)
		ti.CaptureRequestPayload = o.config.CaptureRequestPayload
		ti.CaptureResponsePayload = o.config.CaptureResponsePayload
		interceptors = append(interceptors, ti)
	}
	if o.metrics != nil {
		interceptors = append(interceptors, NewMetricsInterceptor(o.metrics))
	}
	return interceptors
}

// Recorder returns the transport metrics recorder, nil when metrics are disabled
func (o *Observability) Recorder() transport.MetricsRecorder {
	if o.metrics == nil {
		return nil
	}
	return o.metrics
}

// TemplateOptions wires the interceptors and the transport recorder into a
// template built with client.New or client.NewFromConfig
func (o *Observability) TemplateOptions() []client.Option {
	opts := []client.Option{client.WithInterceptors(o.Interceptors()...)}
	if recorder := o.Recorder(); recorder != nil {
		opts = append(opts, client.WithTransportMetrics(recorder))
	}
	return opts
}

// Start starts the metrics endpoint when metrics are enabled
func (o *Observability) Start(ctx context.Context) error {
	if o.metrics == nil {
		return nil
	}
	return o.metrics.Start(ctx)
}

// Shutdown stops the metrics endpoint and flushes pending spans
func (o *Observability) Shutdown(ctx context.Context) error {
	var firstErr error
	if o.metrics != nil {
		if err := o.metrics.Shutdown(ctx); err != nil {
			firstErr = err
		}
	}
	if o.tracer != nil {
		if err := o.tracer.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
