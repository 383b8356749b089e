package observability

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	wserrors "github.com/ajitpratap0/wsclient-go/pkg/errors"
)

// Exchange outcomes used as the status label
const (
	StatusSuccess = "success"
	StatusFault   = "fault"
	StatusError   = "error"
)

// MetricsConfig configures the metrics provider
type MetricsConfig struct {
	// Service identification
	ServiceName    string
	ServiceVersion string
	Environment    string

	// Prometheus configuration
	MetricsPath   string // HTTP path for metrics endpoint (default: /metrics)
	ListenAddress string // Address for the metrics server (default: :9090)

	// Metric options
	Namespace        string    // Prometheus namespace (default: wsclient)
	Subsystem        string    // Prometheus subsystem
	HistogramBuckets []float64 // Latency buckets in milliseconds

	// Labels to add to all metrics
	ConstLabels prometheus.Labels

	// Registry receives the collectors; nil uses the default registry
	Registry *prometheus.Registry
}

// MetricsProvider records exchange and transport metrics
type MetricsProvider interface {
	// Exchanges driven by the template
	RecordExchange(ctx context.Context, scheme, action, status string, duration time.Duration)
	RecordFault(ctx context.Context, scheme, faultCode string)
	RecordError(ctx context.Context, scheme string, err error)
	RecordActiveExchanges(ctx context.Context, delta int)

	// Connection lifecycle events, see transport.MetricsRecorder
	RecordTransportEvent(ctx context.Context, scheme, event string, duration time.Duration, err error)

	// Management
	Handler() http.Handler
	Start(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

// PrometheusMetricsProvider implements MetricsProvider using Prometheus
type PrometheusMetricsProvider struct {
	config     MetricsConfig
	registerer prometheus.Registerer
	gatherer   prometheus.Gatherer

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener

	exchangeDuration       *prometheus.HistogramVec
	exchangeTotal          *prometheus.CounterVec
	activeExchanges        prometheus.Gauge
	faultTotal             *prometheus.CounterVec
	errorTotal             *prometheus.CounterVec
	transportEventDuration *prometheus.HistogramVec
	transportEventTotal    *prometheus.CounterVec
}

// NewMetricsProvider creates a new Prometheus metrics provider
func NewMetricsProvider(config MetricsConfig) (*PrometheusMetricsProvider, error) {
	if config.Namespace == "" {
		config.Namespace = "wsclient"
	}
	if config.MetricsPath == "" {
		config.MetricsPath = "/metrics"
	}
	if config.ListenAddress == "" {
		config.ListenAddress = ":9090"
	}
	if config.HistogramBuckets == nil {
		config.HistogramBuckets = []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000}
	}

	labels := prometheus.Labels{}
	for k, v := range config.ConstLabels {
		labels[k] = v
	}
	if config.ServiceName != "" {
		labels["service"] = config.ServiceName
	}
	if config.ServiceVersion != "" {
		labels["version"] = config.ServiceVersion
	}
	if config.Environment != "" {
		labels["environment"] = config.Environment
	}
	config.ConstLabels = labels

	provider := &PrometheusMetricsProvider{
		config:     config,
		registerer: prometheus.DefaultRegisterer,
		gatherer:   prometheus.DefaultGatherer,
	}
	if config.Registry != nil {
		provider.registerer = config.Registry
		provider.gatherer = config.Registry
	}

	provider.initializeMetrics()

	if err := provider.registerMetrics(); err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	return provider, nil
}

// initializeMetrics creates all metric collectors
func (p *PrometheusMetricsProvider) initializeMetrics() {
	p.exchangeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   p.config.Namespace,
			Subsystem:   p.config.Subsystem,
			Name:        "exchange_duration_milliseconds",
			Help:        "Duration of template exchanges in milliseconds",
			Buckets:     p.config.HistogramBuckets,
			ConstLabels: p.config.ConstLabels,
		},
		[]string{"scheme", "action", "status"},
	)

	p.exchangeTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   p.config.Namespace,
			Subsystem:   p.config.Subsystem,
			Name:        "exchange_total",
			Help:        "Total number of template exchanges",
			ConstLabels: p.config.ConstLabels,
		},
		[]string{"scheme", "action", "status"},
	)

	p.activeExchanges = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace:   p.config.Namespace,
			Subsystem:   p.config.Subsystem,
			Name:        "active_exchanges",
			Help:        "Number of exchanges in flight",
			ConstLabels: p.config.ConstLabels,
		},
	)

	p.faultTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   p.config.Namespace,
			Subsystem:   p.config.Subsystem,
			Name:        "fault_total",
			Help:        "Total number of fault responses",
			ConstLabels: p.config.ConstLabels,
		},
		[]string{"scheme", "code"},
	)

	p.errorTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   p.config.Namespace,
			Subsystem:   p.config.Subsystem,
			Name:        "error_total",
			Help:        "Total number of failed exchanges by error category",
			ConstLabels: p.config.ConstLabels,
		},
		[]string{"scheme", "category"},
	)

	p.transportEventDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   p.config.Namespace,
			Subsystem:   p.config.Subsystem,
			Name:        "transport_event_duration_milliseconds",
			Help:        "Duration of transport events in milliseconds",
			Buckets:     p.config.HistogramBuckets,
			ConstLabels: p.config.ConstLabels,
		},
		[]string{"scheme", "event", "status"},
	)

	p.transportEventTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   p.config.Namespace,
			Subsystem:   p.config.Subsystem,
			Name:        "transport_event_total",
			Help:        "Total number of transport events",
			ConstLabels: p.config.ConstLabels,
		},
		[]string{"scheme", "event", "status"},
	)
}

// registerMetrics registers all collectors. Collectors already present in
// the registry are reused so several providers can share one registry.
func (p *PrometheusMetricsProvider) registerMetrics() error {
	var err error
	if p.exchangeDuration, err = register(p.registerer, p.exchangeDuration); err != nil {
		return err
	}
	if p.exchangeTotal, err = register(p.registerer, p.exchangeTotal); err != nil {
		return err
	}
	if p.activeExchanges, err = register(p.registerer, p.activeExchanges); err != nil {
		return err
	}
	if p.faultTotal, err = register(p.registerer, p.faultTotal); err != nil {
		return err
	}
	if p.errorTotal, err = register(p.registerer, p.errorTotal); err != nil {
		return err
	}
	if p.transportEventDuration, err = register(p.registerer, p.transportEventDuration); err != nil {
		return err
	}
	if p.transportEventTotal, err = register(p.registerer, p.transportEventTotal); err != nil {
		return err
	}
	return nil
}

func register[C prometheus.Collector](r prometheus.Registerer, c C) (C, error) {
	if err := r.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordExchange records a completed exchange
func (p *PrometheusMetricsProvider) RecordExchange(ctx context.Context, scheme, action, status string, duration time.Duration) {
	ms := float64(duration.Milliseconds())
	p.exchangeDuration.WithLabelValues(scheme, action, status).Observe(ms)
	p.exchangeTotal.WithLabelValues(scheme, action, status).Inc()
}

// RecordFault records a fault response
func (p *PrometheusMetricsProvider) RecordFault(ctx context.Context, scheme, faultCode string) {
	p.faultTotal.WithLabelValues(scheme, faultCode).Inc()
}

// RecordError records a failed exchange under the error's category
func (p *PrometheusMetricsProvider) RecordError(ctx context.Context, scheme string, err error) {
	if err == nil {
		return
	}
	p.errorTotal.WithLabelValues(scheme, errorCategory(err)).Inc()
}

// RecordActiveExchanges records the change in exchanges in flight
func (p *PrometheusMetricsProvider) RecordActiveExchanges(ctx context.Context, delta int) {
	p.activeExchanges.Add(float64(delta))
}

// RecordTransportEvent records a transport event
func (p *PrometheusMetricsProvider) RecordTransportEvent(ctx context.Context, scheme, event string, duration time.Duration, err error) {
	status := StatusSuccess
	if err != nil {
		status = StatusError
	}
	ms := float64(duration.Milliseconds())
	p.transportEventDuration.WithLabelValues(scheme, event, status).Observe(ms)
	p.transportEventTotal.WithLabelValues(scheme, event, status).Inc()
}

// Handler serves the registry in the Prometheus exposition format
func (p *PrometheusMetricsProvider) Handler() http.Handler {
	return promhttp.HandlerFor(p.gatherer, promhttp.HandlerOpts{})
}

// Start starts the metrics HTTP server
func (p *PrometheusMetricsProvider) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.server != nil {
		return nil
	}

	ln, err := net.Listen("tcp", p.config.ListenAddress)
	if err != nil {
		return wserrors.ConfigurationError("metrics.listen_address", err.Error())
	}

	mux := http.NewServeMux()
	mux.Handle(p.config.MetricsPath, p.Handler())

	p.listener = ln
	p.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	server := p.server
	go func() {
		_ = server.Serve(ln)
	}()

	return nil
}

// Addr returns the address the metrics server listens on, nil before Start
func (p *PrometheusMetricsProvider) Addr() net.Addr {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.listener == nil {
		return nil
	}
	return p.listener.Addr()
}

// Shutdown gracefully shuts down the metrics server
func (p *PrometheusMetricsProvider) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	server := p.server
	p.server = nil
	p.listener = nil
	p.mu.Unlock()

	if server != nil {
		return server.Shutdown(ctx)
	}
	return nil
}

// errorCategory labels err by its SDK category
func errorCategory(err error) string {
	if sdkErr, ok := wserrors.AsSDKError(err); ok {
		return string(sdkErr.Category())
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return string(wserrors.CategoryTimeout)
	}
	return string(wserrors.CategoryInternal)
}
