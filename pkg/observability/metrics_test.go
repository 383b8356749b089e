package observability

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wserrors "github.com/ajitpratap0/wsclient-go/pkg/errors"
	"github.com/ajitpratap0/wsclient-go/pkg/transport"
)

func newTestMetrics(t *testing.T) (*PrometheusMetricsProvider, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	m, err := NewMetricsProvider(MetricsConfig{
		ServiceName:   "orders",
		ListenAddress: "127.0.0.1:0",
		Registry:      reg,
	})
	require.NoError(t, err)
	return m, reg
}

func TestMetricsProviderImplementsRecorder(t *testing.T) {
	var _ transport.MetricsRecorder = (*PrometheusMetricsProvider)(nil)
	var _ MetricsProvider = (*PrometheusMetricsProvider)(nil)
}

func TestRecordExchange(t *testing.T) {
	m, _ := newTestMetrics(t)
	ctx := context.Background()

	m.RecordExchange(ctx, "http", "create", StatusSuccess, 12*time.Millisecond)
	m.RecordExchange(ctx, "http", "create", StatusSuccess, 3*time.Millisecond)
	m.RecordExchange(ctx, "http", "create", StatusFault, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.exchangeTotal.WithLabelValues("http", "create", StatusSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.exchangeTotal.WithLabelValues("http", "create", StatusFault)))
	assert.Equal(t, 2, testutil.CollectAndCount(m.exchangeDuration))
}

func TestRecordFaultsAndErrors(t *testing.T) {
	m, _ := newTestMetrics(t)
	ctx := context.Background()

	m.RecordFault(ctx, "nats", "Client")
	m.RecordError(ctx, "nats", wserrors.ConnectionFailed("nats", "nats:orders", errors.New("refused")))
	m.RecordError(ctx, "nats", fmt.Errorf("wrapped: %w", context.DeadlineExceeded))
	m.RecordError(ctx, "nats", errors.New("plain"))
	m.RecordError(ctx, "nats", nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.faultTotal.WithLabelValues("nats", "Client")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.errorTotal.WithLabelValues("nats", "transport")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.errorTotal.WithLabelValues("nats", "timeout")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.errorTotal.WithLabelValues("nats", "internal")))
	assert.Equal(t, 3, testutil.CollectAndCount(m.errorTotal))
}

func TestRecordTransportEvent(t *testing.T) {
	m, _ := newTestMetrics(t)
	ctx := context.Background()

	m.RecordTransportEvent(ctx, "ws", transport.EventOpen, time.Millisecond, nil)
	m.RecordTransportEvent(ctx, "ws", transport.EventSend, time.Millisecond, errors.New("broken pipe"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.transportEventTotal.WithLabelValues("ws", "open", StatusSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transportEventTotal.WithLabelValues("ws", "send", StatusError)))
}

func TestActiveExchanges(t *testing.T) {
	m, _ := newTestMetrics(t)
	ctx := context.Background()

	m.RecordActiveExchanges(ctx, 1)
	m.RecordActiveExchanges(ctx, 1)
	m.RecordActiveExchanges(ctx, -1)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.activeExchanges))
}

func TestSharedRegistryReusesCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	a, err := NewMetricsProvider(MetricsConfig{Registry: reg})
	require.NoError(t, err)
	b, err := NewMetricsProvider(MetricsConfig{Registry: reg})
	require.NoError(t, err)

	a.RecordFault(context.Background(), "http", "Server")
	b.RecordFault(context.Background(), "http", "Server")

	assert.Equal(t, 2.0, testutil.ToFloat64(a.faultTotal.WithLabelValues("http", "Server")))
}

func TestConstLabels(t *testing.T) {
	m, reg := newTestMetrics(t)
	m.RecordFault(context.Background(), "http", "Server")

	expected := `
# HELP wsclient_fault_total Total number of fault responses
# TYPE wsclient_fault_total counter
wsclient_fault_total{code="Server",scheme="http",service="orders"} 1
`
	err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "wsclient_fault_total")
	assert.NoError(t, err)
}

func TestMetricsServer(t *testing.T) {
	m, _ := newTestMetrics(t)
	ctx := context.Background()
	m.RecordExchange(ctx, "http", "ping", StatusSuccess, time.Millisecond)

	assert.Nil(t, m.Addr())
	require.NoError(t, m.Start(ctx))
	require.NoError(t, m.Start(ctx), "second Start is a no-op")
	defer m.Shutdown(ctx)

	resp, err := http.Get("http://" + m.Addr().String() + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `wsclient_exchange_total{action="ping",scheme="http",service="orders",status="success"} 1`)

	require.NoError(t, m.Shutdown(ctx))
	assert.Nil(t, m.Addr())
}

func TestMetricsServerBadAddress(t *testing.T) {
	m, err := NewMetricsProvider(MetricsConfig{
		ListenAddress: "256.0.0.1:bad",
		Registry:      prometheus.NewRegistry(),
	})
	require.NoError(t, err)

	err = m.Start(context.Background())
	assert.True(t, wserrors.IsConfigurationError(err), "got %v", err)
}
