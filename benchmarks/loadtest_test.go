package benchmarks

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wserrors "github.com/ajitpratap0/wsclient-go/pkg/errors"
)

func TestLoadTester(t *testing.T) {
	tpl := createTestTemplate(t)

	lt, err := NewLoadTester(tpl, LoadTestConfig{
		Workers:           4,
		RequestsPerWorker: 25,
		Operations: []Operation{
			{URI: "mem:orders", Action: "CreateOrder", Payload: orderDoc, Weight: 3},
			{Name: "audit", URI: "mem:audit", Payload: json.RawMessage(`{}`), Weight: 1},
			{Name: "missing", URI: "mem:missing", Payload: json.RawMessage(`{}`), Weight: 1},
		},
	})
	require.NoError(t, err)

	result, err := lt.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(100), result.TotalRequests)
	assert.Equal(t, result.TotalRequests, result.SuccessfulRequests+result.FailedRequests)
	assert.LessOrEqual(t, result.MinLatency, result.P50Latency)
	assert.LessOrEqual(t, result.P50Latency, result.P99Latency)
	assert.LessOrEqual(t, result.P99Latency, result.MaxLatency)

	var counted int64
	for _, m := range result.OperationMetrics {
		counted += m.Count
	}
	assert.Equal(t, int64(100), counted)

	if missing, ok := result.OperationMetrics["missing"]; ok {
		assert.Equal(t, missing.Count, missing.Failed)
		assert.Equal(t, missing.Failed, result.ErrorCounts["ConnectionFailed"])
	}

	var out bytes.Buffer
	result.PrintResults(&out)
	assert.Contains(t, out.String(), "Total Requests: 100")
}

func TestLoadTesterDurationAndRate(t *testing.T) {
	tpl := createTestTemplate(t)

	lt, err := NewLoadTester(tpl, LoadTestConfig{
		Workers:   2,
		Duration:  200 * time.Millisecond,
		RateLimit: 50,
		Operations: []Operation{
			{URI: "mem:orders", Action: "CreateOrder", Payload: orderDoc},
		},
	})
	require.NoError(t, err)

	result, err := lt.Run(context.Background())
	require.NoError(t, err)

	// 50 req/s for 200ms with a burst of one allows about ten requests
	assert.Greater(t, result.TotalRequests, int64(0))
	assert.LessOrEqual(t, result.TotalRequests, int64(15))
	assert.Zero(t, result.FailedRequests)
}

func TestLoadTesterConfigErrors(t *testing.T) {
	tpl := createTestTemplate(t)

	_, err := NewLoadTester(tpl, LoadTestConfig{Workers: 1, RequestsPerWorker: 1})
	assert.True(t, wserrors.IsCode(err, wserrors.CodeMissingParameter), "got %v", err)

	_, err = NewLoadTester(tpl, LoadTestConfig{Operations: []Operation{{URI: "mem:orders"}}})
	assert.True(t, wserrors.IsConfigurationError(err), "got %v", err)
}
