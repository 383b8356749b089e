// Package benchmarks provides performance and load testing for Template exchanges
package benchmarks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/rand"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/ajitpratap0/wsclient-go/pkg/client"
	wserrors "github.com/ajitpratap0/wsclient-go/pkg/errors"
	"github.com/ajitpratap0/wsclient-go/pkg/logging"
)

// Operation is one kind of request the load tester sends
type Operation struct {
	// Name labels the operation in results; defaults to Action
	Name string

	URI     string
	Action  string
	Payload json.RawMessage

	// Weight is the relative share of requests using this operation
	Weight float64
}

// LoadTestConfig configures load testing parameters
type LoadTestConfig struct {
	// Number of concurrent workers sharing the template
	Workers int

	// Number of requests per worker (0 = until Duration expires)
	RequestsPerWorker int

	// Request rate limit across all workers (requests per second, 0 = unlimited)
	RateLimit int

	// Test duration (0 = run until all requests complete)
	Duration time.Duration

	// Ramp up period for gradual load increase
	RampUpTime time.Duration

	// Mix of operations to perform
	Operations []Operation

	// Reporting interval; progress is logged at info level
	ReportInterval time.Duration
	Logger         logging.Logger
}

// LoadTestResult contains the results of a load test
type LoadTestResult struct {
	TotalRequests      int64
	SuccessfulRequests int64
	FailedRequests     int64
	TotalDuration      time.Duration

	// Latency statistics
	MinLatency time.Duration
	MaxLatency time.Duration
	AvgLatency time.Duration
	P50Latency time.Duration
	P90Latency time.Duration
	P95Latency time.Duration
	P99Latency time.Duration

	// Throughput
	RequestsPerSecond float64

	// Error breakdown by error code name
	ErrorCounts map[string]int64

	// Operation-specific metrics
	OperationMetrics map[string]*OperationMetrics
}

// OperationMetrics tracks metrics for a specific operation type
type OperationMetrics struct {
	Count      int64
	Successful int64
	Failed     int64
	TotalTime  time.Duration
	MinTime    time.Duration
	MaxTime    time.Duration

	mu        sync.Mutex
	latencies []time.Duration
}

// LoadTester drives a Template from several goroutines
type LoadTester struct {
	config   LoadTestConfig
	template *client.Template
	weights  []float64

	totalRequests      int64
	successfulRequests int64
	failedRequests     int64

	mu               sync.Mutex
	errorCounts      map[string]int64
	operationMetrics map[string]*OperationMetrics
}

// NewLoadTester creates a new load tester
func NewLoadTester(tpl *client.Template, config LoadTestConfig) (*LoadTester, error) {
	if len(config.Operations) == 0 {
		return nil, wserrors.MissingParameter("operations")
	}
	if config.Workers <= 0 {
		config.Workers = 1
	}
	if config.RequestsPerWorker <= 0 && config.Duration <= 0 {
		return nil, wserrors.ConfigurationError("load_test", "either requests per worker or a duration is required")
	}
	if config.ReportInterval == 0 {
		config.ReportInterval = 5 * time.Second
	}
	if config.Logger == nil {
		config.Logger = logging.NewNop()
	}

	// Normalize the mix into cumulative weights
	var total float64
	for i := range config.Operations {
		if config.Operations[i].Weight <= 0 {
			config.Operations[i].Weight = 1
		}
		if config.Operations[i].Name == "" {
			config.Operations[i].Name = config.Operations[i].Action
		}
		total += config.Operations[i].Weight
	}
	weights := make([]float64, len(config.Operations))
	var cumulative float64
	for i, op := range config.Operations {
		cumulative += op.Weight / total
		weights[i] = cumulative
	}

	return &LoadTester{
		config:           config,
		template:         tpl,
		weights:          weights,
		errorCounts:      make(map[string]int64),
		operationMetrics: make(map[string]*OperationMetrics),
	}, nil
}

// Run generates load until every worker finished its requests, the
// configured duration expired or ctx is done
func (lt *LoadTester) Run(ctx context.Context) (*LoadTestResult, error) {
	start := time.Now()
	if lt.config.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, lt.config.Duration)
		defer cancel()
	}

	var limiter *rate.Limiter
	if lt.config.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(lt.config.RateLimit), 1)
	}

	stopReport := make(chan struct{})
	go lt.reportProgress(stopReport)
	defer close(stopReport)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < lt.config.Workers; i++ {
		id := i
		g.Go(func() error {
			lt.runWorker(gctx, id, limiter)
			return nil
		})

		if lt.config.RampUpTime > 0 && i < lt.config.Workers-1 {
			select {
			case <-time.After(lt.config.RampUpTime / time.Duration(lt.config.Workers-1)):
			case <-ctx.Done():
			}
		}
	}
	_ = g.Wait()

	return lt.calculateResults(time.Since(start)), nil
}

// runWorker runs a single worker's workload
func (lt *LoadTester) runWorker(ctx context.Context, id int, limiter *rate.Limiter) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(id)))
	for n := 0; lt.config.RequestsPerWorker <= 0 || n < lt.config.RequestsPerWorker; n++ {
		if ctx.Err() != nil {
			return
		}
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return
			}
		}
		lt.execute(ctx, lt.selectOperation(rng.Float64()))
	}
}

// selectOperation chooses an operation based on the configured mix
func (lt *LoadTester) selectOperation(r float64) Operation {
	for i, w := range lt.weights {
		if r < w {
			return lt.config.Operations[i]
		}
	}
	return lt.config.Operations[len(lt.config.Operations)-1]
}

func (lt *LoadTester) execute(ctx context.Context, op Operation) {
	var callbacks []client.RequestCallback
	if op.Action != "" {
		callbacks = append(callbacks, client.ActionCallback(op.Action))
	}

	start := time.Now()
	_, err := lt.template.SendDocument(ctx, op.URI, op.Payload, callbacks...)
	duration := time.Since(start)

	// exchanges cut short by the end of the run are not failures
	if err != nil && ctx.Err() != nil {
		return
	}

	atomic.AddInt64(&lt.totalRequests, 1)
	if err != nil {
		atomic.AddInt64(&lt.failedRequests, 1)
		lt.recordError(err)
	} else {
		atomic.AddInt64(&lt.successfulRequests, 1)
	}
	lt.getOperationMetrics(op.Name).recordOperation(duration, err)
}

func (lt *LoadTester) getOperationMetrics(operation string) *OperationMetrics {
	lt.mu.Lock()
	defer lt.mu.Unlock()
	m, ok := lt.operationMetrics[operation]
	if !ok {
		m = &OperationMetrics{}
		lt.operationMetrics[operation] = m
	}
	return m
}

// recordOperation records a single operation's metrics
func (m *OperationMetrics) recordOperation(duration time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Count++
	m.TotalTime += duration

	if err != nil {
		m.Failed++
	} else {
		m.Successful++
	}

	if m.MinTime == 0 || duration < m.MinTime {
		m.MinTime = duration
	}
	if duration > m.MaxTime {
		m.MaxTime = duration
	}

	m.latencies = append(m.latencies, duration)
}

// recordError counts an error under its code name
func (lt *LoadTester) recordError(err error) {
	key := "Unknown"
	if sdkErr, ok := wserrors.AsSDKError(err); ok {
		key = wserrors.GetErrorCodeName(sdkErr.Code())
	}
	lt.mu.Lock()
	lt.errorCounts[key]++
	lt.mu.Unlock()
}

// reportProgress periodically logs test progress
func (lt *LoadTester) reportProgress(stop <-chan struct{}) {
	ticker := time.NewTicker(lt.config.ReportInterval)
	defer ticker.Stop()

	lastRequests := int64(0)
	lastTime := time.Now()

	for {
		select {
		case <-ticker.C:
			currentRequests := atomic.LoadInt64(&lt.totalRequests)
			currentTime := time.Now()
			rps := float64(currentRequests-lastRequests) / currentTime.Sub(lastTime).Seconds()

			lt.config.Logger.Info("Load test progress",
				logging.Any("requests", currentRequests),
				logging.Any("rps", rps),
				logging.Any("successful", atomic.LoadInt64(&lt.successfulRequests)),
				logging.Any("failed", atomic.LoadInt64(&lt.failedRequests)))

			lastRequests = currentRequests
			lastTime = currentTime

		case <-stop:
			return
		}
	}
}

// calculateResults computes the final test results
func (lt *LoadTester) calculateResults(duration time.Duration) *LoadTestResult {
	result := &LoadTestResult{
		TotalRequests:      atomic.LoadInt64(&lt.totalRequests),
		SuccessfulRequests: atomic.LoadInt64(&lt.successfulRequests),
		FailedRequests:     atomic.LoadInt64(&lt.failedRequests),
		TotalDuration:      duration,
		ErrorCounts:        make(map[string]int64),
		OperationMetrics:   make(map[string]*OperationMetrics),
	}
	if duration > 0 {
		result.RequestsPerSecond = float64(result.TotalRequests) / duration.Seconds()
	}

	lt.mu.Lock()
	for k, v := range lt.errorCounts {
		result.ErrorCounts[k] = v
	}
	var all []time.Duration
	for name, m := range lt.operationMetrics {
		result.OperationMetrics[name] = m
		m.mu.Lock()
		all = append(all, m.latencies...)
		m.mu.Unlock()
	}
	lt.mu.Unlock()

	if len(all) > 0 {
		sort.Slice(all, func(i, j int) bool { return all[i] < all[j] })
		var sum time.Duration
		for _, d := range all {
			sum += d
		}
		result.MinLatency = all[0]
		result.MaxLatency = all[len(all)-1]
		result.AvgLatency = sum / time.Duration(len(all))
		result.P50Latency = percentileDuration(all, 50)
		result.P90Latency = percentileDuration(all, 90)
		result.P95Latency = percentileDuration(all, 95)
		result.P99Latency = percentileDuration(all, 99)
	}

	return result
}

func percentileDuration(sorted []time.Duration, percentile float64) time.Duration {
	index := int(math.Ceil(float64(len(sorted))*percentile/100.0)) - 1
	if index < 0 {
		index = 0
	}
	if index >= len(sorted) {
		index = len(sorted) - 1
	}
	return sorted[index]
}

// PrintResults writes load test results in a readable format
func (r *LoadTestResult) PrintResults(w io.Writer) {
	pct := func(n int64) float64 {
		if r.TotalRequests == 0 {
			return 0
		}
		return float64(n) / float64(r.TotalRequests) * 100
	}

	fmt.Fprintln(w, "\n=== Load Test Results ===")
	fmt.Fprintf(w, "Total Duration: %s\n", r.TotalDuration)
	fmt.Fprintf(w, "Total Requests: %d\n", r.TotalRequests)
	fmt.Fprintf(w, "Successful: %d (%.1f%%)\n", r.SuccessfulRequests, pct(r.SuccessfulRequests))
	fmt.Fprintf(w, "Failed: %d (%.1f%%)\n", r.FailedRequests, pct(r.FailedRequests))
	fmt.Fprintf(w, "Requests/sec: %.2f\n", r.RequestsPerSecond)

	fmt.Fprintln(w, "\nLatency Statistics:")
	fmt.Fprintf(w, "  Min: %s\n", r.MinLatency)
	fmt.Fprintf(w, "  Avg: %s\n", r.AvgLatency)
	fmt.Fprintf(w, "  P50: %s\n", r.P50Latency)
	fmt.Fprintf(w, "  P90: %s\n", r.P90Latency)
	fmt.Fprintf(w, "  P95: %s\n", r.P95Latency)
	fmt.Fprintf(w, "  P99: %s\n", r.P99Latency)
	fmt.Fprintf(w, "  Max: %s\n", r.MaxLatency)

	if len(r.OperationMetrics) > 0 {
		fmt.Fprintln(w, "\nOperation Breakdown:")
		for op, m := range r.OperationMetrics {
			fmt.Fprintf(w, "  %s: %d requests, %d failed, avg %s\n",
				op, m.Count, m.Failed, m.TotalTime/time.Duration(max(m.Count, 1)))
		}
	}

	if len(r.ErrorCounts) > 0 {
		fmt.Fprintln(w, "\nError Summary:")
		for err, count := range r.ErrorCounts {
			fmt.Fprintf(w, "  %s: %d\n", err, count)
		}
	}
}
