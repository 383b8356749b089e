package utils

import (
	"runtime"
	"testing"
	"time"
)

// LeakDetector fails a test when goroutines started during it outlive it.
// Transports use it to prove a closed connection releases its readers.
type LeakDetector struct {
	tb             testing.TB
	baseline       int
	allowedGrowth  int
	samples        int
	sampleInterval time.Duration
	settle         time.Duration
}

// NewLeakDetector creates a detector and records the baseline goroutine count
func NewLeakDetector(tb testing.TB) *LeakDetector {
	d := &LeakDetector{
		tb:             tb,
		samples:        3,
		sampleInterval: 50 * time.Millisecond,
		settle:         100 * time.Millisecond,
	}
	d.baseline = d.stableCount()
	return d
}

// AllowGrowth sets the number of extra goroutines tolerated at Verify
func (d *LeakDetector) AllowGrowth(n int) *LeakDetector {
	d.allowedGrowth = n
	return d
}

// Verify reports a test error when the goroutine count has grown
func (d *LeakDetector) Verify() {
	d.tb.Helper()
	final := d.stableCount()
	if leaked := final - d.baseline; leaked > d.allowedGrowth {
		buf := make([]byte, 1<<20)
		n := runtime.Stack(buf, true)
		d.tb.Errorf("goroutine leak: baseline %d, now %d (allowed growth %d)\n%s",
			d.baseline, final, d.allowedGrowth, buf[:n])
	}
}

// stableCount samples a few times and keeps the minimum, since goroutines in
// the middle of exiting still count.
func (d *LeakDetector) stableCount() int {
	time.Sleep(d.settle)
	lowest := runtime.NumGoroutine()
	for i := 1; i < d.samples; i++ {
		time.Sleep(d.sampleInterval)
		if c := runtime.NumGoroutine(); c < lowest {
			lowest = c
		}
	}
	return lowest
}
