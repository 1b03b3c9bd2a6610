package loadtest

import (
	"math"
	"slices"
	"sync"
	"time"
)

// Sample is one measured round trip.
type Sample struct {
	Engine int
	RTT    time.Duration
}

// Collector accumulates samples from all engines.
type Collector struct {
	mu      sync.Mutex
	samples []Sample
}

// Add records one sample.
func (c *Collector) Add(s Sample) {
	c.mu.Lock()
	c.samples = append(c.samples, s)
	c.mu.Unlock()
}

// Len returns the number of samples.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.samples)
}

// Sorted returns the recorded latencies in ascending order.
func (c *Collector) Sorted() []time.Duration {
	c.mu.Lock()
	out := make([]time.Duration, len(c.samples))
	for i, s := range c.samples {
		out[i] = s.RTT
	}
	c.mu.Unlock()
	slices.Sort(out)
	return out
}

// Percentile returns sorted[floor(p*n)], clamped to the last element. It
// does not interpolate. It returns zero for an empty slice.
func Percentile(sorted []time.Duration, p float64) time.Duration {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	idx := int(math.Floor(p * float64(n)))
	if idx < 0 {
		idx = 0
	}
	if idx >= n {
		idx = n - 1
	}
	return sorted[idx]
}

// Table summarizes a sorted latency set.
type Table struct {
	Samples int
	Min     time.Duration
	P50     time.Duration
	P95     time.Duration
	P99     time.Duration
	Max     time.Duration
	Mean    time.Duration
}

// NewTable computes a Table from ascending latencies.
func NewTable(sorted []time.Duration) Table {
	n := len(sorted)
	if n == 0 {
		return Table{}
	}
	var sum time.Duration
	for _, d := range sorted {
		sum += d
	}
	return Table{
		Samples: n,
		Min:     sorted[0],
		P50:     Percentile(sorted, 0.50),
		P95:     Percentile(sorted, 0.95),
		P99:     Percentile(sorted, 0.99),
		Max:     sorted[n-1],
		Mean:    sum / time.Duration(n),
	}
}
