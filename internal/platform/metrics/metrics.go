package metrics

import (
	"net/http"
	"sync"
	"time"
)

// Collector accumulates request counters for the /metrics endpoint. Counts
// are bucketed by status class so the snapshot separates evaluation traffic
// that succeeded from client rejections and server failures.
type Collector struct {
	mu          sync.Mutex
	startedAt   time.Time
	total       uint64
	byClass     [6]uint64
	rateLimited uint64
	durationMs  uint64
	slowestMs   uint64
}

func New() *Collector {
	return &Collector{startedAt: time.Now()}
}

func (c *Collector) Record(status int, duration time.Duration) {
	class := status / 100
	if class < 1 || class > 5 {
		class = 0
	}
	ms := uint64(duration.Milliseconds())

	c.mu.Lock()
	defer c.mu.Unlock()
	c.total++
	c.byClass[class]++
	if status == http.StatusTooManyRequests {
		c.rateLimited++
	}
	c.durationMs += ms
	if ms > c.slowestMs {
		c.slowestMs = ms
	}
}

func (c *Collector) Snapshot() map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()

	avg := float64(0)
	if c.total > 0 {
		avg = float64(c.durationMs) / float64(c.total)
	}
	return map[string]any{
		"uptimeSeconds":     uint64(time.Since(c.startedAt).Seconds()),
		"requestsTotal":     c.total,
		"responses2xx":      c.byClass[2],
		"responses3xx":      c.byClass[3],
		"responses4xx":      c.byClass[4],
		"responses5xx":      c.byClass[5],
		"rateLimitedTotal":  c.rateLimited,
		"avgDurationMs":     avg,
		"slowestDurationMs": c.slowestMs,
	}
}
