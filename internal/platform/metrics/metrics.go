package metrics

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// UnmatchedRoute labels requests no route pattern matched, so arbitrary paths
// cannot grow the per-route table.
const UnmatchedRoute = "unmatched"

type Collector struct {
	totalRequests   uint64
	errorRequests   uint64
	clientErrors    uint64
	rateLimited     uint64
	totalDurationMs uint64
	payslips        uint64

	mu     sync.Mutex
	routes map[string]uint64
}

func New() *Collector {
	return &Collector{routes: make(map[string]uint64)}
}

func (c *Collector) Record(route string, status int, duration time.Duration) {
	atomic.AddUint64(&c.totalRequests, 1)
	switch {
	case status >= 500:
		atomic.AddUint64(&c.errorRequests, 1)
	case status == 429:
		atomic.AddUint64(&c.rateLimited, 1)
		atomic.AddUint64(&c.clientErrors, 1)
	case status >= 400:
		atomic.AddUint64(&c.clientErrors, 1)
	}
	atomic.AddUint64(&c.totalDurationMs, uint64(duration.Milliseconds()))

	c.mu.Lock()
	c.routes[route]++
	c.mu.Unlock()
}

// PayslipRendered counts generated payslip documents.
func (c *Collector) PayslipRendered() {
	atomic.AddUint64(&c.payslips, 1)
}

func (c *Collector) Snapshot() map[string]any {
	total := atomic.LoadUint64(&c.totalRequests)
	totalMs := atomic.LoadUint64(&c.totalDurationMs)
	avg := float64(0)
	if total > 0 {
		avg = float64(totalMs) / float64(total)
	}

	c.mu.Lock()
	names := make([]string, 0, len(c.routes))
	for name := range c.routes {
		names = append(names, name)
	}
	sort.Strings(names)
	routes := make([]map[string]any, 0, len(names))
	for _, name := range names {
		routes = append(routes, map[string]any{"route": name, "requests": c.routes[name]})
	}
	c.mu.Unlock()

	return map[string]any{
		"requestsTotal":     total,
		"errorsTotal":       atomic.LoadUint64(&c.errorRequests),
		"clientErrorsTotal": atomic.LoadUint64(&c.clientErrors),
		"rateLimitedTotal":  atomic.LoadUint64(&c.rateLimited),
		"payslipsTotal":     atomic.LoadUint64(&c.payslips),
		"avgDurationMs":     avg,
		"totalDurationMs":   totalMs,
		"routes":            routes,
	}
}
