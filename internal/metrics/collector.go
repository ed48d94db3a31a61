// Package metrics is a small Prometheus-text-format collector, kept
// dependency free on purpose.
package metrics

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Collector is the process-wide collector.
var Collector = NewCollector()

// MetricsCollector aggregates counters and gauges keyed by name+labels.
type MetricsCollector struct {
	mu        sync.RWMutex
	counters  map[string]*Counter
	gauges    map[string]*Gauge
	startTime time.Time
}

// NewCollector creates an empty collector.
func NewCollector() *MetricsCollector {
	return &MetricsCollector{
		counters:  make(map[string]*Counter),
		gauges:    make(map[string]*Gauge),
		startTime: time.Now(),
	}
}

// Uptime reports time since the collector was created.
func (c *MetricsCollector) Uptime() time.Duration {
	return time.Since(c.startTime)
}

// Counter is a monotonically increasing counter.
type Counter struct {
	name   string
	help   string
	labels string
	value  atomic.Int64
}

// Inc increments the counter by 1.
func (c *Counter) Inc() { c.value.Add(1) }

// Add increments the counter by n.
func (c *Counter) Add(n int64) { c.value.Add(n) }

// Value returns the current counter value.
func (c *Counter) Value() int64 { return c.value.Load() }

// Gauge is a value that can go up and down.
type Gauge struct {
	name   string
	help   string
	labels string
	value  atomic.Int64
}

// Set sets the gauge.
func (g *Gauge) Set(v int64) { g.value.Store(v) }

// Inc increments the gauge by 1.
func (g *Gauge) Inc() { g.value.Add(1) }

// Dec decrements the gauge by 1.
func (g *Gauge) Dec() { g.value.Add(-1) }

// Value returns the current gauge value.
func (g *Gauge) Value() int64 { return g.value.Load() }

// Counter returns or creates a counter.
func (c *MetricsCollector) Counter(name, help, labels string) *Counter {
	key := name + "{" + labels + "}"
	c.mu.Lock()
	defer c.mu.Unlock()
	if ctr, ok := c.counters[key]; ok {
		return ctr
	}
	ctr := &Counter{name: name, help: help, labels: labels}
	c.counters[key] = ctr
	return ctr
}

// Gauge returns or creates a gauge.
func (c *MetricsCollector) Gauge(name, help, labels string) *Gauge {
	key := name + "{" + labels + "}"
	c.mu.Lock()
	defer c.mu.Unlock()
	if g, ok := c.gauges[key]; ok {
		return g
	}
	g := &Gauge{name: name, help: help, labels: labels}
	c.gauges[key] = g
	return g
}

// Handler renders the registered metrics in Prometheus exposition format.
func (c *MetricsCollector) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

		var sb strings.Builder
		fmt.Fprintf(&sb, "# HELP pagebridge_uptime_seconds Time since start in seconds\n")
		fmt.Fprintf(&sb, "# TYPE pagebridge_uptime_seconds gauge\n")
		fmt.Fprintf(&sb, "pagebridge_uptime_seconds %d\n\n", int64(c.Uptime().Seconds()))

		c.mu.RLock()
		counters := sortedKeys(c.counters)
		gauges := sortedKeys(c.gauges)

		helpWritten := make(map[string]bool)
		for _, key := range counters {
			ctr := c.counters[key]
			if !helpWritten[ctr.name] {
				fmt.Fprintf(&sb, "# HELP %s %s\n", ctr.name, ctr.help)
				fmt.Fprintf(&sb, "# TYPE %s counter\n", ctr.name)
				helpWritten[ctr.name] = true
			}
			writeSample(&sb, ctr.name, ctr.labels, ctr.Value())
		}

		helpWritten = make(map[string]bool)
		for _, key := range gauges {
			g := c.gauges[key]
			if !helpWritten[g.name] {
				fmt.Fprintf(&sb, "# HELP %s %s\n", g.name, g.help)
				fmt.Fprintf(&sb, "# TYPE %s gauge\n", g.name)
				helpWritten[g.name] = true
			}
			writeSample(&sb, g.name, g.labels, g.Value())
		}
		c.mu.RUnlock()

		fmt.Fprint(w, sb.String())
	}
}

func writeSample(sb *strings.Builder, name, labels string, value int64) {
	if labels != "" {
		fmt.Fprintf(sb, "%s{%s} %d\n", name, labels, value)
		return
	}
	fmt.Fprintf(sb, "%s %d\n", name, value)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Metrics used across the application.
var (
	WebhookRequests  = Collector.Counter("pagebridge_webhook_requests_total", "Total webhook POST requests", "")
	SignatureRejects = Collector.Counter("pagebridge_signature_rejects_total", "Webhook requests rejected for a bad signature", "")
	EventsFailed     = Collector.Counter("pagebridge_events_failed_total", "Webhook events that panicked during handling", "")
	MessagesSent     = Collector.Counter("pagebridge_messages_sent_total", "Messages delivered through the Send API", "")
	SendErrors       = Collector.Counter("pagebridge_send_errors_total", "Send API calls that returned an error", "")

	EventsByType = map[string]*Counter{
		"message":  Collector.Counter("pagebridge_events_total", "Webhook events by type", `type="message"`),
		"echo":     Collector.Counter("pagebridge_events_total", "Webhook events by type", `type="echo"`),
		"delivery": Collector.Counter("pagebridge_events_total", "Webhook events by type", `type="delivery"`),
		"read":     Collector.Counter("pagebridge_events_total", "Webhook events by type", `type="read"`),
		"unknown":  Collector.Counter("pagebridge_events_total", "Webhook events by type", `type="unknown"`),
	}
)
