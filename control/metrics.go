// control/metrics.go
// Author: momentics <momentics@gmail.com>
//
// Runtime metrics collector for relay monitoring.
// Exposes counters and gauges in a thread-safe map with dynamic registration.

package control

import (
	"sync"
	"time"

	"github.com/momentics/hioload-relay/api"
)

// Counter keys maintained by Observe besides the per-kind "events.<kind>" counters.
const (
	KeyBytesIn  = "bytes.in"
	KeyBytesOut = "bytes.out"
)

// MetricsRegistry holds counters and gauges. The loop goroutine writes it;
// any goroutine may read a snapshot.
type MetricsRegistry struct {
	mu      sync.RWMutex
	metrics map[string]any
	updated time.Time
}

// NewMetricsRegistry creates an empty registry.
func NewMetricsRegistry() *MetricsRegistry {
	return &MetricsRegistry{
		metrics: make(map[string]any),
	}
}

// Set sets or updates a metric key.
func (mr *MetricsRegistry) Set(key string, value any) {
	mr.mu.Lock()
	mr.metrics[key] = value
	mr.updated = time.Now()
	mr.mu.Unlock()
}

// Add increments an int64 counter, creating it at zero.
func (mr *MetricsRegistry) Add(key string, delta int64) {
	mr.mu.Lock()
	cur, _ := mr.metrics[key].(int64)
	mr.metrics[key] = cur + delta
	mr.updated = time.Now()
	mr.mu.Unlock()
}

// Counter returns an int64 counter, zero when absent.
func (mr *MetricsRegistry) Counter(key string) int64 {
	mr.mu.RLock()
	defer mr.mu.RUnlock()
	v, _ := mr.metrics[key].(int64)
	return v
}

// Observe implements api.Observer by counting events per kind and bytes in/out.
func (mr *MetricsRegistry) Observe(ev api.Event) {
	mr.Add("events."+ev.Kind.String(), 1)
	switch ev.Kind {
	case api.EventDataReceived:
		mr.Add(KeyBytesIn, int64(ev.Size))
	case api.EventSendSucceeded:
		mr.Add(KeyBytesOut, int64(ev.Size))
	}
}

// GetSnapshot returns the latest metrics.
func (mr *MetricsRegistry) GetSnapshot() map[string]any {
	mr.mu.RLock()
	defer mr.mu.RUnlock()
	out := make(map[string]any, len(mr.metrics))
	for k, v := range mr.metrics {
		out[k] = v
	}
	return out
}

// Updated returns the time of the last write.
func (mr *MetricsRegistry) Updated() time.Time {
	mr.mu.RLock()
	defer mr.mu.RUnlock()
	return mr.updated
}
