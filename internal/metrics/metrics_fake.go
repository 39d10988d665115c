package metrics

import "sync"

// Event - recorded call of the fake
type Event struct {
	Name   string
	Tags   map[string]string
	Fields map[string]interface{}
}

// MetricsFake is an in-memory implementation of Metrics, it only remembers the events
type MetricsFake struct {
	mu     sync.Mutex
	events []Event
}

// Ensure MetricsFake implements Metrics
var _ Metrics = (*MetricsFake)(nil)

// NewMetricsFake creates an instance of MetricsFake
func NewMetricsFake() *MetricsFake {
	return &MetricsFake{}
}

// LogEvent remembers the event
func (metrics *MetricsFake) LogEvent(name string, tags map[string]string, fields map[string]interface{}) {
	metrics.mu.Lock()
	defer metrics.mu.Unlock()
	metrics.events = append(metrics.events, Event{Name: name, Tags: tags, Fields: fields})
}

// LogModerationEvent remembers the event under the "moderation" name
func (metrics *MetricsFake) LogModerationEvent(action string, username string, fields map[string]interface{}) {
	metrics.LogEvent("moderation", map[string]string{"action": action, "username": username}, fields)
}

// Events returns a copy of the recorded events
func (metrics *MetricsFake) Events() []Event {
	metrics.mu.Lock()
	defer metrics.mu.Unlock()
	return append([]Event(nil), metrics.events...)
}

// Close is a no-op
func (metrics *MetricsFake) Close() {}

// metricsNop drops every event, used when no InfluxDB is configured
type metricsNop struct{}

var _ Metrics = metricsNop{}

// NewMetricsNop creates a no-op Metrics
func NewMetricsNop() Metrics {
	return metricsNop{}
}

func (metricsNop) LogEvent(_ string, _ map[string]string, _ map[string]interface{}) {}

func (metricsNop) LogModerationEvent(_ string, _ string, _ map[string]interface{}) {}

func (metricsNop) Close() {}
