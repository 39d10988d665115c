package metrics

import (
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/plugfox/addonhub/internal/config"
)

// Metrics defines the contract for logging metrics
type Metrics interface {
	LogEvent(eventName string, tags map[string]string, fields map[string]interface{})
	LogModerationEvent(action string, username string, fields map[string]interface{})
	Close()
}

type metricsImpl struct {
	client      influxdb2.Client
	writeAPI    api.WriteAPI
	defaultTags map[string]string // Constant tags, like environment
}

// Ensure metricsImpl implements Metrics
var _ Metrics = (*metricsImpl)(nil)

// New returns the InfluxDB implementation when the URL is configured and a no-op otherwise.
func New(cfg *config.MetricsConfig, defaultTags map[string]string) Metrics {
	if cfg == nil || cfg.URL == "" {
		return NewMetricsNop()
	}
	return NewMetricsImpl(cfg.URL, cfg.Token, cfg.Org, cfg.Bucket, defaultTags)
}

// NewMetricsImpl initializes the InfluxDB writer with constant tags
func NewMetricsImpl(url string, token string, org string, bucket string, defaultTags map[string]string) Metrics {
	client := influxdb2.NewClient(url, token)
	writeAPI := client.WriteAPI(org, bucket)
	return &metricsImpl{
		client:      client,
		writeAPI:    writeAPI,
		defaultTags: defaultTags,
	}
}

// LogEvent - universal method to log an event with customizable tags and fields
func (m *metricsImpl) LogEvent(eventName string, tags map[string]string, fields map[string]interface{}) {
	if len(fields) == 0 {
		return
	}

	m.writeAPI.WritePoint(newPoint(eventName, m.defaultTags, tags, fields, time.Now()))
}

// LogModerationEvent - ban, unban, sweep and denied login events
func (m *metricsImpl) LogModerationEvent(action string, username string, fields map[string]interface{}) {
	if action == "" {
		return
	}

	tags := map[string]string{
		"action": action,
	}
	if username != "" {
		tags["username"] = username
	}
	if len(fields) == 0 {
		fields = map[string]interface{}{"count": 1}
	}

	m.LogEvent("moderation", tags, fields)
}

// Close flushes the write API and closes the client
func (m *metricsImpl) Close() {
	m.writeAPI.Flush()
	m.client.Close()
}

func newPoint(eventName string, defaultTags, tags map[string]string, fields map[string]interface{}, at time.Time) *write.Point {
	point := influxdb2.NewPointWithMeasurement("addonhub_event").
		AddTag("event", eventName).
		SetTime(at)

	// Add constant default tags
	for key, value := range defaultTags {
		point.AddTag(key, value)
	}

	// Add custom tags
	for key, value := range tags {
		point.AddTag(key, value)
	}

	// Add custom fields
	for key, value := range fields {
		point.AddField(key, value)
	}

	return point
}
