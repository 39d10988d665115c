package metrics

import (
	"testing"
	"time"

	"github.com/plugfox/addonhub/internal/config"
	"github.com/stretchr/testify/require"
)

func TestNewWithoutURLIsNop(t *testing.T) {
	m := New(&config.MetricsConfig{}, nil)
	require.IsType(t, metricsNop{}, m)

	m = New(nil, nil)
	require.IsType(t, metricsNop{}, m)

	m.LogModerationEvent("ban", "alice", map[string]interface{}{"count": 1})
	m.Close()
}

func TestCanPassNilTags(t *testing.T) {
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	point := newPoint("ban", nil, nil, map[string]interface{}{"count": 1}, at)

	require.Equal(t, "addonhub_event", point.Name())
	require.Len(t, point.TagList(), 1)
	require.Equal(t, "event", point.TagList()[0].Key)
	require.Equal(t, at, point.Time())
}

func TestPointTags(t *testing.T) {
	point := newPoint("moderation",
		map[string]string{"env": "test"},
		map[string]string{"action": "ban"},
		map[string]interface{}{"count": 1, "permanent": true},
		time.Now())

	tags := map[string]string{}
	for _, tag := range point.TagList() {
		tags[tag.Key] = tag.Value
	}
	require.Equal(t, map[string]string{"event": "moderation", "env": "test", "action": "ban"}, tags)
	require.Len(t, point.FieldList(), 2)
}

func TestFakeRecordsEvents(t *testing.T) {
	fake := NewMetricsFake()
	fake.LogModerationEvent("unban", "alice", nil)
	fake.Close()

	events := fake.Events()
	require.Len(t, events, 1)
	require.Equal(t, "moderation", events[0].Name)
	require.Equal(t, "unban", events[0].Tags["action"])
	require.Equal(t, "alice", events[0].Tags["username"])
}
