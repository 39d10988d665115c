package log

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewJSONLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(WithLevel("warn"), WithOutput(&buf))

	logger.Info("skipped")
	require.Zero(t, buf.Len())

	logger.Warn("kept", "user", "alice")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	require.Equal(t, "kept", record["msg"])
	require.Equal(t, "alice", record["user"])
}

func TestLogAdapter(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewLogAdapter(New(WithFormat("text"), WithOutput(&buf)))

	adapter.Println("GET /ping 200")
	require.Contains(t, buf.String(), `msg="GET /ping 200"`)
}
