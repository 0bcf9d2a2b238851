package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSONLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "warn", "json")

	logger.Info().Msg("dropped")
	logger.Warn().Str("user_id", "u1").Msg("kept")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "kept", entry["message"])
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "u1", entry["user_id"])
	assert.Contains(t, entry, "time")
}

func TestNew_UnknownLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "chatty", "json")

	logger.Debug().Msg("dropped")
	assert.Zero(t, buf.Len())
	logger.Info().Msg("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestNew_Console(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "debug", "console")
	logger.Debug().Str("exercise_id", "bench").Msg("warmup plan built")

	out := buf.String()
	assert.Contains(t, out, "warmup plan built")
	assert.Contains(t, out, "exercise_id=")
	assert.NotContains(t, out, "{", "console output is not JSON")
}
