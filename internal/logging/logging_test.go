// internal/logging/logging_test.go
package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitWriterLevelAndComponent(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, InitWriter(Config{Level: "warn"}, &buf))

	l := WithComponent("reader")
	l.Info().Msg("dropped")
	l.Warn().Int("tower", 2).Msg("kept")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "reader", entry["component"])
	assert.Equal(t, "kept", entry["message"])
	assert.EqualValues(t, 2, entry["tower"])
}

func TestInitRejectsBadLevel(t *testing.T) {
	assert.Error(t, InitWriter(Config{Level: "loud"}, &bytes.Buffer{}))
}

func TestDebugOverridesLevel(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, InitWriter(Config{Level: "error", Debug: true}, &buf))

	l := GetLogger()
	l.Debug().Msg("visible")
	assert.Contains(t, buf.String(), "visible")
}
