package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestAdaptCarriesAttributes(t *testing.T) {
	var buf bytes.Buffer
	l := Adapt(New(&buf, "info")).With("outage_id", "out-1")

	l.Warn("no users resolved", "district", "colombo")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "no users resolved", entry["msg"])
	assert.Equal(t, "out-1", entry["outage_id"])
	assert.Equal(t, "colombo", entry["district"])
}

func TestNewFiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	l := Adapt(New(&buf, "error"))
	l.Info("dropped")
	assert.Empty(t, buf.String())
}
