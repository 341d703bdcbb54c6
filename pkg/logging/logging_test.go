package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel("warning"))
	assert.Equal(t, zapcore.ErrorLevel, ParseLevel("fatal"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel(""))
}

func TestSink(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	write := Sink(zap.New(core))

	write(map[string]any{
		"Level":   "warn",
		"Message": "PMS search timed out",
		"Fields":  map[string]any{"timeout_ms": 100},
	})

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, "PMS search timed out", entries[0].Message)
	assert.Contains(t, entries[0].ContextMap(), "Fields")
}

func TestSink_RespectsLevel(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	write := Sink(zap.New(core))

	write(map[string]any{"level": "debug", "message": "Merged search results"})
	assert.Empty(t, logs.All())
}
