package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLoggerFormatsAndFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewZapLogger(zap.New(core))

	l.Info("game %s started", "g1")
	child := l.WithField("game_id", "g1").WithField("seat", 2)
	child.Warn("seat %d timed out", 2)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "game g1 started", entries[0].Message)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, "g1", entries[1].ContextMap()["game_id"])
	assert.Equal(t, map[string]interface{}{"game_id": "g1", "seat": 2}, child.Fields())
	assert.Empty(t, l.Fields())
}

func TestNopDiscards(t *testing.T) {
	l := Nop()
	l.Error("ignored %d", 1)
	assert.NotNil(t, l.WithFields(map[string]interface{}{"k": "v"}))
}
