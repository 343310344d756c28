package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapWrapper_Fields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewZapAdapter(zap.New(core)).WithFields(map[string]interface{}{"taskType": "paperless-sync-documents"})

	log.Info("document added", map[string]interface{}{"paperlessId": 42})
	log.WithError(errors.New("boom")).Error("sync failed", nil)
	log.With(map[string]interface{}{"runId": "r1"}).Warn("skipped", map[string]interface{}{"cause": errors.New("no date")})

	entries := logs.All()
	require.Len(t, entries, 3)

	first := entries[0].ContextMap()
	assert.Equal(t, "paperless-sync-documents", first["taskType"])
	assert.EqualValues(t, 42, first["paperlessId"])

	assert.Equal(t, "boom", entries[1].ContextMap()["error"])
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)

	third := entries[2].ContextMap()
	assert.Equal(t, "r1", third["runId"])
	assert.Equal(t, "no date", third["cause"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warn"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("whatever"))
}

func TestConstructors(t *testing.T) {
	assert.NotNil(t, New("info", "json"))
	assert.NotNil(t, New("debug", "console"))
	assert.NotNil(t, NewStructured("info", "json"))
	assert.NotNil(t, NewTestLogger(t))

	NewNoOpLogger().Info("dropped", map[string]interface{}{"k": "v"})
}
