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

func TestInitialize_InvalidLevel(t *testing.T) {
	err := Initialize(Config{Level: "loud", Environment: "development"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestInitialize_ProductionWritesToLogDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Initialize(Config{Level: "info", LogDir: dir, Environment: "production"}))
	Info("hello")
	Sync()
	assert.FileExists(t, dir+"/app.log")
}

func TestLogHTTPRequest_LevelByStatus(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	Log = zap.New(core)

	LogHTTPRequest("GET", "/gerador", 200, 0.01)
	LogHTTPRequest("GET", "/gerador", 404, 0.01)
	LogHTTPRequest("GET", "/gerador", 502, 0.01)

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
}

func TestLogAPICall_ErrorStatus(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	Log = zap.New(core)

	LogAPICall("supabase", "sign_in", "error", 0.2, zap.Error(errors.New("boom")))

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "API call failed", entries[0].Message)
	assert.Equal(t, "sign_in", entries[0].ContextMap()["operation"])
}

func TestLogError_AttachesError(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	Log = zap.New(core)

	LogError(errors.New("cookie too large"), "Failed to store session", zap.String("user_id", "user-1"))

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	assert.Equal(t, "cookie too large", entries[0].ContextMap()["error"])
	assert.Equal(t, "user-1", entries[0].ContextMap()["user_id"])
}
