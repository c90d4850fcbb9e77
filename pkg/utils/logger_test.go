package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLoggerBadLevelFallsBack(t *testing.T) {
	logger, err := NewLogger(LoggerConfig{Level: "chatty", Format: "json"})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))
}

func TestLoggerAdapterForwardsFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	adapter := NewLoggerAdapter(zap.New(core))

	adapter.Info("request handled", "method", "GET", "status", 200)
	adapter.Error("request failed", "status", 500)

	entries := logs.All()
	require.Len(t, entries, 2)

	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "request handled", entries[0].Message)
	fields := entries[0].ContextMap()
	assert.Equal(t, "GET", fields["method"])
	assert.EqualValues(t, 200, fields["status"])

	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.Equal(t, "request failed", entries[1].Message)
}
