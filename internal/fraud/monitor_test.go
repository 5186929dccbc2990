package fraud

import (
	"context"
	"testing"

	"luxverify-backend/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewDisabledUsesLogMonitor(t *testing.T) {
	m, err := New(config.RedisConfig{Enabled: false})
	require.NoError(t, err)
	assert.IsType(t, LogMonitor{}, m)
}

func TestLogMonitorLogsMiss(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	defer restore()

	LogMonitor{}.RecordMiss(context.Background(), "SKAFAKE01", "203.0.113.7")

	entries := logs.FilterMessage("verification miss").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "SKAFAKE01", entries[0].ContextMap()["code"])
	assert.Equal(t, "203.0.113.7", entries[0].ContextMap()["ip"])
}

func TestNewRedisMonitorFailsFast(t *testing.T) {
	_, err := New(config.RedisConfig{Enabled: true, Addr: "127.0.0.1:1"})
	assert.Error(t, err)
}

func TestMissKey(t *testing.T) {
	assert.Equal(t, "verify:miss:198.51.100.2", missKey("198.51.100.2"))
}
