package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestInitLevels(t *testing.T) {
	require.NoError(t, Init("debug", true))
	assert.True(t, Log().Core().Enabled(zapcore.DebugLevel))

	require.NoError(t, Init("warn", false))
	assert.False(t, Log().Core().Enabled(zapcore.InfoLevel))
	assert.True(t, Log().Core().Enabled(zapcore.WarnLevel))
	assert.Same(t, Log(), zap.L())
}

func TestInitRejectsUnknownLevel(t *testing.T) {
	assert.Error(t, Init("loud", false))
}

func TestSetReplacesGlobal(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	Set(zap.New(core))
	t.Cleanup(func() { Set(zap.NewNop()) })

	Log().Info("hello", zap.Int("n", 1))
	zap.L().Info("world")
	Sync()

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "hello", logs.All()[0].Message)
	assert.EqualValues(t, 1, logs.All()[0].ContextMap()["n"])
}
