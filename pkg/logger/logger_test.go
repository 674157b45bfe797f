package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLoggerRejectsBadLevel(t *testing.T) {
	_, err := newLogger(Config{Level: "loud"})
	require.Error(t, err)
}

func TestWithContextAddsFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	Replace(zap.New(core))
	t.Cleanup(func() { Replace(nil) })

	ctx := ContextWith(context.Background(), JobIDKey, "job-1")
	ctx = ContextWith(ctx, StructureKey, "rates.struct")
	ctx = ContextWith(ctx, DataFileKey, "rates.dat")

	WithContext(ctx).Info("records read")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "job-1", fields["job_id"])
	assert.Equal(t, "rates.struct", fields["structure"])
	assert.Equal(t, "rates.dat", fields["data_file"])
}

func TestInitReplacesGlobalLogger(t *testing.T) {
	prev := Get()
	t.Cleanup(func() { Replace(prev) })

	require.NoError(t, Init(Config{Level: "warn", Encoding: "console"}))
	first := Get()
	assert.False(t, first.Core().Enabled(zap.InfoLevel))

	require.NoError(t, Init(Config{Level: "debug"}))
	assert.NotSame(t, first, Get())
	assert.True(t, Get().Core().Enabled(zap.DebugLevel))

	assert.Error(t, Init(Config{Level: "loud"}))
}

func TestFromContextFallback(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, "unknown", FromContext(ctx, StructureKey, "unknown"))
	ctx = ContextWith(ctx, StructureKey, "")
	assert.Equal(t, "unknown", FromContext(ctx, StructureKey, "unknown"))
}
