package logctx_test

import (
	"context"
	"testing"

	"github.com/fanaka-furniture/checkout/internal/observability"
	"github.com/fanaka-furniture/checkout/internal/observability/logctx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type markerLogger struct {
	observability.Logger
	name string
}

func marker(name string) *markerLogger {
	return &markerLogger{Logger: observability.NopLogger(), name: name}
}

func TestWithAndFrom(t *testing.T) {
	attached := marker("request")
	ctx := logctx.With(context.Background(), attached)

	got, ok := logctx.From(ctx)
	require.True(t, ok)
	assert.Same(t, attached, got)
}

func TestFromWithoutLogger(t *testing.T) {
	_, ok := logctx.From(context.Background())
	assert.False(t, ok)
}

func TestWithNilLoggerLeavesContextUnchanged(t *testing.T) {
	ctx := logctx.With(context.Background(), nil)
	_, ok := logctx.From(ctx)
	assert.False(t, ok)
}

func TestFromOrPrefersContextLogger(t *testing.T) {
	attached := marker("request")
	fallback := marker("component")
	ctx := logctx.With(context.Background(), attached)

	assert.Same(t, attached, logctx.FromOr(ctx, fallback))
}

func TestFromOrFallsBack(t *testing.T) {
	fallback := marker("component")
	assert.Same(t, fallback, logctx.FromOr(context.Background(), fallback))
}

func TestFromOrNeverReturnsNil(t *testing.T) {
	got := logctx.FromOr(context.Background(), nil)
	require.NotNil(t, got)
	// usable without panicking
	got.Info("noop")
}
