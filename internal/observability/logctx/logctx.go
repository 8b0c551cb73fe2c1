// Package logctx carries a request-scoped logger through the context, so
// application code logs with the request's trace and request ids attached
// without threading a logger parameter through every call.
package logctx

import (
	"context"

	"github.com/fanaka-furniture/checkout/internal/observability"
)

type ctxKey struct{}

// With attaches logger to ctx. A nil logger leaves ctx unchanged.
func With(ctx context.Context, logger observability.Logger) context.Context {
	if ctx == nil || logger == nil {
		return ctx
	}
	return context.WithValue(ctx, ctxKey{}, logger)
}

// From reports the logger attached to ctx, if any.
func From(ctx context.Context) (observability.Logger, bool) {
	if ctx == nil {
		return nil, false
	}
	logger, ok := ctx.Value(ctxKey{}).(observability.Logger)
	return logger, ok
}

// FromOr prefers the context logger, then the fallback, and as a last resort
// a logger that discards everything, so call sites never nil-check.
func FromOr(ctx context.Context, fallback observability.Logger) observability.Logger {
	if logger, ok := From(ctx); ok {
		return logger
	}
	if fallback != nil {
		return fallback
	}
	return observability.NopLogger()
}
