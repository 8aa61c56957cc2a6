package llm

import (
	"context"
	"strings"
)

type ctxKeyOperation struct{}

// WithOperation tags ctx with the architecture operation being served so
// provider logs and metrics can be attributed.
func WithOperation(ctx context.Context, op string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxKeyOperation{}, strings.TrimSpace(op))
}

func OperationFrom(ctx context.Context) string {
	if ctx != nil {
		if v, ok := ctx.Value(ctxKeyOperation{}).(string); ok && v != "" {
			return v
		}
	}
	return "unknown"
}
