package llm

import (
	"context"
	"log/slog"
	"time"

	llmclient "nebula/internal/llmClient"
	"nebula/internal/metrics"
)

// Middleware decorates an LLMClient with a cross-cutting concern.
type Middleware func(llmclient.LLMClient) llmclient.LLMClient

// Wrap applies middlewares in left-to-right order.
// Example: Wrap(inner, A, B) => A(B(inner))
func Wrap(inner llmclient.LLMClient, mws ...Middleware) llmclient.LLMClient {
	out := inner
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] != nil {
			out = mws[i](out)
		}
	}
	return out
}

// -------- Logging --------

// WithLogging logs request size, latency and errors. A nil logger uses slog.Default().
func WithLogging(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next llmclient.LLMClient) llmclient.LLMClient {
		return &logging{next: next, log: logger}
	}
}

type logging struct {
	next llmclient.LLMClient
	log  *slog.Logger
}

func (l *logging) Name() string { return l.next.Name() }
func (l *logging) Close() error { return l.next.Close() }
func (l *logging) Complete(ctx context.Context, p llmclient.Prompt) (string, error) {
	op := OperationFrom(ctx)
	l.log.DebugContext(ctx, "llm request", "provider", l.next.Name(), "operation", op, "bytes", len(p.System)+len(p.User))
	start := time.Now()
	out, err := l.next.Complete(ctx, p)
	if err != nil {
		l.log.WarnContext(ctx, "llm error", "provider", l.next.Name(), "operation", op, "elapsed", time.Since(start), "error", err)
		return out, err
	}
	l.log.DebugContext(ctx, "llm response", "provider", l.next.Name(), "operation", op, "elapsed", time.Since(start), "bytes", len(out))
	return out, nil
}

// -------- Metrics --------

// WithMetrics records call counts and latency per provider.
func WithMetrics() Middleware {
	return func(next llmclient.LLMClient) llmclient.LLMClient {
		return &metered{next: next}
	}
}

type metered struct{ next llmclient.LLMClient }

func (m *metered) Name() string { return m.next.Name() }
func (m *metered) Close() error { return m.next.Close() }
func (m *metered) Complete(ctx context.Context, p llmclient.Prompt) (string, error) {
	start := time.Now()
	out, err := m.next.Complete(ctx, p)
	metrics.ObserveProviderCall(m.next.Name(), time.Since(start), err)
	return out, err
}

// -------- Timeout --------

// WithTimeout bounds each call. d <= 0 disables it.
func WithTimeout(d time.Duration) Middleware {
	return func(next llmclient.LLMClient) llmclient.LLMClient {
		if d <= 0 {
			return next
		}
		return &timed{next: next, d: d}
	}
}

type timed struct {
	next llmclient.LLMClient
	d    time.Duration
}

func (t *timed) Name() string { return t.next.Name() }
func (t *timed) Close() error { return t.next.Close() }
func (t *timed) Complete(ctx context.Context, p llmclient.Prompt) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.d)
	defer cancel()
	return t.next.Complete(ctx, p)
}

// -------- Provider quota --------

// WithQuotaBackoff waits out the provider's advertised quota reset before
// the next call, up to maxWait. Clients that do not report quota headers are
// returned unchanged.
func WithQuotaBackoff(maxWait time.Duration) Middleware {
	return func(next llmclient.LLMClient) llmclient.LLMClient {
		aware, ok := next.(llmclient.RateLimitHeaderAwareClient)
		if !ok {
			return next
		}
		return &quotaBackoff{next: next, aware: aware, max: maxWait}
	}
}

type quotaBackoff struct {
	next  llmclient.LLMClient
	aware llmclient.RateLimitHeaderAwareClient
	max   time.Duration
}

func (q *quotaBackoff) Name() string { return q.next.Name() }
func (q *quotaBackoff) Close() error { return q.next.Close() }
func (q *quotaBackoff) Complete(ctx context.Context, p llmclient.Prompt) (string, error) {
	if h, ok := q.aware.LastRateLimitHeaders(); ok {
		wait := llmclient.NextWait(h)
		if q.max > 0 && wait > q.max {
			wait = q.max
		}
		if wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return "", ctx.Err()
			case <-timer.C:
			}
		}
	}
	return q.next.Complete(ctx, p)
}
