package llm

import (
	"context"
	"errors"
	"fmt"

	"nebula/internal/apperr"
	llmclient "nebula/internal/llmClient"
	"nebula/internal/metrics"
)

// failover calls each provider in chain at most once per request, stopping at
// the first success or when ctx ends.
type failover struct {
	reg   *Registry
	chain []llmclient.Registration
}

func (f *failover) Name() string {
	head := f.chain[0]
	if head.Model == "" {
		return head.Provider
	}
	return head.Provider + ":" + head.Model
}

// Close is a no-op; the registry owns the clients.
func (f *failover) Close() error { return nil }

func (f *failover) Complete(ctx context.Context, p llmclient.Prompt) (string, error) {
	var errs []error
	for i, reg := range f.chain {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if i > 0 {
			metrics.ObserveFailover(f.chain[i-1].Provider)
			f.reg.log.InfoContext(ctx, "llm failover", "from", f.chain[i-1].Provider, "to", reg.Provider, "operation", OperationFrom(ctx))
		}
		c, err := f.reg.client(ctx, reg)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out, err := c.Complete(ctx, p)
		if err == nil {
			return out, nil
		}
		if llmclient.IsPermanent(err) {
			f.reg.log.ErrorContext(ctx, "llm provider rejected request", "provider", reg.Provider, "error", err)
		}
		errs = append(errs, fmt.Errorf("%s: %w", reg.Provider, err))
	}
	return "", apperr.Wrap(apperr.KindGenerationFailed, "llm.complete", errors.Join(errs...))
}
