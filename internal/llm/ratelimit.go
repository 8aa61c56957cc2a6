package llm

import (
	"context"
	"os"
	"strconv"

	"golang.org/x/time/rate"

	llmclient "nebula/internal/llmClient"
)

// RateLimit throttles calls to rps with the given burst.
// If rps <= 0, the limiter is disabled.
func RateLimit(rps float64, burst int) Middleware {
	return func(next llmclient.LLMClient) llmclient.LLMClient {
		if rps <= 0 {
			return next
		}
		if burst <= 0 {
			burst = 1
		}
		return &rateLimited{next: next, rl: rate.NewLimiter(rate.Limit(rps), burst)}
	}
}

type rateLimited struct {
	next llmclient.LLMClient
	rl   *rate.Limiter
}

func (c *rateLimited) Name() string { return c.next.Name() }
func (c *rateLimited) Close() error { return c.next.Close() }
func (c *rateLimited) Complete(ctx context.Context, p llmclient.Prompt) (string, error) {
	if err := c.rl.Wait(ctx); err != nil {
		return "", err
	}
	return c.next.Complete(ctx, p)
}

// RateLimitConfigFromEnv reads RPS/BURST from environment variables with
// the given prefixes in priority order. For example, ("LLM","GROQ") checks
// LLM_RPS/LLM_BURST first, then GROQ_RPS/GROQ_BURST.
func RateLimitConfigFromEnv(prefixes ...string) llmclient.RateLimitConfig {
	find := func(suffix string) string {
		for _, p := range prefixes {
			if p == "" {
				continue
			}
			if v := os.Getenv(p + suffix); v != "" {
				return v
			}
		}
		return ""
	}
	var out llmclient.RateLimitConfig
	if v := find("_RPS"); v != "" {
		out.RPS, _ = strconv.ParseFloat(v, 64)
	}
	if v := find("_BURST"); v != "" {
		out.Burst, _ = strconv.Atoi(v)
	}
	return out
}
