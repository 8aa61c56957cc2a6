package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"nebula/internal/apperr"
	llmclient "nebula/internal/llmClient"
)

var ErrDuplicateProvider = errors.New("llm provider already registered")

var _ llmclient.Registrar = (*Registry)(nil)

// Registry holds provider candidates in priority order and builds their
// clients on first use.
type Registry struct {
	log      *slog.Logger
	maxQuota time.Duration

	mu      sync.Mutex
	regs    []llmclient.Registration
	clients map[string]llmclient.LLMClient
}

type RegistryOption func(*Registry)

func WithRegistryLogger(l *slog.Logger) RegistryOption {
	return func(r *Registry) {
		if l != nil {
			r.log = l
		}
	}
}

// WithMaxQuotaWait caps how long a provider waits on its own quota headers.
func WithMaxQuotaWait(d time.Duration) RegistryOption {
	return func(r *Registry) { r.maxQuota = d }
}

func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		log:      slog.Default(),
		maxQuota: 5 * time.Second,
		clients:  map[string]llmclient.LLMClient{},
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Register appends a candidate. Registration order is priority order.
func (r *Registry) Register(reg llmclient.Registration) error {
	if reg.Factory == nil {
		return fmt.Errorf("register provider: factory is nil")
	}
	reg.Provider = strings.ToLower(strings.TrimSpace(reg.Provider))
	if reg.Provider == "" {
		return fmt.Errorf("register provider: name is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.regs {
		if existing.Provider == reg.Provider {
			return fmt.Errorf("%w: %s", ErrDuplicateProvider, reg.Provider)
		}
	}
	r.regs = append(r.regs, reg)
	return nil
}

// Configured lists the providers that have credentials, in priority order.
func (r *Registry) Configured() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, reg := range r.regs {
		if reg.Configured {
			out = append(out, reg.Provider)
		}
	}
	return out
}

// BestAvailableModel returns the highest-priority configured provider. No
// provider is invoked. The returned client falls through to the remaining
// configured providers, in order, when a call fails.
func (r *Registry) BestAvailableModel(ctx context.Context) (llmclient.LLMClient, error) {
	r.mu.Lock()
	var chain []llmclient.Registration
	for _, reg := range r.regs {
		if reg.Configured {
			chain = append(chain, reg)
		}
	}
	r.mu.Unlock()

	if len(chain) == 0 {
		return nil, apperr.New(apperr.KindNoProviderAvailable, "llm.select",
			"no LLM provider is configured; set GROQ_API_KEY, GEMINI_API_KEY or HF_TOKEN")
	}
	r.log.DebugContext(ctx, "llm provider selected", "provider", chain[0].Provider, "fallbacks", len(chain)-1)
	return &failover{reg: r, chain: chain}, nil
}

// client returns the middleware-wrapped client for reg, building it once.
func (r *Registry) client(ctx context.Context, reg llmclient.Registration) (llmclient.LLMClient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.clients[reg.Provider]; ok {
		return c, nil
	}
	inner, err := reg.Factory(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", reg.Provider, err)
	}
	mws := []Middleware{WithLogging(r.log), WithMetrics(), WithTimeout(reg.Timeout)}
	if reg.RateLimit != nil {
		mws = append(mws, RateLimit(reg.RateLimit.RPS, reg.RateLimit.Burst))
	}
	mws = append(mws, WithQuotaBackoff(r.maxQuota))
	c := Wrap(inner, mws...)
	r.clients[reg.Provider] = c
	return c, nil
}

// Close releases every client built so far.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var errs []error
	for name, c := range r.clients {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
		delete(r.clients, name)
	}
	return errors.Join(errs...)
}
