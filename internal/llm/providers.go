package llm

import (
	"context"
	"strings"
	"time"

	llmclient "nebula/internal/llmClient"
)

// ProviderSettings carries the credentials and tuning for every backend.
type ProviderSettings struct {
	GroqAPIKey   string
	GroqModel    string
	GeminiAPIKey string
	GeminiModel  string
	HFToken      string
	HFModel      string

	// Fake replaces every real provider with the canned offline client.
	Fake    bool
	Timeout time.Duration
}

// Registrations returns the candidates in priority order: Groq, Gemini,
// Hugging Face. A provider is configured when its credential is non-blank.
// Rate limits come from LLM_* or <PROVIDER>_* environment variables.
func Registrations(s ProviderSettings) []llmclient.Registration {
	if s.Fake {
		return []llmclient.Registration{{
			Provider:   llmclient.ProviderFake,
			Model:      "canned",
			Configured: true,
			Factory: func(context.Context) (llmclient.LLMClient, error) {
				return llmclient.NewCannedClient(), nil
			},
		}}
	}
	limit := func(prefix string) *llmclient.RateLimitConfig {
		cfg := RateLimitConfigFromEnv("LLM", prefix)
		if cfg.RPS <= 0 {
			return nil
		}
		return &cfg
	}
	return []llmclient.Registration{
		{
			Provider:   llmclient.ProviderGroq,
			Model:      firstNonEmpty(s.GroqModel, llmclient.DefaultGroqModel),
			Configured: strings.TrimSpace(s.GroqAPIKey) != "",
			Timeout:    s.Timeout,
			RateLimit:  limit("GROQ"),
			Factory: func(context.Context) (llmclient.LLMClient, error) {
				return llmclient.NewGroqClient(s.GroqAPIKey, s.GroqModel, s.Timeout)
			},
		},
		{
			Provider:   llmclient.ProviderGemini,
			Model:      firstNonEmpty(s.GeminiModel, llmclient.DefaultGeminiModel),
			Configured: strings.TrimSpace(s.GeminiAPIKey) != "",
			Timeout:    s.Timeout,
			RateLimit:  limit("GEMINI"),
			Factory: func(ctx context.Context) (llmclient.LLMClient, error) {
				return llmclient.NewGeminiClient(ctx, s.GeminiAPIKey, s.GeminiModel)
			},
		},
		{
			Provider:   llmclient.ProviderHuggingFace,
			Model:      firstNonEmpty(s.HFModel, llmclient.DefaultHuggingFaceModel),
			Configured: strings.TrimSpace(s.HFToken) != "",
			Timeout:    s.Timeout,
			RateLimit:  limit("HF"),
			Factory: func(context.Context) (llmclient.LLMClient, error) {
				return llmclient.NewHuggingFaceClient(s.HFToken, s.HFModel, s.Timeout)
			},
		},
	}
}

// NewRegistryFromSettings registers every candidate from s.
func NewRegistryFromSettings(s ProviderSettings, opts ...RegistryOption) (*Registry, error) {
	r := NewRegistry(opts...)
	for _, reg := range Registrations(s) {
		if err := r.Register(reg); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
