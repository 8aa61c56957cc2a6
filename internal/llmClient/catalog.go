package llmclient

import (
	"context"
	"time"
)

// Provider names in default priority order.
const (
	ProviderGroq        = "groq"
	ProviderGemini      = "gemini"
	ProviderHuggingFace = "huggingface"
	ProviderFake        = "fake"
)

// Default model identifiers per provider.
const (
	DefaultGroqModel        = "llama-3.3-70b-versatile"
	DefaultGeminiModel      = "gemini-1.5-flash"
	DefaultHuggingFaceModel = "mistralai/Mistral-7B-Instruct-v0.3"
)

// DefaultTemperature keeps replies close to deterministic.
const DefaultTemperature float32 = 0.2

type ClientFactory func(ctx context.Context) (LLMClient, error)

// RateLimitConfig throttles calls to one provider. Zero RPS disables it.
type RateLimitConfig struct {
	RPS   float64
	Burst int
}

// Registration describes one provider candidate. Configured is decided from
// credentials alone; the factory is not invoked until the provider is used.
type Registration struct {
	Provider   string
	Model      string
	Configured bool
	Timeout    time.Duration
	RateLimit  *RateLimitConfig
	Factory    ClientFactory
}

type Registrar interface {
	Register(reg Registration) error
}
