package llmclient

import (
	"os"
	"time"
)

// GroqBaseURL is Groq's OpenAI-compatible API root.
const GroqBaseURL = "https://api.groq.com/openai/v1"

// GroqClient calls Groq chat completions and asks for a JSON object reply.
// See: https://console.groq.com/docs/api-reference
type GroqClient struct {
	*chatClient
}

// NewGroqClient creates a Groq client. If apiKey is empty, it falls back to GROQ_API_KEY env var.
func NewGroqClient(apiKey, model string, timeout time.Duration) (*GroqClient, error) {
	if apiKey == "" {
		apiKey = os.Getenv("GROQ_API_KEY")
	}
	if model == "" {
		model = DefaultGroqModel
	}
	return &GroqClient{chatClient: newChatClient("Groq", apiKey, GroqBaseURL, model, timeout, true)}, nil
}
