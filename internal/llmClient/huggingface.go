package llmclient

import (
	"os"
	"time"
)

// HuggingFaceBaseURL is the OpenAI-compatible inference router.
const HuggingFaceBaseURL = "https://router.huggingface.co/v1"

// HuggingFaceClient is the last-resort provider. The router does not accept
// response_format for every hosted model, so replies may carry prose around
// the JSON object.
type HuggingFaceClient struct {
	*chatClient
}

func NewHuggingFaceClient(token, model string, timeout time.Duration) (*HuggingFaceClient, error) {
	if token == "" {
		token = os.Getenv("HF_TOKEN")
	}
	if model == "" {
		model = DefaultHuggingFaceModel
	}
	return &HuggingFaceClient{chatClient: newChatClient("HuggingFace", token, HuggingFaceBaseURL, model, timeout, false)}, nil
}
