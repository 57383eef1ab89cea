package provider

import "context"

// Message is one turn in a chat completion request. Images, when present,
// are data URLs attached to the turn as additional content parts.
type Message struct {
	Role    string   `json:"role"` // system, user or assistant
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"`
}

// SamplingParams are the sampling knobs forwarded verbatim to the model API.
type SamplingParams struct {
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"topP"`
	TopK        int     `json:"topK"`
	MaxTokens   int     `json:"maxTokens"`
}

// Client is the model-call capability. Generate blocks until the full
// completion is available. Stream pushes completion chunks into chunks in
// arrival order and returns once the stream is exhausted; it does not close
// the channel.
type Client interface {
	Generate(ctx context.Context, messages []Message, params SamplingParams, model string) (string, error)
	Stream(ctx context.Context, messages []Message, params SamplingParams, model string, chunks chan<- string) error
}
