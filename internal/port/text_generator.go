package port

import "context"

// GenerateRequest carries one prompt for the text-generation service.
type GenerateRequest struct {
	Prompt          string
	MaxOutputTokens int
	Temperature     float64
}

// GenerateOutput is the first candidate completion returned by the service.
type GenerateOutput struct {
	Text         string
	Model        string
	FinishReason string
}

// TextGenerator abstracts an LLM completion endpoint.
type TextGenerator interface {
	Generate(ctx context.Context, req GenerateRequest) (*GenerateOutput, error)
}
