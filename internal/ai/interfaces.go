package ai

import (
	"context"

	"google.golang.org/genai"
)

// Generator produces model output for a single configured operation.
// All methods return token usage information - callers can ignore it if not needed
type Generator interface {
	// GenerateStructured asks the model for JSON constrained by schema and
	// unmarshals the response into out.
	GenerateStructured(ctx context.Context, systemPrompt, userPrompt string, schema *genai.Schema, out any) (*TokenUsage, error)
	// GenerateText asks the model for free-form text.
	GenerateText(ctx context.Context, systemPrompt, userPrompt string) (string, *TokenUsage, error)
	GetModelInfo(ctx context.Context) *ModelInfo
	Close() error
}

// Embedder converts text into a dense vector
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// TokenUsage represents token usage information from AI responses
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
}

// ModelInfo represents information about the AI model
type ModelInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName,omitempty"`
	Version     string `json:"version,omitempty"`
	Available   bool   `json:"available"`
	Error       string `json:"error,omitempty"`
}
