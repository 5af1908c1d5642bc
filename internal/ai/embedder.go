package ai

import (
	"context"
	"fmt"

	"cvlens/internal/config"
	cvlensErrors "cvlens/internal/errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/genai"
)

// maxEmbeddingInput truncates embedding input to stay within model token limits
const maxEmbeddingInput = 40000

// GeminiEmbedder implements Embedder on the Gemini embedding API
type GeminiEmbedder struct {
	client         *genai.Client
	config         *config.OperationAIConfig
	circuitBreaker *EmbeddingCircuitBreaker
	logger         *cvlensErrors.Logger
}

var _ Embedder = (*GeminiEmbedder)(nil)

// NewGeminiEmbedder creates a new Gemini embedder instance
func NewGeminiEmbedder(cfg *config.OperationAIConfig, logger *cvlensErrors.Logger) (*GeminiEmbedder, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, cvlensErrors.NewUpstreamError(cvlensErrors.ErrCodeEmbeddingService,
			"Failed to create Gemini embedding client", err)
	}

	return &GeminiEmbedder{
		client:         client,
		config:         cfg,
		circuitBreaker: NewEmbeddingCircuitBreaker(cfg, logger),
		logger:         logger,
	}, nil
}

// Embed converts text into a dense vector
func (e *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	tracer := otel.Tracer("cvlens.ai.gemini")
	ctx, span := tracer.Start(ctx, "gemini.embed")
	defer span.End()

	if len(text) > maxEmbeddingInput {
		text = text[:maxEmbeddingInput]
	}

	span.SetAttributes(
		attribute.String("ai.model", e.config.Model),
		attribute.Int("ai.input_length", len(text)),
	)

	// Cancellation is checked before the request goes out
	if err := ctx.Err(); err != nil {
		span.RecordError(err)
		return nil, cvlensErrors.NewCancelledError("Operation cancelled before embedding request", context.Cause(ctx))
	}

	callCtx, cancel := context.WithTimeout(ctx, *e.config.Timeout)
	defer cancel()

	result, err := e.circuitBreaker.Execute(func() (*genai.EmbedContentResponse, error) {
		return e.embedWithRetry(callCtx, text)
	})
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		if ctx.Err() != nil {
			return nil, cvlensErrors.NewCancelledError("Operation cancelled during embedding request", context.Cause(ctx))
		}
		return nil, cvlensErrors.NewUpstreamError(cvlensErrors.ErrCodeEmbeddingService,
			"Failed to generate embedding", err)
	}

	if result == nil || len(result.Embeddings) == 0 || len(result.Embeddings[0].Values) == 0 {
		err := fmt.Errorf("empty embedding result")
		span.RecordError(err)
		return nil, cvlensErrors.NewUpstreamError(cvlensErrors.ErrCodeEmbeddingService,
			"Embedding service returned an empty vector", err)
	}

	span.SetAttributes(
		attribute.Bool("success", true),
		attribute.Int("ai.embedding_dimensions", len(result.Embeddings[0].Values)),
	)
	return result.Embeddings[0].Values, nil
}

// embedWithRetry executes an embedding call with retry logic and exponential backoff
func (e *GeminiEmbedder) embedWithRetry(ctx context.Context, text string) (*genai.EmbedContentResponse, error) {
	var lastErr error

	for attempt := 0; attempt <= *e.config.MaxRetries; attempt++ {
		if attempt > 0 {
			e.logger.Warn("Retrying embedding call",
				"attempt", attempt,
				"max_retries", *e.config.MaxRetries,
				"error", lastErr.Error())

			if err := sleepWithBackoff(ctx, attempt); err != nil {
				return nil, err
			}
		}

		result, err := e.client.Models.EmbedContent(ctx, e.config.Model, genai.Text(text), nil)
		if err == nil {
			return result, nil
		}

		lastErr = err
		if !isRetryableError(err) {
			break
		}
	}

	e.logger.LogError(lastErr, "Embedding call failed after all retry attempts",
		"total_attempts", *e.config.MaxRetries+1)

	return nil, fmt.Errorf("embedding failed after %d retries: %w", *e.config.MaxRetries, lastErr)
}

// GetCircuitBreakerStats returns circuit breaker statistics
func (e *GeminiEmbedder) GetCircuitBreakerStats() map[string]any {
	return e.circuitBreaker.GetStats()
}
