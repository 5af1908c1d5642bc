package ai

import (
	"fmt"

	"cvlens/internal/config"
	"cvlens/internal/errors"
)

// NewGenerator creates a Generator for a specific operation based on the configured provider
func NewGenerator(cfg *config.OperationAIConfig, operationType string, logger *errors.Logger) (Generator, error) {
	logger.Debug("Initializing AI generator",
		"provider", cfg.Provider,
		"operation_type", operationType,
		"model", cfg.Model,
		"temperature", *cfg.Temperature,
		"timeout", *cfg.Timeout,
		"max_retries", *cfg.MaxRetries)

	switch cfg.Provider {
	case "gemini":
		return NewGeminiProvider(cfg, operationType, logger)
	default:
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("Unsupported AI provider: %s", cfg.Provider), nil)
	}
}

// NewEmbedder creates an Embedder based on the configured provider
func NewEmbedder(cfg *config.OperationAIConfig, logger *errors.Logger) (Embedder, error) {
	logger.Debug("Initializing AI embedder",
		"provider", cfg.Provider,
		"model", cfg.Model,
		"timeout", *cfg.Timeout,
		"max_retries", *cfg.MaxRetries)

	switch cfg.Provider {
	case "gemini":
		return NewGeminiEmbedder(cfg, logger)
	default:
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("Unsupported AI provider: %s", cfg.Provider), nil)
	}
}
