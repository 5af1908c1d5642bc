package config

import (
	"fmt"
	"os"
	"strings"
)

// maxPromptFileSize caps external prompt files at 64KB
const maxPromptFileSize = 64 * 1024

// loadPromptFiles loads per-operation system prompt overrides from external
// files. An inline systemPrompt takes precedence over a file.
func (c *Config) loadPromptFiles() error {
	ops := map[string]*OperationAIConfig{
		"extract":   &c.AI.Extract,
		"recommend": &c.AI.Recommend,
		"agent":     &c.AI.Agent,
	}

	for name, op := range ops {
		if op.SystemPrompt != "" || op.SystemPromptFile == "" {
			continue
		}
		prompt, err := loadPromptFile(op.SystemPromptFile)
		if err != nil {
			return fmt.Errorf("%s system prompt: %w", name, err)
		}
		op.SystemPrompt = prompt
	}

	return nil
}

// loadPromptFile reads and validates a single prompt file
func loadPromptFile(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("cannot access prompt file %s: %w", path, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("prompt file %s is a directory", path)
	}
	if info.Size() > maxPromptFileSize {
		return "", fmt.Errorf("prompt file %s exceeds maximum size of %d bytes", path, maxPromptFileSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("cannot read prompt file %s: %w", path, err)
	}

	prompt := strings.TrimSpace(string(data))
	if prompt == "" {
		return "", fmt.Errorf("prompt file %s is empty", path)
	}

	return prompt, nil
}
