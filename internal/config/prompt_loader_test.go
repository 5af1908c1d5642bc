package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writePromptFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prompt.txt")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write prompt file: %v", err)
	}
	return path
}

func TestLoadPromptFiles(t *testing.T) {
	t.Run("loads file into empty prompt", func(t *testing.T) {
		path := writePromptFile(t, "  You extract structured CV data.  \n")

		cfg := &Config{}
		cfg.AI.Extract.SystemPromptFile = path

		if err := cfg.loadPromptFiles(); err != nil {
			t.Fatalf("loadPromptFiles() error = %v", err)
		}
		if got := cfg.AI.Extract.SystemPrompt; got != "You extract structured CV data." {
			t.Errorf("SystemPrompt = %q, want trimmed file content", got)
		}
	})

	t.Run("inline prompt takes precedence", func(t *testing.T) {
		path := writePromptFile(t, "from file")

		cfg := &Config{}
		cfg.AI.Recommend.SystemPrompt = "inline"
		cfg.AI.Recommend.SystemPromptFile = path

		if err := cfg.loadPromptFiles(); err != nil {
			t.Fatalf("loadPromptFiles() error = %v", err)
		}
		if cfg.AI.Recommend.SystemPrompt != "inline" {
			t.Errorf("inline prompt was overridden: %q", cfg.AI.Recommend.SystemPrompt)
		}
	})

	t.Run("missing file fails", func(t *testing.T) {
		cfg := &Config{}
		cfg.AI.Agent.SystemPromptFile = filepath.Join(t.TempDir(), "missing.txt")

		err := cfg.loadPromptFiles()
		if err == nil {
			t.Fatal("expected error for missing prompt file")
		}
		if !strings.Contains(err.Error(), "agent system prompt") {
			t.Errorf("error should name the operation, got: %v", err)
		}
	})

	t.Run("empty file fails", func(t *testing.T) {
		path := writePromptFile(t, "   \n\t ")

		cfg := &Config{}
		cfg.AI.Extract.SystemPromptFile = path

		if err := cfg.loadPromptFiles(); err == nil {
			t.Fatal("expected error for empty prompt file")
		}
	})

	t.Run("directory fails", func(t *testing.T) {
		cfg := &Config{}
		cfg.AI.Extract.SystemPromptFile = t.TempDir()

		if err := cfg.loadPromptFiles(); err == nil {
			t.Fatal("expected error for directory prompt path")
		}
	})
}
