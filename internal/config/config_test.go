package config

import (
	"os"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	// Save original env and restore after test
	originalEnv := os.Environ()
	defer func() {
		os.Clearenv()
		for _, env := range originalEnv {
			// Parse and restore each env var
			for i, c := range env {
				if c == '=' {
					os.Setenv(env[:i], env[i+1:])
					break
				}
			}
		}
	}()

	// Clear env to test defaults
	os.Clearenv()

	cfg := Load()

	tests := []struct {
		name     string
		got      interface{}
		expected interface{}
	}{
		{"Port", cfg.Port, 8080},
		{"LogLevel", cfg.LogLevel, "info"},
		{"LLMProvider", cfg.LLMProvider, "openai"},
		{"StoreProvider", cfg.StoreProvider, "postgres"},
		{"QueueProvider", cfg.QueueProvider, "nats"},
		{"CacheProvider", cfg.CacheProvider, "redis"},
		{"LLMModel", cfg.LLMModel, "gpt-4o-mini"},
		{"NumCards", cfg.NumCards, 5},
		{"MaxCards", cfg.MaxCards, 50},
		{"PromptTokenBudget", cfg.PromptTokenBudget, 3000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("expected %s=%v, got %v", tt.name, tt.expected, tt.got)
			}
		})
	}
}

func TestLoadFromEnv(t *testing.T) {
	// Save and restore env
	originalPort := os.Getenv("PORT")
	originalCards := os.Getenv("NUM_CARDS")
	defer func() {
		os.Setenv("PORT", originalPort)
		os.Setenv("NUM_CARDS", originalCards)
	}()

	// Set test values
	os.Setenv("PORT", "9090")
	os.Setenv("NUM_CARDS", "10")

	cfg := Load()

	if cfg.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Port)
	}
	if cfg.NumCards != 10 {
		t.Errorf("expected 10 cards, got %d", cfg.NumCards)
	}
}

func TestLoadProviderOverrides(t *testing.T) {
	// Save and restore env
	originalLLM := os.Getenv("LLM_PROVIDER")
	defer func() {
		os.Setenv("LLM_PROVIDER", originalLLM)
	}()

	// Set test values
	os.Setenv("LLM_PROVIDER", "stub")

	cfg := Load()

	if cfg.LLMProvider != "stub" {
		t.Errorf("expected LLM provider 'stub', got %s", cfg.LLMProvider)
	}
}
