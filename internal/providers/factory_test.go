package providers_test

import (
	"testing"

	"github.com/GeoRank-AI/georank-workflows/internal/providers"
	"github.com/GeoRank-AI/georank-workflows/internal/providers/testutil"
)

func TestFactoryCreatesCorrectProvider(t *testing.T) {
	tests := []struct {
		modelName        string
		expectedProvider string
		shouldError      bool
	}{
		{"gpt-4.1", "openai", false},
		{"gpt-4.1-mini", "openai", false},
		{"GPT-4o", "openai", false},
		{"o4-mini", "openai", false},
		{"claude-sonnet-4-20250514", "anthropic", false},
		{"claude-3-5-haiku", "anthropic", false},
		{"unsupported-model", "", true},
		{"", "", true},
	}

	cfg := testutil.SampleConfig()

	for _, tt := range tests {
		t.Run(tt.modelName, func(t *testing.T) {
			provider, err := providers.NewProvider(tt.modelName, cfg)

			if tt.shouldError {
				if err == nil {
					t.Errorf("Expected error for model %s, but got none", tt.modelName)
				}
				return
			}

			if err != nil {
				t.Errorf("Unexpected error for model %s: %v", tt.modelName, err)
				return
			}

			if provider == nil {
				t.Errorf("Provider is nil for model %s", tt.modelName)
				return
			}

			if provider.Name() != tt.expectedProvider {
				t.Errorf("Expected provider %s, got %s", tt.expectedProvider, provider.Name())
			}
		})
	}
}

func TestFactoryRequiresCredentials(t *testing.T) {
	cfg := testutil.SampleConfig()
	cfg.OpenAIAPIKey = ""
	if _, err := providers.NewProvider("gpt-4.1", cfg); err == nil {
		t.Error("Expected error when OpenAI key is missing")
	}

	cfg = testutil.SampleConfig()
	cfg.AnthropicAPIKey = ""
	if _, err := providers.NewProvider("claude-3-5-haiku", cfg); err == nil {
		t.Error("Expected error when Anthropic key is missing")
	}
}
