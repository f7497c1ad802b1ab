package providers

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/GeoRank-AI/georank-workflows/internal/config"
	"github.com/GeoRank-AI/georank-workflows/internal/providers/anthropic"
	"github.com/GeoRank-AI/georank-workflows/internal/providers/openai"
)

// NewProvider creates the appropriate AI provider based on the model name
func NewProvider(modelName string, cfg *config.Config) (AIProvider, error) {
	modelLower := strings.ToLower(modelName)

	if strings.Contains(modelLower, "gpt") || strings.Contains(modelLower, "o4") {
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OpenAI API key is empty in config")
		}
		zap.L().Debug("selected openai provider", zap.String("model", modelName))
		return openai.NewProvider(cfg, modelName), nil
	}

	if strings.Contains(modelLower, "claude") || strings.Contains(modelLower, "sonnet") ||
		strings.Contains(modelLower, "opus") || strings.Contains(modelLower, "haiku") {
		if cfg.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("Anthropic API key is empty in config")
		}
		zap.L().Debug("selected anthropic provider", zap.String("model", modelName))
		return anthropic.NewProvider(cfg, modelName), nil
	}

	return nil, fmt.Errorf("unsupported model: %s", modelName)
}
