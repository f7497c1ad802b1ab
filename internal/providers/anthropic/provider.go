// internal/providers/anthropic/provider.go
package anthropic

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/GeoRank-AI/georank-workflows/internal/config"
	"github.com/GeoRank-AI/georank-workflows/internal/providers/common"
)

type Provider struct {
	client *anthropic.Client
	model  string
}

func NewProvider(cfg *config.Config, model string) *Provider {
	client := anthropic.NewClient(
		option.WithAPIKey(cfg.AnthropicAPIKey),
		option.WithMaxRetries(cfg.Provider.MaxRetries),
		option.WithRequestTimeout(cfg.Provider.RequestTimeout),
	)
	return &Provider{
		client: &client,
		model:  model,
	}
}

func (p *Provider) Name() string { return "anthropic" }

// SupportsWebSearch is false until the SDK exposes the web search tool.
func (p *Provider) SupportsWebSearch() bool { return false }

func (p *Provider) Generate(ctx context.Context, systemPrompt, userPrompt string, opts common.GenerateOptions) (*common.GenerationResult, error) {
	// No native structured-output support; when a schema is requested the
	// JSON shape is enforced through the prompt and the caller parses the
	// raw text.
	prompt := userPrompt
	if systemPrompt != "" {
		prompt = systemPrompt + "\n\n" + userPrompt
	}
	if opts.Schema != nil {
		prompt += "\n\nReturn ONLY a valid JSON object, no other text."
	}

	maxTokens := int64(opts.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 2000
	}

	messages := []anthropic.MessageParam{{
		Content: []anthropic.ContentBlockParamUnion{{
			OfText: &anthropic.TextBlockParam{Text: prompt},
		}},
		Role: anthropic.MessageParamRoleUser,
	}}

	response, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(p.model),
		MaxTokens:   maxTokens,
		Messages:    messages,
		Temperature: anthropic.Float(opts.Temperature),
	})
	if err != nil {
		return nil, &common.TransportError{Err: fmt.Errorf("message creation failed: %w", err)}
	}

	text := extractResponseText(*response)
	if text == "" {
		return nil, common.NewParseError("anthropic_message", fmt.Errorf("no text content in response"))
	}

	return &common.GenerationResult{
		Text:         text,
		InputTokens:  int(response.Usage.InputTokens),
		OutputTokens: int(response.Usage.OutputTokens),
		Model:        p.model,
	}, nil
}

func extractResponseText(response anthropic.Message) string {
	var textParts []string
	for _, block := range response.Content {
		switch variant := block.AsAny().(type) {
		case anthropic.TextBlock:
			textParts = append(textParts, variant.Text)
		}
	}
	return strings.Join(textParts, "")
}
