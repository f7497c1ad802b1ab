// internal/providers/openai/provider.go
package openai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/GeoRank-AI/georank-workflows/internal/config"
	"github.com/GeoRank-AI/georank-workflows/internal/providers/common"
)

const responsesEndpoint = "https://api.openai.com/v1/responses"

type Provider struct {
	client     *openai.Client
	httpClient *common.RetryClient
	model      string
	apiKey     string
	webSearch  bool
}

func NewProvider(cfg *config.Config, model string) *Provider {
	client := openai.NewClient(
		option.WithAPIKey(cfg.OpenAIAPIKey),
		option.WithMaxRetries(cfg.Provider.MaxRetries),
		option.WithRequestTimeout(cfg.Provider.RequestTimeout),
	)

	return &Provider{
		client: &client,
		httpClient: common.NewRetryClient(
			cfg.Provider.RequestTimeout,
			cfg.Provider.MaxRetries,
			cfg.Provider.RetryBaseDelay,
			cfg.Provider.RequestsPerSec,
		),
		model:     model,
		apiKey:    cfg.OpenAIAPIKey,
		webSearch: cfg.Provider.WebSearchEnabled,
	}
}

func (p *Provider) Name() string { return "openai" }

func (p *Provider) SupportsWebSearch() bool { return p.webSearch }

func (p *Provider) Generate(ctx context.Context, systemPrompt, userPrompt string, opts common.GenerateOptions) (*common.GenerationResult, error) {
	if opts.WebSearch && p.webSearch {
		return p.generateWithWebSearch(ctx, systemPrompt, userPrompt)
	}
	return p.generateChat(ctx, systemPrompt, userPrompt, opts)
}

func (p *Provider) generateChat(ctx context.Context, systemPrompt, userPrompt string, opts common.GenerateOptions) (*common.GenerationResult, error) {
	params := openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt),
		},
		Model:       openai.ChatModel(p.model),
		Temperature: openai.Float(opts.Temperature),
	}
	if opts.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(opts.MaxTokens))
	}
	if opts.Schema != nil {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:        opts.SchemaName,
					Description: openai.String("Structured response"),
					Schema:      opts.Schema,
					Strict:      openai.Bool(true),
				},
			},
		}
	}

	response, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, &common.TransportError{Err: fmt.Errorf("chat completion failed: %w", err)}
	}
	if len(response.Choices) == 0 {
		return nil, common.NewParseError("chat_completion", fmt.Errorf("no response choices returned"))
	}

	return &common.GenerationResult{
		Text:         response.Choices[0].Message.Content,
		InputTokens:  int(response.Usage.PromptTokens),
		OutputTokens: int(response.Usage.CompletionTokens),
		Model:        p.model,
	}, nil
}

// Web search request/response shapes for the OpenAI responses API.
type webSearchRequest struct {
	Model string          `json:"model"`
	Tools []webSearchTool `json:"tools"`
	Input string          `json:"input"`
}

type webSearchTool struct {
	Type string `json:"type"`
}

type webSearchResponse struct {
	ID     string                `json:"id"`
	Status string                `json:"status"`
	Output []webSearchOutputItem `json:"output"`
	Usage  webSearchUsage        `json:"usage"`
}

type webSearchOutputItem struct {
	Type    string             `json:"type"`
	Content []webSearchContent `json:"content,omitempty"`
}

type webSearchContent struct {
	Type        string                `json:"type"`
	Text        string                `json:"text,omitempty"`
	Annotations []webSearchAnnotation `json:"annotations,omitempty"`
}

type webSearchAnnotation struct {
	Type string `json:"type"`
	URL  string `json:"url,omitempty"`
}

type webSearchUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// generateWithWebSearch calls the responses API directly; the SDK surface
// for web search does not expose citation annotations yet.
func (p *Provider) generateWithWebSearch(ctx context.Context, systemPrompt, userPrompt string) (*common.GenerationResult, error) {
	request := webSearchRequest{
		Model: p.model,
		Tools: []webSearchTool{{Type: "web_search_preview"}},
		Input: systemPrompt + "\n\n" + userPrompt,
	}

	var response webSearchResponse
	headers := map[string]string{"Authorization": "Bearer " + p.apiKey}
	if err := p.httpClient.PostJSON(ctx, responsesEndpoint, headers, request, &response); err != nil {
		return nil, err
	}

	var text string
	var urls []string
	for _, output := range response.Output {
		if output.Type != "message" {
			continue
		}
		for _, content := range output.Content {
			if content.Type != "output_text" {
				continue
			}
			if text == "" {
				text = content.Text
			}
			for _, annotation := range content.Annotations {
				if annotation.Type == "url_citation" && annotation.URL != "" {
					urls = append(urls, annotation.URL)
				}
			}
		}
	}

	if text == "" {
		return nil, common.NewParseError("web_search", fmt.Errorf("no message content found in response"))
	}

	return &common.GenerationResult{
		Text:         text,
		CitedURLs:    urls,
		InputTokens:  response.Usage.InputTokens,
		OutputTokens: response.Usage.OutputTokens,
		Model:        p.model,
	}, nil
}
