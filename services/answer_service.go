// services/answer_service.go
package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"mvdan.cc/xurls/v2"

	"github.com/GeoRank-AI/georank-workflows/internal/models"
	"github.com/GeoRank-AI/georank-workflows/internal/providers"
	"github.com/GeoRank-AI/georank-workflows/internal/providers/common"
)

const answerSystemPrompt = `You are a knowledgeable assistant answering search-style questions about institutions.
Answer the question thoroughly, then report every institution or brand your answer names, in order of first appearance.

Return ONLY a valid JSON object with this structure:
{
  "answer": "your detailed answer",
  "brands_mentioned": ["First Institution", "Second Institution"],
  "cited_urls": ["https://source-one.example"]
}`

var answerSchema = GenerateSchema[AnswerPayload]()

type answerService struct {
	provider    providers.AIProvider
	costService CostService
	logger      *zap.Logger
	webSearch   bool
}

// NewAnswerService builds the per-query answer fetcher on top of one
// provider. The provider owns transport retries; this layer owns parsing.
func NewAnswerService(provider providers.AIProvider, costService CostService, webSearch bool) AnswerService {
	return &answerService{
		provider:    provider,
		costService: costService,
		logger:      zap.L().Named("answer"),
		webSearch:   webSearch,
	}
}

func (s *answerService) FetchAnswer(ctx context.Context, query *models.Query) (*AnswerResult, error) {
	userPrompt := query.Text
	if query.ForceMention {
		userPrompt = fmt.Sprintf("%s\n\nBe sure to address how %s compares, if at all relevant.", query.Text, query.FocusName)
	}

	result, err := s.provider.Generate(ctx, answerSystemPrompt, userPrompt, common.GenerateOptions{
		WebSearch:   s.webSearch,
		Temperature: 0.7,
		MaxTokens:   2000,
		SchemaName:  "answer_payload",
		Schema:      answerSchema,
	})
	if err != nil {
		return nil, err
	}

	var payload AnswerPayload
	if err := common.DecodeJSONPayload(result.Text, "answer_fetch", &payload); err != nil {
		s.logger.Warn("failed to parse answer payload",
			zap.String("query_id", query.ID.String()),
			zap.Error(err))
		return nil, err
	}

	answer := &AnswerResult{
		AnswerText:      payload.Answer,
		BrandsMentioned: payload.BrandsMentioned,
		CitedURLs:       payload.CitedURLs,
		InputTokens:     result.InputTokens,
		OutputTokens:    result.OutputTokens,
		Cost:            s.costService.CalculateCost(s.provider.Name(), result.Model, result.InputTokens, result.OutputTokens, s.webSearch),
	}
	s.normalize(answer, result)
	return answer, nil
}

// normalize guarantees empty-but-non-nil collections and backfills cited
// URLs from provider annotations or the answer text itself.
func (s *answerService) normalize(answer *AnswerResult, raw *common.GenerationResult) {
	if answer.BrandsMentioned == nil {
		answer.BrandsMentioned = []string{}
	}
	if len(answer.CitedURLs) == 0 && len(raw.CitedURLs) > 0 {
		answer.CitedURLs = raw.CitedURLs
	}
	if len(answer.CitedURLs) == 0 && answer.AnswerText != "" {
		answer.CitedURLs = xurls.Strict().FindAllString(answer.AnswerText, -1)
	}
	if answer.CitedURLs == nil {
		answer.CitedURLs = []string{}
	}
}
