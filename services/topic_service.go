// services/topic_service.go
package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/GeoRank-AI/georank-workflows/internal/models"
	"github.com/GeoRank-AI/georank-workflows/internal/providers"
	"github.com/GeoRank-AI/georank-workflows/internal/providers/common"
)

const planSystemPrompt = `You design a battery of brand-neutral, search-style queries to measure how visible an
institution is in AI-generated answers. Given an institution name, correct it to its official name, identify its
location, and produce 4-6 topical categories a prospective customer would research, each with 3-5 queries.
Queries must NOT name the institution itself; they are the questions a person with no brand preference would ask.

Return ONLY a valid JSON object with this structure:
{
  "canonical_name": "Official Institution Name",
  "location": "City, Country",
  "topics": [
    {"name": "Topic category", "queries": ["first query", "second query"]}
  ]
}`

var planSchema = GenerateSchema[PlanPayload]()

type topicService struct {
	provider providers.AIProvider
	logger   *zap.Logger
}

func NewTopicService(provider providers.AIProvider) TopicService {
	return &topicService{
		provider: provider,
		logger:   zap.L().Named("topics"),
	}
}

func (s *topicService) GeneratePlan(ctx context.Context, institutionName string) (*models.GenerationPlan, error) {
	result, err := s.provider.Generate(ctx, planSystemPrompt, fmt.Sprintf("Institution: %s", institutionName), common.GenerateOptions{
		Temperature: 0.7,
		MaxTokens:   2000,
		SchemaName:  "generation_plan",
		Schema:      planSchema,
	})
	if err != nil {
		return nil, err
	}

	var payload PlanPayload
	if err := common.DecodeJSONPayload(result.Text, "plan_generation", &payload); err != nil {
		return nil, err
	}
	if len(payload.Topics) == 0 {
		return nil, common.NewParseError("plan_generation", fmt.Errorf("no topics in generation plan"))
	}

	plan := &models.GenerationPlan{
		CanonicalName: payload.CanonicalName,
		Location:      payload.Location,
	}
	if plan.CanonicalName == "" {
		plan.CanonicalName = institutionName
	}
	total := 0
	for _, topic := range payload.Topics {
		if len(topic.Queries) == 0 {
			continue
		}
		plan.Topics = append(plan.Topics, models.TopicGroup{Name: topic.Name, Queries: topic.Queries})
		total += len(topic.Queries)
	}
	if total == 0 {
		return nil, common.NewParseError("plan_generation", fmt.Errorf("generation plan contains no queries"))
	}

	s.logger.Info("generated query plan",
		zap.String("institution", institutionName),
		zap.String("canonical_name", plan.CanonicalName),
		zap.Int("topics", len(plan.Topics)),
		zap.Int("queries", total))
	return plan, nil
}
