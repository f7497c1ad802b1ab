// services/interfaces.go
package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/invopop/jsonschema"

	"github.com/GeoRank-AI/georank-workflows/internal/models"
)

// AnswerService issues one answer-generation call per query and parses the
// structured payload out of the model response.
type AnswerService interface {
	FetchAnswer(ctx context.Context, query *models.Query) (*AnswerResult, error)
}

// AnswerResult is the normalized output of one answer call. Absent fields
// come back as empty values, never nil, so aggregation can trust them.
type AnswerResult struct {
	AnswerText      string
	BrandsMentioned []string
	CitedURLs       []string
	InputTokens     int
	OutputTokens    int
	Cost            float64
}

// RankService resolves the authoritative rank and visibility weight of the
// focus brand within a mentioned-brands list.
type RankService interface {
	ResolveRank(ctx context.Context, mentionedBrands []string, focusName string) (*RankResult, error)
}

// RankResult carries the resolved rank (0 = absent) and its weight.
type RankResult struct {
	Rank      int
	Weight    float64
	Validated bool
	Reason    string
}

// TopicService generates the query battery for one institution.
type TopicService interface {
	GeneratePlan(ctx context.Context, institutionName string) (*models.GenerationPlan, error)
}

// BatchExecutor drives concurrent execution of query jobs with per-query
// persistence and batch-level retry.
type BatchExecutor interface {
	Execute(ctx context.Context, analysisID uuid.UUID, queries []*models.Query) error
}

// AggregationService computes the derived report tables once all queries
// are terminal. Returns the overall visibility score.
type AggregationService interface {
	Aggregate(ctx context.Context, analysisID uuid.UUID) (float64, error)
}

// PipelineService is the surface exposed to the API layer.
type PipelineService interface {
	StartAnalysis(ctx context.Context, institutionName string) (uuid.UUID, error)
	RunPipeline(ctx context.Context, analysisID uuid.UUID) error
	GetProgress(ctx context.Context, analysisID uuid.UUID) (*Progress, error)
}

// Progress is the polling view of one analysis.
type Progress struct {
	AnalysisID      uuid.UUID             `json:"analysis_id"`
	Status          models.AnalysisStatus `json:"status"`
	ProgressPercent int                   `json:"progress_percent"`
	IsComplete      bool                  `json:"is_complete"`
	IsFailed        bool                  `json:"is_failed"`
}

// CostService calculates API costs for AI calls.
type CostService interface {
	CalculateCost(provider, model string, inputTokens, outputTokens int, websearch bool) float64
}

// AnswerPayload is the structured output requested from the answering call.
type AnswerPayload struct {
	Answer          string   `json:"answer" jsonschema_description:"The comprehensive answer to the question"`
	BrandsMentioned []string `json:"brands_mentioned" jsonschema_description:"Every institution or brand named in the answer, in order of first appearance"`
	CitedURLs       []string `json:"cited_urls" jsonschema_description:"URLs of sources cited in the answer"`
}

// ValidationPayload is the structured output of the semantic rank check.
type ValidationPayload struct {
	Found       bool   `json:"found" jsonschema_description:"Whether any listed name denotes the same real-world entity as the target"`
	MatchedName string `json:"matched_name" jsonschema_description:"The exact list entry that matched, empty when not found"`
	Position    int    `json:"position" jsonschema_description:"1-based position of the matched entry in the list, 0 when not found"`
	Confidence  string `json:"confidence" jsonschema:"enum=high,enum=medium,enum=low" jsonschema_description:"Confidence in the judgment"`
	Reason      string `json:"reason" jsonschema_description:"One-sentence rationale"`
}

// PlanTopic is one topical category in the topic-generation output.
type PlanTopic struct {
	Name    string   `json:"name" jsonschema_description:"Topic category name"`
	Queries []string `json:"queries" jsonschema_description:"Brand-neutral search queries for this topic"`
}

// PlanPayload is the structured output of the topic-generation call.
type PlanPayload struct {
	CanonicalName string      `json:"canonical_name" jsonschema_description:"Corrected official name of the institution"`
	Location      string      `json:"location" jsonschema_description:"City and country the institution operates in"`
	Topics        []PlanTopic `json:"topics" jsonschema_description:"Topical categories of search queries"`
}

// GenerateSchema creates a JSON schema for structured outputs using reflection
func GenerateSchema[T any]() interface{} {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var zero T
	schema := reflector.Reflect(zero)

	result := map[string]interface{}{
		"type":       "object",
		"properties": schema.Properties,
		"required":   schema.Required,
	}
	if schema.AdditionalProperties != nil {
		result["additionalProperties"] = false
	}
	return result
}
