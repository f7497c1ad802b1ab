package testutil

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/GeoRank-AI/georank-workflows/internal/config"
	"github.com/GeoRank-AI/georank-workflows/internal/models"
)

// SampleConfig returns a test configuration
func SampleConfig() *config.Config {
	return &config.Config{
		OpenAIAPIKey:    "test-openai-key",
		AnthropicAPIKey: "test-anthropic-key",
		Pipeline: config.PipelineConfig{
			BatchSize:        5,
			ConcurrencyLimit: 10,
			BatchMaxRetries:  3,
			BatchRetryDelay:  time.Millisecond,
			WeightPolicy:     "banded",
			ValidateMentions: true,
		},
		Provider: config.ProviderConfig{
			AnswerModel:      "gpt-4.1",
			ValidationModel:  "gpt-4.1-mini",
			RequestTimeout:   5 * time.Second,
			MaxRetries:       3,
			RetryBaseDelay:   time.Millisecond,
			WebSearchEnabled: false,
		},
	}
}

// SampleAnalysis returns a pending analysis for one institution.
func SampleAnalysis(name string) *models.Analysis {
	return &models.Analysis{
		ID:              uuid.New(),
		InstitutionName: name,
		CanonicalName:   name,
		Status:          models.AnalysisStatusPending,
		CreatedAt:       time.Now(),
	}
}

// SampleQueries returns n pending queries belonging to analysisID.
func SampleQueries(analysisID uuid.UUID, focusName string, n int) []*models.Query {
	queries := make([]*models.Query, n)
	for i := 0; i < n; i++ {
		queries[i] = &models.Query{
			ID:         uuid.New(),
			AnalysisID: analysisID,
			Topic:      "general",
			Text:       fmt.Sprintf("sample query %d about institutions", i+1),
			Position:   i,
			FocusName:  focusName,
			Status:     models.QueryStatusPending,
			CreatedAt:  time.Now(),
		}
	}
	return queries
}

// SampleAnswerPayload returns a well-formed answer-service payload.
func SampleAnswerPayload(brands ...string) string {
	out := `{"answer": "Sample answer text.", "brands_mentioned": [`
	for i, b := range brands {
		if i > 0 {
			out += ", "
		}
		out += fmt.Sprintf("%q", b)
	}
	out += `], "cited_urls": ["https://example.com/rankings"]}`
	return out
}

// SampleValidationPayload returns a validation response marking position
// pos (1-based) as a verified mention, or not found when pos is 0.
func SampleValidationPayload(pos int, matched string) string {
	if pos == 0 {
		return `{"found": false, "matched_name": "", "position": 0, "confidence": "high", "reason": "no entity in the list denotes the target"}`
	}
	return fmt.Sprintf(`{"found": true, "matched_name": %q, "position": %d, "confidence": "high", "reason": "same real-world entity"}`, matched, pos)
}
