package providers

import (
	"context"

	"github.com/GeoRank-AI/georank-workflows/internal/providers/common"
)

// AIProvider is one text-generation backend. Implementations own their own
// transport-level retry policy; callers treat a returned error as final.
type AIProvider interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string, opts common.GenerateOptions) (*common.GenerationResult, error)
	Name() string
	SupportsWebSearch() bool
}
