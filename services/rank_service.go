// services/rank_service.go
package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/GeoRank-AI/georank-workflows/internal/matcher"
	"github.com/GeoRank-AI/georank-workflows/internal/providers"
	"github.com/GeoRank-AI/georank-workflows/internal/providers/common"
)

const validationSystemPrompt = `You judge whether a target institution appears in a list of names extracted from an AI answer.
Two names match only when they denote the SAME real-world entity. Reject names that are merely similar strings:
a city college and a national institute sharing a keyword are different entities. Abbreviations, acronyms and
spelling variants of the same institution DO match.`

var validationSchema = GenerateSchema[ValidationPayload]()

type rankService struct {
	provider providers.AIProvider
	policy   WeightPolicy
	validate bool
	logger   *zap.Logger
}

// NewRankService builds the rank resolver. When validate is false the
// local heuristic cascade is authoritative; otherwise it only serves as a
// cheap pre-filter signal and the model judgment decides.
func NewRankService(provider providers.AIProvider, policy WeightPolicy, validate bool) RankService {
	return &rankService{
		provider: provider,
		policy:   policy,
		validate: validate,
		logger:   zap.L().Named("rank"),
	}
}

func (s *rankService) ResolveRank(ctx context.Context, mentionedBrands []string, focusName string) (*RankResult, error) {
	// Nothing to validate: skip the external call entirely.
	if len(mentionedBrands) == 0 {
		return &RankResult{Rank: 0, Weight: 0}, nil
	}

	local := matcher.Match(mentionedBrands, focusName)

	if !s.validate {
		return &RankResult{
			Rank:   local.Rank,
			Weight: s.policy.WeightFor(local.Rank),
			Reason: fmt.Sprintf("heuristic match via %s", local.Strategy),
		}, nil
	}

	payload, err := s.validateMention(ctx, mentionedBrands, focusName)
	if err != nil {
		// Fail closed. A heuristic hit is not a substitute for a failed
		// semantic judgment; precision wins over recall here.
		s.logger.Warn("validation call failed, failing closed to rank 0",
			zap.String("focus", focusName),
			zap.Int("heuristic_rank", local.Rank),
			zap.Error(err))
		return &RankResult{Rank: 0, Weight: 0, Reason: "validation unavailable"}, nil
	}

	rank := 0
	if payload.Found && payload.Position >= 1 && payload.Position <= len(mentionedBrands) {
		// The claimed name must be the entry the position points at; a
		// validator contradicting itself fails closed.
		entry := mentionedBrands[payload.Position-1]
		if strings.EqualFold(strings.TrimSpace(payload.MatchedName), strings.TrimSpace(entry)) {
			rank = payload.Position
		} else {
			s.logger.Warn("validator position and matched name disagree, failing closed to rank 0",
				zap.String("focus", focusName),
				zap.String("matched_name", payload.MatchedName),
				zap.String("entry_at_position", entry),
				zap.Int("position", payload.Position))
		}
	}
	return &RankResult{
		Rank:      rank,
		Weight:    s.policy.WeightFor(rank),
		Validated: true,
		Reason:    payload.Reason,
	}, nil
}

func (s *rankService) validateMention(ctx context.Context, mentionedBrands []string, focusName string) (*ValidationPayload, error) {
	var list strings.Builder
	for i, brand := range mentionedBrands {
		fmt.Fprintf(&list, "%d. %s\n", i+1, brand)
	}
	userPrompt := fmt.Sprintf("Target institution: %s\n\nExtracted names:\n%s\nDoes any entry denote the same real-world entity as the target?",
		focusName, list.String())

	result, err := s.provider.Generate(ctx, validationSystemPrompt, userPrompt, common.GenerateOptions{
		Temperature: 0,
		MaxTokens:   500,
		SchemaName:  "mention_validation",
		Schema:      validationSchema,
	})
	if err != nil {
		return nil, err
	}

	var payload ValidationPayload
	if err := common.DecodeJSONPayload(result.Text, "rank_validation", &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}
