// services/aggregation_service.go
package services

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/sync/errgroup"

	"github.com/GeoRank-AI/georank-workflows/internal/models"
	"github.com/GeoRank-AI/georank-workflows/internal/store"
)

type aggregationService struct {
	queries store.QueryRepo
	reports store.ReportRepo
	logger  *zap.Logger
}

// NewAggregationService computes the derived report tables. It operates
// only over completed queries and tolerates any number of failed ones.
func NewAggregationService(queries store.QueryRepo, reports store.ReportRepo) AggregationService {
	return &aggregationService{
		queries: queries,
		reports: reports,
		logger:  zap.L().Named("aggregation"),
	}
}

func (s *aggregationService) Aggregate(ctx context.Context, analysisID uuid.UUID) (float64, error) {
	all, err := s.queries.GetByAnalysis(ctx, analysisID)
	if err != nil {
		return 0, fmt.Errorf("failed to load queries for aggregation: %w", err)
	}

	completed := make([]*models.Query, 0, len(all))
	for _, q := range all {
		if q.Status == models.QueryStatusCompleted {
			completed = append(completed, q)
		}
	}
	if len(completed) == 0 {
		s.logger.Warn("no completed queries to aggregate",
			zap.String("analysis_id", analysisID.String()))
		return 0, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.reports.ReplaceCompetitors(gctx, analysisID, buildCompetitors(analysisID, completed))
	})
	g.Go(func() error {
		return s.reports.ReplaceSources(gctx, analysisID, buildSources(analysisID, completed))
	})
	if err := g.Wait(); err != nil {
		return 0, fmt.Errorf("failed to persist report tables: %w", err)
	}

	var weightSum float64
	for _, q := range completed {
		weightSum += q.Weight
	}
	score := weightSum / float64(len(completed))

	s.logger.Info("aggregation complete",
		zap.String("analysis_id", analysisID.String()),
		zap.Int("completed_queries", len(completed)),
		zap.Float64("visibility_score", score))
	return score, nil
}

func buildCompetitors(analysisID uuid.UUID, completed []*models.Query) []*models.Competitor {
	type tally struct {
		name    string
		count   int
		rankSum int
	}
	tallies := map[string]*tally{}
	for _, q := range completed {
		for i, brand := range q.BrandsMentioned {
			name := strings.TrimSpace(brand)
			if name == "" {
				continue
			}
			key := strings.ToLower(name)
			t, ok := tallies[key]
			if !ok {
				t = &tally{name: name}
				tallies[key] = t
			}
			t.count++
			t.rankSum += i + 1
		}
	}

	competitors := make([]*models.Competitor, 0, len(tallies))
	for _, t := range tallies {
		competitors = append(competitors, &models.Competitor{
			ID:           uuid.New(),
			AnalysisID:   analysisID,
			BrandName:    t.name,
			MentionCount: t.count,
			AverageRank:  float64(t.rankSum) / float64(t.count),
		})
	}
	sort.Slice(competitors, func(i, j int) bool {
		if competitors[i].MentionCount != competitors[j].MentionCount {
			return competitors[i].MentionCount > competitors[j].MentionCount
		}
		return competitors[i].BrandName < competitors[j].BrandName
	})
	return competitors
}

func buildSources(analysisID uuid.UUID, completed []*models.Query) []*models.Source {
	counts := map[string]int{}
	for _, q := range completed {
		seen := map[string]bool{}
		for _, raw := range q.CitedURLs {
			domain := registrableDomain(raw)
			if domain == "" || seen[domain] {
				continue
			}
			seen[domain] = true
			counts[domain]++
		}
	}

	sources := make([]*models.Source, 0, len(counts))
	for domain, count := range counts {
		sources = append(sources, &models.Source{
			ID:            uuid.New(),
			AnalysisID:    analysisID,
			Domain:        domain,
			CitationCount: count,
		})
	}
	sort.Slice(sources, func(i, j int) bool {
		if sources[i].CitationCount != sources[j].CitationCount {
			return sources[i].CitationCount > sources[j].CitationCount
		}
		return sources[i].Domain < sources[j].Domain
	})
	return sources
}

// registrableDomain reduces a cited URL to its eTLD+1, dropping www noise.
func registrableDomain(raw string) string {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || parsed.Host == "" {
		return ""
	}
	host := strings.ToLower(parsed.Hostname())
	host = strings.TrimPrefix(host, "www.")
	if domain, err := publicsuffix.EffectiveTLDPlusOne(host); err == nil {
		return domain
	}
	return host
}
