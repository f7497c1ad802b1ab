// internal/matcher/matcher_test.go
package matcher_test

import (
	"testing"

	"github.com/GeoRank-AI/georank-workflows/internal/matcher"
)

func TestMatch(t *testing.T) {
	tests := []struct {
		name         string
		brands       []string
		focus        string
		wantRank     int
		wantStrategy matcher.Strategy
	}{
		{
			name:         "empty brand list short circuits",
			brands:       []string{},
			focus:        "Example University",
			wantRank:     0,
			wantStrategy: matcher.StrategyNone,
		},
		{
			name:         "nil brand list short circuits",
			brands:       nil,
			focus:        "Example University",
			wantRank:     0,
			wantStrategy: matcher.StrategyNone,
		},
		{
			name:         "blank focus name",
			brands:       []string{"Example University"},
			focus:        "   ",
			wantRank:     0,
			wantStrategy: matcher.StrategyNone,
		},
		{
			name:         "exact match first position",
			brands:       []string{"Example University", "Rival College"},
			focus:        "Example University",
			wantRank:     1,
			wantStrategy: matcher.StrategyExact,
		},
		{
			name:         "exact match ignores case and punctuation",
			brands:       []string{"Rival College", "St. Xavier's College"},
			focus:        "st xaviers college",
			wantRank:     2,
			wantStrategy: matcher.StrategyExact,
		},
		{
			name:         "substring match brand contains focus",
			brands:       []string{"The Example University of Applied Sciences"},
			focus:        "Example University",
			wantRank:     1,
			wantStrategy: matcher.StrategySubstring,
		},
		{
			name:         "substring match focus contains brand",
			brands:       []string{"Example University"},
			focus:        "Example University Main Campus",
			wantRank:     1,
			wantStrategy: matcher.StrategySubstring,
		},
		{
			name:         "parenthetical abbreviation",
			brands:       []string{"Indian Institute of Technology (IIT)"},
			focus:        "IIT",
			wantRank:     1,
			wantStrategy: matcher.StrategySubstring,
		},
		{
			name:         "city spelling variant with acronym",
			brands:       []string{"Xavier Institute of Management Bhubaneswar"},
			focus:        "XIM Bhubaneshwar",
			wantRank:     1,
			wantStrategy: matcher.StrategyCityStripped,
		},
		{
			name:         "acronym equality across full names",
			brands:       []string{"National Law School of India"},
			focus:        "NLSI",
			wantRank:     1,
			wantStrategy: matcher.StrategyAcronym,
		},
		{
			name:         "significant word overlap",
			brands:       []string{"Example Institute of Management and Technology"},
			focus:        "Example Management Technology Institute",
			wantRank:     1,
			wantStrategy: matcher.StrategyAcronym,
		},
		{
			name:         "fuzzy spelling variation",
			brands:       []string{"Rival College", "exampel universty"},
			focus:        "Example University",
			wantRank:     2,
			wantStrategy: matcher.StrategyFuzzy,
		},
		{
			name:         "no match returns zero",
			brands:       []string{"Rival College", "Other School"},
			focus:        "Example University",
			wantRank:     0,
			wantStrategy: matcher.StrategyNone,
		},
		{
			name:         "exact beats fuzzy on a different entry",
			brands:       []string{"Exampel Universty", "Example University"},
			focus:        "Example University",
			wantRank:     2,
			wantStrategy: matcher.StrategyExact,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := matcher.Match(tt.brands, tt.focus)
			if got.Rank != tt.wantRank {
				t.Errorf("Match() rank = %d, want %d", got.Rank, tt.wantRank)
			}
			if got.Strategy != tt.wantStrategy {
				t.Errorf("Match() strategy = %s, want %s", got.Strategy, tt.wantStrategy)
			}
		})
	}
}

func TestMatchDeterministic(t *testing.T) {
	brands := []string{"Rival College", "Exampel Universty", "Other School"}
	first := matcher.Match(brands, "Example University")
	for i := 0; i < 50; i++ {
		got := matcher.Match(brands, "Example University")
		if got != first {
			t.Fatalf("Match() not deterministic: run %d = %+v, first = %+v", i, got, first)
		}
	}
}

func TestMatchRankBounds(t *testing.T) {
	cases := [][]string{
		{},
		{"Example University"},
		{"A", "B", "C", "Example University", "E"},
		{"completely unrelated", "also unrelated"},
	}
	for _, brands := range cases {
		got := matcher.Match(brands, "Example University")
		if got.Rank < 0 || got.Rank > len(brands) {
			t.Errorf("Match(%v) rank = %d, out of [0, %d]", brands, got.Rank, len(brands))
		}
		if got.Rank > 0 {
			matched := matcher.Match([]string{brands[got.Rank-1]}, "Example University")
			if matched.Rank != 1 {
				t.Errorf("Match() rank %d points at %q which does not match alone", got.Rank, brands[got.Rank-1])
			}
		}
	}
}
