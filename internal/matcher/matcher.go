// internal/matcher/matcher.go
package matcher

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/agext/levenshtein"
)

// Strategy identifies which cascade layer produced a match.
type Strategy string

const (
	StrategyNone         Strategy = "none"
	StrategyExact        Strategy = "exact"
	StrategySubstring    Strategy = "substring"
	StrategyCityStripped Strategy = "city_stripped"
	StrategyAcronym      Strategy = "acronym"
	StrategyFuzzy        Strategy = "fuzzy"
)

const (
	cityStrippedThreshold = 0.85
	wordOverlapThreshold  = 0.70
	fuzzyThreshold        = 0.65
)

// Result of a match attempt. Rank is the 1-based position of the matched
// brand in the input list, 0 when nothing matched.
type Result struct {
	Rank     int
	Strategy Strategy
}

// knownCities are regional qualifiers that appear inside institution names
// with unstable spellings. They are stripped before acronym derivation so a
// city variant never corrupts the acronym or the similarity score.
var knownCities = []string{
	"bhubaneswar", "bhubaneshwar", "bangalore", "bengaluru", "bombay",
	"mumbai", "calcutta", "kolkata", "madras", "chennai", "delhi",
	"new delhi", "hyderabad", "pune", "indore", "bhopal", "jaipur",
	"ahmedabad", "lucknow", "kanpur", "nagpur", "patna", "ranchi",
	"raipur", "kharagpur", "roorkee", "guwahati", "varanasi", "surat",
}

var (
	punctRe = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)
	spaceRe = regexp.MustCompile(`\s+`)
	parenRe = regexp.MustCompile(`\(([^)]+)\)`)
)

// Match resolves whether focusName appears in the ordered brand list,
// trying five strategies from most precise to loosest and stopping at the
// first hit. An empty brand list returns rank 0 without any evaluation.
func Match(mentionedBrands []string, focusName string) Result {
	if len(mentionedBrands) == 0 || strings.TrimSpace(focusName) == "" {
		return Result{Rank: 0, Strategy: StrategyNone}
	}

	strategies := []struct {
		name Strategy
		fn   func(brand, focus string) bool
	}{
		{StrategyExact, matchExact},
		{StrategySubstring, matchSubstring},
		{StrategyCityStripped, matchCityStripped},
		{StrategyAcronym, matchAcronym},
	}

	for _, strategy := range strategies {
		for i, brand := range mentionedBrands {
			if strategy.fn(brand, focusName) {
				return Result{Rank: i + 1, Strategy: strategy.name}
			}
		}
	}

	// Fuzzy fallback picks the single best candidate rather than the first
	// over threshold, so a marginal early entry cannot shadow a near-exact
	// later one.
	bestRank, bestScore := 0, 0.0
	normFocus := normalize(focusName)
	for i, brand := range mentionedBrands {
		score := levenshtein.Similarity(normalize(brand), normFocus, nil)
		if score > bestScore {
			bestScore = score
			bestRank = i + 1
		}
	}
	if bestScore >= fuzzyThreshold {
		return Result{Rank: bestRank, Strategy: StrategyFuzzy}
	}

	return Result{Rank: 0, Strategy: StrategyNone}
}

func matchExact(brand, focus string) bool {
	return normalize(brand) == normalize(focus)
}

func matchSubstring(brand, focus string) bool {
	nb, nf := normalize(brand), normalize(focus)
	if nb == "" || nf == "" {
		return false
	}
	if strings.Contains(nb, nf) || strings.Contains(nf, nb) {
		return true
	}
	// "Full Institution Name (ABBR)" pattern: the abbreviation inside a
	// parenthetical suffix counts as the brand itself.
	for _, m := range parenRe.FindAllStringSubmatch(brand, -1) {
		inner := normalize(m[1])
		if inner == "" {
			continue
		}
		if inner == nf || strings.Contains(inner, nf) || strings.Contains(nf, inner) {
			return true
		}
	}
	return false
}

func matchCityStripped(brand, focus string) bool {
	sb, sf := stripCities(brand), stripCities(focus)
	if sb == "" || sf == "" {
		return false
	}
	// Only relevant when a city token was actually removed; otherwise the
	// acronym layer below covers the same ground.
	if normalize(sb) == normalize(brand) && normalize(sf) == normalize(focus) {
		return false
	}
	if acronymsAgree(sb, sf) {
		return true
	}
	return levenshtein.Similarity(normalize(sb), normalize(sf), nil) >= cityStrippedThreshold
}

// acronymsAgree holds when both sides derive the same acronym, or when one
// side is short enough to plausibly be the other's acronym outright.
func acronymsAgree(a, b string) bool {
	aa, ab := deriveAcronym(a), deriveAcronym(b)
	if aa != "" && aa == ab {
		return true
	}
	na, nb := normalize(a), normalize(b)
	if len(na) <= 6 && na == ab && ab != "" {
		return true
	}
	if len(nb) <= 6 && nb == aa && aa != "" {
		return true
	}
	return false
}

func matchAcronym(brand, focus string) bool {
	if acronymsAgree(brand, focus) {
		return true
	}
	nb, nf := normalize(brand), normalize(focus)
	return wordOverlap(nb, nf) >= wordOverlapThreshold || wordOverlap(nf, nb) >= wordOverlapThreshold
}

// normalize lowercases, deletes punctuation and collapses whitespace.
// Punctuation is deleted rather than spaced out so possessives stay one
// word ("Xavier's" -> "xaviers").
func normalize(s string) string {
	s = strings.ToLower(s)
	s = punctRe.ReplaceAllString(s, "")
	s = spaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// stripCities removes known city tokens, preserving the original casing of
// what remains so acronym derivation still sees the source capitalization.
func stripCities(s string) string {
	words := strings.Fields(punctRe.ReplaceAllString(s, " "))
	kept := make([]string, 0, len(words))
	for _, w := range words {
		if !isCityToken(w) {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}

func isCityToken(word string) bool {
	lw := strings.ToLower(word)
	for _, city := range knownCities {
		if lw == city {
			return true
		}
	}
	return false
}

// deriveAcronym takes the first letter of each word that is capitalized in
// the source text, skipping city tokens. Returns "" when fewer than two
// letters survive, since one-letter acronyms match everything.
func deriveAcronym(s string) string {
	words := strings.Fields(punctRe.ReplaceAllString(s, " "))
	var b strings.Builder
	for _, w := range words {
		r := []rune(w)
		if len(r) == 0 || !unicode.IsUpper(r[0]) {
			continue
		}
		if isCityToken(w) {
			continue
		}
		b.WriteRune(unicode.ToLower(r[0]))
	}
	if b.Len() < 2 {
		return ""
	}
	return b.String()
}

// wordOverlap is the fraction of a's significant words (length > 2) found
// as substrings of b.
func wordOverlap(a, b string) float64 {
	var total, found int
	for _, w := range strings.Fields(a) {
		if len(w) <= 2 {
			continue
		}
		total++
		if strings.Contains(b, w) {
			found++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(found) / float64(total)
}
