// services/weights.go
package services

// WeightTier maps a rank range to a visibility weight percentage.
// MaxRank 0 means unbounded.
type WeightTier struct {
	MinRank int
	MaxRank int
	Weight  float64
}

// WeightPolicy converts a resolved rank into a visibility weight. Rank 0
// is always weight 0 regardless of tiers.
type WeightPolicy struct {
	Name  string
	Tiers []WeightTier
}

// WeightFor returns the percentage weight for a rank.
func (p WeightPolicy) WeightFor(rank int) float64 {
	if rank <= 0 {
		return 0
	}
	for _, tier := range p.Tiers {
		if rank >= tier.MinRank && (tier.MaxRank == 0 || rank <= tier.MaxRank) {
			return tier.Weight
		}
	}
	return 0
}

// BandedWeightPolicy is the active default: first mention scores full
// weight, then bands taper off with rank.
func BandedWeightPolicy() WeightPolicy {
	return WeightPolicy{
		Name: "banded",
		Tiers: []WeightTier{
			{MinRank: 1, MaxRank: 1, Weight: 100},
			{MinRank: 2, MaxRank: 3, Weight: 50},
			{MinRank: 4, MaxRank: 5, Weight: 25},
			{MinRank: 6, MaxRank: 0, Weight: 10},
		},
	}
}

// FlatWeightPolicy is the earlier behavior: any non-first mention scores a
// flat half weight.
func FlatWeightPolicy() WeightPolicy {
	return WeightPolicy{
		Name: "flat",
		Tiers: []WeightTier{
			{MinRank: 1, MaxRank: 1, Weight: 100},
			{MinRank: 2, MaxRank: 0, Weight: 50},
		},
	}
}

// WeightPolicyByName selects a policy; unknown names fall back to banded.
func WeightPolicyByName(name string) WeightPolicy {
	if name == "flat" {
		return FlatWeightPolicy()
	}
	return BandedWeightPolicy()
}
