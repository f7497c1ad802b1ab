// services/weights_test.go
package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/GeoRank-AI/georank-workflows/services"
)

func TestBandedWeightPolicy(t *testing.T) {
	policy := services.BandedWeightPolicy()
	tests := []struct {
		rank int
		want float64
	}{
		{0, 0},
		{1, 100},
		{2, 50},
		{3, 50},
		{4, 25},
		{5, 25},
		{6, 10},
		{42, 10},
		{-1, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, policy.WeightFor(tt.rank), "rank %d", tt.rank)
	}
}

func TestFlatWeightPolicy(t *testing.T) {
	policy := services.FlatWeightPolicy()
	tests := []struct {
		rank int
		want float64
	}{
		{0, 0},
		{1, 100},
		{2, 50},
		{7, 50},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, policy.WeightFor(tt.rank), "rank %d", tt.rank)
	}
}

func TestWeightPolicyByName(t *testing.T) {
	assert.Equal(t, "flat", services.WeightPolicyByName("flat").Name)
	assert.Equal(t, "banded", services.WeightPolicyByName("banded").Name)
	assert.Equal(t, "banded", services.WeightPolicyByName("unknown").Name)
}
