package valuation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crate-scout/vinyl-cli/internal/model"
)

// neutralRecord is built so demand, rarity, and vintage all come out 1.0:
// want/have ratio 0.5, 20 current listings, year after 1990.
func neutralRecord(soldMedian float64) *model.UnifiedMarketRecord {
	return &model.UnifiedMarketRecord{
		Year:      1995,
		Community: &model.CommunityStats{Have: 100, Want: 50},
		Sources:   []string{"discogs"},
		Pricing: &model.PricingSummary{
			CurrentListings: &model.ListingStats{
				Lowest:  soldMedian * 0.8,
				Highest: soldMedian * 1.2,
				Median:  soldMedian,
				Average: soldMedian,
				Count:   20,
			},
			EstimatedSold: &model.SoldEstimate{
				Low:    soldMedian * 0.8,
				Median: soldMedian,
				High:   soldMedian * 1.2,
			},
		},
		Confidence: model.ConfidenceHigh,
	}
}

func TestCalculate_NilWithoutSoldMedian(t *testing.T) {
	assert.Nil(t, Calculate(nil, model.ItemCondition{}))
	assert.Nil(t, Calculate(&model.UnifiedMarketRecord{}, model.ItemCondition{}))
	assert.Nil(t, Calculate(&model.UnifiedMarketRecord{Pricing: &model.PricingSummary{}}, model.ItemCondition{}))
}

func TestCalculate_ConditionWorkedExample(t *testing.T) {
	// Base 100, VG+ vinyl and VG sleeve: 1.0*0.65 + 0.7*0.35 = 0.895,
	// all other factors neutral, so the estimate rounds to 90.
	md := neutralRecord(100)
	got := Calculate(md, model.ItemCondition{Vinyl: model.GradeVGPlus, Sleeve: model.GradeVG})
	require.NotNil(t, got)

	assert.InDelta(t, 90, got.EstimatedValue, 0.001)
	assert.InDelta(t, 0.895, got.Factors.Condition, 0.0001)
	assert.InDelta(t, 1.0, got.Factors.Demand, 0.001)
	assert.InDelta(t, 1.0, got.Factors.Rarity, 0.001)
	assert.InDelta(t, 1.0, got.Factors.Vintage, 0.001)

	assert.Equal(t, "discogs", got.Methodology.BaseSource)
	assert.InDelta(t, 100, got.Methodology.BaseValue, 0.001)
	assert.Equal(t, model.ConfidenceHigh, got.Methodology.Confidence)
}

func TestCalculate_ConfidenceInterval(t *testing.T) {
	// Volatility = (120-80)/100 = 0.4, so the interval is value ± 20%.
	md := neutralRecord(100)
	got := Calculate(md, model.ItemCondition{Vinyl: model.GradeVGPlus, Sleeve: model.GradeVG})
	require.NotNil(t, got)

	assert.InDelta(t, 72, got.ConfidenceInterval.Low, 0.001)
	assert.InDelta(t, 108, got.ConfidenceInterval.High, 0.001)
}

func TestCalculate_DefaultVolatilityWithoutListings(t *testing.T) {
	md := neutralRecord(100)
	md.Pricing.CurrentListings = nil

	got := Calculate(md, model.ItemCondition{Vinyl: model.GradeVGPlus, Sleeve: model.GradeVGPlus})
	require.NotNil(t, got)

	// Without listings the rarity factor sees zero listings (1.4) and
	// volatility falls back to 0.5.
	assert.InDelta(t, 1.4, got.Factors.Rarity, 0.001)
	assert.InDelta(t, got.EstimatedValue*0.75, got.ConfidenceInterval.Low, 0.5)
	assert.InDelta(t, got.EstimatedValue*1.25, got.ConfidenceInterval.High, 0.5)
}

func TestGradeMultiplier(t *testing.T) {
	tests := []struct {
		grade model.Grade
		want  float64
	}{
		{model.GradeMint, 1.5},
		{model.GradeNearMint, 1.3},
		{model.GradeVGPlus, 1.0},
		{model.GradeVG, 0.7},
		{model.GradeGoodPlus, 0.5},
		{model.GradeGood, 0.35},
		{model.GradeFair, 0.2},
		{model.GradePoor, 0.1},
		{model.Grade("sealed?"), 0.7},
		{model.Grade(""), 0.7},
	}

	for _, tt := range tests {
		t.Run(string(tt.grade), func(t *testing.T) {
			assert.InDelta(t, tt.want, gradeMultiplier(tt.grade), 0.001)
		})
	}
}

func TestDemandFactor(t *testing.T) {
	tests := []struct {
		name      string
		community *model.CommunityStats
		want      float64
	}{
		{"nil community", nil, 0.85},
		{"zero have defaults to one", &model.CommunityStats{Have: 0, Want: 3}, 1.3},
		{"hot ratio above two", &model.CommunityStats{Have: 100, Want: 250}, 1.3},
		{"warm ratio above one", &model.CommunityStats{Have: 100, Want: 150}, 1.15},
		{"cold ratio below 0.3", &model.CommunityStats{Have: 100, Want: 10}, 0.85},
		{"neutral ratio", &model.CommunityStats{Have: 100, Want: 50}, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, demandFactor(tt.community), 0.001)
		})
	}
}

func TestRarityFactor(t *testing.T) {
	tests := []struct {
		listings int
		want     float64
	}{
		{0, 1.4},
		{2, 1.4},
		{3, 1.2},
		{9, 1.2},
		{10, 1.0},
		{50, 1.0},
		{51, 0.9},
	}

	for _, tt := range tests {
		assert.InDelta(t, tt.want, rarityFactor(tt.listings), 0.001, "listings=%d", tt.listings)
	}
}

func TestVintageFactor(t *testing.T) {
	tests := []struct {
		year int
		want float64
	}{
		{0, 1.0},
		{1965, 1.2},
		{1979, 1.2},
		{1980, 1.1},
		{1989, 1.1},
		{1990, 1.0},
		{2020, 1.0},
	}

	for _, tt := range tests {
		assert.InDelta(t, tt.want, vintageFactor(tt.year), 0.001, "year=%d", tt.year)
	}
}
