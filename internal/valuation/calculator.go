// Package valuation converts aggregated market data and item condition into
// a point estimate with a confidence interval.
package valuation

import (
	"math"

	"github.com/crate-scout/vinyl-cli/internal/model"
)

// gradeMultipliers maps Goldmine grades to value multipliers. Ungraded or
// unknown input falls back to defaultGradeMultiplier (a cautious VG).
var gradeMultipliers = map[model.Grade]float64{
	model.GradeMint:     1.5,
	model.GradeNearMint: 1.3,
	model.GradeVGPlus:   1.0,
	model.GradeVG:       0.7,
	model.GradeGoodPlus: 0.5,
	model.GradeGood:     0.35,
	model.GradeFair:     0.2,
	model.GradePoor:     0.1,
}

const defaultGradeMultiplier = 0.7

// Media condition drives value more than the sleeve does.
const (
	vinylWeight  = 0.65
	sleeveWeight = 0.35
)

// defaultVolatility is assumed when no listing spread is available.
const defaultVolatility = 0.5

// Calculate appraises one item from its aggregated market record and the
// seller's condition grades. Returns nil when the record carries no
// estimated-sold median to base the appraisal on. Intermediate factors keep
// full precision; rounding to whole units happens only at the boundary.
func Calculate(marketData *model.UnifiedMarketRecord, condition model.ItemCondition) *model.Valuation {
	if marketData == nil || marketData.Pricing == nil || marketData.Pricing.EstimatedSold == nil {
		return nil
	}

	baseValue := marketData.Pricing.EstimatedSold.Median

	conditionAdjust := gradeMultiplier(condition.Vinyl)*vinylWeight + gradeMultiplier(condition.Sleeve)*sleeveWeight
	demand := demandFactor(marketData.Community)
	rarity := rarityFactor(listingCount(marketData))
	vintage := vintageFactor(marketData.Year)

	estimated := math.Round(baseValue * conditionAdjust * demand * rarity * vintage)

	volatility := defaultVolatility
	if ls := marketData.Pricing.CurrentListings; ls != nil && ls.Median > 0 {
		volatility = (ls.Highest - ls.Lowest) / ls.Median
	}

	baseSource := ""
	if len(marketData.Sources) > 0 {
		baseSource = marketData.Sources[0]
	}

	return &model.Valuation{
		EstimatedValue: estimated,
		ConfidenceInterval: model.ConfidenceInterval{
			Low:  math.Round(estimated * (1 - volatility*0.5)),
			High: math.Round(estimated * (1 + volatility*0.5)),
		},
		Factors: model.ValuationFactors{
			Condition: conditionAdjust,
			Demand:    demand,
			Rarity:    rarity,
			Vintage:   vintage,
		},
		Methodology: model.ValuationMethodology{
			BaseSource: baseSource,
			BaseValue:  baseValue,
			Confidence: marketData.Confidence,
		},
	}
}

func gradeMultiplier(g model.Grade) float64 {
	if m, ok := gradeMultipliers[g]; ok {
		return m
	}
	return defaultGradeMultiplier
}

// demandFactor scales by the community want/have ratio. A missing have
// count defaults to 1 so the ratio is always defined.
func demandFactor(community *model.CommunityStats) float64 {
	var want, have int
	if community != nil {
		want, have = community.Want, community.Have
	}
	if have <= 0 {
		have = 1
	}
	ratio := float64(want) / float64(have)
	switch {
	case ratio > 2:
		return 1.3
	case ratio > 1:
		return 1.15
	case ratio < 0.3:
		return 0.85
	default:
		return 1.0
	}
}

// rarityFactor rewards thin markets and discounts flooded ones.
func rarityFactor(listings int) float64 {
	switch {
	case listings < 3:
		return 1.4
	case listings < 10:
		return 1.2
	case listings > 50:
		return 0.9
	default:
		return 1.0
	}
}

// vintageFactor rewards older pressings. An unknown year is neutral.
func vintageFactor(year int) float64 {
	switch {
	case year == 0:
		return 1.0
	case year < 1980:
		return 1.2
	case year < 1990:
		return 1.1
	default:
		return 1.0
	}
}

func listingCount(marketData *model.UnifiedMarketRecord) int {
	if marketData.Pricing != nil && marketData.Pricing.CurrentListings != nil {
		return marketData.Pricing.CurrentListings.Count
	}
	return 0
}
