package model

// Grade is a Goldmine condition grade as used by record marketplaces.
type Grade string

const (
	GradeMint        Grade = "M"
	GradeNearMint    Grade = "NM"
	GradeVGPlus      Grade = "VG+"
	GradeVG          Grade = "VG"
	GradeGoodPlus    Grade = "G+"
	GradeGood        Grade = "G"
	GradeFair        Grade = "F"
	GradePoor        Grade = "P"
)

// ItemCondition grades the media and its sleeve separately.
type ItemCondition struct {
	Vinyl  Grade `json:"vinyl"`
	Sleeve Grade `json:"sleeve"`
}

// Valuation is the appraised resale value of one item, with the inputs that
// produced it echoed for auditability.
type Valuation struct {
	EstimatedValue     float64              `json:"estimated_value"`
	ConfidenceInterval ConfidenceInterval   `json:"confidence_interval"`
	Factors            ValuationFactors     `json:"factors"`
	Methodology        ValuationMethodology `json:"methodology"`
}

// ConfidenceInterval bounds the estimate by observed price volatility.
type ConfidenceInterval struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// ValuationFactors are the multipliers applied to the base value.
type ValuationFactors struct {
	Condition float64 `json:"condition"`
	Demand    float64 `json:"demand"`
	Rarity    float64 `json:"rarity"`
	Vintage   float64 `json:"vintage"`
}

// ValuationMethodology records where the base value came from.
type ValuationMethodology struct {
	BaseSource string     `json:"base_source"`
	BaseValue  float64    `json:"base_value"`
	Confidence Confidence `json:"confidence"`
}
