package model

// Confidence is a coarse reliability tier attached to match and market
// results.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// Ordinal maps a confidence tier onto 0/1/2 so tiers can be compared.
// Unknown values rank below "low".
func (c Confidence) Ordinal() int {
	switch c {
	case ConfidenceLow:
		return 0
	case ConfidenceMedium:
		return 1
	case ConfidenceHigh:
		return 2
	default:
		return -1
	}
}

// MaxConfidence returns the higher of two tiers. Used for the upgrade-only
// confidence merge in release corrections.
func MaxConfidence(a, b Confidence) Confidence {
	if b.Ordinal() > a.Ordinal() {
		return b
	}
	return a
}

// ScoredMatch is the outcome of scoring one OCR extraction against one
// candidate release. Evidence lines are appended in rule order during
// scoring and never reordered afterwards.
type ScoredMatch struct {
	Release    ReleaseDetails `json:"release"`
	Score      int            `json:"score"`
	Evidence   []string       `json:"evidence"`
	Confidence Confidence     `json:"confidence"`
}
