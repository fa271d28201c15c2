package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crate-scout/vinyl-cli/internal/model"
)

// paranoidRelease is a fully identified pressing used across scorer tests.
func paranoidRelease() model.ReleaseDetails {
	return model.ReleaseDetails{
		ID:      1293483,
		Title:   "Paranoid",
		Artists: []model.ReleaseArtist{{Name: "Black Sabbath"}},
		Year:    1970,
		Country: "UK",
		Labels:  []model.ReleaseLabel{{Name: "Vertigo", CatNo: "6360 011"}},
		Formats: []model.ReleaseFormat{{Name: "Vinyl", Text: "Gatefold"}},
		Identifiers: []model.ReleaseIdentifier{
			{Type: "Barcode", Value: "5 014963 000615"},
			{Type: "Matrix / Runout", Value: "6360 011 1Y//1"},
			{Type: "Label Code", Value: "LC 0108"},
			{Type: "Rights Society", Value: "BIEM"},
			{Type: "Pressing Plant", Value: "Philips Pressing"},
		},
		Notes: "Swirl label. Runout stamped 6360 011 1Y//1.",
	}
}

func fullExtraction() model.OcrExtraction {
	return model.OcrExtraction{
		Artist:          "Black Sabbath",
		Title:           "Paranoid",
		CatalogueNumber: "6360 011",
		Label:           "Vertigo",
		Barcode:         "5014963000615",
		MatrixRunoutA:   "6360 011 1Y",
		LabelCode:       "LC0108",
		RightsSociety:   "BIEM",
		PressingPlant:   "Philips",
		Country:         "UK",
		Year:            "1970",
		Format:          "Vinyl",
	}
}

func TestScoreReleaseMatch_AllSignals(t *testing.T) {
	ocr := fullExtraction()
	release := paranoidRelease()

	got := ScoreReleaseMatch(&ocr, &release)

	// Every rule fires exactly once; the score is the weight sum.
	wantScore := weightBarcode + weightCatalogNumber + weightMatrix +
		weightLabelCode + weightLabelName + weightRightsSociety +
		weightPressingPlant + weightCountry + weightYear + weightFormat +
		weightNotesMention
	assert.Equal(t, wantScore, got.Score)
	assert.Equal(t, model.ConfidenceHigh, got.Confidence)

	require.Len(t, got.Evidence, 11)
	assert.Equal(t, []string{
		"Barcode match: 5 014963 000615",
		"Catalog number match: 6360 011",
		"Matrix/runout match: 6360 011 1Y//1",
		"Label code match: LC 0108",
		"Label match: Vertigo",
		"Rights society match: BIEM",
		"Pressing plant match: Philips Pressing",
		"Country match: UK",
		"Year match: 1970",
		"Format match: Vinyl",
		"Matrix code appears in release notes: 6360 011 1Y",
	}, got.Evidence)
}

func TestScoreReleaseMatch_SingleSignals(t *testing.T) {
	release := paranoidRelease()

	tests := []struct {
		name         string
		ocr          model.OcrExtraction
		wantScore    int
		wantEvidence string
	}{
		{"barcode spaced vs release", model.OcrExtraction{Barcode: "5 014963 000615"}, weightBarcode, "Barcode match: 5 014963 000615"},
		{"barcode partial containment", model.OcrExtraction{Barcode: "014963000615"}, weightBarcode, "Barcode match: 5 014963 000615"},
		{"catalog exact", model.OcrExtraction{CatalogueNumber: "6360011"}, weightCatalogNumber, "Catalog number match: 6360 011"},
		{"catalog fuzzy", model.OcrExtraction{CatalogueNumber: "6360 011 A"}, weightCatalogNumber, "Catalog number partial match: 6360 011"},
		{"matrix side A", model.OcrExtraction{MatrixRunoutA: "6360 011 1Y"}, weightMatrix + weightNotesMention, "Matrix/runout match: 6360 011 1Y//1"},
		{"matrix from identifier strings", model.OcrExtraction{IdentifierStrings: []string{"6360 011 1Y//1"}}, weightMatrix + weightNotesMention, "Matrix/runout match: 6360 011 1Y//1"},
		{"label code", model.OcrExtraction{LabelCode: "LC 0108"}, weightLabelCode, "Label code match: LC 0108"},
		{"label name", model.OcrExtraction{Label: "vertigo"}, weightLabelName, "Label match: Vertigo"},
		{"rights society", model.OcrExtraction{RightsSociety: "BIEM"}, weightRightsSociety, "Rights society match: BIEM"},
		{"pressing plant", model.OcrExtraction{PressingPlant: "Philips"}, weightPressingPlant, "Pressing plant match: Philips Pressing"},
		{"country", model.OcrExtraction{Country: "uk"}, weightCountry, "Country match: UK"},
		{"year", model.OcrExtraction{Year: "1970"}, weightYear, "Year match: 1970"},
		{"format", model.OcrExtraction{Format: "vinyl"}, weightFormat, "Format match: Vinyl"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ScoreReleaseMatch(&tt.ocr, &release)
			assert.Equal(t, tt.wantScore, got.Score)
			require.NotEmpty(t, got.Evidence)
			assert.Equal(t, tt.wantEvidence, got.Evidence[0])
		})
	}
}

func TestScoreReleaseMatch_AbsentFieldsFailSilently(t *testing.T) {
	release := paranoidRelease()

	got := ScoreReleaseMatch(&model.OcrExtraction{}, &release)
	assert.Zero(t, got.Score)
	assert.Empty(t, got.Evidence)
	assert.Equal(t, model.ConfidenceLow, got.Confidence)

	// Nil inputs never panic; they score zero.
	got = ScoreReleaseMatch(nil, nil)
	assert.Zero(t, got.Score)
	assert.Equal(t, model.ConfidenceLow, got.Confidence)
}

func TestScoreReleaseMatch_MismatchesScoreZero(t *testing.T) {
	release := paranoidRelease()
	ocr := model.OcrExtraction{
		Barcode:         "0000000000",
		CatalogueNumber: "XYZ 999",
		MatrixRunoutA:   "QQQQQ",
		Country:         "US",
		Year:            "1984",
		Format:          "Cassette",
	}

	got := ScoreReleaseMatch(&ocr, &release)
	assert.Zero(t, got.Score)
	assert.Empty(t, got.Evidence)
	assert.Equal(t, model.ConfidenceLow, got.Confidence)
}

func TestScoreConfidenceTiers(t *testing.T) {
	tests := []struct {
		name         string
		score        int
		corroborated bool
		want         model.Confidence
	}{
		{"zero", 0, false, model.ConfidenceLow},
		{"just below medium", 34, false, model.ConfidenceLow},
		{"medium floor", 35, false, model.ConfidenceMedium},
		{"just below high", 59, false, model.ConfidenceMedium},
		{"high floor", 60, false, model.ConfidenceHigh},
		{"corroboration overrides score", 40, true, model.ConfidenceHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, scoreConfidence(tt.score, tt.corroborated))
		})
	}
}

func TestScoreReleaseMatch_BarcodeCorroborationIsHigh(t *testing.T) {
	// Barcode plus matrix alone: no label, country, or year agreement.
	release := model.ReleaseDetails{
		ID: 7,
		Identifiers: []model.ReleaseIdentifier{
			{Type: "Barcode", Value: "724384260958"},
			{Type: "Matrix / Runout", Value: "SRC-1-1034-A"},
		},
	}
	ocr := model.OcrExtraction{Barcode: "7 24384 26095 8", MatrixRunoutA: "SRC-1-1034"}

	got := ScoreReleaseMatch(&ocr, &release)
	assert.Equal(t, weightBarcode+weightMatrix, got.Score)
	assert.Equal(t, model.ConfidenceHigh, got.Confidence)
}

func TestScoreReleaseMatch_Deterministic(t *testing.T) {
	ocr := fullExtraction()
	release := paranoidRelease()

	first := ScoreReleaseMatch(&ocr, &release)
	for i := 0; i < 5; i++ {
		again := ScoreReleaseMatch(&ocr, &release)
		assert.Equal(t, first.Score, again.Score)
		assert.Equal(t, first.Evidence, again.Evidence)
		assert.Equal(t, first.Confidence, again.Confidence)
	}
}
