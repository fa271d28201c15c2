package match

import (
	"strconv"
	"strings"

	"github.com/crate-scout/vinyl-cli/internal/model"
)

// Signal weights. Each physical clue contributes through exactly one rule,
// so a score is always the sum of independently satisfied weights.
const (
	weightBarcode       = 40
	weightCatalogNumber = 25
	weightMatrix        = 20
	weightLabelCode     = 10
	weightLabelName     = 10
	weightRightsSociety = 8
	weightPressingPlant = 8
	weightCountry       = 5
	weightYear          = 5
	weightFormat        = 5
	weightNotesMention  = 6
)

// Confidence thresholds over the summed score.
const (
	highScoreThreshold   = 60
	mediumScoreThreshold = 35
)

// signalContext carries one scoring call's inputs plus the corroboration
// flags needed for the confidence override.
type signalContext struct {
	ocr     *model.OcrExtraction
	release *model.ReleaseDetails

	barcodeMatched bool
	catalogMatched bool
	matrixMatched  bool
}

// signalRule pairs a weight with a predicate that reports the evidence line
// for a fired signal.
type signalRule struct {
	weight int
	match  func(c *signalContext) (string, bool)
}

// releaseRules is evaluated in order on every scoring call. Keeping the
// table ordered fixes the evidence order; adding a signal means adding a row
// here, not another branch.
var releaseRules = []signalRule{
	{weightBarcode, matchBarcode},
	{weightCatalogNumber, matchCatalogNumber},
	{weightMatrix, matchMatrix},
	{weightLabelCode, matchLabelCode},
	{weightLabelName, matchLabelName},
	{weightRightsSociety, matchRightsSociety},
	{weightPressingPlant, matchPressingPlant},
	{weightCountry, matchCountry},
	{weightYear, matchYear},
	{weightFormat, matchFormat},
	{weightNotesMention, matchNotesMention},
}

// ScoreReleaseMatch scores one OCR extraction against one candidate release.
// Deterministic and side-effect-free: identical inputs always produce the
// same score, evidence order, and confidence. Absent OCR fields simply fail
// their rule silently.
func ScoreReleaseMatch(ocr *model.OcrExtraction, release *model.ReleaseDetails) model.ScoredMatch {
	if ocr == nil {
		ocr = &model.OcrExtraction{}
	}
	if release == nil {
		release = &model.ReleaseDetails{}
	}

	c := &signalContext{ocr: ocr, release: release}
	result := model.ScoredMatch{Release: *release}
	for _, rule := range releaseRules {
		if line, ok := rule.match(c); ok {
			result.Score += rule.weight
			result.Evidence = append(result.Evidence, line)
		}
	}

	corroborated := c.barcodeMatched && (c.catalogMatched || c.matrixMatched)
	result.Confidence = scoreConfidence(result.Score, corroborated)
	return result
}

// scoreConfidence maps a summed score onto a tier. A barcode match backed by
// a catalog-number or matrix match is treated as high regardless of total,
// since those signals identify a specific pressing on their own.
func scoreConfidence(score int, corroborated bool) model.Confidence {
	switch {
	case score >= highScoreThreshold || corroborated:
		return model.ConfidenceHigh
	case score >= mediumScoreThreshold:
		return model.ConfidenceMedium
	default:
		return model.ConfidenceLow
	}
}

func matchBarcode(c *signalContext) (string, bool) {
	ocrDigits := NormalizeDigits(c.ocr.Barcode)
	if ocrDigits == "" {
		return "", false
	}
	for _, v := range ExtractIdentifierValues(c.release.Identifiers, "barcode") {
		d := NormalizeDigits(v)
		if d == "" {
			continue
		}
		// OCR often drops leading digits or picks up check digits, so
		// containment in either direction counts.
		if d == ocrDigits || strings.Contains(d, ocrDigits) || strings.Contains(ocrDigits, d) {
			c.barcodeMatched = true
			return "Barcode match: " + v, true
		}
	}
	return "", false
}

func matchCatalogNumber(c *signalContext) (string, bool) {
	needle := NormalizeText(c.ocr.CatalogueNumber)
	if needle == "" {
		return "", false
	}
	var candidates []string
	for _, l := range c.release.Labels {
		if l.CatNo != "" {
			candidates = append(candidates, l.CatNo)
		}
	}
	candidates = append(candidates, ExtractIdentifierValues(c.release.Identifiers, "catalog", "cat no", "catno")...)

	for _, cand := range candidates {
		if NormalizeText(cand) == needle {
			c.catalogMatched = true
			return "Catalog number match: " + cand, true
		}
	}
	if tok, ok := FindBestMatchToken(candidates, c.ocr.CatalogueNumber); ok {
		c.catalogMatched = true
		return "Catalog number partial match: " + tok, true
	}
	return "", false
}

func matchMatrix(c *signalContext) (string, bool) {
	etched := ExtractIdentifierValues(c.release.Identifiers, "matrix", "runout")
	if len(etched) == 0 {
		return "", false
	}
	for _, clue := range matrixClues(c.ocr) {
		if tok, ok := FindBestMatchToken(etched, clue); ok {
			c.matrixMatched = true
			return "Matrix/runout match: " + tok, true
		}
	}
	return "", false
}

// matrixClues lists the deadwax-derived readings in the order they are
// tried: side A, side B, pressing info, then unclassified strings.
func matrixClues(ocr *model.OcrExtraction) []string {
	clues := []string{ocr.MatrixRunoutA, ocr.MatrixRunoutB, ocr.PressingInfo}
	return append(clues, ocr.IdentifierStrings...)
}

func matchLabelCode(c *signalContext) (string, bool) {
	codes := ExtractIdentifierValues(c.release.Identifiers, "label code", "label")
	if tok, ok := FindBestMatchToken(codes, c.ocr.LabelCode); ok {
		return "Label code match: " + tok, true
	}
	return "", false
}

func matchLabelName(c *signalContext) (string, bool) {
	var names []string
	for _, l := range c.release.Labels {
		if l.Name != "" {
			names = append(names, l.Name)
		}
	}
	if tok, ok := FindBestMatchToken(names, c.ocr.Label); ok {
		return "Label match: " + tok, true
	}
	return "", false
}

func matchRightsSociety(c *signalContext) (string, bool) {
	societies := ExtractIdentifierValues(c.release.Identifiers, "rights society", "rights")
	if tok, ok := FindBestMatchToken(societies, c.ocr.RightsSociety); ok {
		return "Rights society match: " + tok, true
	}
	return "", false
}

func matchPressingPlant(c *signalContext) (string, bool) {
	plants := ExtractIdentifierValues(c.release.Identifiers, "pressing plant", "pressing")
	if tok, ok := FindBestMatchToken(plants, c.ocr.PressingPlant); ok {
		return "Pressing plant match: " + tok, true
	}
	return "", false
}

func matchCountry(c *signalContext) (string, bool) {
	n := NormalizeText(c.ocr.Country)
	if n != "" && n == NormalizeText(c.release.Country) {
		return "Country match: " + c.release.Country, true
	}
	return "", false
}

func matchYear(c *signalContext) (string, bool) {
	if c.ocr.Year == "" || c.release.Year == 0 {
		return "", false
	}
	if c.ocr.Year == strconv.Itoa(c.release.Year) {
		return "Year match: " + c.ocr.Year, true
	}
	return "", false
}

func matchFormat(c *signalContext) (string, bool) {
	var formats []string
	for _, f := range c.release.Formats {
		if f.Name != "" {
			formats = append(formats, f.Name)
		}
		if f.Text != "" {
			formats = append(formats, f.Text)
		}
	}
	if tok, ok := FindBestMatchToken(formats, c.ocr.Format); ok {
		return "Format match: " + tok, true
	}
	return "", false
}

// matchNotesMention fires when any deadwax-derived token of normalized
// length >= 4 appears inside the normalized release notes. Shorter tokens
// collide with ordinary words too often to be evidence.
func matchNotesMention(c *signalContext) (string, bool) {
	notes := NormalizeText(c.release.Notes)
	if notes == "" {
		return "", false
	}
	for _, clue := range matrixClues(c.ocr) {
		tok := NormalizeText(clue)
		if len(tok) >= 4 && strings.Contains(notes, tok) {
			return "Matrix code appears in release notes: " + clue, true
		}
	}
	return "", false
}
