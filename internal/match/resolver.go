package match

import (
	"strings"

	"github.com/crate-scout/vinyl-cli/internal/model"
)

// weightPhotoHint is added once per uploaded-photo hint that matches a
// release signal during correction resolution.
const weightPhotoHint = 5

// MatchReleaseFromOcr scores every candidate release against the extraction
// and returns the one with the strictly greatest score. Ties resolve to the
// earliest candidate, so evaluation order only matters for exact ties.
//
// Returns nil when artist or title is missing from the extraction or the
// candidate list is empty; it never returns an error.
func MatchReleaseFromOcr(ocr *model.OcrExtraction, candidates []model.ReleaseDetails) *model.ScoredMatch {
	if ocr == nil || ocr.Artist == "" || ocr.Title == "" {
		return nil
	}
	if len(candidates) == 0 {
		return nil
	}

	var best *model.ScoredMatch
	for i := range candidates {
		scored := ScoreReleaseMatch(ocr, &candidates[i])
		if best == nil || scored.Score > best.Score {
			m := scored
			best = &m
		}
	}
	return best
}

// ResolveReleaseCorrection scores a single user-asserted release against the
// extraction, then adds a secondary score from the uploaded-photo hints.
// Confidence starts from the base scoring call and is only ever upgraded:
// a "high" earned through barcode corroboration survives even when the
// combined total alone would not reach the high threshold.
//
// Returns nil when the reference release is absent.
func ResolveReleaseCorrection(reference *model.ReleaseDetails, ocr *model.OcrExtraction, uploadedPhotoHints []string) *model.ScoredMatch {
	if reference == nil {
		return nil
	}

	result := ScoreReleaseMatch(ocr, reference)
	signals := releaseSignals(reference)
	for _, hint := range uploadedPhotoHints {
		if matchesAnySignal(signals, hint) {
			result.Score += weightPhotoHint
			result.Evidence = append(result.Evidence, "Photo hint matched: "+hint)
		}
	}

	result.Confidence = model.MaxConfidence(result.Confidence, scoreConfidence(result.Score, false))
	return &result
}

// releaseSignals collects the normalized strings a photo hint can match:
// title, artist names, label names, and image type tags.
func releaseSignals(release *model.ReleaseDetails) []string {
	signals := []string{NormalizeText(release.Title)}
	for _, a := range release.Artists {
		signals = append(signals, NormalizeText(a.Name))
	}
	for _, l := range release.Labels {
		signals = append(signals, NormalizeText(l.Name))
	}
	for _, img := range release.Images {
		signals = append(signals, NormalizeText(img.Type))
	}
	return signals
}

func matchesAnySignal(signals []string, hint string) bool {
	h := NormalizeText(hint)
	if h == "" {
		return false
	}
	for _, s := range signals {
		if s == "" {
			continue
		}
		if strings.Contains(s, h) || strings.Contains(h, s) {
			return true
		}
	}
	return false
}
