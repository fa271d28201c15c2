package match

import "strings"

// FindBestMatchToken returns the first haystack entry whose normalized form
// contains the normalized needle, or is contained by it. Returns false when
// the needle normalizes to empty or nothing matches.
//
// This is deliberately a first-match policy, not a best-match by length or
// edit distance: when several identifiers partially overlap the needle, ties
// resolve by list order.
func FindBestMatchToken(haystack []string, needle string) (string, bool) {
	n := NormalizeText(needle)
	if n == "" {
		return "", false
	}
	for _, h := range haystack {
		hn := NormalizeText(h)
		if hn == "" {
			continue
		}
		if strings.Contains(hn, n) || strings.Contains(n, hn) {
			return h, true
		}
	}
	return "", false
}
