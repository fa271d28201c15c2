package market

import (
	"sort"

	"github.com/crate-scout/vinyl-cli/internal/model"
)

// estimatedSoldFactor scales ask prices down to projected sale prices:
// listings close roughly 20% below ask.
const estimatedSoldFactor = 0.8

// highConfidenceListings is the minimum primary-source price count for a
// high-confidence record.
const highConfidenceListings = 6

// Aggregate merges per-source records into one unified record using the
// configured reputation order, then derives price statistics from the
// primary source's listing prices. Nil (failed) sources are skipped and only
// degrade confidence, never fail the merge. The result is never nil-shaped:
// an empty input yields an empty record with low confidence.
func Aggregate(sources map[string]*model.MarketSourceRecord, cfg Config) model.UnifiedMarketRecord {
	unified := model.UnifiedMarketRecord{Confidence: model.ConfidenceLow}

	primary := sources[cfg.Primary]
	if primary != nil {
		fillRecord(&unified, primary)
		unified.Sources = append(unified.Sources, cfg.Primary)
	}

	for _, name := range cfg.GapFill {
		if rec := sources[name]; rec != nil {
			fillRecord(&unified, rec)
			unified.Sources = append(unified.Sources, name)
		}
	}

	// Remaining sources are provenance-only. Sorted for a deterministic
	// list regardless of map iteration order.
	var rest []string
	for name, rec := range sources {
		if rec == nil || name == cfg.Primary || contains(cfg.GapFill, name) {
			continue
		}
		rest = append(rest, name)
	}
	sort.Strings(rest)
	unified.Sources = append(unified.Sources, rest...)

	if primary != nil {
		unified.Pricing = pricingSummary(primary)
		if len(primary.ListingPrices) >= highConfidenceListings {
			unified.Confidence = model.ConfidenceHigh
		} else {
			unified.Confidence = model.ConfidenceMedium
		}
	}

	return unified
}

// fillRecord copies src fields into the unified record, but only where the
// unified record is still empty. Called in reputation order, this gives the
// primary source precedence and later sources gap-fill duty.
func fillRecord(dst *model.UnifiedMarketRecord, src *model.MarketSourceRecord) {
	fillString(&dst.Artist, src.Artist)
	fillString(&dst.Title, src.Title)
	fillString(&dst.Country, src.Country)
	fillString(&dst.Label, src.Label)
	fillString(&dst.Format, src.Format)
	fillString(&dst.Genre, src.Genre)
	if dst.Year == 0 {
		dst.Year = src.Year
	}
	if len(dst.Tracklist) == 0 {
		dst.Tracklist = src.Tracklist
	}
	if len(dst.Images) == 0 {
		dst.Images = src.Images
	}
	if dst.Community == nil && src.Community != nil {
		c := *src.Community
		dst.Community = &c
	}
	for k, v := range src.Identifiers {
		if dst.Identifiers == nil {
			dst.Identifiers = make(map[string]string)
		}
		if _, seen := dst.Identifiers[k]; !seen {
			dst.Identifiers[k] = v
		}
	}
}

func fillString(dst *string, src string) {
	if *dst == "" {
		*dst = src
	}
}

// pricingSummary derives listing statistics, the histogram, and the
// estimated-sold triplet from the primary source's ask prices. Returns nil
// when the source carries no prices.
func pricingSummary(primary *model.MarketSourceRecord) *model.PricingSummary {
	prices := primary.ListingPrices
	if len(prices) == 0 {
		return nil
	}

	lowest, highest := prices[0], prices[0]
	for _, p := range prices[1:] {
		if p < lowest {
			lowest = p
		}
		if p > highest {
			highest = p
		}
	}
	median, _ := Median(prices)
	average, _ := Mean(prices)

	count := primary.ListingCount
	if count == 0 {
		count = len(prices)
	}

	return &model.PricingSummary{
		CurrentListings: &model.ListingStats{
			Lowest:  lowest,
			Highest: highest,
			Median:  median,
			Average: average,
			Count:   count,
		},
		Distribution: Distribute(prices),
		EstimatedSold: &model.SoldEstimate{
			Low:    lowest * estimatedSoldFactor,
			Median: median * estimatedSoldFactor,
			High:   highest * estimatedSoldFactor,
		},
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
