package model

// MarketSourceRecord is one source's raw view of a release. Shape varies per
// source; any field may be unset and the aggregator fills gaps by source
// priority.
type MarketSourceRecord struct {
	Source        string            `json:"source"`
	Artist        string            `json:"artist,omitempty"`
	Title         string            `json:"title,omitempty"`
	Year          int               `json:"year,omitempty"`
	Country       string            `json:"country,omitempty"`
	Label         string            `json:"label,omitempty"`
	Format        string            `json:"format,omitempty"`
	Genre         string            `json:"genre,omitempty"`
	Tracklist     []string          `json:"tracklist,omitempty"`
	Images        []string          `json:"images,omitempty"`
	Identifiers   map[string]string `json:"identifiers,omitempty"`
	Community     *CommunityStats   `json:"community,omitempty"`
	ListingPrices []float64         `json:"listing_prices,omitempty"`
	ListingCount  int               `json:"listing_count,omitempty"`
}

// CommunityStats captures collection demand signals from the primary source.
type CommunityStats struct {
	Have int `json:"have"`
	Want int `json:"want"`
}

// UnifiedMarketRecord is the merged view across all market sources, plus
// derived price statistics.
type UnifiedMarketRecord struct {
	Artist      string            `json:"artist,omitempty"`
	Title       string            `json:"title,omitempty"`
	Year        int               `json:"year,omitempty"`
	Country     string            `json:"country,omitempty"`
	Label       string            `json:"label,omitempty"`
	Format      string            `json:"format,omitempty"`
	Genre       string            `json:"genre,omitempty"`
	Tracklist   []string          `json:"tracklist,omitempty"`
	Images      []string          `json:"images,omitempty"`
	Identifiers map[string]string `json:"identifiers,omitempty"`
	Community   *CommunityStats   `json:"community,omitempty"`
	Pricing     *PricingSummary   `json:"pricing,omitempty"`
	// Sources lists contributing source names in merge-priority order.
	Sources    []string   `json:"sources"`
	Confidence Confidence `json:"confidence"`
}

// PricingSummary holds the derived price statistics for a release.
type PricingSummary struct {
	CurrentListings *ListingStats `json:"current_listings,omitempty"`
	Distribution    *Distribution `json:"distribution,omitempty"`
	EstimatedSold   *SoldEstimate `json:"estimated_sold,omitempty"`
}

// ListingStats summarizes current ask prices.
type ListingStats struct {
	Lowest  float64 `json:"lowest"`
	Highest float64 `json:"highest"`
	Median  float64 `json:"median"`
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

// SoldEstimate projects realized sale prices from ask prices. Listings are
// assumed to close about 20% below ask.
type SoldEstimate struct {
	Low    float64 `json:"low"`
	Median float64 `json:"median"`
	High   float64 `json:"high"`
}

// Distribution is a five-bucket histogram of current ask prices. When every
// price is identical SingleValue is set instead of Buckets.
type Distribution struct {
	SingleValue *float64      `json:"single_value,omitempty"`
	Buckets     []PriceBucket `json:"buckets,omitempty"`
}

// PriceBucket is one histogram bucket: [Low, High) except the last bucket,
// which includes its upper bound.
type PriceBucket struct {
	Low     float64 `json:"low"`
	High    float64 `json:"high"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}
