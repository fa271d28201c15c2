package discogs

// SearchResult is one row from GET /database/search.
type SearchResult struct {
	ID      int64    `json:"id"`
	Title   string   `json:"title"`
	Year    string   `json:"year"`
	Country string   `json:"country"`
	Label   []string `json:"label"`
	CatNo   string   `json:"catno"`
	Format  []string `json:"format"`
	Thumb   string   `json:"thumb"`
}

type searchResponse struct {
	Results []SearchResult `json:"results"`
}

// Release is the full record from GET /releases/{id}.
type Release struct {
	ID          int64        `json:"id"`
	Title       string       `json:"title"`
	Year        int          `json:"year"`
	Country     string       `json:"country"`
	Artists     []Artist     `json:"artists"`
	Labels      []Label      `json:"labels"`
	Formats     []Format     `json:"formats"`
	Identifiers []Identifier `json:"identifiers"`
	Images      []Image      `json:"images"`
	Tracklist   []Track      `json:"tracklist"`
	Genres      []string     `json:"genres"`
	Notes       string       `json:"notes"`
	URI         string       `json:"uri"`
	Community   Community    `json:"community"`
	NumForSale  int          `json:"num_for_sale"`
	LowestPrice float64      `json:"lowest_price"`
}

// Artist is one credited artist.
type Artist struct {
	Name string `json:"name"`
}

// Label pairs a label with the catalog number it assigned.
type Label struct {
	Name  string `json:"name"`
	CatNo string `json:"catno"`
}

// Format is one physical format entry.
type Format struct {
	Name         string   `json:"name"`
	Qty          string   `json:"qty"`
	Text         string   `json:"text"`
	Descriptions []string `json:"descriptions"`
}

// Identifier is one typed identifier (barcode, matrix, label code, ...).
type Identifier struct {
	Type        string `json:"type"`
	Value       string `json:"value"`
	Description string `json:"description"`
}

// Image is one catalog image.
type Image struct {
	Type string `json:"type"`
	URI  string `json:"uri"`
}

// Track is one tracklist row.
type Track struct {
	Position string `json:"position"`
	Title    string `json:"title"`
	Duration string `json:"duration"`
}

// Community holds collection counts for a release.
type Community struct {
	Have int `json:"have"`
	Want int `json:"want"`
}

// Price is a money amount in a currency.
type Price struct {
	Currency string  `json:"currency"`
	Value    float64 `json:"value"`
}

// PriceSuggestions maps a condition grade ("Very Good Plus (VG+)") to the
// suggested ask price for that grade.
type PriceSuggestions map[string]Price

// MarketplaceStats is the response from GET /marketplace/stats/{id}.
type MarketplaceStats struct {
	LowestPrice     *Price `json:"lowest_price"`
	NumForSale      int    `json:"num_for_sale"`
	BlockedFromSale bool   `json:"blocked_from_sale"`
}
