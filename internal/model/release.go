package model

// ReleaseDetails is the canonical catalog record for one candidate pressing.
// It is fetched from the catalog API and treated as read-only.
type ReleaseDetails struct {
	ID          int64               `json:"id"`
	Title       string              `json:"title"`
	Artists     []ReleaseArtist     `json:"artists,omitempty"`
	Year        int                 `json:"year,omitempty"`
	Country     string              `json:"country,omitempty"`
	Labels      []ReleaseLabel      `json:"labels,omitempty"`
	Formats     []ReleaseFormat     `json:"formats,omitempty"`
	Identifiers []ReleaseIdentifier `json:"identifiers,omitempty"`
	Images      []ReleaseImage      `json:"images,omitempty"`
	Notes       string              `json:"notes,omitempty"`
	URI         string              `json:"uri,omitempty"`
}

// ReleaseArtist names one credited artist.
type ReleaseArtist struct {
	Name string `json:"name"`
}

// ReleaseLabel pairs a label name with its catalog number for this pressing.
type ReleaseLabel struct {
	Name  string `json:"name"`
	CatNo string `json:"catno,omitempty"`
}

// ReleaseFormat describes one physical format entry (e.g. Vinyl, LP, 180g).
type ReleaseFormat struct {
	Name         string   `json:"name"`
	Text         string   `json:"text,omitempty"`
	Descriptions []string `json:"descriptions,omitempty"`
}

// ReleaseIdentifier is one typed identifier on the release: barcode,
// matrix/runout etching, label code, rights society, pressing plant.
type ReleaseIdentifier struct {
	Type        string `json:"type"`
	Value       string `json:"value"`
	Description string `json:"description,omitempty"`
}

// ReleaseImage is one catalog image with its type tag ("primary",
// "secondary") and URI.
type ReleaseImage struct {
	Type string `json:"type,omitempty"`
	URI  string `json:"uri,omitempty"`
}
