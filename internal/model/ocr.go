package model

// OcrExtraction holds the attributes read off a photographed record by the
// vision step. Any field may be empty; the matcher treats empty as "not
// observed" and skips the corresponding rule.
type OcrExtraction struct {
	Artist          string   `json:"artist,omitempty"`
	Title           string   `json:"title,omitempty"`
	CatalogueNumber string   `json:"catalogue_number,omitempty"`
	Label           string   `json:"label,omitempty"`
	Barcode         string   `json:"barcode,omitempty"`
	MatrixRunoutA   string   `json:"matrix_runout_a,omitempty"`
	MatrixRunoutB   string   `json:"matrix_runout_b,omitempty"`
	LabelCode       string   `json:"label_code,omitempty"`
	RightsSociety   string   `json:"rights_society,omitempty"`
	PressingPlant   string   `json:"pressing_plant,omitempty"`
	Country         string   `json:"country,omitempty"`
	Year            string   `json:"year,omitempty"`
	Format          string   `json:"format,omitempty"`
	PressingInfo    string   `json:"pressing_info,omitempty"`
	// IdentifierStrings collects etched or printed codes the vision step
	// could read but not classify (deadwax scribbles, sleeve codes).
	IdentifierStrings []string `json:"identifier_strings,omitempty"`
}
