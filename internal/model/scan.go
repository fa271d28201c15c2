package model

import "time"

// ScanStatus tracks how far a scan has progressed through the pipeline.
type ScanStatus string

const (
	ScanStatusScanned    ScanStatus = "scanned"
	ScanStatusIdentified ScanStatus = "identified"
	ScanStatusUnmatched  ScanStatus = "unmatched"
	ScanStatusAppraised  ScanStatus = "appraised"
)

// Scan is one pass of a physical record through the pipeline: the vision
// extraction, the best catalog match, the merged market view, and the final
// valuation. Match, Market and Valuation stay nil until the corresponding
// stage has run.
type Scan struct {
	ID         string               `json:"id"`
	Extraction OcrExtraction        `json:"extraction"`
	Match      *ScoredMatch         `json:"match,omitempty"`
	Market     *UnifiedMarketRecord `json:"market,omitempty"`
	Valuation  *Valuation           `json:"valuation,omitempty"`
	Status     ScanStatus           `json:"status"`
	CreatedAt  time.Time            `json:"created_at"`
	UpdatedAt  time.Time            `json:"updated_at"`
}

// Correction records a user-confirmed release for a scan whose automatic
// match was wrong or weak. Corrections are keyed by barcode and catalogue
// number so later scans of the same pressing resolve against the confirmed
// release first.
type Correction struct {
	ID              string         `json:"id"`
	ScanID          string         `json:"scan_id,omitempty"`
	Barcode         string         `json:"barcode,omitempty"`
	CatalogueNumber string         `json:"catalogue_number,omitempty"`
	Release         ReleaseDetails `json:"release"`
	CreatedAt       time.Time      `json:"created_at"`
}
