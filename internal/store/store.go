package store

import (
	"context"
	"time"

	"github.com/crate-scout/vinyl-cli/internal/model"
)

// ScanFilter specifies criteria for listing scans.
type ScanFilter struct {
	Status model.ScanStatus `json:"status,omitempty"`
	Limit  int              `json:"limit,omitempty"`
	Offset int              `json:"offset,omitempty"`
}

// Store defines the persistence interface for the identification pipeline.
type Store interface {
	// Scans
	CreateScan(ctx context.Context, extraction model.OcrExtraction) (*model.Scan, error)
	UpdateScanMatch(ctx context.Context, scanID string, match *model.ScoredMatch) error
	UpdateScanAppraisal(ctx context.Context, scanID string, market *model.UnifiedMarketRecord, valuation *model.Valuation) error
	GetScan(ctx context.Context, scanID string) (*model.Scan, error)
	ListScans(ctx context.Context, filter ScanFilter) ([]model.Scan, error)

	// Learned corrections
	SaveCorrection(ctx context.Context, correction model.Correction) (*model.Correction, error)
	FindCorrection(ctx context.Context, barcode, catalogueNumber string) (*model.Correction, error)

	// Market cache
	GetCachedMarket(ctx context.Context, releaseID int64) (*model.UnifiedMarketRecord, error)
	SetCachedMarket(ctx context.Context, releaseID int64, record model.UnifiedMarketRecord, ttl time.Duration) error
	DeleteExpiredMarket(ctx context.Context) (int, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
