package main

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/crate-scout/vinyl-cli/internal/model"
)

func TestWriteScanWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scans.xlsx")

	scans := []model.Scan{
		{
			ID:         "scan-1",
			Status:     model.ScanStatusAppraised,
			Extraction: model.OcrExtraction{Artist: "Kraftwerk", Title: "Autobahn", Barcode: "5099750219515"},
			Match: &model.ScoredMatch{
				Release:    model.ReleaseDetails{ID: 1877362},
				Score:      65,
				Confidence: model.ConfidenceHigh,
			},
			Valuation: &model.Valuation{
				EstimatedValue:     90,
				ConfidenceInterval: model.ConfidenceInterval{Low: 72, High: 108},
			},
			CreatedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		},
		{
			ID:         "scan-2",
			Status:     model.ScanStatusUnmatched,
			Extraction: model.OcrExtraction{Artist: "Neu!", Title: "Neu! 75"},
			CreatedAt:  time.Date(2026, 8, 2, 9, 30, 0, 0, time.UTC),
		},
	}

	require.NoError(t, writeScanWorkbook(path, scans))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, f.Sheets, 1)

	sheet := f.Sheets[0]
	assert.Equal(t, "Inventory", sheet.Name)
	require.Len(t, sheet.Rows, 3)

	header := sheet.Rows[0]
	assert.Equal(t, "Scan ID", header.Cells[0].Value)
	assert.Equal(t, "Estimated Value", header.Cells[9].Value)

	first := sheet.Rows[1]
	assert.Equal(t, "scan-1", first.Cells[0].Value)
	assert.Equal(t, "appraised", first.Cells[1].Value)
	assert.Equal(t, "high", first.Cells[8].Value)

	second := sheet.Rows[2]
	assert.Equal(t, "scan-2", second.Cells[0].Value)
	assert.Equal(t, "unmatched", second.Cells[1].Value)
	assert.Empty(t, second.Cells[6].Value)
}

func TestWriteScanWorkbook_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.xlsx")
	require.NoError(t, writeScanWorkbook(path, nil))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, f.Sheets[0].Rows, 1)
}
