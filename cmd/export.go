package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/crate-scout/vinyl-cli/internal/model"
	"github.com/crate-scout/vinyl-cli/internal/store"
)

var (
	exportOut    string
	exportStatus string
	exportLimit  int
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export scan history to an XLSX inventory sheet",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		scans, err := st.ListScans(ctx, store.ScanFilter{
			Status: model.ScanStatus(exportStatus),
			Limit:  exportLimit,
		})
		if err != nil {
			return eris.Wrap(err, "export: list scans")
		}

		if err := writeScanWorkbook(exportOut, scans); err != nil {
			return err
		}

		zap.L().Info("export complete", zap.String("file", exportOut), zap.Int("scans", len(scans)))
		fmt.Printf("Exported %d scans to %s\n", len(scans), exportOut)
		return nil
	},
}

// writeScanWorkbook writes an inventory sheet: one row per scan with its
// identification and valuation summary.
func writeScanWorkbook(path string, scans []model.Scan) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Inventory")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	for _, h := range []string{
		"Scan ID", "Status", "Artist", "Title", "Catalogue No", "Barcode",
		"Release ID", "Match Score", "Match Confidence",
		"Estimated Value", "CI Low", "CI High", "Created",
	} {
		header.AddCell().Value = h
	}

	for _, sc := range scans {
		row := sheet.AddRow()
		row.AddCell().Value = sc.ID
		row.AddCell().Value = string(sc.Status)
		row.AddCell().Value = sc.Extraction.Artist
		row.AddCell().Value = sc.Extraction.Title
		row.AddCell().Value = sc.Extraction.CatalogueNumber
		row.AddCell().Value = sc.Extraction.Barcode

		if sc.Match != nil {
			row.AddCell().SetInt64(sc.Match.Release.ID)
			row.AddCell().SetInt(sc.Match.Score)
			row.AddCell().Value = string(sc.Match.Confidence)
		} else {
			row.AddCell()
			row.AddCell()
			row.AddCell()
		}

		if sc.Valuation != nil {
			row.AddCell().SetFloat(sc.Valuation.EstimatedValue)
			row.AddCell().SetFloat(sc.Valuation.ConfidenceInterval.Low)
			row.AddCell().SetFloat(sc.Valuation.ConfidenceInterval.High)
		} else {
			row.AddCell()
			row.AddCell()
			row.AddCell()
		}

		row.AddCell().Value = sc.CreatedAt.Format("2006-01-02 15:04")
	}

	return eris.Wrap(f.Save(path), "export: save workbook")
}

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "scans.xlsx", "output file path")
	exportCmd.Flags().StringVar(&exportStatus, "status", "", "only export scans with this status")
	exportCmd.Flags().IntVar(&exportLimit, "limit", 1000, "maximum scans to export")
	rootCmd.AddCommand(exportCmd)
}
