package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/crate-scout/vinyl-cli/internal/model"
	"github.com/crate-scout/vinyl-cli/internal/vision"
)

var (
	identifyPhotos  []string
	identifyArtist  string
	identifyTitle   string
	identifyCatNo   string
	identifyBarcode string
	identifyMatrixA string
	identifyMatrixB string
	identifyLabel   string
	identifyYear    string
	identifyCountry string
)

var identifyCmd = &cobra.Command{
	Use:   "identify",
	Short: "Identify a pressing from photos or typed attributes",
	Long:  "Matches the record against the catalog using every readable signal: barcode, catalogue number, deadwax matrix, label, country, year. Pass photos for vision extraction or type the attributes directly.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		a, st, err := initAppraiser(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		var scan *model.Scan
		if len(identifyPhotos) > 0 {
			photos, err := loadPhotos(identifyPhotos)
			if err != nil {
				return err
			}
			scan, err = a.IdentifyPhotos(ctx, photos)
			if err != nil {
				return err
			}
		} else {
			if identifyArtist == "" || identifyTitle == "" {
				return eris.New("either --photo or both --artist and --title are required")
			}
			scan, err = a.Identify(ctx, model.OcrExtraction{
				Artist:          identifyArtist,
				Title:           identifyTitle,
				CatalogueNumber: identifyCatNo,
				Barcode:         identifyBarcode,
				MatrixRunoutA:   identifyMatrixA,
				MatrixRunoutB:   identifyMatrixB,
				Label:           identifyLabel,
				Year:            identifyYear,
				Country:         identifyCountry,
			})
			if err != nil {
				return err
			}
		}

		return printJSON(scan)
	},
}

func loadPhotos(paths []string) ([]vision.Photo, error) {
	var photos []vision.Photo
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, eris.Wrapf(err, "read photo %s", path)
		}
		mime := "image/jpeg"
		if strings.EqualFold(filepath.Ext(path), ".png") {
			mime = "image/png"
		}
		photos = append(photos, vision.Photo{Data: data, MimeType: mime})
	}
	return photos, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	identifyCmd.Flags().StringArrayVar(&identifyPhotos, "photo", nil, "photo file (repeatable: sleeve, labels, deadwax)")
	identifyCmd.Flags().StringVar(&identifyArtist, "artist", "", "artist name")
	identifyCmd.Flags().StringVar(&identifyTitle, "title", "", "release title")
	identifyCmd.Flags().StringVar(&identifyCatNo, "catno", "", "catalogue number")
	identifyCmd.Flags().StringVar(&identifyBarcode, "barcode", "", "barcode digits")
	identifyCmd.Flags().StringVar(&identifyMatrixA, "matrix-a", "", "side A matrix/runout etching")
	identifyCmd.Flags().StringVar(&identifyMatrixB, "matrix-b", "", "side B matrix/runout etching")
	identifyCmd.Flags().StringVar(&identifyLabel, "label", "", "label name")
	identifyCmd.Flags().StringVar(&identifyYear, "year", "", "release year as printed")
	identifyCmd.Flags().StringVar(&identifyCountry, "country", "", "country of pressing")
	rootCmd.AddCommand(identifyCmd)
}
