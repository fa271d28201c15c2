package main

import (
	"github.com/spf13/cobra"

	"github.com/crate-scout/vinyl-cli/internal/model"
)

var (
	appraiseVinyl  string
	appraiseSleeve string
)

var appraiseCmd = &cobra.Command{
	Use:   "appraise <scan-id>",
	Short: "Appraise an identified scan at a given condition",
	Long:  "Aggregates market data for the scan's matched release and estimates resale value from condition, demand, rarity, and vintage. Grades use Goldmine notation (M, NM, VG+, VG, G+, G, F, P).",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		a, st, err := initAppraiser(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		scan, err := a.Appraise(ctx, args[0], model.ItemCondition{
			Vinyl:  model.Grade(appraiseVinyl),
			Sleeve: model.Grade(appraiseSleeve),
		})
		if err != nil {
			return err
		}
		return printJSON(scan)
	},
}

func init() {
	appraiseCmd.Flags().StringVar(&appraiseVinyl, "vinyl", "VG+", "media condition grade")
	appraiseCmd.Flags().StringVar(&appraiseSleeve, "sleeve", "VG+", "sleeve condition grade")
	rootCmd.AddCommand(appraiseCmd)
}
