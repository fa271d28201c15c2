package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/crate-scout/vinyl-cli/internal/model"
	"github.com/crate-scout/vinyl-cli/internal/store"
)

var scansCmd = &cobra.Command{
	Use:   "scans",
	Short: "Inspect scan history",
}

var scansListCmd = &cobra.Command{
	Use:   "list",
	Short: "List scans",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		status, _ := cmd.Flags().GetString("status")
		limit, _ := cmd.Flags().GetInt("limit")

		scans, err := st.ListScans(ctx, store.ScanFilter{
			Status: model.ScanStatus(status),
			Limit:  limit,
		})
		if err != nil {
			return eris.Wrap(err, "scans list")
		}

		if len(scans) == 0 {
			fmt.Fprintln(os.Stderr, "No scans found.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSTATUS\tARTIST\tTITLE\tSCORE\tVALUE\tCREATED")
		for _, sc := range scans {
			score := "-"
			if sc.Match != nil {
				score = fmt.Sprintf("%d (%s)", sc.Match.Score, sc.Match.Confidence)
			}
			value := "-"
			if sc.Valuation != nil {
				value = fmt.Sprintf("%.0f", sc.Valuation.EstimatedValue)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				sc.ID, sc.Status, sc.Extraction.Artist, sc.Extraction.Title,
				score, value, sc.CreatedAt.Format("2006-01-02 15:04"),
			)
		}
		return w.Flush()
	},
}

var scansShowCmd = &cobra.Command{
	Use:   "show <scan-id>",
	Short: "Show one scan in full",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		scan, err := st.GetScan(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "scans show")
		}
		return printJSON(scan)
	},
}

func init() {
	scansListCmd.Flags().String("status", "", "filter by status (scanned, identified, unmatched, appraised)")
	scansListCmd.Flags().Int("limit", 50, "maximum scans to list")
	scansCmd.AddCommand(scansListCmd)
	scansCmd.AddCommand(scansShowCmd)
	rootCmd.AddCommand(scansCmd)
}
