package main

import (
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var correctHints []string

var correctCmd = &cobra.Command{
	Use:   "correct <scan-id> <release-id>",
	Short: "Correct a scan to a user-confirmed release",
	Long:  "Re-resolves the scan against the given catalog release and remembers the correction, so future scans of the same pressing (by barcode or catalogue number) resolve to it directly.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		releaseID, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return eris.Wrapf(err, "invalid release id %q", args[1])
		}

		a, st, err := initAppraiser(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		scan, err := a.Correct(ctx, args[0], releaseID, correctHints)
		if err != nil {
			return err
		}
		return printJSON(scan)
	},
}

func init() {
	correctCmd.Flags().StringArrayVar(&correctHints, "hint", nil, "text read off an uploaded photo (repeatable)")
	rootCmd.AddCommand(correctCmd)
}
