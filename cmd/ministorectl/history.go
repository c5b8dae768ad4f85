package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"ministore/internal/app"
)

var (
	historyLimit int
	historyJSON  bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent analyses, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		hist, err := app.NewHistory(cfg)
		if err != nil {
			return err
		}
		records, err := hist.Recent(historyLimit)
		if err != nil {
			return err
		}
		if historyJSON {
			return printJSON(cmd.OutOrStdout(), records)
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "CREATED\tSOURCE\tNAME\tTOPICS")
		for _, r := range records {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.CreatedAt, r.SourceType, r.SourceName, strings.Join(r.Topics, ", "))
		}
		return w.Flush()
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of records to show (0 for all)")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "Print records as JSON")
}
