package commands

import (
	"strings"

	"flathunt-backend/lib/scrapers/rightmove"
	"flathunt-backend/lib/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var lookupLimit *int

func init() {
	lookupLimit = lookupCmd.Flags().Int("limit", 0, "Maximum matches to return, up to 20.")
	rootCmd.AddCommand(lookupCmd)
}

var lookupCmd = &cobra.Command{
	Use:   "lookup <query...>",
	Short: "Resolves a free-text place query to location identifiers.",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client := rightmove.NewClient(rightmove.ClientOptions{})

		matches, err := client.Lookup(cmd.Context(), strings.Join(args, " "), *lookupLimit)
		if err != nil {
			serviceutil.Fatal("failed to look up location", err)
		}

		t := newTable()
		t.AppendHeader(table.Row{"Id", "Type", "Name"})
		for _, match := range matches.Matches {
			t.AppendRow(table.Row{match.ID, match.Type, match.DisplayName})
		}
		t.Render()
	},
}
