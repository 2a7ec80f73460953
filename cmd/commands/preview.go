package commands

// Command to print the pairs that would be plotted, without rendering

import (
	"strconv"

	"amr-coresistance/internal/features/top_pairs"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Print the top co-resistance pairs as a table",
	RunE:  runPreview,
}

func runPreview(cmd *cobra.Command, args []string) error {
	res, err := top_pairs.LoadTopRows(cfg)
	if err != nil || res.Missing {
		return err
	}

	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.SetHeader([]string{"#", "Pair", "Phi"})
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	for i, row := range res.Rows {
		table.Append([]string{
			strconv.Itoa(i + 1),
			row.Label,
			strconv.FormatFloat(row.Phi, 'f', 4, 64),
		})
	}
	table.Render()
	return nil
}
