package commands

// Command to render the top co-resistance pairs chart
// Missing input is reported and the command still exits 0

import (
	"amr-coresistance/internal/features/top_pairs"

	"github.com/spf13/cobra"
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render the top co-resistance pairs chart to PNG",
	RunE:  runRender,
}

func runRender(cmd *cobra.Command, args []string) error {
	_, err := top_pairs.Run(cfg)
	return err
}
