package commands

// Root command for Cobra CLI
// Loads configuration and logging before any subcommand runs
// Running the bare command renders the chart, same as "render"

import (
	"amr-coresistance/internal/config"
	"amr-coresistance/internal/infra/log"

	"github.com/spf13/cobra"
)

// cfg is loaded in PersistentPreRunE and shared by every subcommand.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "coresistance-plot",
	Short: "Render the strongest antibiotic co-resistance pairs as a bar chart",
	Long: `coresistance-plot reads precomputed co-resistance statistics
(data/processed/figures/coresistance_significant_pairs.csv) and renders the first
ten pairs as a horizontal bar chart (top_10_coresistance_pairs.png, 300 DPI).

The input is expected to be sorted by Phi, strongest first.`,
	Version:           "1.0.0",
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
	PersistentPostRun: func(cmd *cobra.Command, args []string) { log.Sync() },
	RunE:              runRender,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	config.BindFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(publishCmd)
}

func loadConfig(cmd *cobra.Command, args []string) error {
	loaded, err := config.LoadConfig(cmd.Flags())
	if err != nil {
		return err
	}
	cfg = loaded

	return log.Init(cfg.Log.Dir)
}
