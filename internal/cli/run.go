package cli

import (
	"github.com/spf13/cobra"

	"campaign-forecast/internal/app"
)

var (
	runInput   string
	runSeed    int64
	runWorkers int
	runJSON    string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a campaign simulation and print the forecast summary",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.RunOptions{
			InputPath: runInput,
			Workers:   runWorkers,
			JSONPath:  runJSON,
		}
		if cmd.Flags().Changed("seed") {
			seed := uint64(runSeed)
			opts.Seed = &seed
		}

		return getApp().Run(cmd.Context(), opts)
	},
}

func init() {
	runCmd.Flags().StringVar(&runInput, "input", "", "Customer dataset path (defaults to config)")
	runCmd.Flags().Int64Var(&runSeed, "seed", 0, "Random seed override")
	runCmd.Flags().IntVar(&runWorkers, "workers", 0, "Per-day evaluation workers (defaults to config)")
	runCmd.Flags().StringVar(&runJSON, "json", "", "Write the full run result to this JSON file")
}
