package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"campaign-forecast/internal/app"
)

var (
	generateOut       string
	generateCustomers int
	generateSeed      uint64
	generateFrom      string
	generateTo        string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a synthetic customer dataset for demos and tests",
	RunE: func(cmd *cobra.Command, args []string) error {
		from, err := time.Parse(time.DateOnly, generateFrom)
		if err != nil {
			return fmt.Errorf("invalid --from value: %w", err)
		}
		to, err := time.Parse(time.DateOnly, generateTo)
		if err != nil {
			return fmt.Errorf("invalid --to value: %w", err)
		}

		opts := app.GenerateOptions{
			OutPath:   generateOut,
			Customers: generateCustomers,
			Seed:      generateSeed,
			From:      from,
			To:        to,
		}

		return getApp().Generate(opts)
	},
}

func init() {
	generateCmd.Flags().StringVar(&generateOut, "out", "data/customers.json", "Output dataset path")
	generateCmd.Flags().IntVar(&generateCustomers, "customers", 1000, "Number of customers to generate")
	generateCmd.Flags().Uint64Var(&generateSeed, "seed", 42, "Generator seed")
	generateCmd.Flags().StringVar(&generateFrom, "from", "2024-06-01", "History window start (YYYY-MM-DD)")
	generateCmd.Flags().StringVar(&generateTo, "to", "2025-08-01", "History window end (YYYY-MM-DD)")
}
