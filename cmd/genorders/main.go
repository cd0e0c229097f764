// Command genorders writes a fake order export for local runs.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jittakal/ordersetl/internal/generator"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		cfg generator.Config
		out string
	)

	cmd := &cobra.Command{
		Use:   "genorders",
		Short: "Generate a JSON array of fake orders",
		Long: `Generate a JSON array of nested orders, each with zero or more products.

Examples:
  genorders --count 100 --out data/raw/orders.json
  genorders --count 5 --missing-customer   # last order has no customer
  genorders --count 20 --sparse            # some fields absent or null`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var w io.Writer = cmd.OutOrStdout()
			if out != "" && out != "-" {
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("failed to create output file: %w", err)
				}
				defer f.Close()
				w = f
			}
			return generator.NewGenerator(cfg).Write(w)
		},
	}

	cmd.Flags().IntVarP(&cfg.Count, "count", "n", 10, "Number of orders")
	cmd.Flags().IntVar(&cfg.MaxProducts, "max-products", 3, "Maximum products per order")
	cmd.Flags().BoolVar(&cfg.MissingCustomer, "missing-customer", false, "Drop the customer from the last order")
	cmd.Flags().BoolVar(&cfg.Sparse, "sparse", false, "Randomly drop or null leaf fields")
	cmd.Flags().Int64Var(&cfg.Seed, "seed", 0, "Random seed (0 uses the clock)")
	cmd.Flags().StringVarP(&out, "out", "o", "-", "Output file (- for stdout)")
	return cmd
}
