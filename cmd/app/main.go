package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

// rootCmd is the base command for the FinRank CLI.
var rootCmd = &cobra.Command{
	Use:   "finrank",
	Short: "Deterministic cross-asset scoring and ranking engine",
	Long: `FinRank classifies the macro regime, scores equity, crypto and commodity
candidates with regime-aware weights and guardrails, and ranks them into a
bounded, quota-aware pick list with a full rejection audit.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config/config.yaml", "config file path")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
