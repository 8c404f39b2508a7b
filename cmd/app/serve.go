package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"FinRank/internal/di"
	"FinRank/pkg/config"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, Kafka intake and result sinks",
	Long: `Run the ranking service. Configuration is read from --config and
overridden by FINRANK_ENV, PORT, LOG_LEVEL, KAFKA_BROKERS, CLICKHOUSE_HOST,
CLICKHOUSE_PASSWORD and REDIS_ADDR.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadWithEnv(configPath)
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}

	app, err := di.InitializeApp(cfg)
	if err != nil {
		return fmt.Errorf("app initialization failed: %w", err)
	}

	// Run blocks until SIGINT or SIGTERM.
	return app.Run()
}
