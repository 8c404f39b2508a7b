package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"

	"FinRank/internal/domain/models"
	"FinRank/internal/services/scoring"
	"FinRank/pkg/config"
)

var (
	rankInput  string
	rankIndent bool
)

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Score and rank a request file offline",
	Long: `Run the scoring engine once on a JSON rank request and print the ranked
result. No sinks, caches or brokers are touched.

Examples:
  finrank rank --input request.json
  finrank rank --config config/config.yaml --input - < request.json`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadRankConfig(cmd.Flags().Changed("config"), configPath)
		if err != nil {
			return err
		}
		in, closeIn, err := openInput(rankInput)
		if err != nil {
			return err
		}
		defer closeIn()
		return runRank(cmd.Context(), cfg, in, cmd.OutOrStdout(), rankIndent)
	},
}

func init() {
	rootCmd.AddCommand(rankCmd)

	rankCmd.Flags().StringVar(&rankInput, "input", "-", "rank request JSON file, - for stdin")
	rankCmd.Flags().BoolVar(&rankIndent, "indent", true, "pretty-print the result")
}

// loadRankConfig uses built-in defaults unless a config file was given.
func loadRankConfig(explicit bool, path string) (*config.Config, error) {
	if !explicit {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return config.Default()
		}
	}
	return config.Load(path)
}

func openInput(path string) (io.Reader, func(), error) {
	if path == "" || path == "-" {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open input: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}

// runRank decodes, defaults and validates a request, ranks it and writes the
// result as JSON.
func runRank(ctx context.Context, cfg *config.Config, in io.Reader, out io.Writer, indent bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	var req models.RankRequest
	if err := json.NewDecoder(in).Decode(&req); err != nil {
		return fmt.Errorf("decode rank request: %w", err)
	}
	if err := defaults.Set(&req); err != nil {
		return fmt.Errorf("apply defaults: %w", err)
	}
	if err := validator.New().StructCtx(ctx, &req); err != nil {
		return fmt.Errorf("invalid rank request: %w", err)
	}

	engine, err := scoring.NewEngine(cfg.Scoring, scoring.WithWorkers(cfg.Ranking.Workers))
	if err != nil {
		return err
	}
	res, err := engine.Rank(ctx, req)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	if indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(res)
}
