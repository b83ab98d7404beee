package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"carsclean/internal/cleaning"
	"carsclean/internal/logger"
	"carsclean/internal/profile"
	"carsclean/internal/store"
	"carsclean/internal/table"
)

const (
	defaultInput  = "../Data/Cars Datasets 2025.csv"
	defaultOutput = "../Data/cars_dataset_cleaned.csv"
	headRows      = 5
)

type options struct {
	input    string
	output   string
	sqlite   string
	profile  string
	logLevel string
	logJSON  bool
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := options{}
	cmd := &cobra.Command{
		Use:           "clean-cars-dataset",
		Short:         "Normalize, impute and deduplicate the cars specification dataset",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			log := logger.Setup(opts.logLevel, opts.logJSON)
			if err := run(cmd.Context(), opts, log); err != nil {
				log.Error("cleaning failed", "error", err)
				return err
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.input, "input", defaultInput, "Input CSV path (Latin-1)")
	f.StringVar(&opts.output, "output", defaultOutput, "Cleaned CSV output path")
	f.StringVar(&opts.sqlite, "sqlite", "", "Optional SQLite output path")
	f.StringVar(&opts.profile, "profile", "", "Optional profile markdown output path")
	f.StringVar(&opts.logLevel, "log-level", string(logger.InfoLevel), "Log level (debug, info, warn, error)")
	f.BoolVar(&opts.logJSON, "log-json", false, "Emit logs as JSON")
	return cmd
}

func run(ctx context.Context, opts options, log logger.Logger) error {
	started := time.Now()

	src, err := table.Load(opts.input)
	if err != nil {
		return fmt.Errorf("load: %w", err)
	}
	raw := profile.Build(src, headRows)
	profile.Log(log, raw)

	cleaned, rep, err := cleaning.Clean(src)
	if err != nil {
		return fmt.Errorf("clean: %w", err)
	}
	profile.LogReport(log, rep)

	if err := table.WriteCSV(opts.output, cleaned); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	log.Info("wrote cleaned csv", "path", opts.output, "rows", cleaned.Len(), "columns", len(cleaned.Columns))

	if opts.sqlite != "" {
		r := store.NewRun(opts.input, opts.output, started)
		r.FinishedAt = time.Now()
		r.RowsIn, r.RowsOut = rep.RowsIn, rep.RowsOut
		if err := os.MkdirAll(filepath.Dir(opts.sqlite), 0o755); err != nil {
			return fmt.Errorf("mkdir sqlite dir: %w", err)
		}
		if err := store.WriteSQLite(ctx, opts.sqlite, cleaned, r); err != nil {
			return fmt.Errorf("write sqlite: %w", err)
		}
		log.Info("wrote sqlite", "path", opts.sqlite, "run_id", r.ID.String())
	}

	if opts.profile != "" {
		md := profile.Markdown(opts.input, raw, rep, cleaned)
		if err := os.MkdirAll(filepath.Dir(opts.profile), 0o755); err != nil {
			return fmt.Errorf("mkdir profile dir: %w", err)
		}
		if err := os.WriteFile(opts.profile, []byte(md), 0o644); err != nil {
			return fmt.Errorf("write profile: %w", err)
		}
		log.Info("wrote profile", "path", opts.profile)
	}
	return nil
}
