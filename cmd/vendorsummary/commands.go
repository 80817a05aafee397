package main

import (
	"context"
	"fmt"
	"io"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"vendorsummary/internal/config"
	"vendorsummary/internal/ingest"
	"vendorsummary/internal/logging"
	"vendorsummary/internal/pipeline"
	"vendorsummary/internal/storage"
	"vendorsummary/internal/summary"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Aggregate purchases, sales and freight into the vendor summary table",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withEnv(cmd.Context(), func(ctx context.Context, cfg *config.Config, s storage.Store) error {
			_, err := pipeline.Run(ctx, s, pipeline.Options{
				SummaryTable: cfg.SummaryTable,
				BatchSize:    cfg.BatchSize,
				Relations: summary.Relations{
					Invoices:       cfg.InvoicesTable,
					Purchases:      cfg.PurchasesTable,
					PurchasePrices: cfg.PurchasePricesTable,
					Sales:          cfg.SalesTable,
				},
			})
			return err
		})
	},
}

var ingestFlags struct {
	dir string
}

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Load every .csv and .tsv file in a directory, one table per file",
	Long: `Load every .csv and .tsv file directly inside the data directory into a
table named after the file (extension stripped), replacing any existing table.
A file that fails is logged and skipped; the rest are still loaded.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withEnv(cmd.Context(), func(ctx context.Context, cfg *config.Config, s storage.Store) error {
			dir := cfg.DataDir
			if ingestFlags.dir != "" {
				dir = ingestFlags.dir
			}
			l := ingest.NewLoader(s, cfg.BatchSize)
			_, err := l.LoadDir(ctx, dir)
			return err
		})
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration and exit",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(rootFlags.envFile)
		if err != nil {
			return err
		}
		return reportIssues(cmd.OutOrStdout(), cfg)
	},
}

func init() {
	ingestCmd.Flags().StringVar(&ingestFlags.dir, "dir", "", "directory to load (overrides DATA_DIR)")
	rootCmd.AddCommand(summaryCmd, ingestCmd, validateCmd)
}

// reportIssues prints every validation finding to w and returns the
// *config.ConfigurationError, if any.
func reportIssues(w io.Writer, cfg *config.Config) error {
	for _, iss := range config.Validate(cfg) {
		fmt.Fprintf(w, "%s: %s: %s\n", iss.Severity, iss.Key, iss.Message)
	}
	if err := config.Check(cfg); err != nil {
		return err
	}
	fmt.Fprintln(w, "configuration is valid")
	return nil
}

// withEnv runs fn with loaded configuration, logging and metrics set up, and
// an open, health-checked store that is closed afterwards. Configuration is
// validated before any connection is attempted.
func withEnv(ctx context.Context, fn func(context.Context, *config.Config, storage.Store) error) error {
	start := time.Now()

	// Until logging.Setup succeeds, failures go to the default logger.
	cfg, err := config.Load(rootFlags.envFile)
	if err != nil {
		log.WithError(err).Error("Configuration could not be loaded")
		return err
	}
	closer, runID, err := logging.Setup(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		log.WithError(err).WithField("log_file", cfg.LogFile).Error("Log sink could not be opened")
		return err
	}
	defer closer.Close()
	entry := log.WithField("run_id", runID)

	for _, iss := range config.Validate(cfg) {
		if iss.Severity == config.SeverityWarning {
			entry.Warn(iss.Error())
		}
	}
	if err := config.Check(cfg); err != nil {
		entry.WithError(err).Error("Configuration is invalid")
		return err
	}

	flush := setupMetrics(cfg)
	defer flush()

	dsn, err := cfg.ConnectionString()
	if err != nil {
		entry.WithError(err).Error("Configuration is invalid")
		return err
	}
	s, err := pipeline.Connect(ctx, storage.Config{
		Kind:            cfg.DBDriver,
		DSN:             dsn,
		MaxConnLifetime: storage.DefaultMaxConnLifetime,
	})
	if err != nil {
		return err
	}
	defer s.Close()

	err = fn(ctx, cfg, s)
	fields := log.Fields{"elapsed": time.Since(start).Truncate(time.Millisecond)}
	if err != nil {
		entry.WithFields(fields).WithError(err).Error("Run failed")
		return err
	}
	entry.WithFields(fields).Info("Run completed")
	return nil
}
