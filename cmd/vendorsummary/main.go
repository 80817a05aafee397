// Command vendorsummary builds the vendor sales summary table and bulk-loads
// raw CSV exports into the database.
//
//	vendorsummary summary    aggregate, clean and replace vendor_sales_summary
//	vendorsummary ingest     load every .csv/.tsv in DATA_DIR, one table per file
//	vendorsummary validate   check configuration and exit
//
// Configuration comes from the environment and an optional .env file; see
// internal/config for the keys.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"vendorsummary/internal/pipeline"

	// register all backends with the storage factory; DB_DRIVER picks one.
	_ "vendorsummary/internal/storage/all"
)

var rootFlags struct {
	envFile string
}

var rootCmd = &cobra.Command{
	Use:           "vendorsummary",
	Short:         "Vendor sales summary pipeline and CSV bulk loader",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootFlags.envFile, "env-file", ".env", "dotenv file read beneath the process environment")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		log.WithError(err).Error("vendorsummary: exiting with failure")
	}
	os.Exit(pipeline.ExitCode(err))
}
