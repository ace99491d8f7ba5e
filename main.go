package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"telemetry_ingest/internal/app"
	"telemetry_ingest/internal/config"
	"telemetry_ingest/internal/keyfilter"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		imeis   string
		start   string
		end     string
		logFile string
	)

	cmd := &cobra.Command{
		Use:   "telemetry-ingest [IMEIS START END LOGFILE]",
		Short: "Load telemetry spreadsheets from an object store into the LatestData table",
		Long: `Lists the configured bucket, keeps the spreadsheets whose key names one of
the given devices and a day inside the date range, and bulk inserts their rows.
Duplicate rows are skipped. A file that fails is logged and skipped.

Storage and database settings come from the environment (and .env).`,
		Example: `  # Flags
  telemetry-ingest --imeis 350317177724063,350317177724064 --start 2024-01-01 --end 2024-01-31 --log-file child-0.log

  # Positional form used by a parent process
  telemetry-ingest '[350317177724063]' 2024-01-01 2024-01-31 child-0.log`,
		Args: cobra.MaximumNArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				if len(args) != 4 {
					return fmt.Errorf("positional form needs IMEIS START END LOGFILE, got %d arguments", len(args))
				}
				imeis, start, end, logFile = args[0], args[1], args[2], args[3]
			}
			batch, err := newBatchArgs(imeis, start, end, logFile)
			if err != nil {
				return err
			}
			cmd.SilenceUsage = true
			return run(cmd.Context(), batch)
		},
	}

	cmd.Flags().StringVar(&imeis, "imeis", "", "Device ids, comma separated or as a JSON array")
	cmd.Flags().StringVar(&start, "start", "", "First day to load, YYYY-MM-DD (inclusive)")
	cmd.Flags().StringVar(&end, "end", "", "Last day to load, YYYY-MM-DD (inclusive)")
	cmd.Flags().StringVar(&logFile, "log-file", "", "Append logs to this file instead of stderr")

	return cmd
}

func run(ctx context.Context, batch batchArgs) error {
	envErr := loadDotEnv()

	sink, closeSink, err := openLogSink(batch.logFile)
	if err != nil {
		return err
	}
	defer closeSink()

	cfg, cfgErr := config.Load()
	log := app.NewLogger(sink, cfg.LogLevel, cfg.Env)

	// wait until now to report on the .env file so we have the chance to set up logging first
	if envErr == nil {
		log.Debug().Msg("Loaded environment variables from .env file.")
	} else {
		log.Debug().Msg("No .env file found or error loading .env file; proceeding with existing environment variables.")
	}
	if cfgErr != nil {
		log.Error().Err(cfgErr).Msg("Invalid configuration")
		return cfgErr
	}

	ids := joinIDs(batch.deviceIDs)
	log.Info().
		Str("start", batch.start.Format("2006-01-02")).
		Str("end", batch.end.Format("2006-01-02")).
		Msgf("Started processing IMEIs: %s", ids)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := app.Build(ctx, cfg, log)
	if err != nil {
		log.Error().Err(err).Msgf("Error processing IMEIs: %s", ids)
		return err
	}
	defer func() {
		if cerr := res.Close(); cerr != nil {
			log.Warn().Err(cerr).Msg("Failed to release resources")
		}
	}()

	criteria := keyfilter.NewCriteria(batch.deviceIDs, batch.start, batch.end)
	summary, err := res.Pipeline(log).Run(ctx, criteria)
	res.PushMetrics(ctx, cfg.PushgatewayURL)
	if err != nil {
		log.Error().Err(err).Str("run_id", summary.RunID).Msgf("Error processing IMEIs: %s", ids)
		return err
	}

	log.Info().
		Str("run_id", summary.RunID).
		Int("files", summary.FilesMatched).
		Int("failed", summary.Failed).
		Int64("inserted", summary.RecordsInserted).
		Msgf("Successfully processed IMEIs: %s", ids)
	return nil
}
