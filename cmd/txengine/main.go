package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	csvAdapter "github.com/iho/txengine/internal/adapter/csv"
	jsonAdapter "github.com/iho/txengine/internal/adapter/json"
	kafkaAdapter "github.com/iho/txengine/internal/adapter/kafka"
	redisRepo "github.com/iho/txengine/internal/adapter/repository/redis"
	"github.com/iho/txengine/internal/infrastructure/config"
	"github.com/iho/txengine/internal/infrastructure/idgen"
	"github.com/iho/txengine/internal/infrastructure/logger"
	"github.com/iho/txengine/internal/infrastructure/metrics"
	"github.com/iho/txengine/internal/infrastructure/redis"
	"github.com/iho/txengine/internal/infrastructure/retry"
	"github.com/iho/txengine/internal/usecase"
)

const longHelp = `Reads one CSV file of transactions (deposit, withdrawal, dispute, resolve,
chargeback), applies them in order and prints the final state of every
client account as CSV on stdout. Logs go to stderr, so the output can be
redirected to a file:

  txengine transactions.csv > accounts.csv`

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr, idgen.NewULIDGenerator()).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(stdout, stderr io.Writer, ids usecase.IDGenerator) *cobra.Command {
	var (
		format      string
		metricsFile string
		logLevel    string
	)

	cmd := &cobra.Command{
		Use:           "txengine <transactions.csv>",
		Short:         "Apply a CSV transaction stream to client accounts",
		Long:          longHelp,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				if len(args) == 0 {
					fmt.Fprintln(stderr, "No arguments passed!")
				}
				return cmd.Help()
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			flags := cmd.Flags()
			if flags.Changed("format") {
				cfg.OutputFormat = format
			}
			if flags.Changed("metrics-file") {
				cfg.MetricsFile = metricsFile
			}
			if flags.Changed("log-level") {
				cfg.LogLevel = logLevel
			}

			return run(cmd.Context(), cfg, args[0], ids, stdout, stderr)
		},
	}

	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	cmd.Flags().StringVar(&format, "format", "csv", "Output format for stdout (csv, json)")
	cmd.Flags().StringVar(&metricsFile, "metrics-file", "", "Write Prometheus metrics to this file after the run")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	return cmd
}

func run(ctx context.Context, cfg *config.Config, path string, ids usecase.IDGenerator, stdout, stderr io.Writer) error {
	stdoutWriter, err := newStdoutWriter(cfg.OutputFormat, stdout)
	if err != nil {
		return err
	}

	runID := ids.Generate()
	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat}, stderr).
		With().
		Str("run_id", runID).
		Logger()

	f, err := os.Open(path)
	if err != nil {
		log.Error().Err(err).Str("path", path).Msg("could not open input file")
		return nil
	}
	defer f.Close()

	reader, err := csvAdapter.NewReader(f)
	if err != nil {
		log.Error().Err(err).Str("path", path).Msg("could not create CSV reader for input")
		return nil
	}

	m := metrics.New()
	ledger := usecase.NewLedger(usecase.LedgerOptions{
		RejectNegativeAmounts: cfg.RejectNegativeAmounts,
		RejectMissingAmount:   cfg.RejectMissingAmount,
	})
	processor := usecase.NewProcessor(ledger, log, m)

	if _, err := processor.Run(reader); err != nil {
		log.Error().Err(err).Msg("input stream ended early")
	}

	writers := []usecase.SnapshotWriter{stdoutWriter}
	sinks, closeSinks := externalSinks(ctx, cfg, runID, log)
	defer closeSinks()
	writers = append(writers, sinks...)

	pubCtx, cancel := context.WithTimeout(ctx, cfg.SinkTimeout)
	defer cancel()

	// Failures are logged per sink by the processor.
	_ = processor.Publish(pubCtx, writers...)

	if cfg.MetricsFile != "" {
		if err := m.WriteFile(cfg.MetricsFile); err != nil {
			log.Error().Err(err).Str("path", cfg.MetricsFile).Msg("could not write metrics")
		}
	}

	return nil
}

func newStdoutWriter(format string, stdout io.Writer) (usecase.SnapshotWriter, error) {
	switch format {
	case "", "csv":
		return csvAdapter.NewWriter(stdout), nil
	case "json":
		return jsonAdapter.NewWriter(stdout), nil
	default:
		return nil, fmt.Errorf("unsupported output format %q", format)
	}
}

// externalSinks builds the optional redis and kafka sinks. A sink that cannot
// be set up is logged and left out.
func externalSinks(ctx context.Context, cfg *config.Config, runID string, log zerolog.Logger) ([]usecase.SnapshotWriter, func()) {
	var (
		sinks   []usecase.SnapshotWriter
		closers []func() error
	)

	retrier := retry.NewRetrier(retry.Config{
		MaxRetries:      cfg.RetryMaxAttempts,
		InitialInterval: cfg.RetryInitialInterval,
		MaxInterval:     cfg.RetryMaxInterval,
		MaxElapsedTime:  cfg.SinkTimeout,
	}, log)

	if cfg.RedisURL != "" {
		client, err := redis.NewClient(ctx, cfg.RedisURL, cfg.SinkTimeout)
		if err != nil {
			log.Error().Err(err).Msg("redis snapshot sink disabled")
		} else {
			log.Info().Msg("connected to redis")
			sinks = append(sinks, redisRepo.NewSnapshotStore(client, retrier, cfg.RedisKeyPrefix, runID, cfg.SnapshotTTL))
			closers = append(closers, client.Close)
		}
	}

	if len(cfg.KafkaBrokers) > 0 {
		publisher := kafkaAdapter.NewPublisher(kafkaAdapter.NewWriter(cfg.KafkaBrokers, cfg.KafkaTopic), retrier, runID)
		sinks = append(sinks, publisher)
		closers = append(closers, publisher.Close)
	}

	return sinks, func() {
		for _, c := range closers {
			if err := c(); err != nil {
				log.Warn().Err(err).Msg("failed to close sink")
			}
		}
	}
}
