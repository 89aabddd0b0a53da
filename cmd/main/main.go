package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/CTAG07/Abracadabra/pkg/batch"
	"github.com/CTAG07/Abracadabra/pkg/markov"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

const configPath = "./config.json"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		slog.Error("Abracadabra failed", "error", err)
		stop()
		os.Exit(1)
	}
}

// run loads the configuration, sets up logging and hands over to generate.
func run(ctx context.Context) error {
	config, err := LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: config.Level()}))
	slog.SetDefault(logger)
	logger.Info("Starting Abracadabra", "version", Version, "commit", Commit, "build_date", BuildDate)

	_, err = generate(ctx, config, logger)
	return err
}

// generate opens the model database, processes every input document and
// writes the results. Any error aborts the whole run.
func generate(ctx context.Context, config *Config, logger *slog.Logger) (batch.ResultSet, error) {
	batchConfig, err := config.BatchConfig()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	db, err := initDB(config.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database", "error", err)
		}
	}()

	if err = markov.SetupSchema(db); err != nil {
		return nil, fmt.Errorf("failed to setup markov schema: %w", err)
	}

	gen, err := markov.NewGenerator(db, markov.NewCharTokenizer())
	if err != nil {
		return nil, fmt.Errorf("error creating markov generator: %w", err)
	}
	defer gen.Close()
	gen.SetLogger(logger)

	runner := batch.NewRunner(gen, batchConfig, logger)
	if config.ShowProgress {
		runner.SetProgress(os.Stderr)
	}

	return runner.RunAndWrite(ctx)
}
