package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/CTAG07/Abracadabra/pkg/batch"
)

// Config holds the settings of a run. Chain order and sentence count are
// fixed and deliberately absent.
type Config struct {
	LogLevel      string `json:"log_level"`
	DatabasePath  string `json:"database_path"`
	InputDir      string `json:"input_dir"`
	OutputPath    string `json:"output_path"`
	FailurePolicy string `json:"failure_policy"`
	ShowProgress  bool   `json:"show_progress"`
}

// DefaultConfig creates a configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		LogLevel:      "info",
		DatabasePath:  ":memory:",
		InputDir:      "./data/raw_data",
		OutputPath:    "./data/ready_data/ready_data.json",
		FailurePolicy: "abort",
		ShowProgress:  true,
	}
}

// LoadConfig overlays the JSON file at path on the defaults. A missing file
// is not an error and is not created: a run writes nothing but its output.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	file, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return config, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err = json.Unmarshal(file, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return config, nil
}

// BatchConfig validates the run settings and converts them for the runner.
func (c *Config) BatchConfig() (batch.Config, error) {
	policy, err := batch.ParseFailurePolicy(c.FailurePolicy)
	if err != nil {
		return batch.Config{}, err
	}
	if c.InputDir == "" {
		return batch.Config{}, errors.New("input_dir must not be empty")
	}
	if c.OutputPath == "" {
		return batch.Config{}, errors.New("output_path must not be empty")
	}
	return batch.Config{
		InputDir:   c.InputDir,
		OutputPath: c.OutputPath,
		Policy:     policy,
	}, nil
}

// Level parses LogLevel, falling back to info.
func (c *Config) Level() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
