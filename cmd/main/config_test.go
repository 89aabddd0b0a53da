package main

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/CTAG07/Abracadabra/pkg/batch"
)

func TestLoadConfig(t *testing.T) {
	t.Run("Missing file uses defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.json")
		config, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("LoadConfig failed: %v", err)
		}
		if *config != *DefaultConfig() {
			t.Errorf("expected defaults, got %+v", config)
		}
		if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("expected no config file to be created, stat error = %v", err)
		}
	})

	t.Run("Partial file overlays defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.json")
		content := `{"input_dir": "/srv/in", "failure_policy": "skip", "show_progress": false}`
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		config, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("LoadConfig failed: %v", err)
		}
		expected := DefaultConfig()
		expected.InputDir = "/srv/in"
		expected.FailurePolicy = "skip"
		expected.ShowProgress = false
		if *config != *expected {
			t.Errorf("LoadConfig() = %+v, want %+v", config, expected)
		}
	})

	t.Run("Malformed file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.json")
		if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadConfig(path); err == nil {
			t.Error("expected an error for a malformed config file")
		}
	})
}

func TestBatchConfig(t *testing.T) {
	config := DefaultConfig()
	config.FailurePolicy = "skip"
	got, err := config.BatchConfig()
	if err != nil {
		t.Fatalf("BatchConfig failed: %v", err)
	}
	expected := batch.Config{
		InputDir:   "./data/raw_data",
		OutputPath: "./data/ready_data/ready_data.json",
		Policy:     batch.SkipOnFailure,
	}
	if got != expected {
		t.Errorf("BatchConfig() = %+v, want %+v", got, expected)
	}

	config.FailurePolicy = "sometimes"
	if _, err := config.BatchConfig(); err == nil {
		t.Error("expected an error for an unknown failure policy")
	}

	config = DefaultConfig()
	config.OutputPath = ""
	if _, err := config.BatchConfig(); err == nil {
		t.Error("expected an error for an empty output path")
	}
}

func TestLevel(t *testing.T) {
	testCases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for input, expected := range testCases {
		config := &Config{LogLevel: input}
		if got := config.Level(); got != expected {
			t.Errorf("Level(%q) = %v, want %v", input, got, expected)
		}
	}
}
