/*
Package batch turns a directory of raw text files into a JSON file of
generated pseudo-text.

For every file, the Runner cleans the text, trains a fresh character-level
model on it, samples SentencesPerDocument sentences and joins them with
spaces. The joined strings are collected in file order and written once, at
the end, by WriteResults.
*/
package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/CTAG07/Abracadabra/pkg/markov"
	"github.com/CTAG07/Abracadabra/pkg/sentence"
	"github.com/CTAG07/Abracadabra/pkg/textclean"
	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
)

// SentencesPerDocument is the number of sentences sampled for each document.
const SentencesPerDocument = 5

// FailurePolicy decides what happens when a document's model cannot
// generate a sentence.
type FailurePolicy int

const (
	// AbortOnFailure stops the run at the first failing document. Nothing
	// is written.
	AbortOnFailure FailurePolicy = iota
	// SkipOnFailure logs the failing document, leaves it out of the
	// results and moves on.
	SkipOnFailure
)

// ParseFailurePolicy parses "abort" or "skip". The empty string means abort.
func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "abort":
		return AbortOnFailure, nil
	case "skip":
		return SkipOnFailure, nil
	default:
		return AbortOnFailure, fmt.Errorf("unknown failure policy %q (want \"abort\" or \"skip\")", s)
	}
}

func (p FailurePolicy) String() string {
	if p == SkipOnFailure {
		return "skip"
	}
	return "abort"
}

// Config holds the locations and policy of a run.
type Config struct {
	InputDir   string
	OutputPath string
	Policy     FailurePolicy
}

// Runner processes every document of Config.InputDir, one at a time.
type Runner struct {
	gen      *markov.Generator
	cfg      Config
	logger   *slog.Logger
	progress io.Writer
}

// NewRunner returns a Runner that stores its models through gen, which must
// use a markov.CharTokenizer.
func NewRunner(gen *markov.Generator, cfg Config, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{gen: gen, cfg: cfg, logger: logger}
}

// SetProgress enables a progress bar over documents, drawn on w.
func (r *Runner) SetProgress(w io.Writer) {
	r.progress = w
}

// ProcessDocument cleans doc, builds its model, and returns
// SentencesPerDocument sampled sentences joined by single spaces. The model
// is removed before returning.
func (r *Runner) ProcessDocument(ctx context.Context, doc Document) (string, error) {
	corpus := textclean.Clean(doc.Text)

	model, err := sentence.Build(ctx, r.gen, doc.Name, corpus, r.logger)
	if err != nil {
		return "", err
	}
	defer func() {
		if err := model.Close(context.WithoutCancel(ctx)); err != nil {
			r.logger.Warn("Failed to remove model", "model", model.Name(), "error", err)
		}
	}()

	sentences := make([]string, 0, SentencesPerDocument)
	for i := 0; i < SentencesPerDocument; i++ {
		s, err := model.Sample(ctx)
		if err != nil {
			return "", err
		}
		sentences = append(sentences, s)
	}
	return strings.Join(sentences, " "), nil
}

// Run processes every document and returns the results in document order.
// Context cancellation is checked between documents.
func (r *Runner) Run(ctx context.Context) (ResultSet, error) {
	paths, err := ListDocuments(r.cfg.InputDir)
	if err != nil {
		return nil, err
	}
	r.logger.Info("Starting batch",
		"input_dir", r.cfg.InputDir,
		"documents", len(paths),
		"failure_policy", r.cfg.Policy.String())

	bar := r.newProgressBar(len(paths))
	results := make(ResultSet, 0, len(paths))
	skipped := 0

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		doc, err := ReadDocument(path)
		if err != nil {
			return nil, err
		}
		bar.Describe(color.BlueString("generating %s", doc.Name))

		text, err := r.ProcessDocument(ctx, doc)
		switch {
		case err == nil:
			results = append(results, text)
			r.logger.Debug("Document processed", "document", doc.Name, "length", len(text))
		case errors.Is(err, sentence.ErrGenerationFailed) && r.cfg.Policy == SkipOnFailure:
			skipped++
			r.logger.Warn("Skipping document", "document", doc.Name, "error", err)
		default:
			return nil, fmt.Errorf("document %q: %w", doc.Name, err)
		}
		_ = bar.Add(1)
	}
	_ = bar.Finish()

	r.logger.Info("Batch completed",
		"documents", len(paths),
		"generated", len(results),
		"skipped", skipped)
	return results, nil
}

// RunAndWrite runs the batch and writes the results to Config.OutputPath.
// Nothing is written if Run fails.
func (r *Runner) RunAndWrite(ctx context.Context) (ResultSet, error) {
	results, err := r.Run(ctx)
	if err != nil {
		return nil, err
	}
	if err = WriteResults(r.cfg.OutputPath, results); err != nil {
		return nil, err
	}
	r.logger.Info("Results written", "path", r.cfg.OutputPath, "entries", len(results))
	return results, nil
}

func (r *Runner) newProgressBar(total int) *progressbar.ProgressBar {
	w := r.progress
	if w == nil {
		w = io.Discard
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(color.BlueString("generating")),
		progressbar.OptionSetItsString("docs"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetRenderBlankState(true),
	)
}
