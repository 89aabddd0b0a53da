// Package sentence binds a cleaned corpus to a character-level Markov model
// and samples sentences from it.
package sentence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/CTAG07/Abracadabra/pkg/markov"
	"github.com/google/uuid"
)

const (
	// ChainOrder is the number of preceding characters that predict the next.
	ChainOrder = 3
	// MaxSentenceRunes caps the length of one sampled sentence.
	MaxSentenceRunes = 4096
	// DefaultTries is how many walks Sample attempts before giving up.
	DefaultTries = 10
)

// ErrGenerationFailed is returned by Sample when the model cannot produce a
// sentence, which happens when its corpus held no text at all.
var ErrGenerationFailed = errors.New("sentence generation failed")

// Model is a character-level Markov model trained on exactly one corpus.
// Sampling never changes it. Close removes it from the database.
type Model struct {
	gen    *markov.Generator
	info   markov.ModelInfo
	stats  markov.ModelStats
	tries  int
	logger *slog.Logger
}

// Build trains a new model on corpus. The model is stored under name plus a
// random suffix, so several models built from same-named documents can
// coexist. gen must use a markov.CharTokenizer.
func Build(ctx context.Context, gen *markov.Generator, name, corpus string, logger *slog.Logger) (*Model, error) {
	if _, ok := gen.Tokenizer().(*markov.CharTokenizer); !ok {
		return nil, fmt.Errorf("sentence model %q: generator must use a character tokenizer, got %T", name, gen.Tokenizer())
	}

	info, err := gen.InsertModel(ctx, name+"#"+uuid.NewString(), ChainOrder)
	if err != nil {
		return nil, err
	}

	if err = gen.Train(ctx, info, strings.NewReader(corpus)); err != nil {
		_ = gen.RemoveModel(ctx, info)
		return nil, fmt.Errorf("failed to train model for %q: %w", name, err)
	}

	stats, err := gen.GetModelStats(ctx, info)
	if err != nil {
		_ = gen.RemoveModel(ctx, info)
		return nil, fmt.Errorf("failed to read stats for %q: %w", name, err)
	}

	if logger == nil {
		logger = slog.Default()
	}
	logger.DebugContext(ctx, "Sentence model built",
		slog.String("model_name", info.Name),
		slog.Int("corpus_bytes", len(corpus)),
		slog.Int("chains", stats.TotalChains),
		slog.Int("starting_tokens", stats.StartingTokens),
	)

	return &Model{
		gen:    gen,
		info:   info,
		stats:  stats,
		tries:  DefaultTries,
		logger: logger,
	}, nil
}

// Name returns the name the model is stored under.
func (m *Model) Name() string {
	return m.info.Name
}

// Stats returns the model's statistics as of Build.
func (m *Model) Stats() markov.ModelStats {
	return m.stats
}

// Sample draws one sentence. Line breaks inside the sentence are replaced by
// spaces. A model built from an empty corpus always fails with
// ErrGenerationFailed; any other model always succeeds.
func (m *Model) Sample(ctx context.Context) (string, error) {
	if m.stats.StartingTokens == 0 {
		return "", fmt.Errorf("%w: model %q has no starting tokens", ErrGenerationFailed, m.info.Name)
	}

	for attempt := 1; attempt <= m.tries; attempt++ {
		s, err := m.gen.Generate(ctx, m.info, markov.WithMaxLength(MaxSentenceRunes))
		if err != nil {
			return "", err
		}
		s = strings.ReplaceAll(s, "\n", " ")
		if strings.TrimSpace(s) != "" {
			return s, nil
		}
		m.logger.DebugContext(ctx, "Discarding empty sample",
			slog.String("model_name", m.info.Name),
			slog.Int("attempt", attempt),
		)
	}
	return "", fmt.Errorf("%w: model %q produced no text in %d attempts", ErrGenerationFailed, m.info.Name, m.tries)
}

// Close removes the model and its chains from the database.
func (m *Model) Close(ctx context.Context) error {
	return m.gen.RemoveModel(ctx, m.info)
}
