package markov

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
)

type generateOptions struct {
	maxLength   int
	canEndEarly bool
}

// GenerateOption configures a call to Generate.
type GenerateOption func(*generateOptions)

// WithMaxLength sets the maximum number of tokens to generate. Default: 100.
func WithMaxLength(n int) GenerateOption {
	return func(o *generateOptions) { o.maxLength = n }
}

// WithEarlyTermination sets whether generation stops at the first EOC token.
// When false, generation restarts from a fresh SOC prefix after each EOC and
// runs until maxLength. Default: true.
func WithEarlyTermination(canEnd bool) GenerateOption {
	return func(o *generateOptions) { o.canEndEarly = canEnd }
}

// Generate walks model from an all-SOC prefix and returns the generated
// text. A model with no transitions yields the empty string.
func (g *Generator) Generate(ctx context.Context, model ModelInfo, opts ...GenerateOption) (string, error) {
	options := &generateOptions{
		maxLength:   100,
		canEndEarly: true,
	}
	for _, opt := range opts {
		opt(options)
	}

	var builder strings.Builder
	tokenCache := map[int]string{
		SOCTokenID: SOCTokenText,
		EOCTokenID: EOCTokenText,
	}

	prefix := make([]int, model.Order)
	lastWord := SOCTokenText
	firstWord := true
	var keyBuf []byte

	for generated := 0; generated < options.maxLength; generated++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		var key string
		keyBuf, key = prefixKey(keyBuf, prefix)

		choices, totalFreq, err := g.GetNextTokens(ctx, model, key)
		if err != nil {
			return "", fmt.Errorf("failed to get next tokens for prefix '%s': %w", key, err)
		}

		if len(choices) == 0 {
			g.logger.DebugContext(ctx, "Generation hit a dead end",
				slog.String("model_name", model.Name),
				slog.String("last_prefix", key),
				slog.Int("generated_length", generated),
			)
			builder.WriteString(g.tokenizer.EOC(lastWord))
			return builder.String(), nil
		}

		next := chooseNextToken(choices, totalFreq)
		if next == EOCTokenID {
			builder.WriteString(g.tokenizer.EOC(lastWord))
			if options.canEndEarly {
				return builder.String(), nil
			}
			lastWord = EOCTokenText
			clear(prefix)
			continue
		}

		text, ok := tokenCache[next]
		if !ok {
			if text, err = g.VocabInt(ctx, next); err != nil {
				return "", fmt.Errorf("failed to get text for generated token %d: %w", next, err)
			}
			tokenCache[next] = text
		}
		if !firstWord {
			builder.WriteString(g.tokenizer.Separator(lastWord, text))
		}
		firstWord = false
		lastWord = text
		builder.WriteString(text)

		prefix = append(prefix[1:], next)
	}

	// Every returned chain ends with an EOC, even when it was cut short.
	builder.WriteString(g.tokenizer.EOC(lastWord))
	g.logger.DebugContext(ctx, "Generation reached max length",
		slog.String("model_name", model.Name),
		slog.Int("max_length", options.maxLength),
	)
	return builder.String(), nil
}

// chooseNextToken picks one of choices with probability proportional to its
// frequency. totalFreq must be the sum of the frequencies and greater than 0.
func chooseNextToken(choices []ChainToken, totalFreq int) int {
	n := rand.IntN(totalFreq)
	for _, choice := range choices {
		n -= choice.Freq
		if n < 0 {
			return choice.Id
		}
	}
	return choices[len(choices)-1].Id
}
