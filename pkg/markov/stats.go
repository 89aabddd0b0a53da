package markov

import (
	"context"
	"database/sql"
	"errors"
)

// ModelStats holds aggregated statistics for a single model.
type ModelStats struct {
	TotalChains    int // The number of unique prefix->next_token links.
	TotalFrequency int // The sum of all link frequencies.
	StartingTokens int // The number of distinct tokens that can start a chain.
}

// GetModelStats counts the links of model. A model that was never trained,
// or trained on empty input, has zero StartingTokens and cannot generate.
func (g *Generator) GetModelStats(ctx context.Context, model ModelInfo) (ModelStats, error) {
	var stats ModelStats
	if err := g.stmtModelChains.QueryRowContext(ctx, model.Id).Scan(&stats.TotalChains); err != nil {
		return ModelStats{}, err
	}
	if err := g.stmtModelFreq.QueryRowContext(ctx, model.Id).Scan(&stats.TotalFrequency); err != nil {
		return ModelStats{}, err
	}

	_, soc := prefixKey(nil, make([]int, model.Order))
	var socID int
	err := g.stmtGetPrefixID.QueryRowContext(ctx, soc).Scan(&socID)
	if errors.Is(err, sql.ErrNoRows) {
		return stats, nil
	}
	if err != nil {
		return ModelStats{}, err
	}
	if err = g.stmtModelStarters.QueryRowContext(ctx, model.Id, socID).Scan(&stats.StartingTokens); err != nil {
		return ModelStats{}, err
	}
	return stats, nil
}
