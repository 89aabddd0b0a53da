package markov

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ModelInfo identifies a model in the database. Order is the number of
// preceding tokens used to predict the next one.
type ModelInfo struct {
	Id    int
	Name  string
	Order int
}

// GetModelInfos returns every model in the database keyed by name.
func (g *Generator) GetModelInfos(ctx context.Context) (map[string]ModelInfo, error) {
	rows, err := g.stmtGetModels.QueryContext(ctx)
	if err != nil {
		return nil, err
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	models := make(map[string]ModelInfo)
	for rows.Next() {
		var model ModelInfo
		if err = rows.Scan(&model.Id, &model.Name, &model.Order); err != nil {
			return nil, err
		}
		models[model.Name] = model
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return models, nil
}

// GetModelInfo looks up a single model by name. It returns sql.ErrNoRows if
// no such model exists.
func (g *Generator) GetModelInfo(ctx context.Context, modelName string) (ModelInfo, error) {
	info := ModelInfo{Name: modelName}
	if err := g.stmtGetModelInfo.QueryRowContext(ctx, modelName).Scan(&info.Id, &info.Order); err != nil {
		return ModelInfo{}, err
	}
	return info, nil
}

// InsertModel registers a new, empty model and returns it with its assigned
// ID. Model names are unique.
func (g *Generator) InsertModel(ctx context.Context, name string, order int) (ModelInfo, error) {
	if order < 1 {
		return ModelInfo{}, fmt.Errorf("model %q: order must be at least 1, got %d", name, order)
	}
	res, err := g.stmtAddModel.ExecContext(ctx, name, order)
	if err != nil {
		return ModelInfo{}, fmt.Errorf("could not insert model %q: %w", name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return ModelInfo{}, fmt.Errorf("could not read id of model %q: %w", name, err)
	}

	g.logger.DebugContext(ctx, "Model created",
		slog.String("model_name", name),
		slog.Int64("model_id", id),
		slog.Int("order", order),
	)
	return ModelInfo{Id: int(id), Name: name, Order: order}, nil
}

// RemoveModel deletes a model and all of its chain links in one transaction.
// Vocabulary and prefixes are shared between models and are kept.
func (g *Generator) RemoveModel(ctx context.Context, model ModelInfo) error {
	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	if _, err = tx.ExecContext(ctx, "DELETE FROM markov_chains WHERE model_id = ?", model.Id); err != nil {
		return fmt.Errorf("failed to remove chains for model %d: %w", model.Id, err)
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM markov_models WHERE model_id = ?", model.Id); err != nil {
		return fmt.Errorf("failed to remove model %d: %w", model.Id, err)
	}
	if err = tx.Commit(); err != nil {
		return err
	}

	g.logger.DebugContext(ctx, "Model removed",
		slog.String("model_name", model.Name),
		slog.Int("model_id", model.Id),
	)
	return nil
}
