package markov

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
)

const (
	// maxSentenceLength caps the tokens kept for one sentence; the rest of an
	// overlong sentence is dropped.
	maxSentenceLength = 4096
	// chainBatchSize is how many links are buffered before they are written.
	chainBatchSize = 1000
)

type chainLink struct {
	prefixID    int
	nextTokenID int
}

// trainSession holds the per-call state of Train: transaction-bound
// statements and caches for vocabulary and prefix IDs.
type trainSession struct {
	ctx         context.Context
	model       ModelInfo
	insertVocab *sql.Stmt
	getPrefix   *sql.Stmt
	insertChain *sql.Stmt
	vocabCache  map[string]int
	prefixCache map[string]int
	batch       []chainLink
	keyBuf      []byte
}

// Train tokenizes data and adds its transitions to model. The whole call
// runs in one transaction, so a failed Train leaves the model unchanged.
// Training the same model twice adds the frequencies together.
func (g *Generator) Train(ctx context.Context, model ModelInfo, data io.Reader) error {
	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	insertChain, err := tx.PrepareContext(ctx, `INSERT INTO markov_chains (model_id, prefix_id, next_token_id, frequency) VALUES (?, ?, ?, 1) ON CONFLICT(model_id, prefix_id, next_token_id) DO UPDATE SET frequency = frequency + 1;`)
	if err != nil {
		return fmt.Errorf("failed to prepare chain insert statement: %w", err)
	}
	defer func(stmt *sql.Stmt) {
		_ = stmt.Close()
	}(insertChain)

	s := &trainSession{
		ctx:         ctx,
		model:       model,
		insertVocab: tx.StmtContext(ctx, g.stmtInsertVocab),
		getPrefix:   tx.StmtContext(ctx, g.stmtGetOrInsertPrefix),
		insertChain: insertChain,
		vocabCache:  make(map[string]int),
		prefixCache: make(map[string]int),
		batch:       make([]chainLink, 0, chainBatchSize),
	}

	stream := g.tokenizer.NewStream(data)
	var sentence []int
	var sentences, tokens int

	for {
		token, err := stream.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("tokenizer error: %w", err)
		}

		if !token.EOC {
			if len(sentence) >= maxSentenceLength {
				continue
			}
			id, err := s.tokenID(token.Text)
			if err != nil {
				return err
			}
			sentence = append(sentence, id)
			tokens++
			continue
		}

		if len(sentence) > 0 {
			if err := s.addSentence(sentence); err != nil {
				return fmt.Errorf("sentence processing error: %w", err)
			}
			sentences++
			sentence = sentence[:0]
		}
	}

	if len(sentence) > 0 {
		if err := s.addSentence(sentence); err != nil {
			return fmt.Errorf("final sentence processing error: %w", err)
		}
		sentences++
	}
	if err := s.flush(); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	g.logger.DebugContext(ctx, "Training completed",
		slog.String("model_name", model.Name),
		slog.Int("model_id", model.Id),
		slog.Int("sentences_processed", sentences),
		slog.Int("tokens_processed", tokens),
	)
	return nil
}

func (s *trainSession) tokenID(text string) (int, error) {
	if id, ok := s.vocabCache[text]; ok {
		return id, nil
	}
	var id int
	if err := s.insertVocab.QueryRowContext(s.ctx, text).Scan(&id); err != nil {
		return 0, fmt.Errorf("sql insert vocabulary error for token '%s': %w", text, err)
	}
	s.vocabCache[text] = id
	return id, nil
}

// addSentence queues one link per token of sentence plus the closing EOC
// link. The sentence is padded on the left with Order SOC tokens.
func (s *trainSession) addSentence(sentence []int) error {
	order := s.model.Order
	padded := make([]int, order+len(sentence)+1)
	copy(padded[order:], sentence)
	padded[len(padded)-1] = EOCTokenID

	for i := 0; i+order < len(padded); i++ {
		var key string
		s.keyBuf, key = prefixKey(s.keyBuf, padded[i:i+order])

		prefixID, ok := s.prefixCache[key]
		if !ok {
			if err := s.getPrefix.QueryRowContext(s.ctx, key).Scan(&prefixID); err != nil {
				return fmt.Errorf("failed to get or insert prefix '%s': %w", key, err)
			}
			s.prefixCache[key] = prefixID
		}
		s.batch = append(s.batch, chainLink{prefixID: prefixID, nextTokenID: padded[i+order]})
	}

	if len(s.batch) >= chainBatchSize {
		return s.flush()
	}
	return nil
}

func (s *trainSession) flush() error {
	for _, link := range s.batch {
		if _, err := s.insertChain.ExecContext(s.ctx, s.model.Id, link.prefixID, link.nextTokenID); err != nil {
			return fmt.Errorf("failed during batch insert of chain link (%d -> %d): %w", link.prefixID, link.nextTokenID, err)
		}
	}
	s.batch = s.batch[:0]
	return nil
}
