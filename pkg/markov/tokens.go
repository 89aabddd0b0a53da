package markov

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// Token is one unit of tokenized text. EOC marks the end of a chain, which
// for text models is the end of a sentence.
type Token struct {
	Text string
	EOC  bool
}

// Tokenizer splits text into tokens for training and decides how generated
// tokens are put back together.
type Tokenizer interface {
	// NewStream returns a stateful StreamTokenizer reading from r.
	NewStream(r io.Reader) StreamTokenizer
	// Separator returns the string written between prev and current.
	Separator(prev, current string) string
	// EOC returns the string written for an End-Of-Chain token that
	// follows last.
	EOC(last string) string
}

// StreamTokenizer returns tokens one at a time, and io.EOF once the input
// is exhausted.
type StreamTokenizer interface {
	Next() (*Token, error)
}

// ChainToken is a possible next token after some prefix, with the number of
// times that transition was seen in training.
type ChainToken struct {
	Id   int
	Freq int
}

// prefixKey renders token IDs as the space separated key stored in
// markov_prefixes. buf is reused between calls to avoid allocations.
func prefixKey(buf []byte, ids []int) ([]byte, string) {
	buf = buf[:0]
	for i, id := range ids {
		if i > 0 {
			buf = append(buf, ' ')
		}
		buf = strconv.AppendInt(buf, int64(id), 10)
	}
	return buf, string(buf)
}

// GetNextTokens returns every token seen after prefix in model, along with the
// sum of their frequencies. An unknown prefix yields no tokens and no error.
func (g *Generator) GetNextTokens(ctx context.Context, model ModelInfo, prefix string) ([]ChainToken, int, error) {
	var prefixID int
	err := g.stmtGetPrefixID.QueryRowContext(ctx, prefix).Scan(&prefixID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("could not get prefix ID for '%s': %w", prefix, err)
	}

	rows, err := g.stmtGetChain.QueryContext(ctx, model.Id, prefixID)
	if err != nil {
		return nil, 0, err
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	var tokens []ChainToken
	var totalFreq int
	for rows.Next() {
		var token ChainToken
		if err = rows.Scan(&token.Id, &token.Freq); err != nil {
			return nil, 0, err
		}
		tokens = append(tokens, token)
		totalFreq += token.Freq
	}
	if err = rows.Err(); err != nil {
		return nil, 0, err
	}
	return tokens, totalFreq, nil
}

// VocabStr returns the ID of a token text.
func (g *Generator) VocabStr(ctx context.Context, token string) (int, error) {
	var id int
	if err := g.stmtGetTokenID.QueryRowContext(ctx, token).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// VocabInt returns the text of a token ID.
func (g *Generator) VocabInt(ctx context.Context, id int) (string, error) {
	var text string
	if err := g.stmtGetTokenText.QueryRowContext(ctx, id).Scan(&text); err != nil {
		return "", err
	}
	return text, nil
}
