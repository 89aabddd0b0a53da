package markov

import (
	"database/sql"
	"fmt"
	"io"
	"log/slog"
)

const (
	// SOCTokenID is the reserved ID for the Start-Of-Chain token.
	SOCTokenID = 0
	// EOCTokenID is the reserved ID for the End-Of-Chain token.
	EOCTokenID = 1
	// SOCTokenText is the reserved text for the Start-Of-Chain token.
	SOCTokenText = "<SOC>"
	// EOCTokenText is the reserved text for the End-Of-Chain token.
	EOCTokenText = "<EOC>"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS markov_vocabulary (
    token_id INTEGER PRIMARY KEY,
    token_text TEXT NOT NULL UNIQUE
);`,
	`CREATE TABLE IF NOT EXISTS markov_prefixes (
    prefix_id INTEGER PRIMARY KEY,
    prefix_text TEXT NOT NULL UNIQUE
);`,
	`CREATE TABLE IF NOT EXISTS markov_models (
    model_id INTEGER PRIMARY KEY,
    model_name TEXT NOT NULL UNIQUE,
    model_order INTEGER NOT NULL
);`,
	`CREATE TABLE IF NOT EXISTS markov_chains (
    model_id INTEGER NOT NULL,
    prefix_id INTEGER NOT NULL,
    next_token_id INTEGER NOT NULL,
    frequency INTEGER NOT NULL DEFAULT 1,
    PRIMARY KEY (model_id, prefix_id, next_token_id)
);`,
	fmt.Sprintf(`INSERT OR IGNORE INTO markov_vocabulary (token_id, token_text) VALUES (%d, '%s');`, SOCTokenID, SOCTokenText),
	fmt.Sprintf(`INSERT OR IGNORE INTO markov_vocabulary (token_id, token_text) VALUES (%d, '%s');`, EOCTokenID, EOCTokenText),
}

// SetupSchema creates the tables and reserved vocabulary entries used by the
// Generator. It is idempotent, so it is safe to run on every startup.
func SetupSchema(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	for _, stmt := range schema {
		if _, err = tx.Exec(stmt); err != nil {
			return fmt.Errorf("could not create schema: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}
	return nil
}

// Generator trains and samples Markov models stored in a SQLite database.
// A Generator is not safe for concurrent training of the same model.
type Generator struct {
	db        *sql.DB
	tokenizer Tokenizer
	logger    *slog.Logger

	stmtGetModelInfo      *sql.Stmt
	stmtGetModels         *sql.Stmt
	stmtAddModel          *sql.Stmt
	stmtGetTokenID        *sql.Stmt
	stmtGetTokenText      *sql.Stmt
	stmtGetPrefixID       *sql.Stmt
	stmtGetChain          *sql.Stmt
	stmtInsertVocab       *sql.Stmt
	stmtGetOrInsertPrefix *sql.Stmt
	stmtModelChains       *sql.Stmt
	stmtModelStarters     *sql.Stmt
	stmtModelFreq         *sql.Stmt
}

// NewGenerator returns a Generator that tokenizes text with tokenizer. The
// schema must already exist in db (see SetupSchema).
func NewGenerator(db *sql.DB, tokenizer Tokenizer) (*Generator, error) {
	g := &Generator{
		db:        db,
		tokenizer: tokenizer,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	statements := []struct {
		dst   **sql.Stmt
		query string
	}{
		{&g.stmtGetModelInfo, `SELECT model_id, model_order FROM markov_models WHERE model_name = ?;`},
		{&g.stmtGetModels, `SELECT model_id, model_name, model_order FROM markov_models;`},
		{&g.stmtAddModel, `INSERT INTO markov_models (model_name, model_order) VALUES (?, ?);`},
		{&g.stmtGetTokenID, `SELECT token_id FROM markov_vocabulary WHERE token_text = ?;`},
		{&g.stmtGetTokenText, `SELECT token_text FROM markov_vocabulary WHERE token_id = ?;`},
		{&g.stmtGetPrefixID, `SELECT prefix_id FROM markov_prefixes WHERE prefix_text = ?;`},
		{&g.stmtGetChain, `SELECT next_token_id, frequency FROM markov_chains WHERE model_id = ? AND prefix_id = ?;`},
		{&g.stmtInsertVocab, `INSERT INTO markov_vocabulary (token_text) VALUES (?) ON CONFLICT(token_text) DO UPDATE SET token_text=excluded.token_text RETURNING token_id;`},
		{&g.stmtGetOrInsertPrefix, `INSERT INTO markov_prefixes (prefix_text) VALUES (?) ON CONFLICT(prefix_text) DO UPDATE SET prefix_text=excluded.prefix_text RETURNING prefix_id;`},
		{&g.stmtModelChains, `SELECT COUNT(*) FROM markov_chains WHERE model_id = ?;`},
		{&g.stmtModelStarters, `SELECT COUNT(*) FROM markov_chains WHERE model_id = ? AND prefix_id = ?;`},
		{&g.stmtModelFreq, `SELECT coalesce(SUM(frequency), 0) FROM markov_chains WHERE model_id = ?;`},
	}

	for _, s := range statements {
		stmt, err := db.Prepare(s.query)
		if err != nil {
			g.Close()
			return nil, fmt.Errorf("could not prepare %q: %w", s.query, err)
		}
		*s.dst = stmt
	}

	return g, nil
}

// Close releases the prepared statements. The database itself is owned by
// the caller and stays open.
func (g *Generator) Close() {
	for _, stmt := range []*sql.Stmt{
		g.stmtGetModelInfo,
		g.stmtGetModels,
		g.stmtAddModel,
		g.stmtGetTokenID,
		g.stmtGetTokenText,
		g.stmtGetPrefixID,
		g.stmtGetChain,
		g.stmtInsertVocab,
		g.stmtGetOrInsertPrefix,
		g.stmtModelChains,
		g.stmtModelStarters,
		g.stmtModelFreq,
	} {
		if stmt != nil {
			_ = stmt.Close()
		}
	}
}

// Tokenizer returns the tokenizer the Generator was built with.
func (g *Generator) Tokenizer() Tokenizer {
	return g.tokenizer
}

// SetLogger sets the logger for the Generator. By default, all logs are discarded.
func (g *Generator) SetLogger(logger *slog.Logger) {
	if logger != nil {
		g.logger = logger
	}
}
