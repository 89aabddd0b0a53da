package markov

import (
	"context"
	"database/sql"
	"go/build"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

// setupTestDB creates a new SQLite database in a temp dir and a Generator
// using the CharTokenizer. It uses t.Cleanup to release resources.
func setupTestDB(t *testing.T) (*sql.DB, *Generator) {
	dbFile := filepath.Join(t.TempDir(), "test.db")
	db, err := sql.Open("sqlite3", dbFile+"?_journal_mode=WAL&_synchronous=NORMAL")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := SetupSchema(db); err != nil {
		t.Fatalf("failed to set up schema: %v", err)
	}

	g, err := NewGenerator(db, NewCharTokenizer())
	if err != nil {
		t.Fatalf("NewGenerator() error = %v", err)
	}
	t.Cleanup(g.Close)

	return db, g
}

// setupTestDBWithTraining also trains an order 2 model on "Abc. Abd.".
func setupTestDBWithTraining(t *testing.T) (context.Context, *Generator, ModelInfo) {
	_, g := setupTestDB(t)
	ctx := context.Background()

	model, err := g.InsertModel(ctx, "test_model", 2)
	if err != nil {
		t.Fatalf("setup: InsertModel() failed: %v", err)
	}
	if err := g.Train(ctx, model, strings.NewReader("Abc. Abd.")); err != nil {
		t.Fatalf("setup: Train() failed: %v", err)
	}
	return ctx, g, model
}

func setupTestDBBench(b *testing.B) *Generator {
	dbFile := filepath.Join(b.TempDir(), "bench.db")
	db, err := sql.Open("sqlite3", dbFile+"?_journal_mode=WAL&_synchronous=OFF&_cache_size=-16000")
	if err != nil {
		b.Fatalf("failed to open database: %v", err)
	}
	b.Cleanup(func() { _ = db.Close() })

	if err := SetupSchema(db); err != nil {
		b.Fatalf("failed to set up schema: %v", err)
	}

	g, err := NewGenerator(db, NewCharTokenizer())
	if err != nil {
		b.Fatalf("NewGenerator() error = %v", err)
	}
	b.Cleanup(g.Close)
	return g
}

var (
	benchmarkCorpus string
	corpusOnce      sync.Once
)

// createBenchmarkCorpus uses a few standard library sources as a corpus.
func createBenchmarkCorpus() string {
	corpusOnce.Do(func() {
		var sb strings.Builder
		goRoot := build.Default.GOROOT
		for _, file := range []string{
			filepath.Join(goRoot, "src/strings/strings.go"),
			filepath.Join(goRoot, "src/bufio/bufio.go"),
		} {
			content, err := os.ReadFile(file)
			if err != nil {
				benchmarkCorpus = "this is a fallback corpus for benchmarking. it is not very long but will prevent a crash. "
				return
			}
			sb.Write(content)
			sb.WriteString("\n")
		}
		benchmarkCorpus = sb.String()
	})
	return benchmarkCorpus
}
