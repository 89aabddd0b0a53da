package markov

import (
	"context"
	"fmt"
	"strings"
	"testing"
)

func TestTrain(t *testing.T) {
	db, g := setupTestDB(t)
	ctx := context.Background()

	model, err := g.InsertModel(ctx, "train_test", 2)
	if err != nil {
		t.Fatalf("InsertModel failed: %v", err)
	}
	if err := g.Train(ctx, model, strings.NewReader("Abc. Abd.")); err != nil {
		t.Fatalf("Train() failed: %v", err)
	}

	// [SOC SOC]->A, [SOC A]->b, Ab->c, Ab->d, bc->., bd->., c.->EOC, d.->EOC
	var chainCount int
	err = db.QueryRowContext(ctx, "SELECT COUNT(*) FROM markov_chains WHERE model_id = ?", model.Id).Scan(&chainCount)
	if err != nil {
		t.Fatal(err)
	}
	if chainCount != 8 {
		t.Errorf("expected 8 chains, got %d", chainCount)
	}

	// Training again doubles every frequency.
	if err := g.Train(ctx, model, strings.NewReader("Abc. Abd.")); err != nil {
		t.Fatalf("second Train() failed: %v", err)
	}
	_, totalFreq, err := g.GetNextTokens(ctx, model, "0 0")
	if err != nil {
		t.Fatalf("GetNextTokens failed: %v", err)
	}
	if totalFreq != 4 {
		t.Errorf("expected start prefix frequency of 4, got %d", totalFreq)
	}
}

func TestTrainKeepsModelsApart(t *testing.T) {
	_, g := setupTestDB(t)
	ctx := context.Background()

	first, _ := g.InsertModel(ctx, "first", 3)
	second, _ := g.InsertModel(ctx, "second", 3)
	if err := g.Train(ctx, first, strings.NewReader("xyz.")); err != nil {
		t.Fatalf("Train(first) failed: %v", err)
	}
	if err := g.Train(ctx, second, strings.NewReader("qrs.")); err != nil {
		t.Fatalf("Train(second) failed: %v", err)
	}

	for model, want := range map[ModelInfo]string{first: "xyz.", second: "qrs."} {
		got, err := g.Generate(ctx, model)
		if err != nil {
			t.Fatalf("Generate(%s) failed: %v", model.Name, err)
		}
		if got != want {
			t.Errorf("Generate(%s) = %q, want %q", model.Name, got, want)
		}
	}
}

func TestModelStats(t *testing.T) {
	ctx, g, model := setupTestDBWithTraining(t)

	stats, err := g.GetModelStats(ctx, model)
	if err != nil {
		t.Fatalf("GetModelStats failed: %v", err)
	}
	expected := ModelStats{TotalChains: 8, TotalFrequency: 10, StartingTokens: 1}
	if stats != expected {
		t.Errorf("GetModelStats() = %+v, want %+v", stats, expected)
	}

	empty, _ := g.InsertModel(ctx, "empty", 5)
	stats, err = g.GetModelStats(ctx, empty)
	if err != nil {
		t.Fatalf("GetModelStats(empty) failed: %v", err)
	}
	if stats != (ModelStats{}) {
		t.Errorf("expected zero stats for an untrained model, got %+v", stats)
	}
}

func BenchmarkTrain(b *testing.B) {
	corpus := createBenchmarkCorpus()
	ctx := context.Background()

	for _, order := range []int{1, 2, 3, 4} {
		b.Run(fmt.Sprintf("Order%d", order), func(b *testing.B) {
			g := setupTestDBBench(b)
			model, err := g.InsertModel(ctx, "bench_train", order)
			if err != nil {
				b.Fatalf("InsertModel failed: %v", err)
			}

			b.SetBytes(int64(len(corpus)))
			b.ReportAllocs()
			b.ResetTimer()

			for i := 0; i < b.N; i++ {
				if err := g.Train(ctx, model, strings.NewReader(corpus)); err != nil {
					b.Fatalf("Train() failed: %v", err)
				}
			}
		})
	}
}
