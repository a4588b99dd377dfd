package memory

import (
	"context"
	"testing"
	"time"

	"github.com/smarvasti/haftify/internal/domain"
)

func TestProgressStoreRoundtrip(t *testing.T) {
	ctx := context.Background()
	store := NewProgressStore()

	record := domain.Progress{
		QuestionID:      "q1",
		IsCorrect:       true,
		SelectedAnswers: []string{"A"},
		AttemptedAt:     time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	if err := store.SaveProgress(ctx, "u1", "catalog-1", record); err != nil {
		t.Fatalf("save: %v", err)
	}

	progress, err := store.LoadCatalogProgress(ctx, "u1", "catalog-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if p, ok := progress["q1"]; !ok || !p.IsCorrect {
		t.Fatalf("expected stored record, got %+v", progress)
	}

	// Re-submission overwrites; at most one record per question.
	record.IsCorrect = false
	_ = store.SaveProgress(ctx, "u1", "catalog-1", record)
	progress, _ = store.LoadCatalogProgress(ctx, "u1", "catalog-1")
	if len(progress) != 1 || progress["q1"].IsCorrect {
		t.Fatalf("expected overwritten record, got %+v", progress)
	}
}

func TestProgressStoreReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := NewProgressStore()
	_ = store.SaveProgress(ctx, "u1", "catalog-1", domain.Progress{QuestionID: "q1"})

	progress, _ := store.LoadCatalogProgress(ctx, "u1", "catalog-1")
	delete(progress, "q1")

	reloaded, _ := store.LoadCatalogProgress(ctx, "u1", "catalog-1")
	if len(reloaded) != 1 {
		t.Fatalf("mutating the loaded set must not touch the store")
	}
}

func TestProgressStoreReset(t *testing.T) {
	ctx := context.Background()
	store := NewProgressStore()
	_ = store.SaveProgress(ctx, "u1", "catalog-1", domain.Progress{QuestionID: "q1"})
	_ = store.SaveProgress(ctx, "u1", "catalog-2", domain.Progress{QuestionID: "q9"})

	if err := store.ResetProgress(ctx, "u1", "catalog-1"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	progress, _ := store.LoadCatalogProgress(ctx, "u1", "catalog-1")
	if len(progress) != 0 {
		t.Fatalf("expected cleared catalog, got %+v", progress)
	}
	other, _ := store.LoadCatalogProgress(ctx, "u1", "catalog-2")
	if len(other) != 1 {
		t.Fatalf("reset must be scoped to one catalog, got %+v", other)
	}
}

func TestProgressStoreRollup(t *testing.T) {
	ctx := context.Background()
	store := NewProgressStore()

	if _, ok := store.Rollup("u1", "catalog-1"); ok {
		t.Fatalf("expected no rollup before first update")
	}
	if err := store.UpdateCatalogRollup(ctx, "u1", "catalog-1", domain.Rollup{Attempted: 3, Correct: 2}); err != nil {
		t.Fatalf("update rollup: %v", err)
	}
	rollup, ok := store.Rollup("u1", "catalog-1")
	if !ok || rollup.Attempted != 3 || rollup.Correct != 2 {
		t.Fatalf("unexpected rollup %+v ok=%v", rollup, ok)
	}
}
