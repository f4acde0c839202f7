package history

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(filepath.Join(t.TempDir(), "nested", "history.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRecordAndGet(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	g, err := store.Insert(ctx, &Generation{
		Text:   "cat, dog, fish",
		Model:  "openai",
		Points: [][3]float64{{1, 2, 3}, {4, 5, 6}, {7, 8, 9}},
		Labels: []string{"cat", "dog", "fish"},
	})
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if g.ID == "" || g.CreatedAt.IsZero() {
		t.Fatalf("Expected ID and timestamp, got %+v", g)
	}

	loaded, err := store.Get(ctx, g.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if loaded.Text != "cat, dog, fish" || loaded.Model != "openai" {
		t.Errorf("Unexpected generation: %+v", loaded)
	}
	if len(loaded.Points) != 3 || loaded.Points[2] != [3]float64{7, 8, 9} {
		t.Errorf("Unexpected points: %v", loaded.Points)
	}
	if len(loaded.Labels) != 3 || loaded.Labels[1] != "dog" {
		t.Errorf("Unexpected labels: %v", loaded.Labels)
	}
}

func TestGetUnknown(t *testing.T) {
	store := openTestStore(t)

	_, err := store.Get(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestListNewestFirst(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for _, text := range []string{"a,b,c", "d,e,f", "g,h,i"} {
		if err := store.Record(ctx, text, "gemini", [][3]float64{{0, 0, 0}}, []string{"x"}); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	all, err := store.List(ctx, 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("Expected 3 generations, got %d", len(all))
	}
	if all[0].Text != "g,h,i" || all[2].Text != "a,b,c" {
		t.Errorf("Expected newest first, got %s ... %s", all[0].Text, all[2].Text)
	}

	limited, err := store.List(ctx, 2)
	if err != nil {
		t.Fatalf("List with limit failed: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("Expected 2 generations, got %d", len(limited))
	}
}

func TestListEmpty(t *testing.T) {
	store := openTestStore(t)

	all, err := store.List(context.Background(), 10)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if all == nil || len(all) != 0 {
		t.Errorf("Expected empty non-nil list, got %v", all)
	}
}
