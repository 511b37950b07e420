package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"bizdash/internal/core"
	"bizdash/internal/services"
	sheetsmem "bizdash/internal/sheets/memory"
	"bizdash/internal/storage/memory"
)

type failingSource struct{}

func (failingSource) ListCategoryNames(context.Context) ([]string, error) {
	return nil, errors.New("sheet unavailable")
}

func TestCategorySync(t *testing.T) {
	ctx := context.Background()
	cats := services.NewCategoryService(memory.New(), 10, time.Minute)
	if _, err := cats.Create(ctx, core.Category{UserID: "u1", Name: "decor"}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	s := NewCategorySync(sheetsmem.New([]string{"Decor", "Venue", "Catering"}), cats)
	created, err := s.Sync(ctx, "u1")
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if created != 2 {
		t.Fatalf("created = %d, want 2", created)
	}

	again, _ := s.Sync(ctx, "u1")
	if again != 0 {
		t.Fatalf("second sync created %d, want 0", again)
	}
	list, _ := cats.List(ctx, "u1")
	if len(list) != 3 {
		t.Fatalf("expected 3 categories, got %+v", list)
	}

	// other users are unaffected
	if others, _ := cats.List(ctx, "u2"); len(others) != 0 {
		t.Fatalf("u2 has categories: %+v", others)
	}
}

func TestCategorySync_SourceError(t *testing.T) {
	cats := services.NewCategoryService(memory.New(), 10, time.Minute)
	if _, err := NewCategorySync(failingSource{}, cats).Sync(context.Background(), "u1"); err == nil {
		t.Fatal("expected an error from the source")
	}
}
