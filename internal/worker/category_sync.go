package worker

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"bizdash/internal/core"
	"bizdash/internal/sheets"
)

// CategoryStore is the part of the category service the sync needs.
type CategoryStore interface {
	List(ctx context.Context, userID string) ([]core.Category, error)
	Create(ctx context.Context, c core.Category) (core.Category, error)
}

// CategorySync seeds a user's categories from an external list.
type CategorySync struct {
	source sheets.CategorySource
	store  CategoryStore
}

func NewCategorySync(source sheets.CategorySource, store CategoryStore) *CategorySync {
	return &CategorySync{source: source, store: store}
}

// Sync creates every listed name the user does not have yet, compared
// case-insensitively, and returns how many were created.
func (s *CategorySync) Sync(ctx context.Context, userID string) (int, error) {
	names, err := s.source.ListCategoryNames(ctx)
	if err != nil {
		return 0, fmt.Errorf("load category names: %w", err)
	}
	existing, err := s.store.List(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("list categories: %w", err)
	}
	have := make(map[string]struct{}, len(existing))
	for _, c := range existing {
		have[strings.ToLower(strings.TrimSpace(c.Name))] = struct{}{}
	}

	created := 0
	for _, name := range names {
		key := strings.ToLower(strings.TrimSpace(name))
		if _, ok := have[key]; ok {
			continue
		}
		if _, err := s.store.Create(ctx, core.Category{UserID: userID, Name: name}); err != nil {
			return created, fmt.Errorf("create category %q: %w", name, err)
		}
		have[key] = struct{}{}
		created++
	}

	slog.InfoContext(ctx, "Categories synced",
		"user_id", userID,
		"listed", len(names),
		"created", created)
	return created, nil
}
