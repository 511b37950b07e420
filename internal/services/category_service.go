package services

import (
	"context"
	"fmt"
	"time"

	"bizdash/internal/cache"
	"bizdash/internal/core"
	"bizdash/internal/storage"

	"github.com/google/uuid"
)

// DefaultCategoryColor is used for legacy keys and unknown ids.
const DefaultCategoryColor = "#6b7280"

// CategoryLabel is a resolved CategoryKey.
type CategoryLabel struct {
	Key   core.CategoryKey
	Name  string
	Color string
}

// CategoryService manages user categories and resolves category keys to
// display labels. Lookups go through an LRU cache keyed by user.
type CategoryService struct {
	store storage.CategoryStore
	cache *cache.LRUCache[map[core.CategoryKey]core.Category]
}

func NewCategoryService(store storage.CategoryStore, size int, ttl time.Duration) *CategoryService {
	return &CategoryService{
		store: store,
		cache: cache.NewLRUCache[map[core.CategoryKey]core.Category](size, ttl),
	}
}

// Cache exposes the lookup cache so it can be registered for cleanup.
func (s *CategoryService) Cache() cache.Cleaner {
	return s.cache
}

func (s *CategoryService) List(ctx context.Context, userID string) ([]core.Category, error) {
	return s.store.ListCategories(ctx, userID)
}

func (s *CategoryService) Create(ctx context.Context, c core.Category) (core.Category, error) {
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	created, err := s.store.CreateCategory(ctx, c)
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	s.cache.Delete(c.UserID)
	return created, nil
}

func (s *CategoryService) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	if err := s.store.DeleteCategory(ctx, userID, id); err != nil {
		return err
	}
	s.cache.Delete(userID)
	return nil
}

// Labels resolves every key in order. Keys that are not category ids are
// shown as-is, which covers the legacy enum values.
func (s *CategoryService) Labels(ctx context.Context, userID string, keys []core.CategoryKey) ([]CategoryLabel, error) {
	byKey, err := s.lookup(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]CategoryLabel, 0, len(keys))
	for _, k := range keys {
		label := CategoryLabel{Key: k, Name: string(k), Color: DefaultCategoryColor}
		if c, ok := byKey[k]; ok {
			label.Name = c.Name
			if c.Color != "" {
				label.Color = c.Color
			}
		}
		out = append(out, label)
	}
	return out, nil
}

func (s *CategoryService) lookup(ctx context.Context, userID string) (map[core.CategoryKey]core.Category, error) {
	if m, ok := s.cache.Get(userID); ok {
		return m, nil
	}
	cats, err := s.store.ListCategories(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	m := make(map[core.CategoryKey]core.Category, len(cats))
	for _, c := range cats {
		m[c.Key()] = c
	}
	s.cache.Set(userID, m)
	return m, nil
}
