package store

import (
	"context"
	"net/url"
	"slices"
	"sync"

	"recipebox/internal/models"
)

// IngredientStore caches the ingredient list.
type IngredientStore struct {
	actions IngredientActions

	mu     sync.RWMutex
	items  []models.Ingredient
	status status
}

// NewIngredientStore creates an empty store backed by a.
func NewIngredientStore(a IngredientActions) *IngredientStore {
	return &IngredientStore{actions: a}
}

// Ingredients returns a copy of the cached list.
func (s *IngredientStore) Ingredients() []models.Ingredient {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.items)
}

// IsLoading reports whether any operation is in flight.
func (s *IngredientStore) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status.pending > 0
}

// Error returns the message of the last failed operation, empty if the most
// recent one succeeded.
func (s *IngredientStore) Error() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status.err
}

func (s *IngredientStore) begin() {
	s.mu.Lock()
	s.status.begin()
	s.mu.Unlock()
}

// Load replaces the cache with the backend's list.
func (s *IngredientStore) Load(ctx context.Context) error {
	s.begin()
	res := s.actions.GetIngredients(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if res.Success() {
		s.items = slices.Clone(res.Value())
	}
	s.status.end(failureOf(res))
	_, err := res.Unwrap()
	return err
}

// Add creates an ingredient and appends it to the cache.
func (s *IngredientStore) Add(ctx context.Context, form url.Values) (*models.Ingredient, error) {
	s.begin()
	res := s.actions.CreateIngredient(ctx, form)

	s.mu.Lock()
	defer s.mu.Unlock()
	if res.Success() && res.Value() != nil {
		s.items = append(s.items, *res.Value())
	}
	s.status.end(failureOf(res))
	return res.Unwrap()
}

// Remove deletes an ingredient and drops it from the cache.
func (s *IngredientStore) Remove(ctx context.Context, id string) error {
	s.begin()
	res := s.actions.DeleteIngredient(ctx, id)

	s.mu.Lock()
	defer s.mu.Unlock()
	if res.Success() {
		s.items = slices.DeleteFunc(slices.Clone(s.items), func(i models.Ingredient) bool { return i.ID == id })
	}
	s.status.end(failureOf(res))
	_, err := res.Unwrap()
	return err
}
