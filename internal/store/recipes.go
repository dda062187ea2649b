package store

import (
	"context"
	"net/url"
	"slices"
	"sync"

	"recipebox/internal/models"
)

// RecipeStore caches the recipe list.
type RecipeStore struct {
	actions RecipeActions

	mu     sync.RWMutex
	items  []models.Recipe
	status status
}

// NewRecipeStore creates an empty store backed by a.
func NewRecipeStore(a RecipeActions) *RecipeStore {
	return &RecipeStore{actions: a}
}

// Recipes returns a copy of the cached list, ingredient rows included.
func (s *RecipeStore) Recipes() []models.Recipe {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneRecipes(s.items)
}

// Recipe returns a copy of the cached recipe with id.
func (s *RecipeStore) Recipe(id string) (models.Recipe, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.items {
		if r.ID == id {
			return cloneRecipe(r), true
		}
	}
	return models.Recipe{}, false
}

func (s *RecipeStore) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status.pending > 0
}

func (s *RecipeStore) Error() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status.err
}

func (s *RecipeStore) begin() {
	s.mu.Lock()
	s.status.begin()
	s.mu.Unlock()
}

// Load replaces the cache with the backend's list.
func (s *RecipeStore) Load(ctx context.Context) error {
	s.begin()
	res := s.actions.GetRecipes(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if res.Success() {
		s.items = cloneRecipes(res.Value())
	}
	s.status.end(failureOf(res))
	_, err := res.Unwrap()
	return err
}

// Add creates a recipe and appends it to the cache.
func (s *RecipeStore) Add(ctx context.Context, form url.Values) (*models.Recipe, error) {
	s.begin()
	res := s.actions.CreateRecipe(ctx, form)

	s.mu.Lock()
	defer s.mu.Unlock()
	if res.Success() && res.Value() != nil {
		s.items = append(s.items, cloneRecipe(*res.Value()))
	}
	s.status.end(failureOf(res))
	return res.Unwrap()
}

// Update saves a recipe and replaces its cached entry, appending it when absent.
func (s *RecipeStore) Update(ctx context.Context, id string, form url.Values) (*models.Recipe, error) {
	s.begin()
	res := s.actions.UpdateRecipe(ctx, id, form)

	s.mu.Lock()
	defer s.mu.Unlock()
	if res.Success() && res.Value() != nil {
		updated := cloneRecipe(*res.Value())
		items := cloneRecipes(s.items)
		if i := slices.IndexFunc(items, func(r models.Recipe) bool { return r.ID == id }); i >= 0 {
			items[i] = updated
		} else {
			items = append(items, updated)
		}
		s.items = items
	}
	s.status.end(failureOf(res))
	return res.Unwrap()
}

// Remove deletes a recipe and drops it from the cache.
func (s *RecipeStore) Remove(ctx context.Context, id string) error {
	s.begin()
	res := s.actions.DeleteRecipe(ctx, id)

	s.mu.Lock()
	defer s.mu.Unlock()
	if res.Success() {
		s.items = slices.DeleteFunc(cloneRecipes(s.items), func(r models.Recipe) bool { return r.ID == id })
	}
	s.status.end(failureOf(res))
	_, err := res.Unwrap()
	return err
}

func cloneRecipe(r models.Recipe) models.Recipe {
	r.Ingredients = slices.Clone(r.Ingredients)
	return r
}

func cloneRecipes(in []models.Recipe) []models.Recipe {
	if in == nil {
		return nil
	}
	out := make([]models.Recipe, len(in))
	for i, r := range in {
		out[i] = cloneRecipe(r)
	}
	return out
}
