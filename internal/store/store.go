// Package store keeps client-side copies of the catalog and the auth state.
//
// Stores delegate every change to an action backend, either the in-process
// actions or the HTTP client, and only update their cache after the backend
// reports success. There are no optimistic updates: a failed call leaves the
// cache as it was and records the failure message.
package store

import (
	"context"
	"net/url"
	"sync"

	"recipebox/internal/models"
)

// IngredientActions is the backend an IngredientStore delegates to.
type IngredientActions interface {
	GetIngredients(ctx context.Context) models.Result[[]models.Ingredient]
	CreateIngredient(ctx context.Context, form url.Values) models.Result[*models.Ingredient]
	DeleteIngredient(ctx context.Context, id string) models.Result[models.Empty]
}

// RecipeActions is the backend a RecipeStore delegates to.
type RecipeActions interface {
	GetRecipes(ctx context.Context) models.Result[[]models.Recipe]
	CreateRecipe(ctx context.Context, form url.Values) models.Result[*models.Recipe]
	UpdateRecipe(ctx context.Context, id string, form url.Values) models.Result[*models.Recipe]
	DeleteRecipe(ctx context.Context, id string) models.Result[models.Empty]
}

// SessionActions is the backend an AuthStore delegates to.
type SessionActions interface {
	SignIn(ctx context.Context, email, password string) models.Result[*models.Session]
	SignOut(ctx context.Context, token string) models.Result[models.Empty]
	GetSession(ctx context.Context, token string) models.Result[*models.Session]
}

// Actions is everything an App needs.
type Actions interface {
	IngredientActions
	RecipeActions
	SessionActions
}

// App groups the stores a client session works with.
type App struct {
	Ingredients *IngredientStore
	Recipes     *RecipeStore
	Auth        *AuthStore
}

// New builds an App whose stores all delegate to a.
func New(a Actions) *App {
	return &App{
		Ingredients: NewIngredientStore(a),
		Recipes:     NewRecipeStore(a),
		Auth:        NewAuthStore(a),
	}
}

// Bootstrap refreshes the session once, then loads recipes and, for signed-in
// users, ingredients. The loads run concurrently; their failures are recorded
// in the stores rather than returned.
func Bootstrap(ctx context.Context, app *App) {
	app.Auth.Refresh(ctx)

	var wg sync.WaitGroup
	if app.Auth.IsAuth() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = app.Ingredients.Load(ctx)
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = app.Recipes.Load(ctx)
	}()
	wg.Wait()
}

// status tracks in-flight operations and the last failure. Callers hold the
// owning store's lock.
type status struct {
	pending int
	err     string
}

func (s *status) begin() {
	s.pending++
	s.err = ""
}

func (s *status) end(failure string) {
	s.pending--
	if failure != "" {
		s.err = failure
	}
}

func failureOf[T any](res models.Result[T]) string {
	if res.Success() {
		return ""
	}
	return res.Message()
}
