package actions

import (
	"context"
	"net/url"

	"recipebox/internal/models"
	"recipebox/internal/notifications"
	"recipebox/internal/validation"
)

// GetIngredients lists every ingredient.
func (a *Actions) GetIngredients(ctx context.Context) models.Result[[]models.Ingredient] {
	return run(ctx, "get_ingredients", "Failed to load ingredients", func(ctx context.Context) ([]models.Ingredient, error) {
		return a.ingredients.List(ctx)
	})
}

// CreateIngredient creates an ingredient from a submitted form.
func (a *Actions) CreateIngredient(ctx context.Context, form url.Values) models.Result[*models.Ingredient] {
	return run(ctx, "create_ingredient", "Failed to add ingredient", func(ctx context.Context) (*models.Ingredient, error) {
		in, err := validation.ParseIngredientForm(form)
		if err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		return a.createIngredient(ctx, in)
	})
}

// CreateIngredientInput creates an ingredient from a typed payload.
func (a *Actions) CreateIngredientInput(ctx context.Context, in validation.IngredientInput) models.Result[*models.Ingredient] {
	return run(ctx, "create_ingredient", "Failed to add ingredient", func(ctx context.Context) (*models.Ingredient, error) {
		return a.createIngredient(ctx, in)
	})
}

func (a *Actions) createIngredient(ctx context.Context, in validation.IngredientInput) (*models.Ingredient, error) {
	ing, err := a.ingredients.Create(ctx, in)
	if err != nil {
		return nil, err
	}
	a.publish(ctx, notifications.IngredientCreated, ing.ID)
	return ing, nil
}

// DeleteIngredient removes an ingredient by id.
func (a *Actions) DeleteIngredient(ctx context.Context, id string) models.Result[models.Empty] {
	return run(ctx, "delete_ingredient", "Failed to delete ingredient", func(ctx context.Context) (models.Empty, error) {
		if err := a.ingredients.Delete(ctx, id); err != nil {
			return models.Empty{}, err
		}
		a.publish(ctx, notifications.IngredientDeleted, id)
		return models.Empty{}, nil
	})
}
