package actions

import (
	"context"
	"net/url"

	"recipebox/internal/featureflags"
	"recipebox/internal/models"
	"recipebox/internal/notifications"
	"recipebox/internal/validation"
)

// GetRecipes lists every recipe with its ingredients.
func (a *Actions) GetRecipes(ctx context.Context) models.Result[[]models.Recipe] {
	return run(ctx, "get_recipes", "Failed to load recipes", func(ctx context.Context) ([]models.Recipe, error) {
		return a.recipes.List(ctx)
	})
}

// GetRecipe loads one recipe.
func (a *Actions) GetRecipe(ctx context.Context, id string) models.Result[*models.Recipe] {
	return run(ctx, "get_recipe", "Failed to load recipe", func(ctx context.Context) (*models.Recipe, error) {
		return a.recipes.Get(ctx, id)
	})
}

// CreateRecipe creates a recipe from a submitted form.
func (a *Actions) CreateRecipe(ctx context.Context, form url.Values) models.Result[*models.Recipe] {
	return run(ctx, "create_recipe", "Failed to create recipe", func(ctx context.Context) (*models.Recipe, error) {
		in, err := validation.ParseRecipeForm(form, a.recipes.AllowedImageHosts())
		if err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		return a.createRecipe(ctx, in)
	})
}

// CreateRecipeInput creates a recipe from a typed payload.
func (a *Actions) CreateRecipeInput(ctx context.Context, in validation.RecipeInput) models.Result[*models.Recipe] {
	return run(ctx, "create_recipe", "Failed to create recipe", func(ctx context.Context) (*models.Recipe, error) {
		return a.createRecipe(ctx, in)
	})
}

func (a *Actions) createRecipe(ctx context.Context, in validation.RecipeInput) (*models.Recipe, error) {
	recipe, err := a.recipes.Create(ctx, in)
	if err != nil {
		return nil, err
	}
	a.publish(ctx, notifications.RecipeCreated, recipe.ID)
	return recipe, nil
}

// UpdateRecipe replaces a recipe's fields and ingredient rows from a submitted form.
func (a *Actions) UpdateRecipe(ctx context.Context, id string, form url.Values) models.Result[*models.Recipe] {
	return run(ctx, "update_recipe", "Failed to update recipe", func(ctx context.Context) (*models.Recipe, error) {
		in, err := validation.ParseRecipeForm(form, a.recipes.AllowedImageHosts())
		if err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		return a.updateRecipe(ctx, id, in)
	})
}

// UpdateRecipeInput replaces a recipe from a typed payload.
func (a *Actions) UpdateRecipeInput(ctx context.Context, id string, in validation.RecipeInput) models.Result[*models.Recipe] {
	return run(ctx, "update_recipe", "Failed to update recipe", func(ctx context.Context) (*models.Recipe, error) {
		return a.updateRecipe(ctx, id, in)
	})
}

func (a *Actions) updateRecipe(ctx context.Context, id string, in validation.RecipeInput) (*models.Recipe, error) {
	recipe, err := a.recipes.Update(ctx, id, in)
	if err != nil {
		return nil, err
	}
	a.publish(ctx, notifications.RecipeUpdated, recipe.ID)
	return recipe, nil
}

// DeleteRecipe removes a recipe and its ingredient rows.
func (a *Actions) DeleteRecipe(ctx context.Context, id string) models.Result[models.Empty] {
	return run(ctx, "delete_recipe", "Failed to delete recipe", func(ctx context.Context) (models.Empty, error) {
		if err := a.recipes.Delete(ctx, id); err != nil {
			return models.Empty{}, err
		}
		a.publish(ctx, notifications.RecipeDeleted, id)
		return models.Empty{}, nil
	})
}

// ImageUploadsEnabled reports whether the image_uploads flag is on for the caller.
func (a *Actions) ImageUploadsEnabled(ctx context.Context) bool {
	return a.flags.Enabled(featureflags.ImageUploads, subjectFrom(ctx))
}

// AttachRecipeImage stores an uploaded photo and points the recipe at it.
func (a *Actions) AttachRecipeImage(ctx context.Context, id string, content []byte) models.Result[*models.Recipe] {
	return run(ctx, "attach_recipe_image", "Failed to upload image", func(ctx context.Context) (*models.Recipe, error) {
		if !a.ImageUploadsEnabled(ctx) {
			return nil, &models.AppError{Code: models.CodeNotFound, Message: "Image uploads are disabled"}
		}
		if a.images == nil {
			return nil, models.NewValidationError("Image uploads are not configured")
		}
		if _, err := a.recipes.Get(ctx, id); err != nil {
			return nil, err
		}
		imageURL, err := a.images.Process(ctx, content)
		if err != nil {
			return nil, err
		}
		recipe, err := a.recipes.SetImage(ctx, id, imageURL)
		if err != nil {
			return nil, err
		}
		a.publish(ctx, notifications.RecipeUpdated, recipe.ID)
		return recipe, nil
	})
}
