package service

import (
	"context"

	"recipebox/internal/models"
	"recipebox/internal/repository"
	"recipebox/internal/validation"
)

// RecipeService validates recipe submissions and persists them with their ingredient links.
type RecipeService struct {
	recipes      repository.RecipeRepository
	ingredients  repository.IngredientRepository
	allowedHosts []string
}

// NewRecipeService returns a RecipeService. allowedHosts is the remote image host allow-list.
func NewRecipeService(recipes repository.RecipeRepository, ingredients repository.IngredientRepository, allowedHosts []string) *RecipeService {
	return &RecipeService{
		recipes:      recipes,
		ingredients:  ingredients,
		allowedHosts: allowedHosts,
	}
}

// AllowedImageHosts returns the remote image host allow-list used for validation.
func (s *RecipeService) AllowedImageHosts() []string {
	return s.allowedHosts
}

// List returns every recipe with its ingredients.
func (s *RecipeService) List(ctx context.Context) ([]models.Recipe, error) {
	return s.recipes.List(ctx)
}

// Get returns one recipe with its ingredients.
func (s *RecipeService) Get(ctx context.Context, id string) (*models.Recipe, error) {
	return s.recipes.GetByID(ctx, id)
}

// Create validates in and stores a new recipe.
func (s *RecipeService) Create(ctx context.Context, in validation.RecipeInput) (*models.Recipe, error) {
	recipe, err := s.build(ctx, in)
	if err != nil {
		return nil, err
	}
	if err := s.recipes.Create(ctx, recipe); err != nil {
		return nil, err
	}
	return recipe, nil
}

// Update validates in and replaces the recipe's fields and its whole ingredient list.
func (s *RecipeService) Update(ctx context.Context, id string, in validation.RecipeInput) (*models.Recipe, error) {
	if id == "" {
		return nil, models.NewValidationError("Recipe id is required")
	}
	recipe, err := s.build(ctx, in)
	if err != nil {
		return nil, err
	}
	recipe.ID = id
	if err := s.recipes.Update(ctx, recipe); err != nil {
		return nil, err
	}
	return recipe, nil
}

// Delete removes the recipe and its ingredient links.
func (s *RecipeService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return models.NewValidationError("Recipe id is required")
	}
	return s.recipes.Delete(ctx, id)
}

// SetImage points the recipe at a processed upload.
func (s *RecipeService) SetImage(ctx context.Context, id, imageURL string) (*models.Recipe, error) {
	return s.recipes.SetImage(ctx, id, imageURL)
}

func (s *RecipeService) build(ctx context.Context, in validation.RecipeInput) (*models.Recipe, error) {
	in.Normalize()
	if err := validation.ValidateRecipe(in, s.allowedHosts); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	ids := make([]string, len(in.Ingredients))
	links := make([]models.RecipeIngredient, len(in.Ingredients))
	for i, row := range in.Ingredients {
		ids[i] = row.IngredientID
		links[i] = models.RecipeIngredient{IngredientID: row.IngredientID, Quantity: row.Quantity}
	}

	found, err := s.ingredients.CountExisting(ctx, ids)
	if err != nil {
		return nil, err
	}
	if found != int64(len(ids)) {
		return nil, models.NewValidationError("Recipe references an unknown ingredient")
	}

	return &models.Recipe{
		Name:        in.Name,
		Description: in.Description,
		ImageURL:    in.ImageURL,
		Ingredients: links,
	}, nil
}
