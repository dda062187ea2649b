// Package service contains the business rules behind the catalog and session actions.
package service

import (
	"context"

	"recipebox/internal/models"
	"recipebox/internal/repository"
	"recipebox/internal/validation"
)

// IngredientService validates and persists ingredients.
type IngredientService struct {
	repo repository.IngredientRepository
}

// NewIngredientService returns an IngredientService backed by repo.
func NewIngredientService(repo repository.IngredientRepository) *IngredientService {
	return &IngredientService{repo: repo}
}

// List returns every ingredient.
func (s *IngredientService) List(ctx context.Context) ([]models.Ingredient, error) {
	return s.repo.List(ctx)
}

// Create validates in and stores a new ingredient.
func (s *IngredientService) Create(ctx context.Context, in validation.IngredientInput) (*models.Ingredient, error) {
	in.Normalize()
	if err := validation.ValidateIngredient(in); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	ingredient := &models.Ingredient{
		Name:         in.Name,
		Category:     in.Category,
		Unit:         in.Unit,
		PricePerUnit: in.PricePerUnit,
		Description:  in.Description,
	}
	if err := s.repo.Create(ctx, ingredient); err != nil {
		return nil, err
	}
	return ingredient, nil
}

// Delete removes the ingredient with id.
func (s *IngredientService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return models.NewValidationError("Ingredient id is required")
	}
	return s.repo.Delete(ctx, id)
}
