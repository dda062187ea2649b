package repository

import (
	"context"
	"errors"

	"recipebox/internal/cache"
	"recipebox/internal/models"
	"recipebox/internal/observability"

	"gorm.io/gorm"
)

// IngredientRepository defines persistence operations for ingredients.
type IngredientRepository interface {
	List(ctx context.Context) ([]models.Ingredient, error)
	GetByID(ctx context.Context, id string) (*models.Ingredient, error)
	Create(ctx context.Context, ingredient *models.Ingredient) error
	Delete(ctx context.Context, id string) error
	CountExisting(ctx context.Context, ids []string) (int64, error)
}

type ingredientRepository struct {
	db *gorm.DB
}

// NewIngredientRepository returns a new IngredientRepository implementation.
func NewIngredientRepository(db *gorm.DB) IngredientRepository {
	return &ingredientRepository{db: db}
}

func (r *ingredientRepository) List(ctx context.Context) ([]models.Ingredient, error) {
	var ingredients []models.Ingredient
	err := cache.Aside(ctx, cache.IngredientsKey, &ingredients, cache.CatalogTTL, func() error {
		defer observability.TrackQuery("list", "ingredients")()
		if err := r.db.WithContext(ctx).Order("created_at ASC, id ASC").Find(&ingredients).Error; err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if ingredients == nil {
		ingredients = []models.Ingredient{}
	}
	return ingredients, nil
}

func (r *ingredientRepository) GetByID(ctx context.Context, id string) (*models.Ingredient, error) {
	defer observability.TrackQuery("get", "ingredients")()

	ingredient, err := findBy[models.Ingredient](ctx, r.db, "id", id)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, models.NewNotFoundError("Ingredient", id)
	case err != nil:
		return nil, models.NewInternalError(err)
	}
	return ingredient, nil
}

func (r *ingredientRepository) Create(ctx context.Context, ingredient *models.Ingredient) error {
	defer observability.TrackQuery("create", "ingredients")()

	if err := r.db.WithContext(ctx).Create(ingredient).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateIngredients(ctx)
	return nil
}

// Delete removes an ingredient. Ingredients still used by a recipe are a conflict.
func (r *ingredientRepository) Delete(ctx context.Context, id string) error {
	defer observability.TrackQuery("delete", "ingredients")()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var uses int64
		if err := tx.Model(&models.RecipeIngredient{}).Where("ingredient_id = ?", id).Count(&uses).Error; err != nil {
			return models.NewInternalError(err)
		}
		if uses > 0 {
			return models.NewConflictError("Ingredient is used by a recipe")
		}

		res := tx.Where("id = ?", id).Delete(&models.Ingredient{})
		if res.Error != nil {
			if isForeignKeyError(res.Error) {
				return models.NewConflictError("Ingredient is used by a recipe")
			}
			return models.NewInternalError(res.Error)
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("Ingredient", id)
		}
		return nil
	})
	if err != nil {
		return err
	}
	cache.InvalidateIngredients(ctx)
	return nil
}

// CountExisting returns how many of ids name stored ingredients.
func (r *ingredientRepository) CountExisting(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	defer observability.TrackQuery("count", "ingredients")()

	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Ingredient{}).Where("id IN ?", ids).Count(&n).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}
