package repository

import (
	"context"
	"errors"

	"recipebox/internal/cache"
	"recipebox/internal/models"
	"recipebox/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RecipeRepository defines persistence operations for recipes and their ingredient links.
type RecipeRepository interface {
	List(ctx context.Context) ([]models.Recipe, error)
	GetByID(ctx context.Context, id string) (*models.Recipe, error)
	Create(ctx context.Context, recipe *models.Recipe) error
	Update(ctx context.Context, recipe *models.Recipe) error
	Delete(ctx context.Context, id string) error
	SetImage(ctx context.Context, id, imageURL string) (*models.Recipe, error)
}

type recipeRepository struct {
	db *gorm.DB
}

// NewRecipeRepository returns a new RecipeRepository implementation.
func NewRecipeRepository(db *gorm.DB) RecipeRepository {
	return &recipeRepository{db: db}
}

func withIngredients(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Ingredients.Ingredient")
}

func (r *recipeRepository) List(ctx context.Context) ([]models.Recipe, error) {
	var recipes []models.Recipe
	err := cache.Aside(ctx, cache.RecipesKey, &recipes, cache.CatalogTTL, func() error {
		defer observability.TrackQuery("list", "recipes")()
		if err := withIngredients(r.db.WithContext(ctx)).Order("created_at ASC, id ASC").Find(&recipes).Error; err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if recipes == nil {
		recipes = []models.Recipe{}
	}
	return recipes, nil
}

func (r *recipeRepository) GetByID(ctx context.Context, id string) (*models.Recipe, error) {
	defer observability.TrackQuery("get", "recipes")()
	return loadRecipe(r.db.WithContext(ctx), id)
}

func loadRecipe(db *gorm.DB, id string) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := withIngredients(db).Where("id = ?", id).First(&recipe).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Recipe", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &recipe, nil
}

// Create stores the recipe and its ingredient links, then reloads it with joined ingredients.
func (r *recipeRepository) Create(ctx context.Context, recipe *models.Recipe) error {
	defer observability.TrackQuery("create", "recipes")()

	links := recipe.Ingredients
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(recipe).Error; err != nil {
			return models.NewInternalError(err)
		}
		if err := createLinks(tx, recipe.ID, links); err != nil {
			return err
		}
		stored, err := loadRecipe(tx, recipe.ID)
		if err != nil {
			return err
		}
		*recipe = *stored
		return nil
	})
	if err != nil {
		return err
	}
	cache.InvalidateRecipes(ctx)
	return nil
}

// Update replaces the recipe's fields and its whole link set in one transaction.
func (r *recipeRepository) Update(ctx context.Context, recipe *models.Recipe) error {
	defer observability.TrackQuery("update", "recipes")()

	links := recipe.Ingredients
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Recipe
		if err := tx.Where("id = ?", recipe.ID).First(&existing).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Recipe", recipe.ID)
			}
			return models.NewInternalError(err)
		}

		if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&models.RecipeIngredient{}).Error; err != nil {
			return models.NewInternalError(err)
		}

		if err := tx.Model(&existing).Updates(map[string]any{
			"name":        recipe.Name,
			"description": recipe.Description,
			"image_url":   recipe.ImageURL,
		}).Error; err != nil {
			return models.NewInternalError(err)
		}

		if err := createLinks(tx, recipe.ID, links); err != nil {
			return err
		}
		stored, err := loadRecipe(tx, recipe.ID)
		if err != nil {
			return err
		}
		*recipe = *stored
		return nil
	})
	if err != nil {
		return err
	}
	cache.InvalidateRecipes(ctx)
	return nil
}

// Delete removes the recipe's links and then the recipe.
func (r *recipeRepository) Delete(ctx context.Context, id string) error {
	defer observability.TrackQuery("delete", "recipes")()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("recipe_id = ?", id).Delete(&models.RecipeIngredient{}).Error; err != nil {
			return models.NewInternalError(err)
		}
		res := tx.Where("id = ?", id).Delete(&models.Recipe{})
		if res.Error != nil {
			return models.NewInternalError(res.Error)
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("Recipe", id)
		}
		return nil
	})
	if err != nil {
		return err
	}
	cache.InvalidateRecipes(ctx)
	return nil
}

func (r *recipeRepository) SetImage(ctx context.Context, id, imageURL string) (*models.Recipe, error) {
	defer observability.TrackQuery("set_image", "recipes")()

	res := r.db.WithContext(ctx).Model(&models.Recipe{}).Where("id = ?", id).Update("image_url", imageURL)
	if res.Error != nil {
		return nil, models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, models.NewNotFoundError("Recipe", id)
	}
	cache.InvalidateRecipes(ctx)
	return loadRecipe(r.db.WithContext(ctx), id)
}

func createLinks(tx *gorm.DB, recipeID string, links []models.RecipeIngredient) error {
	if len(links) == 0 {
		return nil
	}
	rows := make([]models.RecipeIngredient, len(links))
	for i, l := range links {
		rows[i] = models.RecipeIngredient{
			RecipeID:     recipeID,
			IngredientID: l.IngredientID,
			Quantity:     l.Quantity,
			Position:     i,
		}
	}
	if err := tx.Omit(clause.Associations).Create(&rows).Error; err != nil {
		if isForeignKeyError(err) {
			return models.NewValidationError("Recipe references an unknown ingredient")
		}
		if isUniqueConstraintError(err) {
			return models.NewValidationError("Ingredient is listed more than once")
		}
		return models.NewInternalError(err)
	}
	return nil
}
