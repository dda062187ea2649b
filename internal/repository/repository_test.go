package repository

import (
	"context"
	"sync"
	"testing"

	"recipebox/internal/cache"
	"recipebox/internal/models"
	"recipebox/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, code, appErr.Code)
}

func ptr[T any](v T) *T { return &v }

func seedIngredient(t *testing.T, repo IngredientRepository, name string) *models.Ingredient {
	t.Helper()
	ing := &models.Ingredient{Name: name, Category: models.CategoryOther, Unit: models.UnitPieces}
	require.NoError(t, repo.Create(context.Background(), ing))
	return ing
}

func TestIngredientRepository_CreateThenList(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewIngredientRepository(db)
	ctx := context.Background()

	salt := &models.Ingredient{
		Name:         "Salt",
		Category:     models.CategorySpices,
		Unit:         models.UnitGrams,
		PricePerUnit: ptr(10.0),
	}
	require.NoError(t, repo.Create(ctx, salt))
	assert.NotEmpty(t, salt.ID)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, salt.ID, list[0].ID)
	assert.Equal(t, "Salt", list[0].Name)
	assert.Equal(t, models.CategorySpices, list[0].Category)
	assert.Equal(t, models.UnitGrams, list[0].Unit)
	require.NotNil(t, list[0].PricePerUnit)
	assert.Equal(t, 10.0, *list[0].PricePerUnit)
}

func TestIngredientRepository_ListRacingCreateDoesNotCacheStaleList(t *testing.T) {
	rdb, _ := testutil.NewRedis(t)
	cache.SetClient(rdb)
	t.Cleanup(func() { cache.SetClient(nil) })

	db := testutil.NewSQLiteDB(t)
	repo := NewIngredientRepository(db)
	ctx := context.Background()

	selected := make(chan struct{})
	release := make(chan struct{})
	var hold sync.Once
	require.NoError(t, db.Callback().Query().After("gorm:query").Register("test:hold_first_list", func(tx *gorm.DB) {
		if tx.Statement.Table != "ingredients" {
			return
		}
		hold.Do(func() {
			close(selected)
			<-release
		})
	}))

	done := make(chan error, 1)
	go func() {
		list, err := repo.List(ctx)
		if err == nil && len(list) != 0 {
			err = assert.AnError
		}
		done <- err
	}()

	<-selected
	seedIngredient(t, repo, "Salt")
	close(release)
	require.NoError(t, <-done)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Salt", list[0].Name)
}

func TestIngredientRepository_ListEmpty(t *testing.T) {
	repo := NewIngredientRepository(testutil.NewSQLiteDB(t))
	list, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestIngredientRepository_Delete(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ingredients := NewIngredientRepository(db)
	recipes := NewRecipeRepository(db)
	ctx := context.Background()

	t.Run("missing id", func(t *testing.T) {
		assertCode(t, ingredients.Delete(ctx, "does-not-exist"), models.CodeNotFound)
	})

	t.Run("in use", func(t *testing.T) {
		flour := seedIngredient(t, ingredients, "Flour")
		recipe := &models.Recipe{
			Name:        "Bread",
			Ingredients: []models.RecipeIngredient{{IngredientID: flour.ID, Quantity: 500}},
		}
		require.NoError(t, recipes.Create(ctx, recipe))
		assertCode(t, ingredients.Delete(ctx, flour.ID), models.CodeConflict)
	})

	t.Run("unused", func(t *testing.T) {
		water := seedIngredient(t, ingredients, "Water")
		require.NoError(t, ingredients.Delete(ctx, water.ID))
		_, err := ingredients.GetByID(ctx, water.ID)
		assertCode(t, err, models.CodeNotFound)
	})
}

func TestIngredientRepository_CountExisting(t *testing.T) {
	repo := NewIngredientRepository(testutil.NewSQLiteDB(t))
	ctx := context.Background()
	a := seedIngredient(t, repo, "A")
	b := seedIngredient(t, repo, "B")

	n, err := repo.CountExisting(ctx, []string{a.ID, b.ID, "ghost"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	n, err = repo.CountExisting(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRecipeRepository_CreateKeepsOrder(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ingredients := NewIngredientRepository(db)
	repo := NewRecipeRepository(db)
	ctx := context.Background()

	eggs := seedIngredient(t, ingredients, "Eggs")
	milk := seedIngredient(t, ingredients, "Milk")

	recipe := &models.Recipe{
		Name:        "Omelette",
		Description: ptr("Quick breakfast"),
		Ingredients: []models.RecipeIngredient{
			{IngredientID: milk.ID, Quantity: 0.1},
			{IngredientID: eggs.ID, Quantity: 3},
		},
	}
	require.NoError(t, repo.Create(ctx, recipe))
	require.NotEmpty(t, recipe.ID)
	require.Len(t, recipe.Ingredients, 2)
	assert.Equal(t, milk.ID, recipe.Ingredients[0].IngredientID)
	assert.Equal(t, "Milk", recipe.Ingredients[0].Ingredient.Name)
	assert.Equal(t, eggs.ID, recipe.Ingredients[1].IngredientID)
	assert.Equal(t, 3.0, recipe.Ingredients[1].Quantity)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Eggs", list[0].Ingredients[1].Ingredient.Name)
}

func TestRecipeRepository_UpdateReplacesLinks(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ingredients := NewIngredientRepository(db)
	repo := NewRecipeRepository(db)
	ctx := context.Background()

	a := seedIngredient(t, ingredients, "A")
	b := seedIngredient(t, ingredients, "B")
	c := seedIngredient(t, ingredients, "C")

	recipe := &models.Recipe{
		Name:        "Mix",
		ImageURL:    ptr("https://cdn.example.com/mix.jpg"),
		Ingredients: []models.RecipeIngredient{{IngredientID: a.ID, Quantity: 1}, {IngredientID: b.ID, Quantity: 2}},
	}
	require.NoError(t, repo.Create(ctx, recipe))

	update := &models.Recipe{
		ID:          recipe.ID,
		Name:        "Mix v2",
		Ingredients: []models.RecipeIngredient{{IngredientID: c.ID, Quantity: 5}, {IngredientID: a.ID, Quantity: 4}},
	}
	require.NoError(t, repo.Update(ctx, update))

	stored, err := repo.GetByID(ctx, recipe.ID)
	require.NoError(t, err)
	assert.Equal(t, "Mix v2", stored.Name)
	assert.Nil(t, stored.ImageURL)
	require.Len(t, stored.Ingredients, 2)
	assert.Equal(t, c.ID, stored.Ingredients[0].IngredientID)
	assert.Equal(t, 5.0, stored.Ingredients[0].Quantity)
	assert.Equal(t, a.ID, stored.Ingredients[1].IngredientID)
	assert.Equal(t, 4.0, stored.Ingredients[1].Quantity)

	var links int64
	require.NoError(t, db.Model(&models.RecipeIngredient{}).Where("recipe_id = ?", recipe.ID).Count(&links).Error)
	assert.EqualValues(t, 2, links)
}

func TestRecipeRepository_UpdateMissing(t *testing.T) {
	repo := NewRecipeRepository(testutil.NewSQLiteDB(t))
	err := repo.Update(context.Background(), &models.Recipe{ID: "ghost", Name: "x"})
	assertCode(t, err, models.CodeNotFound)
}

func TestRecipeRepository_UnknownIngredientRollsBack(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewRecipeRepository(db)
	ctx := context.Background()

	err := repo.Create(ctx, &models.Recipe{
		Name:        "Ghost soup",
		Ingredients: []models.RecipeIngredient{{IngredientID: "ghost", Quantity: 1}},
	})
	assertCode(t, err, models.CodeValidation)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestRecipeRepository_Delete(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ingredients := NewIngredientRepository(db)
	repo := NewRecipeRepository(db)
	ctx := context.Background()

	a := seedIngredient(t, ingredients, "A")
	recipe := &models.Recipe{Name: "Solo", Ingredients: []models.RecipeIngredient{{IngredientID: a.ID, Quantity: 1}}}
	require.NoError(t, repo.Create(ctx, recipe))

	require.NoError(t, repo.Delete(ctx, recipe.ID))
	assertCode(t, repo.Delete(ctx, recipe.ID), models.CodeNotFound)

	var links int64
	require.NoError(t, db.Model(&models.RecipeIngredient{}).Count(&links).Error)
	assert.Zero(t, links)

	// The ingredient is free again once the recipe is gone.
	require.NoError(t, ingredients.Delete(ctx, a.ID))
}

func TestRecipeRepository_SetImage(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ingredients := NewIngredientRepository(db)
	repo := NewRecipeRepository(db)
	ctx := context.Background()

	a := seedIngredient(t, ingredients, "A")
	recipe := &models.Recipe{Name: "Pic", Ingredients: []models.RecipeIngredient{{IngredientID: a.ID, Quantity: 1}}}
	require.NoError(t, repo.Create(ctx, recipe))

	updated, err := repo.SetImage(ctx, recipe.ID, "/uploads/abc.webp")
	require.NoError(t, err)
	require.NotNil(t, updated.ImageURL)
	assert.Equal(t, "/uploads/abc.webp", *updated.ImageURL)

	_, err = repo.SetImage(ctx, "ghost", "/uploads/abc.webp")
	assertCode(t, err, models.CodeNotFound)
}

func TestUserRepository(t *testing.T) {
	repo := NewUserRepository(testutil.NewSQLiteDB(t))
	ctx := context.Background()

	user := &models.User{Email: "cook@example.com", Password: "hash"}
	require.NoError(t, repo.Create(ctx, user))
	assert.NotEmpty(t, user.ID)

	found, err := repo.GetByEmail(ctx, "cook@example.com")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, user.ID, found.ID)

	missing, err := repo.GetByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, missing)

	err = repo.Create(ctx, &models.User{Email: "cook@example.com", Password: "hash"})
	assertCode(t, err, models.CodeConflict)

	_, err = repo.GetByID(ctx, "ghost")
	assertCode(t, err, models.CodeNotFound)

	users, err := repo.List(ctx, 10, 0)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestCatalogCache_InvalidatedOnWrite(t *testing.T) {
	rdb, mr := testutil.NewRedis(t)
	cache.SetClient(rdb)
	t.Cleanup(func() { cache.SetClient(nil) })

	repo := NewIngredientRepository(testutil.NewSQLiteDB(t))
	ctx := context.Background()

	_, err := repo.List(ctx)
	require.NoError(t, err)
	assert.True(t, mr.Exists(cache.IngredientsKey))

	seedIngredient(t, repo, "Sugar")
	assert.False(t, mr.Exists(cache.IngredientsKey))

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Sugar", list[0].Name)
}
