// Package seed provides helpers to create demo data for the recipebox
// database. These helpers are intended for development and testing only.
package seed

import (
	"context"
	"fmt"
	"log"
	"math"
	"math/rand"
	"strings"

	"recipebox/internal/models"
	"recipebox/internal/repository"
	"recipebox/internal/validation"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the password of every seeded user.
const DefaultPassword = "password123"

// Options control what the seeder creates.
type Options struct {
	Users       int
	Ingredients int
	Recipes     int
	Clean       bool
	// DryRun builds entities without writing them.
	DryRun bool
	// SkipBcrypt stores a cheap hash for fast local seeding.
	SkipBcrypt bool
	// Seed makes generated data reproducible when non-zero.
	Seed int64
}

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db      *gorm.DB
	recipes repository.RecipeRepository
	opts    Options
	rng     *rand.Rand
}

// NewFactory creates a Factory bound to db. db may be nil in DryRun mode.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	seed := opts.Seed
	if seed == 0 {
		seed = rand.Int63()
	}
	gofakeit.Seed(seed)
	f := &Factory{db: db, opts: opts, rng: rand.New(rand.NewSource(seed))}
	if db != nil {
		f.recipes = repository.NewRecipeRepository(db)
	}
	return f
}

// CreateUser constructs and persists a user with DefaultPassword.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	cost := bcrypt.DefaultCost
	if f.opts.SkipBcrypt {
		cost = bcrypt.MinCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Email:    strings.ToLower(fmt.Sprintf("%s.%d@%s", gofakeit.Username(), gofakeit.Number(100, 999), gofakeit.DomainName())),
		Password: string(hashed),
	}
	for _, override := range overrides {
		override(user)
	}

	if f.opts.DryRun {
		user.ID = uuid.NewString()
		log.Printf("[dry-run] CreateUser: %s", user.Email)
		return user, nil
	}
	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// BuildIngredient returns an unsaved ingredient with a food name matching its category.
func (f *Factory) BuildIngredient(overrides ...func(*models.Ingredient)) *models.Ingredient {
	category := models.Categories[f.rng.Intn(len(models.Categories))]
	unit := models.Units[f.rng.Intn(len(models.Units))]

	ing := &models.Ingredient{
		Name:     foodName(category),
		Category: category,
		Unit:     unit,
	}
	if f.rng.Intn(4) > 0 {
		price := math.Round(gofakeit.Price(0.2, 25)*100) / 100
		ing.PricePerUnit = &price
	}
	if f.rng.Intn(2) == 0 {
		desc := gofakeit.Sentence(8)
		ing.Description = &desc
	}
	for _, override := range overrides {
		override(ing)
	}
	return ing
}

// CreateIngredient builds and persists an ingredient.
func (f *Factory) CreateIngredient(overrides ...func(*models.Ingredient)) (*models.Ingredient, error) {
	ing := f.BuildIngredient(overrides...)
	if f.opts.DryRun {
		ing.ID = uuid.NewString()
		return ing, nil
	}
	if err := f.db.Create(ing).Error; err != nil {
		return nil, err
	}
	return ing, nil
}

// BuildRecipe returns an unsaved recipe using between one and
// validation.MaxRecipeIngredients distinct ingredients from pool.
func (f *Factory) BuildRecipe(pool []models.Ingredient, overrides ...func(*models.Recipe)) *models.Recipe {
	desc := gofakeit.Sentence(12)
	recipe := &models.Recipe{
		Name:        strings.TrimSpace(gofakeit.Dinner()),
		Description: &desc,
	}

	n := min(len(pool), 1+f.rng.Intn(validation.MaxRecipeIngredients))
	for pos, idx := range f.rng.Perm(len(pool))[:n] {
		recipe.Ingredients = append(recipe.Ingredients, models.RecipeIngredient{
			IngredientID: pool[idx].ID,
			Quantity:     float64(1 + f.rng.Intn(500)),
			Position:     pos,
		})
	}
	for _, override := range overrides {
		override(recipe)
	}
	return recipe
}

// CreateRecipe builds and persists a recipe with its ingredient rows.
func (f *Factory) CreateRecipe(pool []models.Ingredient, overrides ...func(*models.Recipe)) (*models.Recipe, error) {
	if len(pool) == 0 {
		return nil, fmt.Errorf("recipe needs at least one ingredient")
	}
	recipe := f.BuildRecipe(pool, overrides...)
	if f.opts.DryRun {
		recipe.ID = uuid.NewString()
		return recipe, nil
	}
	if err := f.recipes.Create(context.Background(), recipe); err != nil {
		return nil, err
	}
	return recipe, nil
}

func foodName(c models.Category) string {
	switch c {
	case models.CategoryVegetables:
		return gofakeit.Vegetable()
	case models.CategoryFruits:
		return gofakeit.Fruit()
	case models.CategoryMeat:
		return gofakeit.RandomString([]string{"Chicken breast", "Beef mince", "Pork loin", "Lamb shoulder", "Turkey thigh", "Bacon"})
	case models.CategoryDairy:
		return gofakeit.RandomString([]string{"Milk", "Butter", "Cream", "Yogurt", "Cheddar", "Sour cream"})
	case models.CategorySpices:
		return gofakeit.RandomString([]string{"Salt", "Black pepper", "Paprika", "Cumin", "Cinnamon", "Bay leaf"})
	default:
		return gofakeit.RandomString([]string{"Flour", "Sugar", "Rice", "Olive oil", "Eggs", "Honey"})
	}
}
