package seed

import (
	"fmt"
	"log"

	"recipebox/internal/models"

	"gorm.io/gorm"
)

// Seeder fills a database with demo data.
type Seeder struct {
	db      *gorm.DB
	factory *Factory
	opts    Options
}

// Summary reports what a run created.
type Summary struct {
	Users       int
	Ingredients int
	Recipes     int
}

// NewSeeder creates a seeder for db.
func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	return &Seeder{db: db, factory: NewFactory(db, opts), opts: opts}
}

// ClearAll removes every row from the catalog and user tables.
func (s *Seeder) ClearAll() error {
	if s.opts.DryRun {
		return nil
	}
	// Children first so foreign keys never block.
	for _, m := range []any{&models.RecipeIngredient{}, &models.Recipe{}, &models.Ingredient{}, &models.User{}} {
		if err := s.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(m).Error; err != nil {
			return fmt.Errorf("clear %T: %w", m, err)
		}
	}
	log.Println("✓ Cleared existing data")
	return nil
}

// Run seeds users, ingredients and recipes according to the options.
func (s *Seeder) Run() (Summary, error) {
	var sum Summary
	if s.opts.Clean {
		if err := s.ClearAll(); err != nil {
			return sum, err
		}
	}

	for i := 0; i < s.opts.Users; i++ {
		if _, err := s.factory.CreateUser(); err != nil {
			return sum, fmt.Errorf("failed to create user: %w", err)
		}
		sum.Users++
	}
	log.Printf("✓ %d users created", sum.Users)

	pool := make([]models.Ingredient, 0, s.opts.Ingredients)
	for i := 0; i < s.opts.Ingredients; i++ {
		ing, err := s.factory.CreateIngredient()
		if err != nil {
			return sum, fmt.Errorf("failed to create ingredient: %w", err)
		}
		pool = append(pool, *ing)
		sum.Ingredients++
	}
	log.Printf("✓ %d ingredients created", sum.Ingredients)

	if len(pool) > 0 {
		for i := 0; i < s.opts.Recipes; i++ {
			if _, err := s.factory.CreateRecipe(pool); err != nil {
				return sum, fmt.Errorf("failed to create recipe: %w", err)
			}
			sum.Recipes++
		}
	}
	log.Printf("✓ %d recipes created", sum.Recipes)
	return sum, nil
}
