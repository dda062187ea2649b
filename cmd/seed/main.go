// Command seed fills the database with demo users, ingredients and recipes.
package main

import (
	"flag"
	"log"

	"recipebox/internal/config"
	"recipebox/internal/database"
	"recipebox/internal/seed"
)

func main() {
	users := flag.Int("users", 3, "Number of users to create")
	ingredients := flag.Int("ingredients", 40, "Number of ingredients to create")
	recipes := flag.Int("recipes", 25, "Number of recipes to create")
	clean := flag.Bool("clean", true, "Clean database before seeding")
	dryRun := flag.Bool("dry-run", false, "Build data without writing it")
	fast := flag.Bool("fast", false, "Use the minimum bcrypt cost for seeded users")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Printf("Target: %d users, %d ingredients, %d recipes, clean=%v", *users, *ingredients, *recipes, *clean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	s := seed.NewSeeder(db, seed.Options{
		Users:       *users,
		Ingredients: *ingredients,
		Recipes:     *recipes,
		Clean:       *clean,
		DryRun:      *dryRun,
		SkipBcrypt:  *fast,
	})
	if _, err := s.Run(); err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	log.Println("✨ All done! Your database is now populated with demo data.")
	log.Printf("📧 All seeded users have the password: %s", seed.DefaultPassword)
}
