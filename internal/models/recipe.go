package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Recipe is a named list of ingredient quantities.
type Recipe struct {
	ID          string             `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name        string             `gorm:"not null" json:"name"`
	Description *string            `json:"description"`
	ImageURL    *string            `json:"imageUrl"`
	Ingredients []RecipeIngredient `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE" json:"ingredients"`
	CreatedAt   time.Time          `json:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt"`
}

// BeforeCreate assigns a UUID when the caller did not.
func (r *Recipe) BeforeCreate(_ *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// RecipeIngredient links a recipe to an ingredient with a quantity.
// Position preserves the order rows were submitted in.
type RecipeIngredient struct {
	ID           string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	RecipeID     string     `gorm:"type:varchar(36);not null;index" json:"recipeId"`
	IngredientID string     `gorm:"type:varchar(36);not null;index" json:"ingredientId"`
	Ingredient   Ingredient `gorm:"foreignKey:IngredientID;constraint:OnDelete:RESTRICT" json:"ingredient"`
	Quantity     float64    `gorm:"not null" json:"quantity"`
	Position     int        `gorm:"not null;default:0" json:"position"`
}

// BeforeCreate assigns a UUID when the caller did not.
func (ri *RecipeIngredient) BeforeCreate(_ *gorm.DB) error {
	if ri.ID == "" {
		ri.ID = uuid.NewString()
	}
	return nil
}
