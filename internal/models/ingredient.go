// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Category groups ingredients for display and filtering.
type Category string

const (
	CategoryVegetables Category = "VEGETABLES"
	CategoryFruits     Category = "FRUITS"
	CategoryMeat       Category = "MEAT"
	CategoryDairy      Category = "DAIRY"
	CategorySpices     Category = "SPICES"
	CategoryOther      Category = "OTHER"
)

// Categories lists every valid category in display order.
var Categories = []Category{
	CategoryVegetables,
	CategoryFruits,
	CategoryMeat,
	CategoryDairy,
	CategorySpices,
	CategoryOther,
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Unit is the measure an ingredient is priced and dosed in.
type Unit string

const (
	UnitGrams       Unit = "GRAMS"
	UnitKilograms   Unit = "KILOGRAMS"
	UnitLiters      Unit = "LITERS"
	UnitMilliliters Unit = "MILLILITERS"
	UnitPieces      Unit = "PIECES"
)

// Units lists every valid unit in display order.
var Units = []Unit{
	UnitGrams,
	UnitKilograms,
	UnitLiters,
	UnitMilliliters,
	UnitPieces,
}

// Valid reports whether u is one of the known units.
func (u Unit) Valid() bool {
	for _, known := range Units {
		if u == known {
			return true
		}
	}
	return false
}

// Abbreviation is the short label shown next to quantities.
func (u Unit) Abbreviation() string {
	switch u {
	case UnitGrams:
		return "g"
	case UnitKilograms:
		return "kg"
	case UnitLiters:
		return "l"
	case UnitMilliliters:
		return "ml"
	case UnitPieces:
		return "pcs"
	}
	return string(u)
}

// Ingredient is a priced pantry item that recipes reference.
type Ingredient struct {
	ID           string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name         string    `gorm:"not null" json:"name"`
	Category     Category  `gorm:"type:varchar(16);not null" json:"category"`
	Unit         Unit      `gorm:"type:varchar(16);not null" json:"unit"`
	PricePerUnit *float64  `json:"pricePerUnit"`
	Description  *string   `json:"description,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// BeforeCreate assigns a UUID when the caller did not.
func (i *Ingredient) BeforeCreate(_ *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}
