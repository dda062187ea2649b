package validation

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"recipebox/internal/models"
)

const (
	// MaxRecipeIngredients bounds the ingredient rows of one recipe.
	MaxRecipeIngredients = 10

	ingredientFieldPrefix = "ingredient_"
	quantityFieldPrefix   = "quantity_"

	// UploadsPathPrefix is where locally processed recipe images are served.
	UploadsPathPrefix = "/uploads/"
)

// IngredientInput is the validated shape of an ingredient submission.
type IngredientInput struct {
	Name         string          `json:"name"`
	Category     models.Category `json:"category"`
	Unit         models.Unit     `json:"unit"`
	PricePerUnit *float64        `json:"pricePerUnit"`
	Description  *string         `json:"description"`
}

// Normalize trims text fields and drops an empty description.
func (in *IngredientInput) Normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Category = models.Category(strings.ToUpper(strings.TrimSpace(string(in.Category))))
	in.Unit = models.Unit(strings.ToUpper(strings.TrimSpace(string(in.Unit))))
	in.Description = optionalString(in.Description)
}

// ValidateIngredient checks an ingredient submission.
func ValidateIngredient(in IngredientInput) error {
	if in.Name == "" {
		return errors.New("Name is required")
	}
	if !in.Category.Valid() {
		return errors.New("Invalid category")
	}
	if !in.Unit.Valid() {
		return errors.New("Invalid unit")
	}
	if in.PricePerUnit != nil {
		p := *in.PricePerUnit
		if math.IsNaN(p) || math.IsInf(p, 0) || p < 0 {
			return errors.New("Price must be a non-negative number")
		}
	}
	return nil
}

// ParseIngredientForm reads an ingredient from a form bag. An empty price is null;
// a price that does not parse is rejected rather than stored as NaN.
func ParseIngredientForm(form url.Values) (IngredientInput, error) {
	in := IngredientInput{
		Name:     form.Get("name"),
		Category: models.Category(form.Get("category")),
		Unit:     models.Unit(form.Get("unit")),
	}
	if desc := form.Get("description"); desc != "" {
		in.Description = &desc
	}

	if raw := strings.TrimSpace(form.Get("pricePerUnit")); raw != "" {
		price, err := parseFinite(raw)
		if err != nil {
			return in, errors.New("Price must be a non-negative number")
		}
		in.PricePerUnit = &price
	}

	in.Normalize()
	return in, ValidateIngredient(in)
}

// RecipeIngredientInput is one ingredient row of a recipe submission.
type RecipeIngredientInput struct {
	IngredientID string  `json:"ingredientId"`
	Quantity     float64 `json:"quantity"`
}

// RecipeInput is the validated shape of a recipe submission.
type RecipeInput struct {
	Name        string                  `json:"name"`
	Description *string                 `json:"description"`
	ImageURL    *string                 `json:"imageUrl"`
	Ingredients []RecipeIngredientInput `json:"ingredients"`
}

// Normalize trims text fields and drops empty optional values.
func (in *RecipeInput) Normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = optionalString(in.Description)
	in.ImageURL = optionalString(in.ImageURL)
	for i := range in.Ingredients {
		in.Ingredients[i].IngredientID = strings.TrimSpace(in.Ingredients[i].IngredientID)
	}
}

// ValidateRecipe checks a recipe submission. allowedHosts is the remote image host allow-list.
func ValidateRecipe(in RecipeInput, allowedHosts []string) error {
	if in.Name == "" || len(in.Ingredients) == 0 {
		return errors.New("Name and at least one ingredient are required")
	}
	if len(in.Ingredients) > MaxRecipeIngredients {
		return fmt.Errorf("A recipe can have at most %d ingredients", MaxRecipeIngredients)
	}

	seen := make(map[string]struct{}, len(in.Ingredients))
	for i, row := range in.Ingredients {
		if row.IngredientID == "" {
			return fmt.Errorf("Select an ingredient for row %d", i+1)
		}
		if _, dup := seen[row.IngredientID]; dup {
			return fmt.Errorf("Ingredient in row %d is already listed", i+1)
		}
		seen[row.IngredientID] = struct{}{}

		q := row.Quantity
		if math.IsNaN(q) || math.IsInf(q, 0) || q <= 0 {
			return fmt.Errorf("Quantity in row %d must be a positive number", i+1)
		}
	}

	if in.ImageURL != nil {
		if err := ValidateImageURL(*in.ImageURL, allowedHosts); err != nil {
			return err
		}
	}
	return nil
}

// ValidateImageURL accepts locally served uploads or https URLs on an allowed host.
func ValidateImageURL(raw string, allowedHosts []string) error {
	if strings.HasPrefix(raw, UploadsPathPrefix) && !strings.Contains(raw, "..") {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return errors.New("Invalid image URL")
	}
	if u.Scheme != "https" {
		return errors.New("Image URL must use https")
	}
	host := strings.ToLower(u.Hostname())
	for _, allowed := range allowedHosts {
		if host == allowed {
			return nil
		}
	}
	return fmt.Errorf("Images from %s are not allowed", host)
}

// ParseRecipeForm reads a recipe from a form bag. Ingredient rows come from
// ingredient_<n> keys, each paired with quantity_<n>, ordered by n.
func ParseRecipeForm(form url.Values, allowedHosts []string) (RecipeInput, error) {
	in := RecipeInput{Name: form.Get("name")}
	if desc := form.Get("description"); desc != "" {
		in.Description = &desc
	}
	if img := form.Get("imageUrl"); img != "" {
		in.ImageURL = &img
	}

	type row struct {
		index int
		RecipeIngredientInput
	}
	var rows []row
	for key, values := range form {
		if !strings.HasPrefix(key, ingredientFieldPrefix) || len(values) == 0 {
			continue
		}
		suffix := strings.TrimPrefix(key, ingredientFieldPrefix)
		index, err := strconv.Atoi(suffix)
		if err != nil || index < 0 {
			return in, fmt.Errorf("Malformed ingredient field %q", key)
		}

		rawQty := strings.TrimSpace(form.Get(quantityFieldPrefix + suffix))
		qty, err := parseFinite(rawQty)
		if err != nil {
			return in, fmt.Errorf("Quantity for %q must be a positive number", key)
		}
		rows = append(rows, row{
			index: index,
			RecipeIngredientInput: RecipeIngredientInput{
				IngredientID: values[0],
				Quantity:     qty,
			},
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].index < rows[j].index })
	for _, r := range rows {
		in.Ingredients = append(in.Ingredients, r.RecipeIngredientInput)
	}

	in.Normalize()
	return in, ValidateRecipe(in, allowedHosts)
}

func parseFinite(raw string) (float64, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.New("not a finite number")
	}
	return v, nil
}

func optionalString(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
