package server

import (
	"recipebox/internal/content"
	"recipebox/internal/models"
	"recipebox/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// Pages are served as JSON view documents: the data a page renders plus the site layout.

type layoutView struct {
	Title       string            `json:"title"`
	Description string            `json:"description"`
	NavItems    []content.NavItem `json:"navItems"`
}

type optionView struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

func (s *Server) setupPages(app *fiber.App) {
	app.Get("/", s.HomePage)
	app.Get("/ingredients", s.IngredientsPage)
	app.Get("/recipes/new", s.NewRecipePage)
	app.Get("/recipes/:id", s.EditRecipePage)
	app.Get("/error", s.ErrorPage)

	// Routes registered above win over content pages with the same path.
	for _, path := range s.site.Paths() {
		app.Get(path, s.ContentPage)
	}
}

func (s *Server) view(c *fiber.Ctx, status int, page string, data fiber.Map) error {
	body := fiber.Map{
		"success": true,
		"page":    page,
		"title":   s.site.TitleFor(c.Path()),
		"layout": layoutView{
			Title:       s.site.Title,
			Description: s.site.Description,
			NavItems:    s.site.NavItems,
		},
	}
	for k, v := range data {
		body[k] = v
	}
	return c.Status(status).JSON(body)
}

// HomePage handles GET /
func (s *Server) HomePage(c *fiber.Ctx) error {
	res := s.actions.GetRecipes(c.UserContext())
	if !res.Success() {
		return respond(c, res, "", fiber.StatusOK)
	}
	return s.view(c, fiber.StatusOK, "home", fiber.Map{"recipes": res.Value()})
}

// IngredientsPage handles GET /ingredients
func (s *Server) IngredientsPage(c *fiber.Ctx) error {
	res := s.actions.GetIngredients(c.UserContext())
	if !res.Success() {
		return respond(c, res, "", fiber.StatusOK)
	}
	return s.view(c, fiber.StatusOK, "ingredients", fiber.Map{
		"ingredients": res.Value(),
		"categories":  categoryOptions(),
		"units":       unitOptions(),
	})
}

// NewRecipePage handles GET /recipes/new
func (s *Server) NewRecipePage(c *fiber.Ctx) error {
	res := s.actions.GetIngredients(c.UserContext())
	if !res.Success() {
		return respond(c, res, "", fiber.StatusOK)
	}
	return s.view(c, fiber.StatusOK, "recipe-new", fiber.Map{
		"ingredients":    res.Value(),
		"maxIngredients": validation.MaxRecipeIngredients,
	})
}

// EditRecipePage handles GET /recipes/:id
func (s *Server) EditRecipePage(c *fiber.Ctx) error {
	ctx := c.UserContext()
	recipe := s.actions.GetRecipe(ctx, c.Params("id"))
	if !recipe.Success() {
		if recipe.Kind() == models.CodeNotFound {
			return models.RespondWithError(c, fiber.StatusNotFound,
				&models.AppError{Code: models.CodeNotFound, Message: "Recipe not found"})
		}
		return respond(c, recipe, "", fiber.StatusOK)
	}
	ingredients := s.actions.GetIngredients(ctx)
	if !ingredients.Success() {
		return respond(c, ingredients, "", fiber.StatusOK)
	}
	return s.view(c, fiber.StatusOK, "recipe-edit", fiber.Map{
		"recipe":         recipe.Value(),
		"ingredients":    ingredients.Value(),
		"maxIngredients": validation.MaxRecipeIngredients,
	})
}

// ErrorPage handles GET /error?message=
func (s *Server) ErrorPage(c *fiber.Ctx) error {
	message := c.Query("message")
	if message == "" {
		message = "Unknown error"
	}
	return s.view(c, fiber.StatusOK, "error", fiber.Map{"message": message})
}

// ContentPage serves a configured static content page.
func (s *Server) ContentPage(c *fiber.Ctx) error {
	page, err := s.site.Page(c.Path())
	if err != nil {
		return models.RespondWithError(c, fiber.StatusNotFound, err)
	}
	return s.view(c, fiber.StatusOK, "content", fiber.Map{"content": page})
}

// GetPage handles GET /api/pages?path=
// @Summary Content page
// @Description Returns the sanitized HTML of a configured content page
// @Tags pages
// @Produce json
// @Param path query string true "Page path, e.g. /about"
// @Success 200 {object} object{success=bool,page=content.Page}
// @Failure 404 {object} models.ErrorResponse
// @Router /pages [get]
func (s *Server) GetPage(c *fiber.Ctx) error {
	page, err := s.site.Page(c.Query("path"))
	if err != nil {
		return models.RespondWithError(c, fiber.StatusNotFound, err)
	}
	return c.JSON(fiber.Map{"success": true, "page": page})
}

func categoryOptions() []optionView {
	out := make([]optionView, 0, len(models.Categories))
	for _, cat := range models.Categories {
		out = append(out, optionView{Value: string(cat), Label: categoryLabels[cat]})
	}
	return out
}

func unitOptions() []optionView {
	out := make([]optionView, 0, len(models.Units))
	for _, u := range models.Units {
		out = append(out, optionView{Value: string(u), Label: u.Abbreviation()})
	}
	return out
}

var categoryLabels = map[models.Category]string{
	models.CategoryVegetables: "Vegetables",
	models.CategoryFruits:     "Fruits",
	models.CategoryMeat:       "Meat",
	models.CategoryDairy:      "Dairy",
	models.CategorySpices:     "Spices",
	models.CategoryOther:      "Other",
}
