package server

import (
	"recipebox/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// GetIngredients handles GET /api/ingredients
// @Summary List ingredients
// @Tags ingredients
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{success=bool,ingredients=[]models.Ingredient}
// @Failure 401 {object} models.ErrorResponse
// @Router /ingredients [get]
func (s *Server) GetIngredients(c *fiber.Ctx) error {
	return respond(c, s.actions.GetIngredients(c.UserContext()), "ingredients", fiber.StatusOK)
}

// CreateIngredient handles POST /api/ingredients
// @Summary Create ingredient
// @Description Accepts a JSON payload or a form with name, category, unit, pricePerUnit and description
// @Tags ingredients
// @Accept json,x-www-form-urlencoded,mpfd
// @Produce json
// @Security BearerAuth
// @Param request body validation.IngredientInput true "Ingredient"
// @Success 201 {object} object{success=bool,ingredient=models.Ingredient}
// @Failure 400 {object} models.ErrorResponse
// @Router /ingredients [post]
func (s *Server) CreateIngredient(c *fiber.Ctx) error {
	ctx := c.UserContext()
	if isJSON(c) {
		var in validation.IngredientInput
		if err := c.BodyParser(&in); err != nil {
			return invalidBody(c)
		}
		return respond(c, s.actions.CreateIngredientInput(ctx, in), "ingredient", fiber.StatusCreated)
	}

	form, err := formValues(c)
	if err != nil {
		return invalidBody(c)
	}
	return respond(c, s.actions.CreateIngredient(ctx, form), "ingredient", fiber.StatusCreated)
}

// DeleteIngredient handles DELETE /api/ingredients/:id
// @Summary Delete ingredient
// @Tags ingredients
// @Produce json
// @Security BearerAuth
// @Param id path string true "Ingredient ID"
// @Success 200 {object} object{success=bool}
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /ingredients/{id} [delete]
func (s *Server) DeleteIngredient(c *fiber.Ctx) error {
	return respond(c, s.actions.DeleteIngredient(c.UserContext(), c.Params("id")), "", fiber.StatusOK)
}
