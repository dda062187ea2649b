package server

import (
	"fmt"
	"io"

	"recipebox/internal/models"
	"recipebox/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// GetRecipes handles GET /api/recipes
// @Summary List recipes
// @Tags recipes
// @Produce json
// @Success 200 {object} object{success=bool,recipes=[]models.Recipe}
// @Router /recipes [get]
func (s *Server) GetRecipes(c *fiber.Ctx) error {
	return respond(c, s.actions.GetRecipes(c.UserContext()), "recipes", fiber.StatusOK)
}

// GetRecipe handles GET /api/recipes/:id
// @Summary Get recipe
// @Tags recipes
// @Produce json
// @Param id path string true "Recipe ID"
// @Success 200 {object} object{success=bool,recipe=models.Recipe}
// @Failure 404 {object} models.ErrorResponse
// @Router /recipes/{id} [get]
func (s *Server) GetRecipe(c *fiber.Ctx) error {
	return respond(c, s.actions.GetRecipe(c.UserContext(), c.Params("id")), "recipe", fiber.StatusOK)
}

// CreateRecipe handles POST /api/recipes
// @Summary Create recipe
// @Description Accepts a JSON payload or a form with name, description, imageUrl and ingredient_<n>/quantity_<n> rows
// @Tags recipes
// @Accept json,x-www-form-urlencoded,mpfd
// @Produce json
// @Security BearerAuth
// @Param request body validation.RecipeInput true "Recipe"
// @Success 201 {object} object{success=bool,recipe=models.Recipe}
// @Failure 400 {object} models.ErrorResponse
// @Router /recipes [post]
func (s *Server) CreateRecipe(c *fiber.Ctx) error {
	ctx := c.UserContext()
	if isJSON(c) {
		var in validation.RecipeInput
		if err := c.BodyParser(&in); err != nil {
			return invalidBody(c)
		}
		return respond(c, s.actions.CreateRecipeInput(ctx, in), "recipe", fiber.StatusCreated)
	}

	form, err := formValues(c)
	if err != nil {
		return invalidBody(c)
	}
	return respond(c, s.actions.CreateRecipe(ctx, form), "recipe", fiber.StatusCreated)
}

// UpdateRecipe handles PUT /api/recipes/:id
// @Summary Update recipe
// @Description Replaces the recipe fields and its whole ingredient list
// @Tags recipes
// @Accept json,x-www-form-urlencoded,mpfd
// @Produce json
// @Security BearerAuth
// @Param id path string true "Recipe ID"
// @Param request body validation.RecipeInput true "Recipe"
// @Success 200 {object} object{success=bool,recipe=models.Recipe}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /recipes/{id} [put]
func (s *Server) UpdateRecipe(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id := c.Params("id")
	if isJSON(c) {
		var in validation.RecipeInput
		if err := c.BodyParser(&in); err != nil {
			return invalidBody(c)
		}
		return respond(c, s.actions.UpdateRecipeInput(ctx, id, in), "recipe", fiber.StatusOK)
	}

	form, err := formValues(c)
	if err != nil {
		return invalidBody(c)
	}
	return respond(c, s.actions.UpdateRecipe(ctx, id, form), "recipe", fiber.StatusOK)
}

// DeleteRecipe handles DELETE /api/recipes/:id
// @Summary Delete recipe
// @Tags recipes
// @Produce json
// @Security BearerAuth
// @Param id path string true "Recipe ID"
// @Success 200 {object} object{success=bool}
// @Failure 404 {object} models.ErrorResponse
// @Router /recipes/{id} [delete]
func (s *Server) DeleteRecipe(c *fiber.Ctx) error {
	return respond(c, s.actions.DeleteRecipe(c.UserContext(), c.Params("id")), "", fiber.StatusOK)
}

// UploadRecipeImage handles POST /api/recipes/:id/image
// @Summary Upload recipe photo
// @Description Stores a JPEG, PNG or WebP photo as WebP and sets the recipe's imageUrl
// @Tags recipes
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param id path string true "Recipe ID"
// @Param image formData file true "Photo"
// @Success 200 {object} object{success=bool,recipe=models.Recipe}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /recipes/{id}/image [post]
func (s *Server) UploadRecipeImage(c *fiber.Ctx) error {
	file, err := c.FormFile("image")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("No file uploaded"))
	}
	if file.Size > s.images.MaxUploadBytes() {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", s.images.MaxUploadBytes()/(1024*1024))))
	}

	src, err := file.Open()
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Unable to read uploaded file"))
	}
	defer func() { _ = src.Close() }()

	content, err := io.ReadAll(src)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Unable to read uploaded file"))
	}

	return respond(c, s.actions.AttachRecipeImage(c.UserContext(), c.Params("id"), content), "recipe", fiber.StatusOK)
}
