package server

import (
	"time"

	"recipebox/internal/middleware"
	"recipebox/internal/models"
	"recipebox/internal/service"
	"recipebox/internal/validation"

	"github.com/gofiber/fiber/v2"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles POST /api/auth/register
// @Summary Register
// @Description Create an account with email and password
// @Tags auth
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param request body validation.RegistrationInput true "Registration form"
// @Success 201 {object} object{success=bool,user=models.User}
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /auth/register [post]
func (s *Server) Register(c *fiber.Ctx) error {
	var in validation.RegistrationInput
	if isJSON(c) {
		if err := c.BodyParser(&in); err != nil {
			return invalidBody(c)
		}
	} else {
		in = validation.RegistrationInput{
			Email:           c.FormValue("email"),
			Password:        c.FormValue("password"),
			ConfirmPassword: c.FormValue("confirmPassword"),
		}
	}
	return respond(c, s.actions.Register(c.UserContext(), in), "user", fiber.StatusCreated)
}

// SignIn handles POST /api/auth/signin
// @Summary Sign in
// @Description Check credentials, open a session and set the session cookie
// @Tags auth
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param request body object{email=string,password=string} true "Credentials"
// @Success 200 {object} object{success=bool,session=models.Session}
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/signin [post]
func (s *Server) SignIn(c *fiber.Ctx) error {
	var req credentialsRequest
	if isJSON(c) {
		// A body that does not parse fails the same way as wrong credentials.
		if err := c.BodyParser(&req); err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError(service.InvalidCredentialsMessage))
		}
	} else {
		req = credentialsRequest{Email: c.FormValue("email"), Password: c.FormValue("password")}
	}

	res := s.actions.SignIn(c.UserContext(), req.Email, req.Password)
	if res.Success() {
		session := res.Value()
		c.Cookie(&fiber.Cookie{
			Name:     s.cookieName,
			Value:    session.Token,
			Path:     "/",
			Expires:  session.Expires,
			HTTPOnly: true,
			Secure:   s.config.IsProduction(),
			SameSite: fiber.CookieSameSiteLaxMode,
		})
	}
	return respond(c, res, "session", fiber.StatusOK)
}

// SignOut handles POST /api/auth/signout
// @Summary Sign out
// @Description Revoke the current session and clear the session cookie
// @Tags auth
// @Produce json
// @Success 200 {object} object{success=bool}
// @Router /auth/signout [post]
func (s *Server) SignOut(c *fiber.Ctx) error {
	token := middleware.SessionToken(c, s.cookieName)
	res := s.actions.SignOut(c.UserContext(), token)

	c.Cookie(&fiber.Cookie{
		Name:     s.cookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HTTPOnly: true,
		Secure:   s.config.IsProduction(),
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return respond(c, res, "", fiber.StatusOK)
}

// GetSession handles GET /api/auth/session
// @Summary Current session
// @Description Returns the session for the request's token, or null
// @Tags auth
// @Produce json
// @Success 200 {object} object{success=bool,session=models.Session}
// @Router /auth/session [get]
func (s *Server) GetSession(c *fiber.Ctx) error {
	token := middleware.SessionToken(c, s.cookieName)
	return respond(c, s.actions.GetSession(c.UserContext(), token), "session", fiber.StatusOK)
}
