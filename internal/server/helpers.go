package server

import (
	"net/url"
	"strings"

	"recipebox/internal/models"

	"github.com/gofiber/fiber/v2"
)

// respond writes a Result as the wire envelope. On success the payload goes under key;
// an empty key writes only the success flag.
func respond[T any](c *fiber.Ctx, res models.Result[T], key string, okStatus int) error {
	if _, err := res.Unwrap(); err != nil {
		return models.RespondWithError(c, models.StatusForCode(res.Kind()), err)
	}
	body := fiber.Map{"success": true}
	if key != "" {
		body[key] = res.Value()
	}
	return c.Status(okStatus).JSON(body)
}

func isJSON(c *fiber.Ctx) bool {
	return strings.HasPrefix(string(c.Request().Header.ContentType()), fiber.MIMEApplicationJSON)
}

// formValues collects a urlencoded or multipart body into a form bag.
func formValues(c *fiber.Ctx) (url.Values, error) {
	out := url.Values{}
	if strings.HasPrefix(string(c.Request().Header.ContentType()), fiber.MIMEMultipartForm) {
		mf, err := c.MultipartForm()
		if err != nil {
			return nil, err
		}
		for k, v := range mf.Value {
			out[k] = append(out[k], v...)
		}
		return out, nil
	}
	c.Request().PostArgs().VisitAll(func(k, v []byte) {
		out.Add(string(k), string(v))
	})
	return out, nil
}

func invalidBody(c *fiber.Ctx) error {
	return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Invalid request body"))
}
