package middleware

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubVerifier map[string]string

func (s stubVerifier) VerifySession(_ context.Context, token string) (string, error) {
	if id, ok := s[token]; ok {
		return id, nil
	}
	return "", errors.New("invalid token")
}

func newGateApp() *fiber.App {
	v := stubVerifier{"good": "user-1"}
	app := fiber.New()
	app.Use(PageGate(v, SessionCookieName(false)))
	handler := func(c *fiber.Ctx) error {
		uid, _ := c.Locals("userID").(string)
		return c.SendString("ok:" + uid)
	}
	app.Get("/", handler)
	app.Get("/about", handler)
	app.Get("/ingredients", handler)
	app.Get("/recipes/new", handler)
	app.Get("/recipes/:id", handler)
	return app
}

func TestPageGate(t *testing.T) {
	app := newGateApp()

	tests := []struct {
		name       string
		path       string
		cookie     string
		wantStatus int
	}{
		{"public home", "/", "", fiber.StatusOK},
		{"public about", "/about", "", fiber.StatusOK},
		{"ingredients anonymous", "/ingredients", "", fiber.StatusFound},
		{"new recipe anonymous", "/recipes/new", "", fiber.StatusFound},
		{"recipe edit anonymous", "/recipes/abc", "", fiber.StatusFound},
		{"bad token", "/ingredients", "bad", fiber.StatusFound},
		{"signed in", "/ingredients", "good", fiber.StatusOK},
		{"signed in edit", "/recipes/abc", "good", fiber.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.path, nil)
			if tt.cookie != "" {
				req.Header.Set("Cookie", "session_token="+tt.cookie)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			if tt.wantStatus == fiber.StatusFound {
				assert.Equal(t, "/error?message=Insufficient%20permissions", resp.Header.Get("Location"))
			}
		})
	}
}

func TestRequireSession(t *testing.T) {
	v := stubVerifier{"good": "user-1"}
	app := fiber.New()
	app.Get("/api/me", RequireSession(v, SessionCookieName(false)), func(c *fiber.Ctx) error {
		return c.SendString(c.Locals("userID").(string))
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/api/me", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	req := httptest.NewRequest("GET", "/api/me", nil)
	req.Header.Set("Authorization", "Bearer good")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	req = httptest.NewRequest("GET", "/api/me", nil)
	req.Header.Set("Authorization", "Bearer bad")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestSessionCookieName(t *testing.T) {
	assert.Equal(t, "session_token", SessionCookieName(false))
	assert.Equal(t, "__Secure-session_token", SessionCookieName(true))
}
