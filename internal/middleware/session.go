package middleware

import (
	"context"
	"net/url"
	"strings"

	"recipebox/internal/models"

	"github.com/gofiber/fiber/v2"
)

const (
	sessionCookie       = "session_token"
	secureSessionCookie = "__Secure-session_token"

	// GateRedirect is where the page gate sends unauthenticated visitors.
	GateRedirect = "/error?message="
	gateMessage  = "Insufficient permissions"
)

// ProtectedPagePrefixes are the page paths that require a signed-in session.
var ProtectedPagePrefixes = []string{"/ingredients", "/recipes/new", "/recipes/"}

// SessionVerifier resolves a session token to the signed-in user's id.
type SessionVerifier interface {
	VerifySession(ctx context.Context, token string) (string, error)
}

// SessionCookieName returns the cookie carrying the session token.
// Production uses the __Secure- prefix so browsers only send it over https.
func SessionCookieName(production bool) string {
	if production {
		return secureSessionCookie
	}
	return sessionCookie
}

// SessionToken extracts the session token from the Authorization header, falling back to the cookie.
func SessionToken(c *fiber.Ctx, cookieName string) string {
	if auth := c.Get(fiber.HeaderAuthorization); auth != "" {
		parts := strings.SplitN(auth, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" {
			return strings.TrimSpace(parts[1])
		}
	}
	return c.Cookies(cookieName)
}

// SetUser records the authenticated user on the request locals and the logging context.
func SetUser(c *fiber.Ctx, userID string) {
	c.Locals("userID", userID)
	c.SetUserContext(context.WithValue(c.UserContext(), UserIDKey, userID))
}

// RequireSession rejects API requests without a valid session with a 401 envelope.
func RequireSession(v SessionVerifier, cookieName string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := SessionToken(c, cookieName)
		if token == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}
		userID, err := v.VerifySession(c.UserContext(), token)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid or expired session"))
		}
		SetUser(c, userID)
		return c.Next()
	}
}

// PageGate redirects unauthenticated visitors of protected page paths to the error page.
// Other paths pass through untouched.
func PageGate(v SessionVerifier, cookieName string, prefixes ...string) fiber.Handler {
	if len(prefixes) == 0 {
		prefixes = ProtectedPagePrefixes
	}
	target := GateRedirect + url.PathEscape(gateMessage)

	return func(c *fiber.Ctx) error {
		if !isProtected(c.Path(), prefixes) {
			return c.Next()
		}
		token := SessionToken(c, cookieName)
		if token == "" {
			return c.Redirect(target, fiber.StatusFound)
		}
		userID, err := v.VerifySession(c.UserContext(), token)
		if err != nil {
			return c.Redirect(target, fiber.StatusFound)
		}
		SetUser(c, userID)
		return c.Next()
	}
}

func isProtected(path string, prefixes []string) bool {
	for _, p := range prefixes {
		base := strings.TrimSuffix(p, "/")
		if path == p || strings.HasPrefix(path, base+"/") {
			return true
		}
	}
	return false
}
