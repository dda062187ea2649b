// Package client calls a running recipebox API over HTTP. It returns the same
// Result envelopes as the in-process actions, so stores can sit on either.
package client

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"recipebox/internal/middleware"
	"recipebox/internal/models"
	"recipebox/internal/validation"

	"github.com/gofiber/fiber/v2"
)

const defaultTimeout = 10 * time.Second

// Client is an API client. After a successful SignIn it sends the session token
// with every request.
type Client struct {
	baseURL string
	timeout time.Duration

	mu    sync.RWMutex
	token string
}

// Option customizes a Client.
type Option func(*Client)

// WithTimeout bounds every request when the caller's context has no deadline.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithToken starts the client with an existing session token.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// New creates a client for the API rooted at baseURL, e.g. http://localhost:8375.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		timeout: defaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Token returns the current session token, empty when signed out.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) setToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

type payload struct {
	contentType string
	body        []byte
}

func formPayload(form url.Values) payload {
	return payload{contentType: fiber.MIMEApplicationForm, body: []byte(form.Encode())}
}

func jsonPayload(v any) (payload, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return payload{}, err
	}
	return payload{contentType: fiber.MIMEApplicationJSON, body: b}, nil
}

func (c *Client) agent(method, path string) *fiber.Agent {
	target := c.baseURL + path
	switch method {
	case fiber.MethodPost:
		return fiber.Post(target)
	case fiber.MethodPut:
		return fiber.Put(target)
	case fiber.MethodDelete:
		return fiber.Delete(target)
	default:
		return fiber.Get(target)
	}
}

// call performs one request and decodes the wire envelope into a Result. The
// success payload is read from key; transport failures become INTERNAL_ERROR
// results carrying fallback.
func call[T any](ctx context.Context, c *Client, method, path, key, token string, body *payload, fallback string) models.Result[T] {
	if err := ctx.Err(); err != nil {
		return models.Err[T](models.CodeInternal, fallback)
	}

	a := c.agent(method, path)
	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}
	a.Timeout(timeout)
	a.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)
	if token != "" {
		a.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	if body != nil {
		a.ContentType(body.contentType)
		a.Body(body.body)
	}

	status, raw, errs := a.Bytes()
	if len(errs) > 0 {
		middleware.Logger.ErrorContext(ctx, "api request failed",
			slog.String("method", method),
			slog.String("path", path),
			slog.String("error", errs[0].Error()))
		return models.Err[T](models.CodeInternal, fallback)
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err != nil {
		middleware.Logger.ErrorContext(ctx, "api response is not an envelope",
			slog.String("path", path),
			slog.Int("status", status))
		return models.Err[T](models.CodeInternal, fallback)
	}

	var success bool
	_ = json.Unmarshal(envelope["success"], &success)
	if !success {
		var failure models.ErrorResponse
		_ = json.Unmarshal(raw, &failure)
		if failure.Code == "" {
			failure.Code = models.CodeInternal
		}
		if failure.Error == "" || failure.Code == models.CodeInternal {
			failure.Error = fallback
		}
		return models.Err[T](failure.Code, failure.Error)
	}

	var value T
	if field, ok := envelope[key]; ok && key != "" {
		if err := json.Unmarshal(field, &value); err != nil {
			middleware.Logger.ErrorContext(ctx, "api payload decode failed",
				slog.String("path", path),
				slog.String("key", key),
				slog.String("error", err.Error()))
			return models.Err[T](models.CodeInternal, fallback)
		}
	}
	return models.Ok(value)
}

// GetIngredients lists every ingredient.
func (c *Client) GetIngredients(ctx context.Context) models.Result[[]models.Ingredient] {
	return call[[]models.Ingredient](ctx, c, fiber.MethodGet, "/api/ingredients", "ingredients", c.Token(), nil, "Failed to load ingredients")
}

// CreateIngredient submits an ingredient form.
func (c *Client) CreateIngredient(ctx context.Context, form url.Values) models.Result[*models.Ingredient] {
	p := formPayload(form)
	return call[*models.Ingredient](ctx, c, fiber.MethodPost, "/api/ingredients", "ingredient", c.Token(), &p, "Failed to add ingredient")
}

// DeleteIngredient removes an ingredient by id.
func (c *Client) DeleteIngredient(ctx context.Context, id string) models.Result[models.Empty] {
	return call[models.Empty](ctx, c, fiber.MethodDelete, "/api/ingredients/"+url.PathEscape(id), "", c.Token(), nil, "Failed to delete ingredient")
}

// GetRecipes lists every recipe with its ingredients.
func (c *Client) GetRecipes(ctx context.Context) models.Result[[]models.Recipe] {
	return call[[]models.Recipe](ctx, c, fiber.MethodGet, "/api/recipes", "recipes", c.Token(), nil, "Failed to load recipes")
}

// GetRecipe loads one recipe.
func (c *Client) GetRecipe(ctx context.Context, id string) models.Result[*models.Recipe] {
	return call[*models.Recipe](ctx, c, fiber.MethodGet, "/api/recipes/"+url.PathEscape(id), "recipe", c.Token(), nil, "Failed to load recipe")
}

// CreateRecipe submits a recipe form.
func (c *Client) CreateRecipe(ctx context.Context, form url.Values) models.Result[*models.Recipe] {
	p := formPayload(form)
	return call[*models.Recipe](ctx, c, fiber.MethodPost, "/api/recipes", "recipe", c.Token(), &p, "Failed to create recipe")
}

// UpdateRecipe replaces a recipe's fields and ingredient rows.
func (c *Client) UpdateRecipe(ctx context.Context, id string, form url.Values) models.Result[*models.Recipe] {
	p := formPayload(form)
	return call[*models.Recipe](ctx, c, fiber.MethodPut, "/api/recipes/"+url.PathEscape(id), "recipe", c.Token(), &p, "Failed to update recipe")
}

// DeleteRecipe removes a recipe by id.
func (c *Client) DeleteRecipe(ctx context.Context, id string) models.Result[models.Empty] {
	return call[models.Empty](ctx, c, fiber.MethodDelete, "/api/recipes/"+url.PathEscape(id), "", c.Token(), nil, "Failed to delete recipe")
}

// Register creates an account. It does not sign in.
func (c *Client) Register(ctx context.Context, in validation.RegistrationInput) models.Result[*models.User] {
	p, err := jsonPayload(in)
	if err != nil {
		return models.Err[*models.User](models.CodeValidation, "Invalid request body")
	}
	return call[*models.User](ctx, c, fiber.MethodPost, "/api/auth/register", "user", "", &p, "Failed to register")
}

// SignIn verifies credentials and keeps the returned token for later calls.
func (c *Client) SignIn(ctx context.Context, email, password string) models.Result[*models.Session] {
	p := formPayload(url.Values{"email": {email}, "password": {password}})
	res := call[*models.Session](ctx, c, fiber.MethodPost, "/api/auth/signin", "session", "", &p, "Failed to sign in")
	if res.Success() && res.Value() != nil {
		c.setToken(res.Value().Token)
	}
	return res
}

// SignOut revokes token and forgets it when it is the client's own.
func (c *Client) SignOut(ctx context.Context, token string) models.Result[models.Empty] {
	res := call[models.Empty](ctx, c, fiber.MethodPost, "/api/auth/signout", "", token, nil, "Failed to sign out")
	if res.Success() {
		c.mu.Lock()
		if c.token == token {
			c.token = ""
		}
		c.mu.Unlock()
	}
	return res
}

// GetSession resolves token to its session; the payload is nil when the token
// is missing or no longer valid.
func (c *Client) GetSession(ctx context.Context, token string) models.Result[*models.Session] {
	return call[*models.Session](ctx, c, fiber.MethodGet, "/api/auth/session", "session", token, nil, "Failed to load session")
}
