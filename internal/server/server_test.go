package server

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"recipebox/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testEmail    = "cook@example.com"
	testPassword = "secret1"
)

func newTestApp(t *testing.T, flags string) (*Server, *fiber.App) {
	t.Helper()
	cfg := testutil.TestConfig()
	cfg.ImageUploadDir = t.TempDir()
	cfg.FeatureFlags = flags

	s, err := NewServerWithDeps(cfg, testutil.NewSQLiteDB(t), nil)
	require.NoError(t, err)
	return s, s.NewApp()
}

type request struct {
	method      string
	path        string
	body        io.Reader
	contentType string
	token       string
	cookie      string
}

func do(t *testing.T, app *fiber.App, r request) (*http.Response, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(r.method, r.path, r.body)
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}
	if r.cookie != "" {
		req.Header.Set("Cookie", r.cookie)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	_ = resp.Body.Close()

	var body map[string]any
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), fiber.MIMEApplicationJSON) {
		require.NoError(t, json.Unmarshal(raw, &body), string(raw))
	}
	return resp, body
}

func jsonBody(t *testing.T, v any) io.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(b)
}

func formBody(v url.Values) io.Reader {
	return strings.NewReader(v.Encode())
}

func signedIn(t *testing.T, app *fiber.App) string {
	t.Helper()
	resp, _ := do(t, app, request{method: "POST", path: "/api/auth/register", contentType: fiber.MIMEApplicationJSON,
		body: jsonBody(t, map[string]string{"email": testEmail, "password": testPassword, "confirmPassword": testPassword})})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp, body := do(t, app, request{method: "POST", path: "/api/auth/signin", contentType: fiber.MIMEApplicationJSON,
		body: jsonBody(t, map[string]string{"email": testEmail, "password": testPassword})})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	session := body["session"].(map[string]any)
	return session["token"].(string)
}

func createIngredient(t *testing.T, app *fiber.App, token, name string) string {
	t.Helper()
	resp, body := do(t, app, request{method: "POST", path: "/api/ingredients", token: token,
		contentType: fiber.MIMEApplicationForm,
		body:        formBody(url.Values{"name": {name}, "category": {"VEGETABLES"}, "unit": {"GRAMS"}})})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, body)
	return body["ingredient"].(map[string]any)["id"].(string)
}

func TestHealth(t *testing.T) {
	_, app := newTestApp(t, "")

	resp, body := do(t, app, request{method: "GET", path: "/health/live"})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "up", body["status"])

	resp, body = do(t, app, request{method: "GET", path: "/health/ready"})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	checks := body["checks"].(map[string]any)
	assert.Equal(t, "healthy", checks["database"])
	assert.Equal(t, "disabled", checks["redis"])
}

func TestPageGate(t *testing.T) {
	_, app := newTestApp(t, "")

	for _, path := range []string{"/ingredients", "/recipes/new", "/recipes/abc"} {
		resp, _ := do(t, app, request{method: "GET", path: path})
		assert.Equal(t, fiber.StatusFound, resp.StatusCode, path)
		assert.Equal(t, "/error?message=Insufficient%20permissions", resp.Header.Get("Location"), path)
	}

	resp, body := do(t, app, request{method: "GET", path: "/error?message=Insufficient%20permissions"})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "error", body["page"])
	assert.Equal(t, "Insufficient permissions", body["message"])

	token := signedIn(t, app)
	resp, body = do(t, app, request{method: "GET", path: "/ingredients", cookie: "session_token=" + token})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "ingredients", body["page"])
	assert.Len(t, body["categories"], 6)
	assert.Len(t, body["units"], 5)

	resp, body = do(t, app, request{method: "GET", path: "/recipes/new", token: token})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(10), body["maxIngredients"])
}

func TestAuthFlow(t *testing.T) {
	_, app := newTestApp(t, "")

	resp, body := do(t, app, request{method: "POST", path: "/api/auth/register", contentType: fiber.MIMEApplicationForm,
		body: formBody(url.Values{"email": {testEmail}, "password": {testPassword}, "confirmPassword": {"different"}})})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Passwords do not match", body["error"])

	token := signedIn(t, app)
	assert.NotEmpty(t, token)

	resp, body = do(t, app, request{method: "POST", path: "/api/auth/register", contentType: fiber.MIMEApplicationJSON,
		body: jsonBody(t, map[string]string{"email": testEmail, "password": testPassword, "confirmPassword": testPassword})})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	assert.Equal(t, "CONFLICT", body["code"])

	_, wrong := do(t, app, request{method: "POST", path: "/api/auth/signin", contentType: fiber.MIMEApplicationForm,
		body: formBody(url.Values{"email": {testEmail}, "password": {"wrong-password"}})})
	resp, unknown := do(t, app, request{method: "POST", path: "/api/auth/signin", contentType: fiber.MIMEApplicationForm,
		body: formBody(url.Values{"email": {"nobody@example.com"}, "password": {testPassword}})})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, wrong, unknown)
	assert.Equal(t, "Invalid email or password", unknown["error"])

	resp, malformed := do(t, app, request{method: "POST", path: "/api/auth/signin", contentType: fiber.MIMEApplicationJSON,
		body: strings.NewReader(`{"email":`)})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, wrong, malformed)

	resp, _ = do(t, app, request{method: "POST", path: "/api/auth/signin", contentType: fiber.MIMEApplicationForm,
		body: formBody(url.Values{"email": {testEmail}, "password": {testPassword}})})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var sessionCookie *http.Cookie
	for _, ck := range resp.Cookies() {
		if ck.Name == "session_token" {
			sessionCookie = ck
		}
	}
	require.NotNil(t, sessionCookie)
	assert.True(t, sessionCookie.HttpOnly)

	_, body = do(t, app, request{method: "GET", path: "/api/auth/session", cookie: "session_token=" + sessionCookie.Value})
	session := body["session"].(map[string]any)
	assert.Equal(t, testEmail, session["user"].(map[string]any)["email"])
	assert.NotContains(t, session, "token")

	_, body = do(t, app, request{method: "GET", path: "/api/auth/session"})
	assert.Equal(t, true, body["success"])
	assert.Nil(t, body["session"])

	resp, body = do(t, app, request{method: "POST", path: "/api/auth/signout", token: token})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])
}

func TestIngredientEndpoints(t *testing.T) {
	_, app := newTestApp(t, "")

	resp, body := do(t, app, request{method: "GET", path: "/api/ingredients"})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, false, body["success"])

	token := signedIn(t, app)

	resp, body = do(t, app, request{method: "POST", path: "/api/ingredients", token: token,
		contentType: fiber.MIMEApplicationForm,
		body:        formBody(url.Values{"name": {"Salt"}, "category": {"SPICES"}, "unit": {"GRAMS"}, "pricePerUnit": {"10"}})})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, body)

	resp, body = do(t, app, request{method: "POST", path: "/api/ingredients", token: token,
		contentType: fiber.MIMEApplicationJSON,
		body:        jsonBody(t, map[string]any{"name": "Milk", "category": "DAIRY", "unit": "LITERS", "pricePerUnit": nil})})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, body)

	resp, body = do(t, app, request{method: "POST", path: "/api/ingredients", token: token,
		contentType: fiber.MIMEApplicationForm,
		body:        formBody(url.Values{"name": {"Milk"}, "category": {"DAIRY"}, "unit": {"LITERS"}, "pricePerUnit": {"cheap"}})})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION_ERROR", body["code"])

	_, body = do(t, app, request{method: "GET", path: "/api/ingredients", token: token})
	list := body["ingredients"].([]any)
	require.Len(t, list, 2)
	var salt map[string]any
	for _, item := range list {
		if m := item.(map[string]any); m["name"] == "Salt" {
			salt = m
		}
	}
	require.NotNil(t, salt)
	assert.Equal(t, "Salt", salt["name"])
	assert.Equal(t, "SPICES", salt["category"])
	assert.Equal(t, float64(10), salt["pricePerUnit"])

	resp, body = do(t, app, request{method: "DELETE", path: "/api/ingredients/missing", token: token})
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", body["code"])

	resp, _ = do(t, app, request{method: "DELETE", path: "/api/ingredients/" + salt["id"].(string), token: token})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRecipeEndpoints(t *testing.T) {
	_, app := newTestApp(t, "")
	token := signedIn(t, app)
	carrot := createIngredient(t, app, token, "Carrot")
	onion := createIngredient(t, app, token, "Onion")

	resp, body := do(t, app, request{method: "POST", path: "/api/recipes", token: token,
		contentType: fiber.MIMEApplicationForm,
		body: formBody(url.Values{
			"name": {"Soup"}, "ingredient_0": {carrot}, "quantity_0": {"2"},
		})})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, body)
	id := body["recipe"].(map[string]any)["id"].(string)

	resp, body = do(t, app, request{method: "PUT", path: "/api/recipes/" + id, token: token,
		contentType: fiber.MIMEApplicationJSON,
		body: jsonBody(t, map[string]any{
			"name":        "Onion soup",
			"ingredients": []map[string]any{{"ingredientId": onion, "quantity": 3}},
		})})
	require.Equal(t, fiber.StatusOK, resp.StatusCode, body)

	resp, body = do(t, app, request{method: "GET", path: "/api/recipes/" + id})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	recipe := body["recipe"].(map[string]any)
	assert.Equal(t, "Onion soup", recipe["name"])
	rows := recipe["ingredients"].([]any)
	require.Len(t, rows, 1)
	assert.Equal(t, onion, rows[0].(map[string]any)["ingredientId"])

	resp, body = do(t, app, request{method: "GET", path: "/recipes/" + id, token: token})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "recipe-edit", body["page"])

	resp, body = do(t, app, request{method: "GET", path: "/recipes/unknown", token: token})
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Recipe not found", body["error"])

	resp, body = do(t, app, request{method: "POST", path: "/api/recipes", token: token,
		contentType: fiber.MIMEApplicationForm,
		body:        formBody(url.Values{"name": {"Empty"}})})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Name and at least one ingredient are required", body["error"])

	resp, body = do(t, app, request{method: "DELETE", path: "/api/ingredients/" + onion, token: token})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	assert.Equal(t, "CONFLICT", body["code"])

	_, body = do(t, app, request{method: "GET", path: "/"})
	assert.Equal(t, "home", body["page"])
	assert.Len(t, body["recipes"], 1)

	resp, _ = do(t, app, request{method: "DELETE", path: "/api/recipes/" + id, token: token})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	resp, _ = do(t, app, request{method: "DELETE", path: "/api/recipes/" + id, token: token})
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 40, 30))
	for x := 0; x < 40; x++ {
		img.Set(x, x%30, color.RGBA{R: 10, G: uint8(x * 5), B: 90, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func multipartImage(t *testing.T, content []byte) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("image", "photo.png")
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestUploadRecipeImage(t *testing.T) {
	_, app := newTestApp(t, "")
	token := signedIn(t, app)
	ing := createIngredient(t, app, token, "Beet")

	_, body := do(t, app, request{method: "POST", path: "/api/recipes", token: token,
		contentType: fiber.MIMEApplicationForm,
		body:        formBody(url.Values{"name": {"Borscht"}, "ingredient_0": {ing}, "quantity_0": {"1"}})})
	id := body["recipe"].(map[string]any)["id"].(string)

	payload, contentType := multipartImage(t, pngBytes(t))
	resp, body := do(t, app, request{method: "POST", path: "/api/recipes/" + id + "/image", token: token,
		contentType: contentType, body: payload})
	require.Equal(t, fiber.StatusOK, resp.StatusCode, body)
	imageURL := body["recipe"].(map[string]any)["imageUrl"].(string)
	assert.True(t, strings.HasPrefix(imageURL, "/uploads/"))

	resp, _ = do(t, app, request{method: "GET", path: imageURL})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, body = do(t, app, request{method: "POST", path: "/api/recipes/" + id + "/image", token: token,
		contentType: fiber.MIMEApplicationForm, body: formBody(url.Values{})})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "No file uploaded", body["error"])
}

func TestUploadRecipeImage_FlagOff(t *testing.T) {
	_, app := newTestApp(t, "image_uploads=off")
	token := signedIn(t, app)

	payload, contentType := multipartImage(t, pngBytes(t))
	resp, body := do(t, app, request{method: "POST", path: "/api/recipes/any/image", token: token,
		contentType: contentType, body: payload})
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Image uploads are disabled", body["error"])
}

func TestContentPages(t *testing.T) {
	_, app := newTestApp(t, "")

	resp, body := do(t, app, request{method: "GET", path: "/about"})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "About", body["title"])
	page := body["content"].(map[string]any)
	assert.Contains(t, page["html"], "About Recipe Box")

	resp, body = do(t, app, request{method: "GET", path: "/api/pages?path=/about"})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])

	resp, body = do(t, app, request{method: "GET", path: "/api/pages?path=/missing"})
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Page not found", body["error"])

	resp, body = do(t, app, request{method: "GET", path: "/no-such-route"})
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", body["code"])
}

func TestFeatureFlagsAndWebsocketGate(t *testing.T) {
	_, app := newTestApp(t, "realtime=off")
	token := signedIn(t, app)

	_, body := do(t, app, request{method: "GET", path: "/api/feature-flags", token: token})
	flags := body["flags"].(map[string]any)
	assert.Equal(t, true, flags["image_uploads"])
	assert.Equal(t, false, flags["realtime"])

	resp, body := do(t, app, request{method: "GET", path: "/api/ws", token: token})
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Realtime updates are disabled", body["error"])

	_, on := newTestApp(t, "")
	onToken := signedIn(t, on)
	resp, _ = do(t, on, request{method: "GET", path: "/api/ws", token: onToken})
	assert.Equal(t, fiber.StatusUpgradeRequired, resp.StatusCode)
}
