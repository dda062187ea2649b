package client_test

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"recipebox/internal/client"
	"recipebox/internal/models"
	"recipebox/internal/notifications"
	"recipebox/internal/server"
	"recipebox/internal/testutil"
	"recipebox/internal/validation"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startAPI(t *testing.T) string {
	t.Helper()
	_, baseURL := startServer(t)
	return baseURL
}

func startServer(t *testing.T) (*server.Server, string) {
	t.Helper()
	cfg := testutil.TestConfig()
	cfg.ImageUploadDir = t.TempDir()

	s, err := server.NewServerWithDeps(cfg, testutil.NewSQLiteDB(t), nil)
	require.NoError(t, err)
	require.NoError(t, s.WireNotifications())
	app := s.NewApp()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.Shutdown() })

	return s, "http://" + ln.Addr().String()
}

func signedInClient(t *testing.T, baseURL string) *client.Client {
	t.Helper()
	ctx := context.Background()
	c := client.New(baseURL, client.WithTimeout(5*time.Second))

	reg := c.Register(ctx, validation.RegistrationInput{
		Email: "cook@example.com", Password: "secret1", ConfirmPassword: "secret1",
	})
	require.True(t, reg.Success(), reg.Message())

	res := c.SignIn(ctx, "cook@example.com", "secret1")
	require.True(t, res.Success(), res.Message())
	require.NotEmpty(t, c.Token())
	return c
}

func TestClient_AuthRoundTrip(t *testing.T) {
	ctx := context.Background()
	baseURL := startAPI(t)
	c := signedInClient(t, baseURL)

	wrong := c.SignIn(ctx, "cook@example.com", "not-the-password")
	assert.False(t, wrong.Success())
	assert.Equal(t, models.CodeUnauthorized, wrong.Kind())
	assert.Equal(t, "Invalid email or password", wrong.Message())
	assert.NotEmpty(t, c.Token(), "a failed sign-in keeps the existing token")

	session := c.GetSession(ctx, c.Token())
	require.True(t, session.Success())
	require.NotNil(t, session.Value())
	assert.Equal(t, "cook@example.com", session.Value().User.Email)

	anonymous := c.GetSession(ctx, "")
	require.True(t, anonymous.Success())
	assert.Nil(t, anonymous.Value())

	out := c.SignOut(ctx, c.Token())
	require.True(t, out.Success())
	assert.Empty(t, c.Token())

	denied := c.GetIngredients(ctx)
	assert.Equal(t, models.CodeUnauthorized, denied.Kind())
}

func TestClient_Catalog(t *testing.T) {
	ctx := context.Background()
	c := signedInClient(t, startAPI(t))

	salt := c.CreateIngredient(ctx, url.Values{
		"name": {"Salt"}, "category": {"SPICES"}, "unit": {"GRAMS"}, "pricePerUnit": {"10"},
	})
	require.True(t, salt.Success(), salt.Message())
	require.NotEmpty(t, salt.Value().ID)

	list := c.GetIngredients(ctx)
	require.True(t, list.Success())
	require.Len(t, list.Value(), 1)
	assert.Equal(t, "Salt", list.Value()[0].Name)
	require.NotNil(t, list.Value()[0].PricePerUnit)
	assert.Equal(t, 10.0, *list.Value()[0].PricePerUnit)

	invalid := c.CreateIngredient(ctx, url.Values{"name": {""}, "category": {"SPICES"}, "unit": {"GRAMS"}})
	assert.Equal(t, models.CodeValidation, invalid.Kind())

	recipe := c.CreateRecipe(ctx, url.Values{
		"name": {"Brine"}, "ingredient_0": {salt.Value().ID}, "quantity_0": {"30"},
	})
	require.True(t, recipe.Success(), recipe.Message())
	id := recipe.Value().ID

	updated := c.UpdateRecipe(ctx, id, url.Values{
		"name": {"Strong brine"}, "ingredient_0": {salt.Value().ID}, "quantity_0": {"60"},
	})
	require.True(t, updated.Success(), updated.Message())
	assert.Equal(t, "Strong brine", updated.Value().Name)

	got := c.GetRecipe(ctx, id)
	require.True(t, got.Success())
	require.Len(t, got.Value().Ingredients, 1)
	assert.Equal(t, 60.0, got.Value().Ingredients[0].Quantity)

	recipes := c.GetRecipes(ctx)
	require.True(t, recipes.Success())
	assert.Len(t, recipes.Value(), 1)

	missing := c.DeleteIngredient(ctx, "does-not-exist")
	assert.False(t, missing.Success())
	assert.Equal(t, models.CodeNotFound, missing.Kind())

	assert.True(t, c.DeleteRecipe(ctx, id).Success())
	assert.True(t, c.DeleteIngredient(ctx, salt.Value().ID).Success())
}

func TestClient_TransportFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	c := client.New("http://"+addr, client.WithTimeout(time.Second))
	res := c.GetRecipes(context.Background())
	assert.False(t, res.Success())
	assert.Equal(t, models.CodeInternal, res.Kind())
	assert.Equal(t, "Failed to load recipes", res.Message())

	created := c.CreateRecipe(context.Background(), url.Values{"name": {"Soup"}})
	assert.Equal(t, models.CodeInternal, created.Kind())
	assert.Equal(t, "Failed to create recipe", created.Message())
}

func TestClient_Watch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c := signedInClient(t, startAPI(t))

	events, err := c.Watch(ctx)
	require.NoError(t, err)

	// The hub registers the connection after the handshake; retry until an event lands.
	var got notifications.CatalogEvent
	n := 0
	require.Eventually(t, func() bool {
		n++
		res := c.CreateIngredient(ctx, url.Values{
			"name": {fmt.Sprintf("Pepper %d", n)}, "category": {"SPICES"}, "unit": {"GRAMS"},
		})
		if !res.Success() {
			return false
		}
		select {
		case got = <-events:
			return true
		case <-time.After(200 * time.Millisecond):
			return false
		}
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, notifications.IngredientCreated, got.Type)
	assert.NotEmpty(t, got.ID)

	cancel()
	for range events {
	}
}

// openWatchers opens n catalog streams and returns once each has seen an event,
// which means every connection is registered with the hub.
func openWatchers(t *testing.T, c *client.Client, n int) []<-chan notifications.CatalogEvent {
	t.Helper()
	ctx := context.Background()

	streams := make([]<-chan notifications.CatalogEvent, n)
	for i := range streams {
		events, err := c.Watch(ctx)
		require.NoError(t, err)
		streams[i] = events
	}

	seen := make([]bool, n)
	round := 0
	require.Eventually(t, func() bool {
		round++
		res := c.CreateIngredient(ctx, url.Values{
			"name": {fmt.Sprintf("Basil %d", round)}, "category": {"SPICES"}, "unit": {"GRAMS"},
		})
		if !res.Success() {
			return false
		}
		time.Sleep(50 * time.Millisecond)
		all := true
		for i, events := range streams {
			select {
			case <-events:
				seen[i] = true
			default:
			}
			all = all && seen[i]
		}
		return all
	}, 5*time.Second, 10*time.Millisecond)
	return streams
}

func TestServerShutdown_ClosesLiveWatchers(t *testing.T) {
	s, baseURL := startServer(t)
	c := signedInClient(t, baseURL)
	streams := openWatchers(t, c, 8)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(shutdownCtx))

	for i, events := range streams {
		deadline := time.After(5 * time.Second)
	drain:
		for {
			select {
			case _, open := <-events:
				if !open {
					break drain
				}
			case <-deadline:
				t.Fatalf("stream %d still open after shutdown", i)
			}
		}
	}
}

func TestClient_WatchOverUserLimitGetsErrorFrame(t *testing.T) {
	baseURL := startAPI(t)
	c := signedInClient(t, baseURL)
	openWatchers(t, c, 8)

	header := http.Header{}
	header.Set("Authorization", "Bearer "+c.Token())
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(baseURL, "http")+"/api/ws", header)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var frame map[string]string
	require.NoError(t, conn.ReadJSON(&frame))
	assert.Equal(t, map[string]string{"error": notifications.ErrUserLimit.Error()}, frame)
}

func TestClient_WatchRequiresSignIn(t *testing.T) {
	c := client.New("http://127.0.0.1:1")
	_, err := c.Watch(context.Background())
	assert.ErrorIs(t, err, client.ErrNotSignedIn)
}
