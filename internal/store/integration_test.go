package store_test

import (
	"context"
	"net/url"
	"testing"

	"recipebox/internal/actions"
	"recipebox/internal/client"
	"recipebox/internal/server"
	"recipebox/internal/store"
	"recipebox/internal/testutil"
	"recipebox/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ store.Actions = (*actions.Actions)(nil)
	_ store.Actions = (*client.Client)(nil)
)

func TestStoresOverInProcessActions(t *testing.T) {
	ctx := context.Background()
	cfg := testutil.TestConfig()
	cfg.ImageUploadDir = t.TempDir()
	srv, err := server.NewServerWithDeps(cfg, testutil.NewSQLiteDB(t), nil)
	require.NoError(t, err)
	a := srv.Actions()

	reg := a.Register(ctx, validation.RegistrationInput{
		Email: "cook@example.com", Password: "secret1", ConfirmPassword: "secret1",
	})
	require.True(t, reg.Success(), reg.Message())

	app := store.New(a)
	store.Bootstrap(ctx, app)
	assert.False(t, app.Auth.IsAuth())
	assert.Empty(t, app.Recipes.Recipes())

	require.NoError(t, app.Auth.SignIn(ctx, "cook@example.com", "secret1"))
	assert.True(t, app.Auth.IsAuth())

	salt, err := app.Ingredients.Add(ctx, url.Values{
		"name": {"Salt"}, "category": {"SPICES"}, "unit": {"GRAMS"}, "pricePerUnit": {"10"},
	})
	require.NoError(t, err)

	recipe, err := app.Recipes.Add(ctx, url.Values{
		"name": {"Brine"}, "ingredient_0": {salt.ID}, "quantity_0": {"30"},
	})
	require.NoError(t, err)

	fresh := store.New(a)
	fresh.Auth.SetToken(app.Auth.Token())
	store.Bootstrap(ctx, fresh)
	require.True(t, fresh.Auth.IsAuth())
	require.Len(t, fresh.Ingredients.Ingredients(), 1)
	assert.Equal(t, "Salt", fresh.Ingredients.Ingredients()[0].Name)
	require.Len(t, fresh.Recipes.Recipes(), 1)
	assert.Equal(t, recipe.ID, fresh.Recipes.Recipes()[0].ID)

	err = fresh.Ingredients.Remove(ctx, salt.ID)
	require.Error(t, err)
	assert.NotEmpty(t, fresh.Ingredients.Error())
	assert.Len(t, fresh.Ingredients.Ingredients(), 1)

	require.NoError(t, app.Auth.SignOut(ctx))
	assert.False(t, app.Auth.IsAuth())
}
