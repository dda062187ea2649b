package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	IngredientsKey = "ingredients:all"
	RecipesKey     = "recipes:all"

	RevokedTokenPrefix = "blacklist:"

	// GenerationSuffix names the counter bumped on every invalidation of a key.
	GenerationSuffix = ":gen"
)

const (
	CatalogTTL = 5 * time.Minute
)

// RevokedTokenKey is the key marking a session token id as revoked.
func RevokedTokenKey(jti string) string {
	return RevokedTokenPrefix + jti
}

// Invalidate drops the given keys and bumps their generations so in-flight
// loads started before the change do not repopulate them. Failures are
// ignored; entries expire on their own.
func Invalidate(ctx context.Context, keys ...string) {
	if client == nil || len(keys) == 0 {
		return
	}
	_, _ = client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, key := range keys {
			pipe.Incr(ctx, generationKey(key))
		}
		pipe.Del(ctx, keys...)
		return nil
	})
}

// InvalidateIngredients drops cached catalog lists touched by an ingredient change.
// Recipes embed their ingredients, so both lists go.
func InvalidateIngredients(ctx context.Context) {
	Invalidate(ctx, IngredientsKey, RecipesKey)
}

// InvalidateRecipes drops the cached recipe list.
func InvalidateRecipes(ctx context.Context) {
	Invalidate(ctx, RecipesKey)
}
