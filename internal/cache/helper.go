package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"recipebox/internal/observability"

	"github.com/redis/go-redis/v9"
)

// GetJSON loads key into dest. It reports false on a miss or when Redis is unavailable.
func GetJSON(ctx context.Context, key string, dest any) bool {
	if client == nil {
		return false
	}
	raw, err := client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			observability.RecordCacheLookup("miss")
		} else {
			observability.RecordCacheLookup("error")
		}
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		observability.RecordCacheLookup("error")
		return false
	}
	observability.RecordCacheLookup("hit")
	return true
}

// SetJSON stores value under key. Failures are ignored.
func SetJSON(ctx context.Context, key string, value any, ttl time.Duration) {
	if client == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	client.Set(ctx, key, raw, ttl)
}

// Aside implements cache-aside: dest is filled from Redis when present,
// otherwise load fills it and the result is stored for ttl.
//
// The store only happens when the key's generation is unchanged since before
// load ran, so a snapshot read ahead of a concurrent invalidation is dropped.
func Aside(ctx context.Context, key string, dest any, ttl time.Duration, load func() error) error {
	if GetJSON(ctx, key, dest) {
		return nil
	}
	gen, genErr := generation(ctx, key)
	if err := load(); err != nil {
		return err
	}
	if genErr == nil {
		storeIfCurrent(ctx, key, gen, dest, ttl)
	}
	return nil
}

var errNoClient = errors.New("cache: redis not configured")

func generationKey(key string) string {
	return key + GenerationSuffix
}

// generation returns the invalidation counter for key. A missing counter is 0.
func generation(ctx context.Context, key string) (int64, error) {
	if client == nil {
		return 0, errNoClient
	}
	return readGeneration(ctx, client, key)
}

// getter is satisfied by both *redis.Client and *redis.Tx.
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func readGeneration(ctx context.Context, c getter, key string) (int64, error) {
	gen, err := c.Get(ctx, generationKey(key)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// storeIfCurrent sets key under WATCH on its generation counter. A bump
// between the check and EXEC aborts the transaction.
func storeIfCurrent(ctx context.Context, key string, gen int64, value any, ttl time.Duration) {
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	_ = client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := readGeneration(ctx, tx, key)
		if err != nil {
			return err
		}
		if current != gen {
			observability.RecordCacheLookup("stale")
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, raw, ttl)
			return nil
		})
		return err
	}, generationKey(key))
}
