package credential

import (
	"context"
	stderrors "errors"

	"github.com/redis/go-redis/v9"
)

// RedisKV stores keys in Redis under "stayadmin:<namespace>:<key>", so several
// gateway instances can share one admin credential.
type RedisKV struct {
	rdb       redis.UniversalClient
	namespace string
}

// NewRedisKV creates a Redis store. An empty namespace becomes "default".
func NewRedisKV(rdb redis.UniversalClient, namespace string) *RedisKV {
	if namespace == "" {
		namespace = "default"
	}
	return &RedisKV{rdb: rdb, namespace: namespace}
}

// Name identifies the store in logs.
func (r *RedisKV) Name() string { return "redis" }

// Client returns the underlying Redis client.
func (r *RedisKV) Client() redis.UniversalClient { return r.rdb }

func (r *RedisKV) key(k string) string {
	return "stayadmin:" + r.namespace + ":" + k
}

// Get implements KV.
func (r *RedisKV) Get(ctx context.Context, key string) (string, error) {
	v, err := r.rdb.Get(ctx, r.key(key)).Result()
	if stderrors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return v, nil
}

// Set implements KV. All pairs are written in one MULTI/EXEC.
func (r *RedisKV) Set(ctx context.Context, pairs map[string]string) error {
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for k, v := range pairs {
			pipe.Set(ctx, r.key(k), v, 0)
		}
		return nil
	})
	return err
}

// Delete implements KV.
func (r *RedisKV) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = r.key(k)
	}
	return r.rdb.Del(ctx, full...).Err()
}
