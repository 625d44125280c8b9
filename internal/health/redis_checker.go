package health

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// RedisChecker checks the redis server backing the credential store.
type RedisChecker struct {
	client redis.UniversalClient
}

// NewRedisChecker creates a checker for client.
func NewRedisChecker(client redis.UniversalClient) *RedisChecker {
	return &RedisChecker{client: client}
}

// Name returns the name of this health check.
func (c *RedisChecker) Name() string {
	return "credential-redis"
}

// Check pings redis. A failure is Degraded, not Unhealthy: the cookie jar
// fallback still holds the credential.
func (c *RedisChecker) Check(ctx context.Context) *Result {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return Degraded("redis ping failed").
			WithDetail("error", err.Error())
	}
	return Healthy("redis reachable")
}
