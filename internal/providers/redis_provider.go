package providers

import "github.com/go-redis/redis/v8"

// NewRedisProvider builds the shared client used by the subscription store and
// the delivery rate limiter. Address and password come straight from config;
// the relay uses the default DB.
func NewRedisProvider(addr, password string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
}
