package redis

import (
	"time"

	"github.com/redis/go-redis/v9"
)

// NewClient builds a client for the item cache. Short timeouts keep a slow
// Redis from stalling item reads; callers fall back to MongoDB on error.
func NewClient(addr, password string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           0,
		Protocol:     2,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  500 * time.Millisecond,
		WriteTimeout: 500 * time.Millisecond,
		PoolSize:     20,
	})
}
