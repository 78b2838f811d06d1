/*
Package store owns the connection to the keyed store (Redis) that every
stateful component is layered on.
*/
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config carries the Redis connection settings.
type Config struct {
	Addr     string
	Password string
	DB       int
}

// NewClient opens a Redis client and verifies connectivity with a bounded
// ping before handing it out.
func NewClient(cfg Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping keyed store at %s: %w", cfg.Addr, err)
	}

	return client, nil
}

// ScanDelete removes every key matching pattern using cursor-based SCAN, so
// cleanup never blocks the store the way KEYS would.
func ScanDelete(ctx context.Context, client *redis.Client, pattern string) (int, error) {
	var cursor uint64
	deleted := 0

	for {
		keys, next, err := client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return deleted, fmt.Errorf("scan %q failed: %w", pattern, err)
		}

		if len(keys) > 0 {
			if err := client.Del(ctx, keys...).Err(); err != nil {
				return deleted, fmt.Errorf("delete of scanned keys failed: %w", err)
			}
			deleted += len(keys)
		}

		cursor = next
		if cursor == 0 {
			return deleted, nil
		}
	}
}

// ScanKeys collects every key matching pattern.
func ScanKeys(ctx context.Context, client *redis.Client, pattern string) ([]string, error) {
	var cursor uint64
	var all []string

	for {
		keys, next, err := client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return nil, fmt.Errorf("scan %q failed: %w", pattern, err)
		}
		all = append(all, keys...)

		cursor = next
		if cursor == 0 {
			return all, nil
		}
	}
}
