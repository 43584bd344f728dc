// Package cache keeps resolved rooms in Redis using the cache-aside pattern.
// Rooms never change after creation, so entries only leave by TTL.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vedran77/huddle/internal/domain"
)

const defaultPrefix = "huddle:room:"

// Connect builds a client from either a redis:// URL or a bare host:port and
// checks that the server answers.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts := &redis.Options{
		Addr:         url,
		PoolSize:     20,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
	if strings.Contains(url, "://") {
		parsed, err := redis.ParseURL(url)
		if err != nil {
			return nil, fmt.Errorf("parsing redis url: %w", err)
		}
		opts = parsed
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

type RoomCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRoomCache(client *redis.Client, ttl time.Duration) *RoomCache {
	return &RoomCache{client: client, prefix: defaultPrefix, ttl: ttl}
}

// Get returns nil, nil on a miss.
func (c *RoomCache) Get(ctx context.Context, slug string) (*domain.Room, error) {
	data, err := c.client.Get(ctx, c.prefix+slug).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache get error: %w", err)
	}

	var room domain.Room
	if err := json.Unmarshal(data, &room); err != nil {
		return nil, fmt.Errorf("cache unmarshal error: %w", err)
	}
	return &room, nil
}

func (c *RoomCache) Set(ctx context.Context, room *domain.Room) error {
	data, err := json.Marshal(room)
	if err != nil {
		return fmt.Errorf("cache marshal error: %w", err)
	}
	if err := c.client.Set(ctx, c.prefix+room.Slug, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set error: %w", err)
	}
	return nil
}

func (c *RoomCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
