package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "pizza:session:"

type cmdable interface {
	Get(context.Context, string) *redis.StringCmd
	Set(context.Context, string, any, time.Duration) *redis.StatusCmd
	Del(context.Context, ...string) *redis.IntCmd
}

// RedisStore keeps encoded state in redis with a native TTL so sessions are
// shared across processes.
type RedisStore struct {
	client cmdable
}

func NewRedisStore(client cmdable) *RedisStore {
	return &RedisStore{client: client}
}

// DialRedis parses a redis:// URL, connects and verifies the server answers.
func DialRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func redisKey(id string) string {
	return redisKeyPrefix + id
}

func (r *RedisStore) Load(ctx context.Context, id string) (State, error) {
	raw, err := r.client.Get(ctx, redisKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return State{}, ErrNotFound
	}
	if err != nil {
		return State{}, fmt.Errorf("redis get session: %w", err)
	}
	return decodeState(raw)
}

func (r *RedisStore) Save(ctx context.Context, id string, st State, ttl time.Duration) error {
	data, err := encodeState(st)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, redisKey(id), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set session: %w", err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, redisKey(id)).Err(); err != nil {
		return fmt.Errorf("redis del session: %w", err)
	}
	return nil
}
