// Package rdx is the key/value cache: Redis when configured, an in-process cache otherwise.
package rdx

import (
	"context"
	"errors"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("rdx: cache miss")

type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// New picks the Redis backend when addr is set.
func New(addr, password string) Store {
	if addr == "" {
		return NewMemory()
	}
	return NewRedis(redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	}))
}

type Redis struct {
	Conn *redis.Client
}

func NewRedis(conn *redis.Client) *Redis {
	return &Redis{Conn: conn}
}

func (r *Redis) Get(ctx context.Context, key string) (string, error) {
	v, err := r.Conn.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrMiss
	}
	return v, err
}

func (r *Redis) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return r.Conn.Set(ctx, key, value, ttl).Err()
}

func (r *Redis) Del(ctx context.Context, key string) error {
	return r.Conn.Del(ctx, key).Err()
}

func (r *Redis) Exists(ctx context.Context, key string) (bool, error) {
	n, err := r.Conn.Exists(ctx, key).Result()
	return n > 0, err
}

func (r *Redis) Close() error { return r.Conn.Close() }

// Memory is a single-process Store backed by go-cache.
type Memory struct {
	c *cache.Cache
}

func NewMemory() *Memory {
	return &Memory{c: cache.New(10*time.Minute, 15*time.Minute)}
}

func (m *Memory) Get(_ context.Context, key string) (string, error) {
	v, ok := m.c.Get(key)
	if !ok {
		return "", ErrMiss
	}
	s, _ := v.(string)
	return s, nil
}

func (m *Memory) Set(_ context.Context, key, value string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}
	m.c.Set(key, value, ttl)
	return nil
}

func (m *Memory) Del(_ context.Context, key string) error {
	m.c.Delete(key)
	return nil
}

func (m *Memory) Exists(_ context.Context, key string) (bool, error) {
	_, ok := m.c.Get(key)
	return ok, nil
}
