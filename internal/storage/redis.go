package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStorage keeps subscribers in a sorted set scored by signup time, so
// ZRANGE returns them in insertion order.
type RedisStorage struct {
	client *redis.Client
	key    string
}

func NewRedisStorage(ctx context.Context, url, key string) (*RedisStorage, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opt.DialTimeout = 5 * time.Second
	opt.ReadTimeout = 3 * time.Second
	opt.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	if key == "" {
		key = "golddigest:subscribers"
	}
	return &RedisStorage{client: client, key: key}, nil
}

func (s *RedisStorage) ListSubscribers(ctx context.Context) ([]string, error) {
	return s.client.ZRange(ctx, s.key, 0, -1).Result()
}

func (s *RedisStorage) AddSubscriber(ctx context.Context, email string) (bool, error) {
	n, err := s.client.ZAddNX(ctx, s.key, redis.Z{
		Score:  float64(time.Now().UnixMicro()),
		Member: email,
	}).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *RedisStorage) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStorage) Close() error {
	return s.client.Close()
}
