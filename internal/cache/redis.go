package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"parkhub/internal/config"
	"parkhub/internal/models"
)

const (
	blacklistPrefix = "jwt:blacklist:"
	lotListKey      = "lots:list:"
	lotListTTL      = 30 * time.Second
)

// RedisClient backs the JWT logout blacklist and the short-lived lot-list
// cache. Both uses tolerate a cold cache; only the blacklist is
// correctness-relevant and it fails closed in the middleware.
type RedisClient struct {
	client *redis.Client
}

func NewRedisClient(cfg config.RedisConfig) (*RedisClient, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		DialTimeout:  5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisClient{client: rdb}, nil
}

// BlacklistToken voids a JWT until its natural expiry.
func (r *RedisClient) BlacklistToken(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return r.client.Set(ctx, blacklistPrefix+tokenID, "1", ttl).Err()
}

// IsTokenBlacklisted reports whether the token was voided by a logout.
func (r *RedisClient) IsTokenBlacklisted(ctx context.Context, tokenID string) (bool, error) {
	err := r.client.Get(ctx, blacklistPrefix+tokenID).Err()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("blacklist lookup error: %w", err)
	}
	return true, nil
}

// GetLotList returns the cached lot listing for the filter key, or
// (nil, nil) on a miss.
func (r *RedisClient) GetLotList(ctx context.Context, key string) ([]models.ParkingLot, error) {
	raw, err := r.client.Get(ctx, lotListKey+key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var lots []models.ParkingLot
	if err := json.Unmarshal(raw, &lots); err != nil {
		return nil, err
	}
	return lots, nil
}

// SetLotList caches a lot listing. The short TTL bounds staleness of the
// available_spaces counters shown in listings.
func (r *RedisClient) SetLotList(ctx context.Context, key string, lots []models.ParkingLot) error {
	raw, err := json.Marshal(lots)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, lotListKey+key, raw, lotListTTL).Err()
}

// InvalidateLotLists drops every cached listing after a lot mutation.
func (r *RedisClient) InvalidateLotLists(ctx context.Context) error {
	iter := r.client.Scan(ctx, 0, lotListKey+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return r.client.Del(ctx, keys...).Err()
}

func (r *RedisClient) Close() error {
	return r.client.Close()
}
