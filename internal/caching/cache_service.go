package caching

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "gestly"

// usageTTL keeps daily usage counters around long enough for reporting.
const usageTTL = 48 * time.Hour

type CacheService interface {
	// Generic JSON values
	GetJSON(ctx context.Context, key string, dest interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	// TakeJSON reads and deletes key atomically. Of concurrent callers for
	// the same key, at most one gets found == true.
	TakeJSON(ctx context.Context, key string, dest interface{}) (bool, error)
	Delete(ctx context.Context, keys ...string) error

	// Rate limiting: fixed window counter. Returns the count after this hit
	// and the time left in the window.
	HitWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)

	// Per-business successful request counters, one per UTC day
	IncrementUsage(ctx context.Context, businessID uuid.UUID, day time.Time) (int64, error)
	GetUsage(ctx context.Context, businessID uuid.UUID, day time.Time) (int64, error)

	// Cache invalidation
	InvalidateBusinessCache(ctx context.Context, businessID uuid.UUID) error

	Ping(ctx context.Context) error
}

// Key joins parts under the gestly namespace.
func Key(parts ...string) string {
	return keyPrefix + ":" + strings.Join(parts, ":")
}

// MetricsKey is the cache key of a dashboard metrics window.
func MetricsKey(businessID uuid.UUID, from, to time.Time) string {
	return Key("metrics", businessID.String(), from.UTC().Format(time.RFC3339), to.UTC().Format(time.RFC3339))
}

// APIKeyKey is the cache key of a resolved API key hash.
func APIKeyKey(hash string) string {
	return Key("apikey", hash)
}

// RefreshTokenKey is the cache key of an opaque refresh token.
func RefreshTokenKey(token string) string {
	return Key("refresh", token)
}

func usageKey(businessID uuid.UUID, day time.Time) string {
	return Key("usage", businessID.String(), day.UTC().Format("2006-01-02"))
}

type redisCacheService struct {
	client *redis.Client
}

// NewRedisClient builds a client, accepting both host:port and redis:// URLs.
func NewRedisClient(addr, password string, db int) (*redis.Client, error) {
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		opts, err := redis.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		if password != "" {
			opts.Password = password
		}
		return redis.NewClient(opts), nil
	}

	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	}), nil
}

func NewRedisCacheService(client *redis.Client) CacheService {
	return &redisCacheService{client: client}
}

func (r *redisCacheService) GetJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil // cache miss
		}
		return false, err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (r *redisCacheService) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, data, ttl).Err()
}

func (r *redisCacheService) TakeJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := r.client.GetDel(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (r *redisCacheService) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return r.client.Del(ctx, keys...).Err()
}

func (r *redisCacheService) HitWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	cacheKey := Key("ratelimit", key)
	count, err := r.client.Incr(ctx, cacheKey).Result()
	if err != nil {
		return 0, 0, err
	}

	// Set expiry on first request
	if count == 1 {
		if err := r.client.Expire(ctx, cacheKey, window).Err(); err != nil {
			return count, window, err
		}
		return count, window, nil
	}

	ttl, err := r.client.TTL(ctx, cacheKey).Result()
	if err != nil {
		return count, window, err
	}
	if ttl < 0 {
		// lost its expiry; restart the window
		r.client.Expire(ctx, cacheKey, window)
		ttl = window
	}
	return count, ttl, nil
}

func (r *redisCacheService) IncrementUsage(ctx context.Context, businessID uuid.UUID, day time.Time) (int64, error) {
	key := usageKey(businessID, day)
	pipe := r.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, usageTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

func (r *redisCacheService) GetUsage(ctx context.Context, businessID uuid.UUID, day time.Time) (int64, error) {
	n, err := r.client.Get(ctx, usageKey(businessID, day)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, err
	}
	return n, nil
}

func (r *redisCacheService) InvalidateBusinessCache(ctx context.Context, businessID uuid.UUID) error {
	pattern := Key("metrics", businessID.String(), "*")
	iter := r.client.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}

	if len(keys) > 0 {
		return r.client.Del(ctx, keys...).Err()
	}
	return nil
}

func (r *redisCacheService) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
