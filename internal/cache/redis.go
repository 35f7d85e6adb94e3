package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	opTimeout   = 3 * time.Second
	scanTimeout = 10 * time.Second
	scanBatch   = 100
)

type CacheConfig struct {
	Addr         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	MaxRetries   int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Breaker      *CircuitBreakerConfig
}

func DefaultCacheConfig() *CacheConfig {
	return &CacheConfig{
		Addr:         "localhost:6379",
		PoolSize:     10,
		MinIdleConns: 5,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

// RedisCache is a Cache backed by Redis. Every round trip goes through a
// circuit breaker; while it is open calls fail fast with ErrCacheDown.
type RedisCache struct {
	client  *redis.Client
	breaker *CircuitBreaker
	metrics *CacheMetrics
}

func NewRedisCache(config *CacheConfig) *RedisCache {
	if config == nil {
		config = DefaultCacheConfig()
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         config.Addr,
		Password:     config.Password,
		DB:           config.DB,
		PoolSize:     config.PoolSize,
		MinIdleConns: config.MinIdleConns,
		MaxRetries:   config.MaxRetries,
		DialTimeout:  config.DialTimeout,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	})

	return &RedisCache{
		client:  rdb,
		breaker: NewCircuitBreaker(config.Breaker),
		metrics: NewCacheMetrics(),
	}
}

func (r *RedisCache) Metrics() *CacheMetrics {
	return r.metrics
}

func (r *RedisCache) Breaker() *CircuitBreaker {
	return r.breaker
}

func (r *RedisCache) do(ctx context.Context, timeout time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := r.breaker.Execute(func() error {
		err := fn(ctx)
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return err
	})
	if errors.Is(err, ErrCircuitBreakerOpen) {
		return ErrCacheDown
	}
	return err
}

func (r *RedisCache) Get(ctx context.Context, key string, dest interface{}) error {
	var data []byte
	err := r.do(ctx, opTimeout, func(ctx context.Context) error {
		var err error
		data, err = r.client.Get(ctx, key).Bytes()
		return err
	})
	if err != nil {
		r.metrics.RecordError()
		return fmt.Errorf("get %s: %w", key, err)
	}
	if data == nil {
		r.metrics.RecordMiss()
		return ErrCacheMiss
	}
	if err := json.Unmarshal(data, dest); err != nil {
		r.metrics.RecordError()
		return fmt.Errorf("unmarshal cached value: %w", err)
	}
	r.metrics.RecordHit()
	return nil
}

func (r *RedisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		r.metrics.RecordError()
		return fmt.Errorf("marshal value: %w", err)
	}
	err = r.do(ctx, opTimeout, func(ctx context.Context) error {
		return r.client.Set(ctx, key, data, ttl).Err()
	})
	if err != nil {
		r.metrics.RecordError()
		return fmt.Errorf("set %s: %w", key, err)
	}
	r.metrics.RecordSet()
	return nil
}

func (r *RedisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	err := r.do(ctx, opTimeout, func(ctx context.Context) error {
		return r.client.Del(ctx, keys...).Err()
	})
	if err != nil {
		r.metrics.RecordError()
		return fmt.Errorf("delete: %w", err)
	}
	r.metrics.RecordDelete()
	return nil
}

// DeletePattern walks the keyspace with SCAN rather than KEYS so large
// keyspaces do not block the server.
func (r *RedisCache) DeletePattern(ctx context.Context, pattern string) error {
	err := r.do(ctx, scanTimeout, func(ctx context.Context) error {
		iter := r.client.Scan(ctx, 0, pattern, scanBatch).Iterator()
		var batch []string
		for iter.Next(ctx) {
			batch = append(batch, iter.Val())
			if len(batch) == scanBatch {
				if err := r.client.Del(ctx, batch...).Err(); err != nil {
					return err
				}
				batch = batch[:0]
			}
		}
		if err := iter.Err(); err != nil {
			return err
		}
		if len(batch) > 0 {
			return r.client.Del(ctx, batch...).Err()
		}
		return nil
	})
	if err != nil {
		r.metrics.RecordError()
		return fmt.Errorf("delete pattern %s: %w", pattern, err)
	}
	r.metrics.RecordDelete()
	return nil
}

func (r *RedisCache) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return r.client.Ping(ctx).Err()
}

func (r *RedisCache) Stats() map[string]interface{} {
	pool := r.client.PoolStats()
	return map[string]interface{}{
		"backend":       "redis",
		"pool_hits":     pool.Hits,
		"pool_misses":   pool.Misses,
		"pool_timeouts": pool.Timeouts,
		"pool_total":    pool.TotalConns,
		"pool_idle":     pool.IdleConns,
		"pool_stale":    pool.StaleConns,
		"breaker":       r.breaker.GetStats(),
		"metrics":       r.metrics.Snapshot(),
	}
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}
