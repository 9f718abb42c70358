package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/andresuchdata/salescast/backend-go/internal/config"
	"github.com/andresuchdata/salescast/backend-go/internal/dataset"
	"github.com/andresuchdata/salescast/backend-go/internal/domain"
)

const (
	forecastKeyPrefix  = "forecast"
	scanBatchSize      = 100
	defaultForecastTTL = 10 * time.Minute
	pingTimeout        = 5 * time.Second
)

// ForecastKey identifies a cached forecast. Version ties the entry to one trained model, so a
// retrain never serves stale predictions even before InvalidateAll runs.
type ForecastKey struct {
	Version   int64
	Company   string
	From      time.Time
	To        time.Time
	Frequency domain.Frequency
}

type ForecastCache interface {
	Get(ctx context.Context, key ForecastKey) ([]domain.ForecastRecord, bool, error)
	Set(ctx context.Context, key ForecastKey, records []domain.ForecastRecord) error
	InvalidateAll(ctx context.Context) error
}

type redisForecastCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopForecastCache struct{}

// NewForecastCache returns a Redis-backed cache, or a no-op cache when caching is disabled. The
// server is pinged once so a bad address fails at startup.
func NewForecastCache(cfg config.CacheConfig) (ForecastCache, error) {
	if !cfg.Enabled {
		return &noopForecastCache{}, nil
	}

	opts, err := redisOptions(cfg)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return NewRedisForecastCache(client, time.Duration(cfg.ForecastTTLSeconds)*time.Second), nil
}

// NewRedisForecastCache wraps an existing client. A non-positive ttl uses the default.
func NewRedisForecastCache(client *redis.Client, ttl time.Duration) ForecastCache {
	if ttl <= 0 {
		ttl = defaultForecastTTL
	}
	return &redisForecastCache{client: client, ttl: ttl}
}

// redisOptions prefers REDIS_URL and falls back to host, port and db.
func redisOptions(cfg config.CacheConfig) (*redis.Options, error) {
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		return opts, nil
	}

	host, port := cfg.RedisHost, cfg.RedisPort
	if host == "" {
		host = "127.0.0.1"
	}
	if port == "" {
		port = "6379"
	}
	return &redis.Options{
		Addr:     net.JoinHostPort(host, port),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, nil
}

func NewNoopForecastCache() ForecastCache {
	return &noopForecastCache{}
}

func (c *redisForecastCache) Get(ctx context.Context, key ForecastKey) ([]domain.ForecastRecord, bool, error) {
	payload, err := c.client.Get(ctx, buildForecastKey(key)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var records []domain.ForecastRecord
	if err := json.Unmarshal(payload, &records); err != nil {
		return nil, false, fmt.Errorf("decode forecast cache: %w", err)
	}

	return records, true, nil
}

func (c *redisForecastCache) Set(ctx context.Context, key ForecastKey, records []domain.ForecastRecord) error {
	payload, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode forecast cache: %w", err)
	}

	if err := c.client.Set(ctx, buildForecastKey(key), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}

	return nil
}

// InvalidateAll deletes every forecast entry, whatever model version it belongs to.
func (c *redisForecastCache) InvalidateAll(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, forecastKeyPrefix+":*", scanBatchSize).Iterator()
	batch := make([]string, 0, scanBatchSize)
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == scanBatchSize {
			if err := c.client.Del(ctx, batch...).Err(); err != nil {
				return fmt.Errorf("redis delete failed: %w", err)
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan failed: %w", err)
	}
	if len(batch) > 0 {
		if err := c.client.Del(ctx, batch...).Err(); err != nil {
			return fmt.Errorf("redis delete failed: %w", err)
		}
	}
	return nil
}

func (n *noopForecastCache) Get(ctx context.Context, key ForecastKey) ([]domain.ForecastRecord, bool, error) {
	return nil, false, nil
}

func (n *noopForecastCache) Set(ctx context.Context, key ForecastKey, records []domain.ForecastRecord) error {
	return nil
}

func (n *noopForecastCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func buildForecastKey(k ForecastKey) string {
	raw := strings.Join([]string{
		strings.ToLower(dataset.NormalizeCompany(k.Company)),
		k.From.Format("2006-01-02"),
		k.To.Format("2006-01-02"),
		strings.ToLower(string(k.Frequency)),
	}, "|")
	hash := sha1.Sum([]byte(raw))
	return fmt.Sprintf("%s:%d:%s", forecastKeyPrefix, k.Version, hex.EncodeToString(hash[:]))
}
