package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/Skotchmaster/sport_shop/internal/models"
)

const ProductTTL = 10 * time.Minute

// ProductCache holds product detail responses keyed by product id.
type ProductCache interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Product, bool, error)
	Set(ctx context.Context, p *models.Product) error
	Invalidate(ctx context.Context, ids ...uuid.UUID) error
}

type kv interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Connect parses a redis:// URL and pings the server.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis: parse url: %w", err)
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second
	opts.PoolSize = 10
	opts.MinIdleConns = 2

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}
	return client, nil
}

type Redis struct {
	kv  kv
	ttl time.Duration
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{kv: client, ttl: ProductTTL}
}

func productKey(id uuid.UUID) string {
	return fmt.Sprintf("product:%s", id)
}

func (r *Redis) Get(ctx context.Context, id uuid.UUID) (*models.Product, bool, error) {
	raw, err := r.kv.Get(ctx, productKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var p models.Product
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, false, fmt.Errorf("redis: decode product %s: %w", id, err)
	}
	return &p, true, nil
}

func (r *Redis) Set(ctx context.Context, p *models.Product) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("redis: encode product %s: %w", p.ID, err)
	}
	return r.kv.Set(ctx, productKey(p.ID), data, r.ttl).Err()
}

func (r *Redis) Invalidate(ctx context.Context, ids ...uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = productKey(id)
	}
	return r.kv.Del(ctx, keys...).Err()
}

// Nop never hits. Used when REDIS_URL is not set.
type Nop struct{}

func (Nop) Get(context.Context, uuid.UUID) (*models.Product, bool, error) { return nil, false, nil }
func (Nop) Set(context.Context, *models.Product) error                  { return nil }
func (Nop) Invalidate(context.Context, ...uuid.UUID) error              { return nil }
