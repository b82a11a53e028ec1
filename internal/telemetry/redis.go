package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/KevinKickass/PlantDeck/internal/types"
)

// RedisPublisher publishes each snapshot on <prefix>:<id> and keeps the
// latest one under <prefix>:latest:<id>.
type RedisPublisher struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	TTL      time.Duration
}

func NewRedisPublisher(ctx context.Context, opts RedisOptions) (*RedisPublisher, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return NewRedisPublisherWithClient(client, opts.Prefix, opts.TTL), nil
}

func NewRedisPublisherWithClient(client *redis.Client, prefix string, ttl time.Duration) *RedisPublisher {
	if prefix == "" {
		prefix = "plantdeck:telemetry"
	}
	return &RedisPublisher{client: client, prefix: prefix, ttl: ttl}
}

func (p *RedisPublisher) Name() string { return "redis" }

func (p *RedisPublisher) Publish(ctx context.Context, snap types.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	pipe := p.client.TxPipeline()
	pipe.Publish(ctx, p.Channel(snap.ID), payload)
	pipe.Set(ctx, p.LatestKey(snap.ID), payload, p.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to publish snapshot %s: %w", snap.ID, err)
	}
	return nil
}

func (p *RedisPublisher) Channel(id string) string {
	return p.prefix + ":" + id
}

func (p *RedisPublisher) LatestKey(id string) string {
	return p.prefix + ":latest:" + id
}

func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
