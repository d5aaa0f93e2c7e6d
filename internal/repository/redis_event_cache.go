package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/VinayKumar7512/EventNest/internal/domain"
	pkgredis "github.com/VinayKumar7512/EventNest/pkg/redis"
	"github.com/VinayKumar7512/EventNest/pkg/telemetry"
)

// DefaultAvailabilityTTL keeps the cache short-lived. The ledger in
// Postgres stays the source of truth; the cache only absorbs read bursts
// on the event detail page.
const DefaultAvailabilityTTL = 10 * time.Second

// RedisEventCache caches event snapshots keyed by event ID
type RedisEventCache struct {
	client *pkgredis.Client
	ttl    time.Duration
}

// NewRedisEventCache creates a new RedisEventCache
func NewRedisEventCache(client *pkgredis.Client, ttl time.Duration) *RedisEventCache {
	if ttl <= 0 {
		ttl = DefaultAvailabilityTTL
	}
	return &RedisEventCache{client: client, ttl: ttl}
}

func eventCacheKey(eventID string) string {
	return fmt.Sprintf("event:snapshot:%s", eventID)
}

// Get returns the cached event, or nil on a miss. Cache errors degrade to
// a miss so Redis outages never break event reads.
func (c *RedisEventCache) Get(ctx context.Context, eventID string) (*domain.Event, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.redis.event_cache.get")
	defer span.End()

	span.SetAttributes(attribute.String("event_id", eventID))

	data, err := c.client.Get(ctx, eventCacheKey(eventID)).Result()
	if err != nil {
		span.SetStatus(codes.Ok, "miss")
		return nil, nil
	}

	var event domain.Event
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Ok, "corrupt entry")
		return nil, nil
	}

	span.SetStatus(codes.Ok, "hit")
	return &event, nil
}

// Set stores an event snapshot
func (c *RedisEventCache) Set(ctx context.Context, event *domain.Event) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.redis.event_cache.set")
	defer span.End()

	span.SetAttributes(attribute.String("event_id", event.ID))

	data, err := json.Marshal(event)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := c.client.Set(ctx, eventCacheKey(event.ID), string(data), c.ttl).Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to cache event: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// Invalidate drops the cached snapshot after a ledger mutation
func (c *RedisEventCache) Invalidate(ctx context.Context, eventID string) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.redis.event_cache.invalidate")
	defer span.End()

	span.SetAttributes(attribute.String("event_id", eventID))

	if err := c.client.Del(ctx, eventCacheKey(eventID)).Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to invalidate event cache: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}
