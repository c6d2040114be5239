package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/helmcode/ml-reasoning-assistant/pkg/model"
)

const scenariosKey = "mlsra:scenarios"

// DefaultTTL matches how long the page may show a stale scenario list.
const DefaultTTL = 30 * time.Second

type ScenarioLister interface {
	ListScenarios(ctx context.Context) ([]model.Scenario, error)
}

func NewClient(addr string, pword string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: pword,
		DB:       db,
	})

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return rdb, nil
}

// Scenarios caches the scenario list in Redis. Redis failures are logged and
// the read goes straight to the underlying store. A nil client disables caching.
type Scenarios struct {
	rdb    *redis.Client
	next   ScenarioLister
	ttl    time.Duration
	logger *slog.Logger
}

func NewScenarios(rdb *redis.Client, next ScenarioLister, ttl time.Duration, logger *slog.Logger) *Scenarios {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scenarios{rdb: rdb, next: next, ttl: ttl, logger: logger}
}

func (c *Scenarios) ListScenarios(ctx context.Context) ([]model.Scenario, error) {
	if c.rdb == nil {
		return c.next.ListScenarios(ctx)
	}

	data, err := c.rdb.Get(ctx, scenariosKey).Result()
	switch {
	case err == nil:
		var scenarios []model.Scenario
		if err := json.Unmarshal([]byte(data), &scenarios); err == nil {
			return scenarios, nil
		}
		c.logger.Warn("discarding unreadable scenario cache entry")
	case errors.Is(err, redis.Nil):
	default:
		c.logger.Warn("scenario cache read failed", "error", err)
		return c.next.ListScenarios(ctx)
	}

	scenarios, err := c.next.ListScenarios(ctx)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(scenarios)
	if err != nil {
		return scenarios, nil
	}
	if err := c.rdb.Set(ctx, scenariosKey, string(payload), c.ttl).Err(); err != nil {
		c.logger.Warn("scenario cache write failed", "error", err)
	}
	return scenarios, nil
}

// Invalidate drops the cached list.
func (c *Scenarios) Invalidate(ctx context.Context) error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Del(ctx, scenariosKey).Err()
}
