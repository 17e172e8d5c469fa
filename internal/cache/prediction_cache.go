package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/poolscout/poolscout/internal/database"
	"github.com/poolscout/poolscout/internal/models"
)

const (
	predictionKeyPrefix = "poolscout:prediction:"
	latestStrategyKey   = "poolscout:strategy:latest"
)

// PredictionCache keeps recent predictions in Redis so repeated reads within
// the TTL skip recomputation, mirroring the engine's short-lived prediction
// reuse window. A cold or unavailable cache is never an error; callers fall
// through to the predictor.
type PredictionCache struct {
	redis  *database.RedisClient
	ttl    time.Duration
	logger *logrus.Logger
}

func NewPredictionCache(redis *database.RedisClient, ttl time.Duration, logger *logrus.Logger) *PredictionCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &PredictionCache{redis: redis, ttl: ttl, logger: logger}
}

// GetPrediction returns the cached prediction for a pool, or (nil, false) on
// any miss, decode failure, or cache unavailability.
func (c *PredictionCache) GetPrediction(ctx context.Context, poolAddress string) (*models.APYPrediction, bool) {
	if c.redis == nil {
		return nil, false
	}

	raw, err := c.redis.Get(ctx, predictionKey(poolAddress))
	if err != nil {
		return nil, false
	}

	var prediction models.APYPrediction
	if err := json.Unmarshal([]byte(raw), &prediction); err != nil {
		c.logger.WithError(err).WithField("pool", poolAddress).Warn("Discarding undecodable cached prediction")
		return nil, false
	}

	return &prediction, true
}

// SetPrediction stores a prediction with the configured TTL.
func (c *PredictionCache) SetPrediction(ctx context.Context, prediction models.APYPrediction) {
	if c.redis == nil {
		return
	}

	payload, err := json.Marshal(prediction)
	if err != nil {
		c.logger.WithError(err).WithField("pool", prediction.PoolAddress).Warn("Failed to encode prediction for caching")
		return
	}

	if err := c.redis.Set(ctx, predictionKey(prediction.PoolAddress), string(payload), c.ttl); err != nil {
		c.logger.WithError(err).WithField("pool", prediction.PoolAddress).Warn("Failed to cache prediction")
	}
}

// InvalidatePrediction drops the cached prediction after new observations
// arrive for the pool.
func (c *PredictionCache) InvalidatePrediction(ctx context.Context, poolAddress string) {
	if c.redis == nil {
		return
	}
	if err := c.redis.Delete(ctx, predictionKey(poolAddress)); err != nil {
		c.logger.WithError(err).WithField("pool", poolAddress).Warn("Failed to invalidate cached prediction")
	}
}

// SetLatestStrategy stores the most recent scan's strategy for consumers that
// poll the sharing surface.
func (c *PredictionCache) SetLatestStrategy(ctx context.Context, strategy models.Strategy) {
	if c.redis == nil {
		return
	}

	payload, err := json.Marshal(strategy)
	if err != nil {
		c.logger.WithError(err).Warn("Failed to encode strategy for caching")
		return
	}

	if err := c.redis.Set(ctx, latestStrategyKey, string(payload), c.ttl); err != nil {
		c.logger.WithError(err).Warn("Failed to cache latest strategy")
	}
}

// GetLatestStrategy returns the last cached strategy, if any.
func (c *PredictionCache) GetLatestStrategy(ctx context.Context) (*models.Strategy, bool) {
	if c.redis == nil {
		return nil, false
	}

	raw, err := c.redis.Get(ctx, latestStrategyKey)
	if err != nil {
		return nil, false
	}

	var strategy models.Strategy
	if err := json.Unmarshal([]byte(raw), &strategy); err != nil {
		c.logger.WithError(err).Warn("Discarding undecodable cached strategy")
		return nil, false
	}

	return &strategy, true
}

func predictionKey(poolAddress string) string {
	return fmt.Sprintf("%s%s", predictionKeyPrefix, poolAddress)
}
