package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/poolscout/poolscout/internal/cache"
	"github.com/poolscout/poolscout/internal/models"
	"github.com/poolscout/poolscout/internal/services"
	"github.com/poolscout/poolscout/internal/sharing"
	"github.com/poolscout/poolscout/internal/telegram"
	"github.com/poolscout/poolscout/internal/telemetry"
)

// EngineHandler exposes the scan pipeline: normalize raw pool records, feed
// the per-pool history, and produce a strategy with its decision proof.
type EngineHandler struct {
	normalizer    *services.Normalizer
	generator     *services.StrategyGenerator
	predictor     services.Predictor
	history       *services.HistoryStore
	cache         *cache.PredictionCache
	proofs        *sharing.ProofBuilder
	notifier      *telegram.Notifier
	defaultMinAPY float64
	logger        *logrus.Logger
}

func NewEngineHandler(
	normalizer *services.Normalizer,
	generator *services.StrategyGenerator,
	predictor services.Predictor,
	history *services.HistoryStore,
	predictionCache *cache.PredictionCache,
	proofs *sharing.ProofBuilder,
	notifier *telegram.Notifier,
	defaultMinAPY float64,
	logger *logrus.Logger,
) *EngineHandler {
	return &EngineHandler{
		normalizer:    normalizer,
		generator:     generator,
		predictor:     predictor,
		history:       history,
		cache:         predictionCache,
		proofs:        proofs,
		notifier:      notifier,
		defaultMinAPY: defaultMinAPY,
		logger:        logger,
	}
}

type ScanRequest struct {
	Records []models.RawPoolRecord `json:"records" binding:"required"`
	MinAPY  *float64               `json:"min_apy"`
}

type ScanResponse struct {
	Opportunities []models.Opportunity   `json:"opportunities"`
	Strategy      *models.Strategy       `json:"strategy,omitempty"`
	Proof         *sharing.DecisionProof `json:"proof,omitempty"`
	Timestamp     time.Time              `json:"timestamp"`
}

// Scan runs one full cycle: normalize, ingest observations into history,
// select the best opportunity, and emit the strategy with its proof. An empty
// outcome (no candidate passed the filter) is a 200 with no strategy.
func (h *EngineHandler) Scan(c *gin.Context) {
	var req ScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	ctx, span := telemetry.Tracer().Start(c.Request.Context(), "engine.scan")
	defer span.End()

	opportunities := h.normalizer.Normalize(req.Records)

	for _, opp := range opportunities {
		tvl, _ := opp.TVL.Float64()
		volume, _ := opp.Volume24h.Float64()
		h.history.Ingest(models.APYDataPoint{
			PoolAddress: opp.PoolAddress,
			Timestamp:   opp.ObservedAt,
			APY:         opp.APY,
			TVL:         tvl,
			Volume:      volume,
		})
		h.cache.InvalidatePrediction(ctx, opp.PoolAddress)
	}

	minAPY := h.defaultMinAPY
	if req.MinAPY != nil {
		minAPY = *req.MinAPY
	}

	strategy, err := h.generator.Generate(opportunities, minAPY)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate strategy"})
		return
	}

	response := ScanResponse{
		Opportunities: opportunities,
		Timestamp:     time.Now().UTC(),
	}

	if strategy != nil {
		proof, err := h.proofs.Build(*strategy)
		if err != nil {
			h.logger.WithError(err).Warn("Failed to build decision proof")
		} else {
			response.Proof = &proof
		}

		response.Strategy = strategy
		h.cache.SetLatestStrategy(ctx, *strategy)
		h.notifier.NotifyStrategy(ctx, *strategy)
	}

	c.JSON(http.StatusOK, response)
}

type PredictionResponse struct {
	Prediction models.APYPrediction `json:"prediction"`
	Cached     bool                 `json:"cached"`
}

// GetPrediction returns the forecast for one pool, serving from the cache
// within its TTL. A pool with no history gets the neutral low-confidence
// prediction, not an error.
func (h *EngineHandler) GetPrediction(c *gin.Context) {
	poolAddress := c.Param("address")

	if cached, ok := h.cache.GetPrediction(c.Request.Context(), poolAddress); ok {
		c.JSON(http.StatusOK, PredictionResponse{Prediction: *cached, Cached: true})
		return
	}

	prediction := h.predictor.Predict(poolAddress, h.history.History(poolAddress))
	h.cache.SetPrediction(c.Request.Context(), prediction)

	c.JSON(http.StatusOK, PredictionResponse{Prediction: prediction, Cached: false})
}

type DataPointRequest struct {
	Points []DataPointInput `json:"points" binding:"required"`
}

type DataPointInput struct {
	Timestamp time.Time `json:"timestamp"`
	APY       float64   `json:"apy"`
	TVL       float64   `json:"tvl"`
	Volume    float64   `json:"volume"`
}

// IngestDataPoints appends historical observations for one pool, for
// collaborators that backfill history out of band of scan cycles.
func (h *EngineHandler) IngestDataPoints(c *gin.Context) {
	poolAddress := c.Param("address")

	var req DataPointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	accepted := 0
	for _, p := range req.Points {
		if p.APY < 0 || p.TVL < 0 {
			continue
		}
		ts := p.Timestamp
		if ts.IsZero() {
			ts = time.Now().UTC()
		}
		h.history.Ingest(models.APYDataPoint{
			PoolAddress: poolAddress,
			Timestamp:   ts,
			APY:         p.APY,
			TVL:         p.TVL,
			Volume:      p.Volume,
		})
		accepted++
	}

	h.cache.InvalidatePrediction(c.Request.Context(), poolAddress)

	c.JSON(http.StatusOK, gin.H{
		"pool_address": poolAddress,
		"accepted":     accepted,
		"history_size": h.history.Len(poolAddress),
	})
}

// GetLatestStrategy serves the most recent cached strategy for sharing
// consumers.
func (h *EngineHandler) GetLatestStrategy(c *gin.Context) {
	strategy, ok := h.cache.GetLatestStrategy(c.Request.Context())
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no strategy generated yet"})
		return
	}

	proof, err := h.proofs.Build(*strategy)
	if err != nil {
		h.logger.WithError(err).Warn("Failed to build decision proof")
		c.JSON(http.StatusOK, gin.H{"strategy": strategy})
		return
	}

	c.JSON(http.StatusOK, gin.H{"strategy": strategy, "proof": proof})
}
