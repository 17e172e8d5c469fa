package services

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/poolscout/poolscout/internal/config"
	"github.com/poolscout/poolscout/internal/models"
)

// StrategyGenerator combines the best-ranked opportunity with its risk score
// and trend forecast into a single recommendation. An empty outcome is a
// normal case, not an error: callers get (nil, nil) when nothing passes the
// minimum APY filter.
type StrategyGenerator struct {
	scorer    *RiskScorer
	predictor Predictor
	history   *HistoryStore
	principal decimal.Decimal
	logger    *logrus.Logger
}

func NewStrategyGenerator(cfg config.EngineConfig, scorer *RiskScorer, predictor Predictor, history *HistoryStore, logger *logrus.Logger) *StrategyGenerator {
	return &StrategyGenerator{
		scorer:    scorer,
		predictor: predictor,
		history:   history,
		principal: decimal.NewFromFloat(cfg.PrincipalUSD),
		logger:    logger,
	}
}

// Generate selects the best candidate by descending APY among opportunities
// meeting minAPY. Ties prefer higher TVL, then the lexicographically smaller
// pool address, so selection is deterministic across runs.
func (g *StrategyGenerator) Generate(opportunities []models.Opportunity, minAPY float64) (*models.Strategy, error) {
	var best *models.Opportunity
	for i := range opportunities {
		opp := &opportunities[i]
		if opp.APY < minAPY {
			continue
		}
		if best == nil || betterCandidate(*opp, *best) {
			best = opp
		}
	}

	if best == nil {
		g.logger.WithFields(logrus.Fields{
			"candidates": len(opportunities),
			"min_apy":    minAPY,
		}).Info("No opportunity passed the APY filter")
		return nil, nil
	}

	risk := g.scorer.Score(*best)
	prediction := g.predictor.Predict(best.PoolAddress, g.history.History(best.PoolAddress))

	expectedReturn := g.principal.Mul(decimal.NewFromFloat(best.APY)).Div(decimal.NewFromInt(100))

	strategy := &models.Strategy{
		Opportunity:    *best,
		Risk:           risk,
		Prediction:     prediction,
		Action:         prediction.Recommendation,
		ExpectedReturn: expectedReturn,
		GeneratedAt:    time.Now().UTC(),
	}

	g.logger.WithFields(logrus.Fields{
		"pool":     best.PoolAddress,
		"apy":      best.APY,
		"tier":     risk.Tier,
		"action":   strategy.Action,
		"trend":    prediction.Trend,
		"protocol": best.Protocol,
	}).Info("Generated strategy")

	return strategy, nil
}

func betterCandidate(a, b models.Opportunity) bool {
	if a.APY != b.APY {
		return a.APY > b.APY
	}
	if !a.TVL.Equal(b.TVL) {
		return a.TVL.GreaterThan(b.TVL)
	}
	return a.PoolAddress < b.PoolAddress
}
