package services

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poolscout/poolscout/internal/models"
)

func newTestGenerator() *StrategyGenerator {
	cfg := testEngineConfig()
	cfg.PrincipalUSD = 1000
	scorer := NewRiskScorer(cfg)
	predictor := NewHeuristicPredictor(cfg.WindowSize)
	history := NewHistoryStore(cfg.RetentionDays)
	return NewStrategyGenerator(cfg, scorer, predictor, history, testLogger())
}

func namedOpportunity(address string, apy float64, tvl int64) models.Opportunity {
	return models.Opportunity{
		Chain:       "bsc",
		PoolAddress: address,
		Protocol:    "pancakeswap",
		APY:         apy,
		TVL:         decimal.NewFromInt(tvl),
	}
}

func TestGeneratePicksHighestAPY(t *testing.T) {
	g := newTestGenerator()

	strategy, err := g.Generate([]models.Opportunity{
		namedOpportunity("0xaaa", 8, 2000000),
		namedOpportunity("0xbbb", 15, 500000),
		namedOpportunity("0xccc", 12, 9000000),
	}, 5)

	require.NoError(t, err)
	require.NotNil(t, strategy)
	assert.Equal(t, "0xbbb", strategy.Opportunity.PoolAddress)
	// 1000 * 15 / 100
	assert.True(t, strategy.ExpectedReturn.Equal(decimal.NewFromInt(150)),
		"expected return was %s", strategy.ExpectedReturn)
}

func TestGenerateTieBreaksOnTVLThenAddress(t *testing.T) {
	g := newTestGenerator()

	strategy, err := g.Generate([]models.Opportunity{
		namedOpportunity("0xaaa", 15, 500000),
		namedOpportunity("0xbbb", 15, 2000000),
	}, 5)

	require.NoError(t, err)
	require.NotNil(t, strategy)
	assert.Equal(t, "0xbbb", strategy.Opportunity.PoolAddress)

	strategy, err = g.Generate([]models.Opportunity{
		namedOpportunity("0xccc", 15, 500000),
		namedOpportunity("0xaaa", 15, 500000),
	}, 5)

	require.NoError(t, err)
	require.NotNil(t, strategy)
	assert.Equal(t, "0xaaa", strategy.Opportunity.PoolAddress)
}

func TestGenerateNothingPassesFilter(t *testing.T) {
	g := newTestGenerator()

	strategy, err := g.Generate([]models.Opportunity{
		namedOpportunity("0xaaa", 3, 2000000),
		namedOpportunity("0xbbb", 4.9, 2000000),
	}, 5)

	require.NoError(t, err)
	assert.Nil(t, strategy)
}

func TestGenerateEmptyInput(t *testing.T) {
	g := newTestGenerator()

	strategy, err := g.Generate(nil, 5)
	require.NoError(t, err)
	assert.Nil(t, strategy)
}

func TestGenerateCarriesRiskAndPrediction(t *testing.T) {
	g := newTestGenerator()

	strategy, err := g.Generate([]models.Opportunity{
		namedOpportunity("0xaaa", 12, 2000000),
	}, 5)

	require.NoError(t, err)
	require.NotNil(t, strategy)
	// known protocol with deep liquidity and sane yield
	assert.Equal(t, models.RiskTierLow, strategy.Risk.Tier)
	// no stored history yet, so the forecast is neutral
	assert.Equal(t, models.RecommendationHold, strategy.Action)
	assert.Equal(t, strategy.Prediction.Recommendation, strategy.Action)
	assert.False(t, strategy.GeneratedAt.IsZero())
}

func TestGenerateUsesStoredHistory(t *testing.T) {
	cfg := testEngineConfig()
	cfg.PrincipalUSD = 1000
	history := NewHistoryStore(cfg.RetentionDays)
	g := NewStrategyGenerator(cfg, NewRiskScorer(cfg), NewHeuristicPredictor(cfg.WindowSize), history, testLogger())

	for _, pt := range historyOf([]float64{10, 8, 6, 4, 2, 1, 0.5}) {
		pt.PoolAddress = "0xaaa"
		history.Ingest(pt)
	}

	strategy, err := g.Generate([]models.Opportunity{
		namedOpportunity("0xaaa", 12, 2000000),
	}, 5)

	require.NoError(t, err)
	require.NotNil(t, strategy)
	assert.Equal(t, models.TrendDown, strategy.Prediction.Trend)
	assert.Equal(t, models.RecommendationSell, strategy.Action)
}
