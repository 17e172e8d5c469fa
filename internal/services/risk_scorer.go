package services

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/poolscout/poolscout/internal/config"
	"github.com/poolscout/poolscout/internal/models"
)

// RiskScorer computes a bounded risk score from an opportunity's liquidity,
// protocol reputation, and yield magnitude. It is an explainable weighted
// rule set, not a trained model: factors evaluate in a fixed order (TVL,
// protocol, APY) so the factor list is reproducible.
type RiskScorer struct {
	highLiquidityThreshold decimal.Decimal
	apyCeiling             float64
	knownProtocols         map[string]struct{}
}

func NewRiskScorer(cfg config.EngineConfig) *RiskScorer {
	known := make(map[string]struct{}, len(cfg.KnownProtocols))
	for _, p := range cfg.KnownProtocols {
		known[strings.ToLower(p)] = struct{}{}
	}

	return &RiskScorer{
		highLiquidityThreshold: decimal.NewFromFloat(cfg.HighLiquidityThreshold),
		apyCeiling:             cfg.APYCeiling,
		knownProtocols:         known,
	}
}

const riskBaseline = 0.5

// Score assesses one opportunity. Higher scores mean safer pools. The score
// is baseline 0.5 plus the applicable factor contributions, clamped to [0,1].
func (rs *RiskScorer) Score(opp models.Opportunity) models.RiskAssessment {
	score := riskBaseline
	factors := make([]string, 0, 3)

	if opp.TVL.GreaterThanOrEqual(rs.highLiquidityThreshold) {
		score += 0.3
		factors = append(factors, fmt.Sprintf("deep liquidity: TVL %s at or above %s", opp.TVL.StringFixed(0), rs.highLiquidityThreshold.StringFixed(0)))
	} else {
		factors = append(factors, fmt.Sprintf("thin liquidity: TVL %s below %s", opp.TVL.StringFixed(0), rs.highLiquidityThreshold.StringFixed(0)))
	}

	if _, ok := rs.knownProtocols[strings.ToLower(opp.Protocol)]; ok {
		score += 0.2
		factors = append(factors, fmt.Sprintf("audited protocol: %s", opp.Protocol))
	} else {
		factors = append(factors, fmt.Sprintf("unrecognized protocol: %s", opp.Protocol))
	}

	if opp.APY > rs.apyCeiling {
		score -= 0.1
		factors = append(factors, fmt.Sprintf("yield %.2f%% exceeds %.0f%% ceiling", opp.APY, rs.apyCeiling))
	} else {
		factors = append(factors, fmt.Sprintf("yield %.2f%% within %.0f%% ceiling", opp.APY, rs.apyCeiling))
	}

	score = clamp01(score)

	return models.RiskAssessment{
		PoolAddress: opp.PoolAddress,
		Score:       score,
		Tier:        models.RiskTierForScore(score),
		Factors:     factors,
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
