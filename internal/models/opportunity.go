package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// RawPoolRecord is the wire shape delivered by chain/data-fetch collaborators.
// Fields may be missing or malformed; the normalizer is responsible for
// validation and dropping bad records.
type RawPoolRecord struct {
	Chain       string           `json:"chain"`
	PoolAddress string           `json:"pool_address"`
	Protocol    string           `json:"protocol"`
	PairLabel   string           `json:"pair_label"`
	APYPercent  *float64         `json:"apy_percent"`
	TVL         *decimal.Decimal `json:"tvl"`
	Volume24h   *decimal.Decimal `json:"volume_24h"`
}

// Opportunity is a normalized, scoreable representation of one pool's current
// yield and liquidity state. It is constructed fresh each scan cycle and never
// mutated afterwards.
type Opportunity struct {
	Chain       string          `json:"chain" db:"chain"`
	PoolAddress string          `json:"pool_address" db:"pool_address"`
	Protocol    string          `json:"protocol" db:"protocol"`
	PairLabel   string          `json:"pair_label" db:"pair_label"`
	APY         float64         `json:"apy_percent" db:"apy_percent"`
	TVL         decimal.Decimal `json:"tvl" db:"tvl"`
	Volume24h   decimal.Decimal `json:"volume_24h" db:"volume_24h"`
	ObservedAt  time.Time       `json:"observed_at" db:"observed_at"`
}

// Key identifies an opportunity across providers within one scan cycle.
func (o Opportunity) Key() string {
	return fmt.Sprintf("%s:%s", o.Chain, o.PoolAddress)
}

// RiskTier classifies a risk score into coarse buckets.
type RiskTier string

const (
	RiskTierLow    RiskTier = "LOW"
	RiskTierMedium RiskTier = "MEDIUM"
	RiskTierHigh   RiskTier = "HIGH"
)

// RiskTierForScore applies the fixed tier thresholds: >=0.7 LOW, >=0.4 MEDIUM,
// everything below HIGH. Higher scores mean safer pools.
func RiskTierForScore(score float64) RiskTier {
	switch {
	case score >= 0.7:
		return RiskTierLow
	case score >= 0.4:
		return RiskTierMedium
	default:
		return RiskTierHigh
	}
}

// RiskAssessment is the risk scorer's output for a single opportunity.
// Factors are ordered by evaluation (TVL, protocol, APY) so explanations are
// reproducible.
type RiskAssessment struct {
	PoolAddress string   `json:"pool_address"`
	Score       float64  `json:"score"`
	Tier        RiskTier `json:"tier"`
	Factors     []string `json:"factors"`
}
