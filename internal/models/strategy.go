package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Strategy is the engine's final recommendation for one scan cycle: the best
// ranked opportunity together with its risk assessment and yield forecast.
// Immutable once produced; consumed by sharing/signing collaborators.
type Strategy struct {
	Opportunity    Opportunity     `json:"opportunity"`
	Risk           RiskAssessment  `json:"risk"`
	Prediction     APYPrediction   `json:"prediction"`
	Action         Recommendation  `json:"action"`
	ExpectedReturn decimal.Decimal `json:"expected_return"`
	GeneratedAt    time.Time       `json:"generated_at"`
}
