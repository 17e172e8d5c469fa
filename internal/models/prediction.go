package models

import "time"

// APYDataPoint is a single timestamped observation of a pool's yield state.
// Points are append-only and evicted once they fall outside the retention
// window.
type APYDataPoint struct {
	PoolAddress string    `json:"pool_address" db:"pool_address"`
	Timestamp   time.Time `json:"timestamp" db:"timestamp"`
	APY         float64   `json:"apy" db:"apy"`
	TVL         float64   `json:"tvl" db:"tvl"`
	Volume      float64   `json:"volume" db:"volume"`
}

// TrendDirection labels the short-horizon yield trajectory.
type TrendDirection string

const (
	TrendUp     TrendDirection = "UP"
	TrendDown   TrendDirection = "DOWN"
	TrendStable TrendDirection = "STABLE"
)

// Recommendation is the action the engine suggests for a pool.
type Recommendation string

const (
	RecommendationBuy  Recommendation = "BUY"
	RecommendationHold Recommendation = "HOLD"
	RecommendationSell Recommendation = "SELL"
)

// APYPrediction is the trend predictor's output. It is derived per call and
// never persisted; confidence reflects how much history backs the forecast.
type APYPrediction struct {
	PoolAddress     string         `json:"pool_address"`
	CurrentAPY      float64        `json:"current_apy"`
	PredictedAPY24h float64        `json:"predicted_apy_24h"`
	PredictedAPY7d  float64        `json:"predicted_apy_7d"`
	Trend           TrendDirection `json:"trend"`
	Confidence      float64        `json:"confidence"`
	Recommendation  Recommendation `json:"recommendation"`
	Factors         []string       `json:"factors"`
	GeneratedAt     time.Time      `json:"generated_at"`
}
