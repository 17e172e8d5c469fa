package services

import (
	"fmt"
	"math"
	"time"

	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/trend"

	"github.com/poolscout/poolscout/internal/models"
)

// Predictor produces a short-horizon yield forecast from a pool's history.
// The heuristic model below is the only implementation today; a trained model
// can replace it behind the same contract without touching callers.
type Predictor interface {
	Predict(poolAddress string, history []models.APYDataPoint) models.APYPrediction
}

// HeuristicPredictor is a hand-tuned weighted scorer over extracted features:
// least-squares yield and volume slopes, TVL drift, short-vs-long momentum,
// and a weekend factor. Confidence rises with data volume, never below 0.2.
type HeuristicPredictor struct {
	windowSize int
	smaPeriod  int
}

const (
	maxConfidencePoints = 30
	minActionConfidence = 0.3
	trendBand           = 0.05
)

func NewHeuristicPredictor(windowSize int) *HeuristicPredictor {
	if windowSize < 2 {
		windowSize = 7
	}
	return &HeuristicPredictor{windowSize: windowSize, smaPeriod: 3}
}

type features struct {
	yieldTrend  float64
	tvlChange   float64
	volumeTrend float64
	momentum    float64
	weekend     bool
}

// Predict forecasts the pool's yield 24 hours and 7 days out. With no history
// it returns a neutral HOLD prediction whose confidence reflects the empty
// sample; insufficient data is not an error.
func (p *HeuristicPredictor) Predict(poolAddress string, history []models.APYDataPoint) models.APYPrediction {
	now := time.Now().UTC()

	if len(history) == 0 {
		return models.APYPrediction{
			PoolAddress:    poolAddress,
			Trend:          models.TrendStable,
			Confidence:     confidenceFor(0),
			Recommendation: models.RecommendationHold,
			Factors:        []string{"no observations yet"},
			GeneratedAt:    now,
		}
	}

	window := history
	if len(window) > p.windowSize {
		window = window[len(window)-p.windowSize:]
	}

	feats := p.extractFeatures(window)
	current := history[len(history)-1].APY

	forecast24h := math.Max(0, current+feats.yieldTrend/7)
	forecast7d := math.Max(0, current+feats.yieldTrend+feats.momentum*7)

	direction := models.TrendStable
	switch {
	case forecast24h > current*(1+trendBand):
		direction = models.TrendUp
	case forecast24h < current*(1-trendBand):
		direction = models.TrendDown
	}

	confidence := confidenceFor(len(history))

	var change float64
	if current > 0 {
		change = (forecast24h - current) / current
	}

	recommendation := models.RecommendationHold
	if confidence >= minActionConfidence {
		switch {
		case direction == models.TrendUp && change > trendBand:
			recommendation = models.RecommendationBuy
		case direction == models.TrendDown && change < -trendBand:
			recommendation = models.RecommendationSell
		}
	}

	return models.APYPrediction{
		PoolAddress:     poolAddress,
		CurrentAPY:      current,
		PredictedAPY24h: forecast24h,
		PredictedAPY7d:  forecast7d,
		Trend:           direction,
		Confidence:      confidence,
		Recommendation:  recommendation,
		Factors:         p.explain(feats, window),
		GeneratedAt:     now,
	}
}

func (p *HeuristicPredictor) extractFeatures(window []models.APYDataPoint) features {
	yields := make([]float64, len(window))
	volumes := make([]float64, len(window))
	for i, pt := range window {
		yields[i] = pt.APY
		volumes[i] = pt.Volume
	}

	feats := features{
		yieldTrend:  slope(yields),
		volumeTrend: slope(volumes),
	}

	if first := window[0].TVL; first != 0 {
		feats.tvlChange = (window[len(window)-1].TVL - first) / first
	}

	if len(window) >= 7 {
		short := mean(yields[len(yields)-3:])
		long := mean(yields[:len(yields)-3])
		feats.momentum = (short - long) / math.Max(long, 0.01)
	}

	day := window[len(window)-1].Timestamp.Weekday()
	feats.weekend = day == time.Saturday || day == time.Sunday

	return feats
}

// explain turns feature thresholds into human-readable factor labels. These
// drive display only, never the numeric forecast.
func (p *HeuristicPredictor) explain(feats features, window []models.APYDataPoint) []string {
	factors := make([]string, 0, 5)

	switch {
	case feats.yieldTrend > 0.1:
		factors = append(factors, "rising yield")
	case feats.yieldTrend < -0.1:
		factors = append(factors, "falling yield")
	default:
		factors = append(factors, "flat yield")
	}

	switch {
	case feats.tvlChange > 0.1:
		factors = append(factors, "liquidity inflow")
	case feats.tvlChange < -0.1:
		factors = append(factors, "liquidity outflow")
	}

	switch {
	case feats.momentum > 0.05:
		factors = append(factors, "positive momentum")
	case feats.momentum < -0.05:
		factors = append(factors, "negative momentum")
	}

	if feats.volumeTrend > 0 {
		factors = append(factors, "growing volume")
	}

	if len(window) >= p.smaPeriod {
		yields := make([]float64, len(window))
		for i, pt := range window {
			yields[i] = pt.APY
		}
		smaIndicator := trend.NewSmaWithPeriod[float64](p.smaPeriod)
		smoothed := helper.ChanToSlice(smaIndicator.Compute(helper.SliceToChan(yields)))
		if len(smoothed) > 0 {
			last := smoothed[len(smoothed)-1]
			if yields[len(yields)-1] > last {
				factors = append(factors, fmt.Sprintf("yield above %d-point average", p.smaPeriod))
			} else {
				factors = append(factors, fmt.Sprintf("yield at or below %d-point average", p.smaPeriod))
			}
		}
	}

	if feats.weekend {
		factors = append(factors, "weekend activity pattern")
	}

	return factors
}

// slope is an ordinary least-squares fit of value against point index. A
// numerically degenerate denominator (fewer than 2 points) yields zero.
func slope(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}

	var sumX, sumY, sumXY, sumXX float64
	for i, y := range values {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}

	denominator := float64(n)*sumXX - sumX*sumX
	if math.Abs(denominator) < 1e-4 {
		return 0
	}

	return (float64(n)*sumXY - sumX*sumY) / denominator
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// confidenceFor scales with sample count: 0.2 floor with no data, 1.0 once
// the history holds 30 points.
func confidenceFor(points int) float64 {
	return math.Min(float64(points)/maxConfidencePoints, 1.0)*0.8 + 0.2
}
