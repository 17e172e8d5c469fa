package services

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/poolscout/poolscout/internal/models"
)

// Normalizer converts heterogeneous raw pool records into canonical
// opportunities. Records that fail validation are dropped with a logged
// reason and never propagated; a bad provider record must not fail the scan.
type Normalizer struct {
	logger *logrus.Logger
}

func NewNormalizer(logger *logrus.Logger) *Normalizer {
	return &Normalizer{logger: logger}
}

// Normalize validates and deduplicates one batch of raw records. Duplicate
// (chain, pool address) keys within the batch resolve to the most recent
// observation, which for providers that emit in order means the last record
// wins.
func (n *Normalizer) Normalize(records []models.RawPoolRecord) []models.Opportunity {
	now := time.Now().UTC()

	byKey := make(map[string]models.Opportunity, len(records))
	order := make([]string, 0, len(records))

	for i, rec := range records {
		opp, reason := n.toOpportunity(rec, now)
		if reason != "" {
			n.logger.WithFields(logrus.Fields{
				"index":        i,
				"chain":        rec.Chain,
				"pool_address": rec.PoolAddress,
				"reason":       reason,
			}).Warn("Dropping invalid pool record")
			continue
		}

		key := opp.Key()
		if _, seen := byKey[key]; !seen {
			order = append(order, key)
		}
		byKey[key] = opp
	}

	opportunities := make([]models.Opportunity, 0, len(order))
	for _, key := range order {
		opportunities = append(opportunities, byKey[key])
	}

	n.logger.WithFields(logrus.Fields{
		"received":   len(records),
		"normalized": len(opportunities),
	}).Info("Normalized pool records")

	return opportunities
}

func (n *Normalizer) toOpportunity(rec models.RawPoolRecord, observedAt time.Time) (models.Opportunity, string) {
	if rec.PoolAddress == "" {
		return models.Opportunity{}, "missing pool address"
	}
	if rec.APYPercent == nil {
		return models.Opportunity{}, "missing apy_percent"
	}
	if *rec.APYPercent < 0 {
		return models.Opportunity{}, "negative apy_percent"
	}
	if rec.TVL == nil {
		return models.Opportunity{}, "missing tvl"
	}
	if rec.TVL.IsNegative() {
		return models.Opportunity{}, "negative tvl"
	}

	volume := decimal.Zero
	if rec.Volume24h != nil && !rec.Volume24h.IsNegative() {
		volume = *rec.Volume24h
	}

	return models.Opportunity{
		Chain:       rec.Chain,
		PoolAddress: rec.PoolAddress,
		Protocol:    rec.Protocol,
		PairLabel:   rec.PairLabel,
		APY:         *rec.APYPercent,
		TVL:         *rec.TVL,
		Volume24h:   volume,
		ObservedAt:  observedAt,
	}, ""
}
