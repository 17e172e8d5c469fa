package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/poolscout/poolscout/internal/models"
)

// LedgerRepository persists ledger mutations for audit and restart recovery.
// The in-memory ledger remains authoritative; persistence failures are logged
// and never fail the operation.
type LedgerRepository interface {
	SaveTrader(ctx context.Context, trader models.Trader) error
	SaveRelation(ctx context.Context, relation models.FollowRelation) error
	SaveOrders(ctx context.Context, orders []models.CopyOrder) error
	MarkOrderExecuted(ctx context.Context, order models.CopyOrder) error
}

// CopyTradingService tracks lead traders, their followers' allocation rules,
// and replicates lead orders into scaled per-follower orders. State is
// partitioned per trader; operations on different traders never contend.
type CopyTradingService struct {
	mu      sync.RWMutex
	traders map[string]*traderEntry

	ordersMu sync.Mutex
	orders   map[string]*models.CopyOrder

	repo   LedgerRepository
	logger *logrus.Logger
	now    func() time.Time
}

type traderEntry struct {
	mu        sync.Mutex
	trader    models.Trader
	relations []models.FollowRelation
}

var (
	hundred        = decimal.NewFromInt(100)
	pnlWeight      = decimal.NewFromInt(10)
	followerWeight = decimal.NewFromInt(100)
)

// NewCopyTradingService builds the ledger. repo may be nil when no database
// is configured.
func NewCopyTradingService(repo LedgerRepository, logger *logrus.Logger) *CopyTradingService {
	return &CopyTradingService{
		traders: make(map[string]*traderEntry),
		orders:  make(map[string]*models.CopyOrder),
		repo:    repo,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// RegisterTrader creates a new lead trader. Registration is terminal for the
// identity's lifetime; a second call for the same address fails.
func (s *CopyTradingService) RegisterTrader(ctx context.Context, address, name string) (models.Trader, error) {
	s.mu.Lock()
	if _, exists := s.traders[address]; exists {
		s.mu.Unlock()
		return models.Trader{}, &DuplicateTraderError{Address: address}
	}

	trader := models.Trader{
		Address:      address,
		Name:         name,
		TotalVolume:  decimal.Zero,
		TotalPnL:     decimal.Zero,
		RegisteredAt: s.now(),
	}
	s.traders[address] = &traderEntry{trader: trader}
	s.mu.Unlock()

	s.persistTrader(ctx, trader)

	s.logger.WithFields(logrus.Fields{
		"trader": address,
		"name":   name,
	}).Info("Registered trader")

	return trader, nil
}

// GetTrader returns a snapshot of one trader.
func (s *CopyTradingService) GetTrader(address string) (models.Trader, error) {
	entry, err := s.entry(address)
	if err != nil {
		return models.Trader{}, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.trader, nil
}

// FollowTrader subscribes a follower to a lead trader. Allocation must fall
// in (0,100]. Re-following after an unfollow creates a fresh relation.
func (s *CopyTradingService) FollowTrader(ctx context.Context, followerAddress, traderAddress string, allocationPercent, minInvestment, maxInvestment decimal.Decimal) (models.FollowRelation, error) {
	if followerAddress == traderAddress {
		return models.FollowRelation{}, &SelfFollowError{Address: traderAddress}
	}
	if !allocationPercent.IsPositive() || allocationPercent.GreaterThan(hundred) {
		return models.FollowRelation{}, &InvalidAllocationError{Percent: allocationPercent}
	}

	entry, err := s.entry(traderAddress)
	if err != nil {
		return models.FollowRelation{}, err
	}

	relation := models.FollowRelation{
		TraderAddress:     traderAddress,
		FollowerAddress:   followerAddress,
		AllocationPercent: allocationPercent,
		MinInvestment:     minInvestment,
		MaxInvestment:     maxInvestment,
		Active:            true,
		JoinedAt:          s.now(),
	}

	entry.mu.Lock()
	entry.relations = append(entry.relations, relation)
	entry.trader.FollowerCount++
	entry.mu.Unlock()

	s.persistRelation(ctx, relation)

	s.logger.WithFields(logrus.Fields{
		"trader":     traderAddress,
		"follower":   followerAddress,
		"allocation": allocationPercent.String(),
	}).Info("Follower subscribed")

	return relation, nil
}

// UnfollowTrader soft-deletes the first active relation matching both
// identities. Relations are never physically removed so historical order
// attribution survives. A missing active relation is a no-op, not an error.
func (s *CopyTradingService) UnfollowTrader(ctx context.Context, followerAddress, traderAddress string) error {
	entry, err := s.entry(traderAddress)
	if err != nil {
		return err
	}

	entry.mu.Lock()
	var deactivated *models.FollowRelation
	for i := range entry.relations {
		rel := &entry.relations[i]
		if rel.Active && rel.FollowerAddress == followerAddress {
			rel.Active = false
			entry.trader.FollowerCount--
			deactivated = rel
			break
		}
	}
	entry.mu.Unlock()

	if deactivated == nil {
		return nil
	}

	s.persistRelation(ctx, *deactivated)

	s.logger.WithFields(logrus.Fields{
		"trader":   traderAddress,
		"follower": followerAddress,
	}).Info("Follower unsubscribed")

	return nil
}

// CopyOrder replicates a lead order into one PENDING order per active
// follower. The follower amount is the allocation percentage of the notional,
// then clamped into the follower's [min,max] investment bounds (percentage
// first, then clip). Execution is delegated to the settlement collaborator.
func (s *CopyTradingService) CopyOrder(ctx context.Context, traderAddress, poolAddress string, kind models.OrderKind, notional decimal.Decimal) ([]models.CopyOrder, error) {
	entry, err := s.entry(traderAddress)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	created := make([]models.CopyOrder, 0, len(entry.relations))
	for _, rel := range entry.relations {
		if !rel.Active {
			continue
		}

		amount := notional.Mul(rel.AllocationPercent).Div(hundred)
		if rel.MaxInvestment.IsPositive() && amount.GreaterThan(rel.MaxInvestment) {
			amount = rel.MaxInvestment
		}
		if amount.LessThan(rel.MinInvestment) {
			amount = rel.MinInvestment
		}

		created = append(created, models.CopyOrder{
			ID:              uuid.New().String(),
			TraderAddress:   traderAddress,
			FollowerAddress: rel.FollowerAddress,
			PoolAddress:     poolAddress,
			Kind:            kind,
			Amount:          amount,
			Status:          models.OrderStatusPending,
			CreatedAt:       s.now(),
			PnL:             decimal.Zero,
		})
	}
	entry.mu.Unlock()

	s.ordersMu.Lock()
	for i := range created {
		order := created[i]
		s.orders[order.ID] = &order
	}
	s.ordersMu.Unlock()

	if len(created) > 0 {
		s.persistOrders(ctx, created)
	}

	s.logger.WithFields(logrus.Fields{
		"trader":   traderAddress,
		"pool":     poolAddress,
		"kind":     kind,
		"notional": notional.String(),
		"orders":   len(created),
	}).Info("Replicated order to followers")

	return created, nil
}

// RecordExecution transitions a PENDING order to EXECUTED, sets its realized
// PnL, and additively updates the trader's cumulative volume and PnL.
// Executing an already executed order is a no-op so at-least-once delivery
// from the settlement service never double-counts.
func (s *CopyTradingService) RecordExecution(ctx context.Context, orderID string, realizedPnL decimal.Decimal) (models.CopyOrder, error) {
	s.ordersMu.Lock()
	order, ok := s.orders[orderID]
	if !ok {
		s.ordersMu.Unlock()
		return models.CopyOrder{}, &UnknownOrderError{OrderID: orderID}
	}
	if order.Status == models.OrderStatusExecuted {
		snapshot := *order
		s.ordersMu.Unlock()
		return snapshot, nil
	}

	executedAt := s.now()
	order.Status = models.OrderStatusExecuted
	order.ExecutedAt = &executedAt
	order.PnL = realizedPnL
	snapshot := *order
	s.ordersMu.Unlock()

	if entry, err := s.entry(snapshot.TraderAddress); err == nil {
		entry.mu.Lock()
		entry.trader.TotalVolume = entry.trader.TotalVolume.Add(snapshot.Amount)
		entry.trader.TotalPnL = entry.trader.TotalPnL.Add(realizedPnL)
		entry.mu.Unlock()
	}

	s.persistExecution(ctx, snapshot)

	s.logger.WithFields(logrus.Fields{
		"order":  orderID,
		"trader": snapshot.TraderAddress,
		"pnl":    realizedPnL.String(),
	}).Info("Recorded order execution")

	return snapshot, nil
}

// Leaderboard ranks traders by composite score PnL*10 + followers*100,
// descending, ties broken by earliest registration. Reads may lag in-flight
// writes on other traders; no cross-trader ordering is promised.
func (s *CopyTradingService) Leaderboard(offset, limit int) []models.LeaderboardEntry {
	s.mu.RLock()
	snapshots := make([]models.Trader, 0, len(s.traders))
	for _, entry := range s.traders {
		entry.mu.Lock()
		snapshots = append(snapshots, entry.trader)
		entry.mu.Unlock()
	}
	s.mu.RUnlock()

	entries := make([]models.LeaderboardEntry, 0, len(snapshots))
	for _, t := range snapshots {
		score := t.TotalPnL.Mul(pnlWeight).Add(decimal.NewFromInt(int64(t.FollowerCount)).Mul(followerWeight))
		entries = append(entries, models.LeaderboardEntry{
			Address:       t.Address,
			Name:          t.Name,
			Score:         score,
			TotalVolume:   t.TotalVolume,
			TotalPnL:      t.TotalPnL,
			FollowerCount: t.FollowerCount,
			RegisteredAt:  t.RegisteredAt,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].Score.Equal(entries[j].Score) {
			return entries[i].Score.GreaterThan(entries[j].Score)
		}
		return entries[i].RegisteredAt.Before(entries[j].RegisteredAt)
	})

	if offset < 0 {
		offset = 0
	}
	if offset >= len(entries) {
		return []models.LeaderboardEntry{}
	}
	entries = entries[offset:]
	if limit > 0 && limit < len(entries) {
		entries = entries[:limit]
	}

	for i := range entries {
		entries[i].Rank = offset + i + 1
	}

	return entries
}

func (s *CopyTradingService) entry(address string) (*traderEntry, error) {
	s.mu.RLock()
	entry, ok := s.traders[address]
	s.mu.RUnlock()
	if !ok {
		return nil, &UnknownTraderError{Address: address}
	}
	return entry, nil
}

func (s *CopyTradingService) persistTrader(ctx context.Context, trader models.Trader) {
	if s.repo == nil {
		return
	}
	if err := s.repo.SaveTrader(ctx, trader); err != nil {
		s.logger.WithError(err).WithField("trader", trader.Address).Warn("Failed to persist trader")
	}
}

func (s *CopyTradingService) persistRelation(ctx context.Context, relation models.FollowRelation) {
	if s.repo == nil {
		return
	}
	if err := s.repo.SaveRelation(ctx, relation); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"trader":   relation.TraderAddress,
			"follower": relation.FollowerAddress,
		}).Warn("Failed to persist follow relation")
	}
}

func (s *CopyTradingService) persistOrders(ctx context.Context, orders []models.CopyOrder) {
	if s.repo == nil {
		return
	}
	if err := s.repo.SaveOrders(ctx, orders); err != nil {
		s.logger.WithError(err).Warn("Failed to persist copy orders")
	}
}

func (s *CopyTradingService) persistExecution(ctx context.Context, order models.CopyOrder) {
	if s.repo == nil {
		return
	}
	if err := s.repo.MarkOrderExecuted(ctx, order); err != nil {
		s.logger.WithError(err).WithField("order", order.ID).Warn("Failed to persist order execution")
	}
}
