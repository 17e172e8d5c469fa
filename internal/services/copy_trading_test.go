package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poolscout/poolscout/internal/models"
)

type recordingRepo struct {
	traders    []models.Trader
	relations  []models.FollowRelation
	orders     []models.CopyOrder
	executions []models.CopyOrder
	fail       bool
}

func (r *recordingRepo) SaveTrader(_ context.Context, trader models.Trader) error {
	if r.fail {
		return errors.New("db down")
	}
	r.traders = append(r.traders, trader)
	return nil
}

func (r *recordingRepo) SaveRelation(_ context.Context, relation models.FollowRelation) error {
	if r.fail {
		return errors.New("db down")
	}
	r.relations = append(r.relations, relation)
	return nil
}

func (r *recordingRepo) SaveOrders(_ context.Context, orders []models.CopyOrder) error {
	if r.fail {
		return errors.New("db down")
	}
	r.orders = append(r.orders, orders...)
	return nil
}

func (r *recordingRepo) MarkOrderExecuted(_ context.Context, order models.CopyOrder) error {
	if r.fail {
		return errors.New("db down")
	}
	r.executions = append(r.executions, order)
	return nil
}

func newTestLedger() *CopyTradingService {
	return NewCopyTradingService(nil, testLogger())
}

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestRegisterTraderDuplicate(t *testing.T) {
	s := newTestLedger()
	ctx := context.Background()

	trader, err := s.RegisterTrader(ctx, "0xalice", "Alice")
	require.NoError(t, err)
	assert.Equal(t, "0xalice", trader.Address)
	assert.True(t, trader.TotalPnL.IsZero())

	_, err = s.RegisterTrader(ctx, "0xalice", "Alice again")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateTrader))

	var dup *DuplicateTraderError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, "0xalice", dup.Address)
}

func TestFollowTraderValidation(t *testing.T) {
	s := newTestLedger()
	ctx := context.Background()

	_, err := s.RegisterTrader(ctx, "0xalice", "Alice")
	require.NoError(t, err)

	_, err = s.FollowTrader(ctx, "0xalice", "0xalice", dec(10), dec(0), dec(0))
	assert.True(t, errors.Is(err, ErrSelfFollow))

	_, err = s.FollowTrader(ctx, "0xbob", "0xalice", dec(150), dec(0), dec(0))
	assert.True(t, errors.Is(err, ErrInvalidAllocation))

	_, err = s.FollowTrader(ctx, "0xbob", "0xalice", dec(0), dec(0), dec(0))
	assert.True(t, errors.Is(err, ErrInvalidAllocation))

	_, err = s.FollowTrader(ctx, "0xbob", "0xmissing", dec(10), dec(0), dec(0))
	assert.True(t, errors.Is(err, ErrUnknownTrader))

	// 100 is inclusive
	rel, err := s.FollowTrader(ctx, "0xbob", "0xalice", dec(100), dec(0), dec(0))
	require.NoError(t, err)
	assert.True(t, rel.Active)

	trader, err := s.GetTrader("0xalice")
	require.NoError(t, err)
	assert.Equal(t, 1, trader.FollowerCount)
}

func TestCopyOrderScalesByAllocation(t *testing.T) {
	s := newTestLedger()
	ctx := context.Background()

	_, err := s.RegisterTrader(ctx, "0xalice", "Alice")
	require.NoError(t, err)
	_, err = s.FollowTrader(ctx, "0xbob", "0xalice", dec(50), dec(0), dec(0))
	require.NoError(t, err)

	orders, err := s.CopyOrder(ctx, "0xalice", "0xpool", models.OrderKindBuy, dec(100))
	require.NoError(t, err)
	require.Len(t, orders, 1)

	order := orders[0]
	assert.Equal(t, "0xbob", order.FollowerAddress)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.True(t, order.Amount.Equal(dec(50)), "amount was %s", order.Amount)
	assert.NotEmpty(t, order.ID)
}

func TestCopyOrderClampsToInvestmentBounds(t *testing.T) {
	s := newTestLedger()
	ctx := context.Background()

	_, err := s.RegisterTrader(ctx, "0xalice", "Alice")
	require.NoError(t, err)

	// 50% of 100 = 50, capped at max 30
	_, err = s.FollowTrader(ctx, "0xcapped", "0xalice", dec(50), dec(0), dec(30))
	require.NoError(t, err)
	// 1% of 100 = 1, raised to min 10
	_, err = s.FollowTrader(ctx, "0xfloored", "0xalice", dec(1), dec(10), dec(0))
	require.NoError(t, err)

	orders, err := s.CopyOrder(ctx, "0xalice", "0xpool", models.OrderKindBuy, dec(100))
	require.NoError(t, err)
	require.Len(t, orders, 2)

	amounts := map[string]decimal.Decimal{}
	for _, o := range orders {
		amounts[o.FollowerAddress] = o.Amount
	}
	assert.True(t, amounts["0xcapped"].Equal(dec(30)), "capped amount was %s", amounts["0xcapped"])
	assert.True(t, amounts["0xfloored"].Equal(dec(10)), "floored amount was %s", amounts["0xfloored"])
}

func TestUnfollowStopsReplication(t *testing.T) {
	s := newTestLedger()
	ctx := context.Background()

	_, err := s.RegisterTrader(ctx, "0xalice", "Alice")
	require.NoError(t, err)
	_, err = s.FollowTrader(ctx, "0xbob", "0xalice", dec(50), dec(0), dec(0))
	require.NoError(t, err)

	require.NoError(t, s.UnfollowTrader(ctx, "0xbob", "0xalice"))

	orders, err := s.CopyOrder(ctx, "0xalice", "0xpool", models.OrderKindSell, dec(100))
	require.NoError(t, err)
	assert.Empty(t, orders)

	trader, err := s.GetTrader("0xalice")
	require.NoError(t, err)
	assert.Zero(t, trader.FollowerCount)

	// unfollowing again is a no-op
	require.NoError(t, s.UnfollowTrader(ctx, "0xbob", "0xalice"))

	// re-following starts a fresh relation
	_, err = s.FollowTrader(ctx, "0xbob", "0xalice", dec(25), dec(0), dec(0))
	require.NoError(t, err)

	orders, err = s.CopyOrder(ctx, "0xalice", "0xpool", models.OrderKindBuy, dec(100))
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.True(t, orders[0].Amount.Equal(dec(25)))
}

func TestRecordExecutionUpdatesTraderAndIsIdempotent(t *testing.T) {
	s := newTestLedger()
	ctx := context.Background()

	_, err := s.RegisterTrader(ctx, "0xalice", "Alice")
	require.NoError(t, err)
	_, err = s.FollowTrader(ctx, "0xbob", "0xalice", dec(50), dec(0), dec(0))
	require.NoError(t, err)

	orders, err := s.CopyOrder(ctx, "0xalice", "0xpool", models.OrderKindBuy, dec(100))
	require.NoError(t, err)
	require.Len(t, orders, 1)

	executed, err := s.RecordExecution(ctx, orders[0].ID, dec(30))
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusExecuted, executed.Status)
	require.NotNil(t, executed.ExecutedAt)
	assert.True(t, executed.PnL.Equal(dec(30)))

	trader, err := s.GetTrader("0xalice")
	require.NoError(t, err)
	assert.True(t, trader.TotalVolume.Equal(dec(50)))
	assert.True(t, trader.TotalPnL.Equal(dec(30)))

	// redelivery must not double-count
	again, err := s.RecordExecution(ctx, orders[0].ID, dec(999))
	require.NoError(t, err)
	assert.True(t, again.PnL.Equal(dec(30)))

	trader, err = s.GetTrader("0xalice")
	require.NoError(t, err)
	assert.True(t, trader.TotalVolume.Equal(dec(50)))
	assert.True(t, trader.TotalPnL.Equal(dec(30)))
}

func TestRecordExecutionUnknownOrder(t *testing.T) {
	s := newTestLedger()

	_, err := s.RecordExecution(context.Background(), "missing-id", dec(1))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownOrder))
}

func TestLeaderboardScoringAndTies(t *testing.T) {
	s := newTestLedger()
	ctx := context.Background()

	clock := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}

	for _, addr := range []string{"0xalice", "0xbob", "0xcarol"} {
		_, err := s.RegisterTrader(ctx, addr, addr[2:])
		require.NoError(t, err)
	}

	// alice: two followers, no PnL -> 2*100 = 200
	_, err := s.FollowTrader(ctx, "0xf1", "0xalice", dec(10), dec(0), dec(0))
	require.NoError(t, err)
	_, err = s.FollowTrader(ctx, "0xf2", "0xalice", dec(10), dec(0), dec(0))
	require.NoError(t, err)

	// bob: one follower and 30 PnL -> 30*10 + 100 = 400
	_, err = s.FollowTrader(ctx, "0xf3", "0xbob", dec(50), dec(0), dec(0))
	require.NoError(t, err)
	orders, err := s.CopyOrder(ctx, "0xbob", "0xpool", models.OrderKindBuy, dec(100))
	require.NoError(t, err)
	require.Len(t, orders, 1)
	_, err = s.RecordExecution(ctx, orders[0].ID, dec(30))
	require.NoError(t, err)

	entries := s.Leaderboard(0, 10)
	require.Len(t, entries, 3)

	assert.Equal(t, "0xbob", entries[0].Address)
	assert.True(t, entries[0].Score.Equal(dec(400)), "score was %s", entries[0].Score)
	assert.Equal(t, 1, entries[0].Rank)

	assert.Equal(t, "0xalice", entries[1].Address)
	assert.True(t, entries[1].Score.Equal(dec(200)))
	assert.Equal(t, 2, entries[1].Rank)

	// carol scored zero and sorts last
	assert.Equal(t, "0xcarol", entries[2].Address)
	assert.True(t, entries[2].Score.IsZero())
}

func TestLeaderboardCompositeScoreFormula(t *testing.T) {
	s := newTestLedger()
	ctx := context.Background()

	_, err := s.RegisterTrader(ctx, "0xone", "One")
	require.NoError(t, err)
	_, err = s.RegisterTrader(ctx, "0xtwo", "Two")
	require.NoError(t, err)

	// 100*10 + 2*100 = 1200 beats 50*10 + 5*100 = 1000
	s.traders["0xone"].trader.TotalPnL = dec(100)
	s.traders["0xone"].trader.FollowerCount = 2
	s.traders["0xtwo"].trader.TotalPnL = dec(50)
	s.traders["0xtwo"].trader.FollowerCount = 5

	entries := s.Leaderboard(0, 0)
	require.Len(t, entries, 2)
	assert.Equal(t, "0xone", entries[0].Address)
	assert.True(t, entries[0].Score.Equal(dec(1200)), "score was %s", entries[0].Score)
	assert.Equal(t, "0xtwo", entries[1].Address)
	assert.True(t, entries[1].Score.Equal(dec(1000)), "score was %s", entries[1].Score)
}

func TestLeaderboardTieBreaksOnRegistration(t *testing.T) {
	s := newTestLedger()
	ctx := context.Background()

	clock := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		clock = clock.Add(time.Hour)
		return clock
	}

	_, err := s.RegisterTrader(ctx, "0xearly", "Early")
	require.NoError(t, err)
	_, err = s.RegisterTrader(ctx, "0xlate", "Late")
	require.NoError(t, err)

	entries := s.Leaderboard(0, 0)
	require.Len(t, entries, 2)
	assert.Equal(t, "0xearly", entries[0].Address)
	assert.Equal(t, "0xlate", entries[1].Address)
}

func TestLeaderboardPagination(t *testing.T) {
	s := newTestLedger()
	ctx := context.Background()

	for _, addr := range []string{"0xa", "0xb", "0xc", "0xd"} {
		_, err := s.RegisterTrader(ctx, addr, addr)
		require.NoError(t, err)
	}

	page := s.Leaderboard(1, 2)
	require.Len(t, page, 2)
	assert.Equal(t, 2, page[0].Rank)
	assert.Equal(t, 3, page[1].Rank)

	assert.Empty(t, s.Leaderboard(10, 2))
	assert.Len(t, s.Leaderboard(-1, 0), 4)
}

func TestLedgerPersistsThroughRepository(t *testing.T) {
	repo := &recordingRepo{}
	s := NewCopyTradingService(repo, testLogger())
	ctx := context.Background()

	_, err := s.RegisterTrader(ctx, "0xalice", "Alice")
	require.NoError(t, err)
	_, err = s.FollowTrader(ctx, "0xbob", "0xalice", dec(50), dec(0), dec(0))
	require.NoError(t, err)
	orders, err := s.CopyOrder(ctx, "0xalice", "0xpool", models.OrderKindBuy, dec(100))
	require.NoError(t, err)
	_, err = s.RecordExecution(ctx, orders[0].ID, dec(5))
	require.NoError(t, err)

	assert.Len(t, repo.traders, 1)
	assert.Len(t, repo.relations, 1)
	assert.Len(t, repo.orders, 1)
	assert.Len(t, repo.executions, 1)
}

func TestLedgerSurvivesRepositoryFailures(t *testing.T) {
	repo := &recordingRepo{fail: true}
	s := NewCopyTradingService(repo, testLogger())
	ctx := context.Background()

	_, err := s.RegisterTrader(ctx, "0xalice", "Alice")
	require.NoError(t, err)
	_, err = s.FollowTrader(ctx, "0xbob", "0xalice", dec(50), dec(0), dec(0))
	require.NoError(t, err)

	orders, err := s.CopyOrder(ctx, "0xalice", "0xpool", models.OrderKindBuy, dec(100))
	require.NoError(t, err)
	require.Len(t, orders, 1)

	_, err = s.RecordExecution(ctx, orders[0].ID, dec(5))
	require.NoError(t, err)

	trader, err := s.GetTrader("0xalice")
	require.NoError(t, err)
	assert.True(t, trader.TotalPnL.Equal(dec(5)))
}
