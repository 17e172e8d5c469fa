package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/poolscout/poolscout/internal/models"
)

// DatabasePool is the subset of pgxpool.Pool the repositories need. It allows
// pgxmock pools in tests.
type DatabasePool interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
}

// LedgerRepository mirrors copy-trading ledger mutations into PostgreSQL for
// audit and restart recovery. The in-memory ledger stays authoritative.
type LedgerRepository struct {
	pool DatabasePool
}

func NewLedgerRepository(pool DatabasePool) *LedgerRepository {
	return &LedgerRepository{pool: pool}
}

// SaveTrader upserts one trader row.
func (r *LedgerRepository) SaveTrader(ctx context.Context, trader models.Trader) error {
	query := `
		INSERT INTO traders (address, name, total_volume, total_pnl, follower_count, registered_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (address)
		DO UPDATE SET
			name = EXCLUDED.name,
			total_volume = EXCLUDED.total_volume,
			total_pnl = EXCLUDED.total_pnl,
			follower_count = EXCLUDED.follower_count`

	_, err := r.pool.Exec(ctx, query,
		trader.Address, trader.Name, trader.TotalVolume, trader.TotalPnL,
		trader.FollowerCount, trader.RegisteredAt)
	if err != nil {
		return fmt.Errorf("failed to save trader %s: %w", trader.Address, err)
	}
	return nil
}

// SaveRelation appends a follow relation row, or flips its active flag on
// unfollow. The relation log is append-only; rows are never deleted.
func (r *LedgerRepository) SaveRelation(ctx context.Context, relation models.FollowRelation) error {
	query := `
		INSERT INTO follow_relations (trader_address, follower_address, allocation_percent, min_investment, max_investment, active, joined_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (trader_address, follower_address, joined_at)
		DO UPDATE SET active = EXCLUDED.active`

	_, err := r.pool.Exec(ctx, query,
		relation.TraderAddress, relation.FollowerAddress, relation.AllocationPercent,
		relation.MinInvestment, relation.MaxInvestment, relation.Active, relation.JoinedAt)
	if err != nil {
		return fmt.Errorf("failed to save follow relation %s -> %s: %w",
			relation.FollowerAddress, relation.TraderAddress, err)
	}
	return nil
}

// SaveOrders inserts the pending orders produced by one replication call.
func (r *LedgerRepository) SaveOrders(ctx context.Context, orders []models.CopyOrder) error {
	query := `
		INSERT INTO copy_orders (id, trader_address, follower_address, pool_address, kind, amount, status, created_at, pnl)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING`

	for _, order := range orders {
		if _, err := r.pool.Exec(ctx, query,
			order.ID, order.TraderAddress, order.FollowerAddress, order.PoolAddress,
			order.Kind, order.Amount, order.Status, order.CreatedAt, order.PnL); err != nil {
			return fmt.Errorf("failed to save copy order %s: %w", order.ID, err)
		}
	}
	return nil
}

// MarkOrderExecuted records the one-way PENDING -> EXECUTED transition. The
// status guard keeps replayed settlement callbacks idempotent at the
// persistence layer too.
func (r *LedgerRepository) MarkOrderExecuted(ctx context.Context, order models.CopyOrder) error {
	query := `
		UPDATE copy_orders
		SET status = $2, executed_at = $3, pnl = $4
		WHERE id = $1 AND status = 'PENDING'`

	_, err := r.pool.Exec(ctx, query, order.ID, order.Status, order.ExecutedAt, order.PnL)
	if err != nil {
		return fmt.Errorf("failed to mark order %s executed: %w", order.ID, err)
	}
	return nil
}
