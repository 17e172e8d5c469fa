package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderKind is the kind of order a lead trader submitted.
type OrderKind string

const (
	OrderKindBuy  OrderKind = "BUY"
	OrderKindSell OrderKind = "SELL"
	OrderKindSwap OrderKind = "SWAP"
)

// OrderStatus tracks the one-way PENDING -> EXECUTED lifecycle of a copy
// order. Execution is idempotent; an already executed order never transitions
// again.
type OrderStatus string

const (
	OrderStatusPending  OrderStatus = "PENDING"
	OrderStatusExecuted OrderStatus = "EXECUTED"
)

// Trader is a registered lead trader. Attributes are mutated additively by
// order executions; the entity itself has no further lifecycle after
// registration.
type Trader struct {
	Address       string          `json:"address" db:"address"`
	Name          string          `json:"name" db:"name"`
	TotalVolume   decimal.Decimal `json:"total_volume" db:"total_volume"`
	TotalPnL      decimal.Decimal `json:"total_pnl" db:"total_pnl"`
	FollowerCount int             `json:"follower_count" db:"follower_count"`
	RegisteredAt  time.Time       `json:"registered_at" db:"registered_at"`
}

// FollowRelation subscribes one follower to a lead trader. Relations are soft
// deleted (Active=false) on unfollow, never removed, so historical attribution
// of copied orders survives. Re-following creates a new relation.
type FollowRelation struct {
	TraderAddress     string          `json:"trader_address" db:"trader_address"`
	FollowerAddress   string          `json:"follower_address" db:"follower_address"`
	AllocationPercent decimal.Decimal `json:"allocation_percent" db:"allocation_percent"`
	MinInvestment     decimal.Decimal `json:"min_investment" db:"min_investment"`
	MaxInvestment     decimal.Decimal `json:"max_investment" db:"max_investment"`
	Active            bool            `json:"active" db:"active"`
	JoinedAt          time.Time       `json:"joined_at" db:"joined_at"`
}

// CopyOrder is one scaled replica of a lead trader's order, created PENDING
// for a single follower and settled later by the execution collaborator.
type CopyOrder struct {
	ID              string          `json:"id" db:"id"`
	TraderAddress   string          `json:"trader_address" db:"trader_address"`
	FollowerAddress string          `json:"follower_address" db:"follower_address"`
	PoolAddress     string          `json:"pool_address" db:"pool_address"`
	Kind            OrderKind       `json:"kind" db:"kind"`
	Amount          decimal.Decimal `json:"amount" db:"amount"`
	Status          OrderStatus     `json:"status" db:"status"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	ExecutedAt      *time.Time      `json:"executed_at,omitempty" db:"executed_at"`
	PnL             decimal.Decimal `json:"pnl" db:"pnl"`
}

// LeaderboardEntry is one row of the trader ranking. Score is the composite
// PnL*10 + followers*100, ties broken by earliest registration.
type LeaderboardEntry struct {
	Rank          int             `json:"rank"`
	Address       string          `json:"address"`
	Name          string          `json:"name"`
	Score         decimal.Decimal `json:"score"`
	TotalVolume   decimal.Decimal `json:"total_volume"`
	TotalPnL      decimal.Decimal `json:"total_pnl"`
	FollowerCount int             `json:"follower_count"`
	RegisteredAt  time.Time       `json:"registered_at"`
}
