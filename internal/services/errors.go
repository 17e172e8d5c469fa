package services

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Sentinel errors for errors.Is matching. The typed errors below wrap these
// and carry the offending identifier so callers can act on the failure.
var (
	ErrDuplicateTrader   = errors.New("trader already registered")
	ErrUnknownTrader     = errors.New("trader not registered")
	ErrInvalidAllocation = errors.New("allocation percent out of range")
	ErrSelfFollow        = errors.New("trader cannot follow themselves")
	ErrUnknownOrder      = errors.New("order not found")
)

// DuplicateTraderError reports a registration attempt for an address that is
// already registered.
type DuplicateTraderError struct {
	Address string
}

func (e *DuplicateTraderError) Error() string {
	return fmt.Sprintf("trader %s already registered", e.Address)
}

func (e *DuplicateTraderError) Unwrap() error { return ErrDuplicateTrader }

// UnknownTraderError reports an operation against an unregistered trader.
type UnknownTraderError struct {
	Address string
}

func (e *UnknownTraderError) Error() string {
	return fmt.Sprintf("trader %s not registered", e.Address)
}

func (e *UnknownTraderError) Unwrap() error { return ErrUnknownTrader }

// InvalidAllocationError reports an allocation percent outside (0,100].
type InvalidAllocationError struct {
	Percent decimal.Decimal
}

func (e *InvalidAllocationError) Error() string {
	return fmt.Sprintf("allocation percent %s outside (0,100]", e.Percent)
}

func (e *InvalidAllocationError) Unwrap() error { return ErrInvalidAllocation }

// SelfFollowError reports a follow request where follower and trader are the
// same address.
type SelfFollowError struct {
	Address string
}

func (e *SelfFollowError) Error() string {
	return fmt.Sprintf("address %s cannot follow itself", e.Address)
}

func (e *SelfFollowError) Unwrap() error { return ErrSelfFollow }

// UnknownOrderError reports an execution callback for an order identifier the
// ledger has never issued.
type UnknownOrderError struct {
	OrderID string
}

func (e *UnknownOrderError) Error() string {
	return fmt.Sprintf("order %s not found", e.OrderID)
}

func (e *UnknownOrderError) Unwrap() error { return ErrUnknownOrder }
