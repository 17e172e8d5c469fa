package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/poolscout/poolscout/internal/models"
	"github.com/poolscout/poolscout/internal/services"
)

// CopyTradingHandler exposes the copy-trading ledger operations.
type CopyTradingHandler struct {
	ledger *services.CopyTradingService
}

func NewCopyTradingHandler(ledger *services.CopyTradingService) *CopyTradingHandler {
	return &CopyTradingHandler{ledger: ledger}
}

type RegisterTraderRequest struct {
	Address string `json:"address" binding:"required"`
	Name    string `json:"name" binding:"required"`
}

func (h *CopyTradingHandler) RegisterTrader(c *gin.Context) {
	var req RegisterTraderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	trader, err := h.ledger.RegisterTrader(c.Request.Context(), req.Address, req.Name)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	c.JSON(http.StatusCreated, trader)
}

type FollowRequest struct {
	FollowerAddress   string          `json:"follower_address" binding:"required"`
	TraderAddress     string          `json:"trader_address" binding:"required"`
	AllocationPercent decimal.Decimal `json:"allocation_percent"`
	MinInvestment     decimal.Decimal `json:"min_investment"`
	MaxInvestment     decimal.Decimal `json:"max_investment"`
}

func (h *CopyTradingHandler) FollowTrader(c *gin.Context) {
	var req FollowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	relation, err := h.ledger.FollowTrader(c.Request.Context(),
		req.FollowerAddress, req.TraderAddress,
		req.AllocationPercent, req.MinInvestment, req.MaxInvestment)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	c.JSON(http.StatusCreated, relation)
}

type UnfollowRequest struct {
	FollowerAddress string `json:"follower_address" binding:"required"`
	TraderAddress   string `json:"trader_address" binding:"required"`
}

func (h *CopyTradingHandler) UnfollowTrader(c *gin.Context) {
	var req UnfollowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	if err := h.ledger.UnfollowTrader(c.Request.Context(), req.FollowerAddress, req.TraderAddress); err != nil {
		respondLedgerError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "unfollowed"})
}

type CopyOrderRequest struct {
	TraderAddress string           `json:"trader_address" binding:"required"`
	PoolAddress   string           `json:"pool_address" binding:"required"`
	Kind          models.OrderKind `json:"kind" binding:"required"`
	Amount        decimal.Decimal  `json:"amount"`
}

func (h *CopyTradingHandler) CopyOrder(c *gin.Context) {
	var req CopyOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	switch req.Kind {
	case models.OrderKindBuy, models.OrderKindSell, models.OrderKindSwap:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order kind: " + string(req.Kind)})
		return
	}

	if !req.Amount.IsPositive() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount must be positive"})
		return
	}

	orders, err := h.ledger.CopyOrder(c.Request.Context(), req.TraderAddress, req.PoolAddress, req.Kind, req.Amount)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"orders": orders, "count": len(orders)})
}

type RecordExecutionRequest struct {
	PnL decimal.Decimal `json:"pnl"`
}

func (h *CopyTradingHandler) RecordExecution(c *gin.Context) {
	orderID := c.Param("id")

	var req RecordExecutionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	order, err := h.ledger.RecordExecution(c.Request.Context(), orderID, req.PnL)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

func (h *CopyTradingHandler) Leaderboard(c *gin.Context) {
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	entries := h.ledger.Leaderboard(offset, limit)

	c.JSON(http.StatusOK, gin.H{
		"entries": entries,
		"offset":  offset,
		"limit":   limit,
	})
}

// respondLedgerError maps domain failures onto HTTP statuses while keeping
// the offending identifier in the message.
func respondLedgerError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrDuplicateTrader):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrUnknownTrader), errors.Is(err, services.ErrUnknownOrder):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidAllocation), errors.Is(err, services.ErrSelfFollow):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
