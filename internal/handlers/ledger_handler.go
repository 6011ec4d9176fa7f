package handlers

import (
	"errors"
	"net/http"
	"time"

	"grant-governance/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// LedgerHandler exposes token balances, allowances and staking locks
type LedgerHandler struct {
	ledgerService  *services.LedgerService
	stakingService *services.StakingService
}

func NewLedgerHandler(ledgerService *services.LedgerService, stakingService *services.StakingService) *LedgerHandler {
	return &LedgerHandler{
		ledgerService:  ledgerService,
		stakingService: stakingService,
	}
}

// GetAccount returns the balance and recent transfers of an address
// GET /api/ledger/:address
func (h *LedgerHandler) GetAccount(c *gin.Context) {
	addr, ok := parseAddress(c, c.Param("address"))
	if !ok {
		return
	}
	limit, _ := pagination(c)

	balance, err := h.ledgerService.BalanceOf(c.Request.Context(), addr)
	if err != nil {
		respondError(c, err)
		return
	}
	transfers, err := h.ledgerService.ListTransfers(c.Request.Context(), addr, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"address":   addr.Hex(),
		"balance":   balance,
		"transfers": transfers,
	})
}

// Approve sets how much a spender may pull from the caller
// POST /api/ledger/approve
func (h *LedgerHandler) Approve(c *gin.Context) {
	owner, ok := callerAddress(c)
	if !ok {
		return
	}

	var req struct {
		Spender string          `json:"spender" binding:"required"`
		Amount  decimal.Decimal `json:"amount"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	spender, ok := parseAddress(c, req.Spender)
	if !ok {
		return
	}

	if err := h.ledgerService.Approve(c.Request.Context(), owner, spender, req.Amount); err != nil {
		respondError(c, err)
		return
	}
	allowance, err := h.ledgerService.Allowance(c.Request.Context(), owner, spender)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"owner":     owner.Hex(),
		"spender":   spender.Hex(),
		"allowance": allowance,
	})
}

// Transfer moves tokens from the caller to another address
// POST /api/ledger/transfer
func (h *LedgerHandler) Transfer(c *gin.Context) {
	from, ok := callerAddress(c)
	if !ok {
		return
	}

	var req struct {
		To     string          `json:"to" binding:"required"`
		Amount decimal.Decimal `json:"amount"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	to, ok := parseAddress(c, req.To)
	if !ok {
		return
	}

	if err := h.ledgerService.Transfer(c.Request.Context(), from, to, req.Amount); err != nil {
		respondError(c, err)
		return
	}
	balance, err := h.ledgerService.BalanceOf(c.Request.Context(), from)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"balance": balance})
}

// GetStake returns the lock and current voice credits of an address
// GET /api/staking/:address
func (h *LedgerHandler) GetStake(c *gin.Context) {
	addr, ok := parseAddress(c, c.Param("address"))
	if !ok {
		return
	}

	credits, err := h.stakingService.GetVoiceCredits(c.Request.Context(), addr)
	if err != nil {
		respondError(c, err)
		return
	}
	lock, err := h.stakingService.GetStakeLock(c.Request.Context(), addr)
	if err != nil && !errors.Is(err, services.ErrNoStakeLock) {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"lock":          lock,
		"voice_credits": credits,
	})
}

// Lock stakes the caller's tokens for voice credits. Duration uses Go
// duration syntax, e.g. "8760h".
// POST /api/staking/lock
func (h *LedgerHandler) Lock(c *gin.Context) {
	owner, ok := callerAddress(c)
	if !ok {
		return
	}

	var req struct {
		Amount   decimal.Decimal `json:"amount"`
		Duration string          `json:"duration" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	duration, err := time.ParseDuration(req.Duration)
	if err != nil {
		badRequest(c, "invalid duration")
		return
	}

	lock, err := h.stakingService.Lock(c.Request.Context(), owner, req.Amount, duration)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, lock)
}

// Withdraw releases an expired lock
// POST /api/staking/withdraw
func (h *LedgerHandler) Withdraw(c *gin.Context) {
	owner, ok := callerAddress(c)
	if !ok {
		return
	}

	amount, err := h.stakingService.Withdraw(c.Request.Context(), owner)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"withdrawn": amount})
}
