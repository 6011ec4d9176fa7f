package handlers

import (
	"log"
	"net/http"
	"time"

	"grant-governance/internal/models"
	"grant-governance/internal/services"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// AdminHandler serves the governance-only routes. Callers are checked by
// auth.GovernanceOnly before these handlers run.
type AdminHandler struct {
	proposalService *services.ProposalService
	electionService *services.ElectionService
	ledgerService   *services.LedgerService
}

func NewAdminHandler(
	proposalService *services.ProposalService,
	electionService *services.ElectionService,
	ledgerService *services.LedgerService,
) *AdminHandler {
	return &AdminHandler{
		proposalService: proposalService,
		electionService: electionService,
		ledgerService:   ledgerService,
	}
}

// UpdateProposalSettings changes periods and bond for future proposals
// PUT /api/admin/proposals/settings
func (h *AdminHandler) UpdateProposalSettings(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		return
	}

	var req struct {
		VotingPeriod string          `json:"voting_period" binding:"required"`
		VetoPeriod   string          `json:"veto_period" binding:"required"`
		ProposalBond decimal.Decimal `json:"proposal_bond"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	votingPeriod, err := time.ParseDuration(req.VotingPeriod)
	if err != nil {
		badRequest(c, "invalid voting_period")
		return
	}
	vetoPeriod, err := time.ParseDuration(req.VetoPeriod)
	if err != nil {
		badRequest(c, "invalid veto_period")
		return
	}

	settings, err := h.proposalService.SetConfiguration(c.Request.Context(), caller, votingPeriod, vetoPeriod, req.ProposalBond)
	if err != nil {
		respondError(c, err)
		return
	}

	log.Printf("[Admin] %s updated proposal settings", caller.Hex())
	c.JSON(http.StatusOK, settings)
}

// UpdateRewardsBudget sets the vault amount reserved per proposal
// PUT /api/admin/proposals/rewards-budget
func (h *AdminHandler) UpdateRewardsBudget(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		return
	}

	var req struct {
		Budget decimal.Decimal `json:"budget"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	settings, err := h.proposalService.SetRewardsBudget(c.Request.Context(), caller, req.Budget)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, settings)
}

// UpdateElectionConfiguration replaces the configuration of a term
// PUT /api/admin/elections/:term/configuration
func (h *AdminHandler) UpdateElectionConfiguration(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		return
	}
	term, ok := parseTerm(c)
	if !ok {
		return
	}

	var settings models.ElectionSettings
	if err := c.ShouldBindJSON(&settings); err != nil {
		badRequest(c, err.Error())
		return
	}

	cfg, err := h.electionService.SetConfiguration(c.Request.Context(), caller, term, settings)
	if err != nil {
		respondError(c, err)
		return
	}

	log.Printf("[Admin] %s updated %s election configuration", caller.Hex(), term)
	c.JSON(http.StatusOK, cfg)
}

// FulfillRandomness delivers the oracle value for a pending request
// POST /api/admin/randomness/:requestId
func (h *AdminHandler) FulfillRandomness(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		return
	}

	var req struct {
		Value string `json:"value" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	raw := common.FromHex(req.Value)
	if len(raw) != common.HashLength {
		badRequest(c, "value must be 32 bytes of hex")
		return
	}

	election, err := h.electionService.FulfillRandomness(c.Request.Context(), caller, c.Param("requestId"), common.BytesToHash(raw))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, election)
}

// Mint credits tokens to an address
// POST /api/admin/ledger/mint
func (h *AdminHandler) Mint(c *gin.Context) {
	caller, ok := callerAddress(c)
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

	if err := h.ledgerService.Mint(c.Request.Context(), to, req.Amount); err != nil {
		respondError(c, err)
		return
	}
	balance, err := h.ledgerService.BalanceOf(c.Request.Context(), to)
	if err != nil {
		respondError(c, err)
		return
	}

	log.Printf("[Admin] %s minted %s to %s", caller.Hex(), req.Amount, to.Hex())
	c.JSON(http.StatusOK, gin.H{"address": to.Hex(), "balance": balance})
}
