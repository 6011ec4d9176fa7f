package handlers

import (
	"net/http"

	"grant-governance/internal/services"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type ElectionHandler struct {
	electionService *services.ElectionService
}

func NewElectionHandler(electionService *services.ElectionService) *ElectionHandler {
	return &ElectionHandler{
		electionService: electionService,
	}
}

// GetElection returns the current round of a term with its registrations and awardees
// GET /api/elections/:term
func (h *ElectionHandler) GetElection(c *gin.Context) {
	term, ok := parseTerm(c)
	if !ok {
		return
	}

	metadata, err := h.electionService.GetElectionMetadata(c.Request.Context(), term)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, metadata)
}

// GetTallies returns the registrations of the current round ordered by votes
// GET /api/elections/:term/tallies
func (h *ElectionHandler) GetTallies(c *gin.Context) {
	term, ok := parseTerm(c)
	if !ok {
		return
	}

	tallies, err := h.electionService.GetTallies(c.Request.Context(), term)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"tallies": tallies})
}

// GetAwardees returns the selected awardees of the current round
// GET /api/elections/:term/awardees
func (h *ElectionHandler) GetAwardees(c *gin.Context) {
	term, ok := parseTerm(c)
	if !ok {
		return
	}

	awardees, err := h.electionService.GetAwardees(c.Request.Context(), term)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"awardees": awardees})
}

// ListConfigurations returns the configuration of every term
// GET /api/elections/configurations
func (h *ElectionHandler) ListConfigurations(c *gin.Context) {
	configs, err := h.electionService.ListConfigurations(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"configurations": configs})
}

// GetTreasury returns the finalization incentive treasury
// GET /api/elections/treasury
func (h *ElectionHandler) GetTreasury(c *gin.Context) {
	treasury, err := h.electionService.GetTreasury(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, treasury)
}

// Initialize opens the next round of a term
// POST /api/elections/:term/initialize
func (h *ElectionHandler) Initialize(c *gin.Context) {
	if _, ok := callerAddress(c); !ok {
		return
	}
	term, ok := parseTerm(c)
	if !ok {
		return
	}

	election, err := h.electionService.Initialize(c.Request.Context(), term)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, election)
}

// Register registers a directory beneficiary in the current round
// POST /api/elections/:term/register
func (h *ElectionHandler) Register(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		return
	}
	term, ok := parseTerm(c)
	if !ok {
		return
	}

	var req struct {
		Beneficiary string `json:"beneficiary" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	beneficiary, ok := parseAddress(c, req.Beneficiary)
	if !ok {
		return
	}

	registration, err := h.electionService.RegisterForElection(c.Request.Context(), caller, beneficiary, term)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, registration)
}

// Vote spreads the caller's voice credits over registered beneficiaries
// POST /api/elections/:term/vote
func (h *ElectionHandler) Vote(c *gin.Context) {
	voter, ok := callerAddress(c)
	if !ok {
		return
	}
	term, ok := parseTerm(c)
	if !ok {
		return
	}

	var req struct {
		Beneficiaries []string          `json:"beneficiaries"`
		Weights       []decimal.Decimal `json:"weights"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	beneficiaries := make([]common.Address, len(req.Beneficiaries))
	for i, b := range req.Beneficiaries {
		addr, ok := parseAddress(c, b)
		if !ok {
			return
		}
		beneficiaries[i] = addr
	}

	votes, err := h.electionService.Vote(c.Request.Context(), voter, beneficiaries, req.Weights, term)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"votes": votes})
}

// Refresh persists time-driven state changes of the current round
// POST /api/elections/:term/refresh
func (h *ElectionHandler) Refresh(c *gin.Context) {
	term, ok := parseTerm(c)
	if !ok {
		return
	}

	election, err := h.electionService.RefreshElectionState(c.Request.Context(), term)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, election)
}

// Finalize selects the awardees of a closed round, or requests randomness for it
// POST /api/elections/:term/finalize
func (h *ElectionHandler) Finalize(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		return
	}
	term, ok := parseTerm(c)
	if !ok {
		return
	}

	election, err := h.electionService.FinalizeElection(c.Request.Context(), caller, term)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, election)
}

// ContributeIncentive funds finalization incentives
// POST /api/elections/incentives
func (h *ElectionHandler) ContributeIncentive(c *gin.Context) {
	contributor, ok := callerAddress(c)
	if !ok {
		return
	}

	var req struct {
		Amount decimal.Decimal `json:"amount"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	treasury, err := h.electionService.ContributeIncentive(c.Request.Context(), contributor, req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, treasury)
}
