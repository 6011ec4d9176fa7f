package handlers

import (
	"net/http"

	"grant-governance/internal/models"
	"grant-governance/internal/repository"
	"grant-governance/internal/services"
	"grant-governance/internal/utils"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type ProposalHandler struct {
	proposalService *services.ProposalService
}

func NewProposalHandler(proposalService *services.ProposalService) *ProposalHandler {
	return &ProposalHandler{
		proposalService: proposalService,
	}
}

// CreateProposal opens a nomination or takedown proposal, taking the bond
// POST /api/proposals
func (h *ProposalHandler) CreateProposal(c *gin.Context) {
	proposer, ok := callerAddress(c)
	if !ok {
		return
	}

	var req struct {
		Beneficiary string              `json:"beneficiary" binding:"required"`
		ContentRef  string              `json:"content_ref" binding:"required"`
		Kind        models.ProposalKind `json:"kind" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	beneficiary, ok := parseAddress(c, req.Beneficiary)
	if !ok {
		return
	}
	contentRef, err := utils.ContentRefFromCID(req.ContentRef)
	if err != nil {
		respondError(c, err)
		return
	}

	proposal, err := h.proposalService.CreateProposal(c.Request.Context(), proposer, beneficiary, contentRef, req.Kind)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, proposal)
}

// GetProposal returns a proposal with its evaluated phase
// GET /api/proposals/:id
func (h *ProposalHandler) GetProposal(c *gin.Context) {
	id, ok := parseProposalID(c)
	if !ok {
		return
	}

	proposal, err := h.proposalService.GetProposal(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	vault, err := h.proposalService.GetRewardVault(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"proposal":    proposal,
		"content_cid": utils.CIDFromContentRef(common.HexToHash(proposal.ContentRef)),
		"vault":       vault,
	})
}

// ListProposals lists proposals, filtered by status, kind, beneficiary or proposer
// GET /api/proposals
func (h *ProposalHandler) ListProposals(c *gin.Context) {
	limit, offset := pagination(c)
	filter := repository.ProposalFilter{
		Status: models.ProposalStatus(c.Query("status")),
		Kind:   models.ProposalKind(c.Query("kind")),
		Limit:  limit,
		Offset: offset,
	}
	if v := c.Query("beneficiary"); v != "" {
		addr, ok := parseAddress(c, v)
		if !ok {
			return
		}
		filter.Beneficiary = &addr
	}
	if v := c.Query("proposer"); v != "" {
		addr, ok := parseAddress(c, v)
		if !ok {
			return
		}
		filter.Proposer = &addr
	}

	proposals, err := h.proposalService.ListProposals(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	total, err := h.proposalService.CountProposals(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"proposals": proposals,
		"total":     total,
	})
}

// HasVoted reports whether an address voted on a proposal
// GET /api/proposals/:id/voters/:address
func (h *ProposalHandler) HasVoted(c *gin.Context) {
	id, ok := parseProposalID(c)
	if !ok {
		return
	}
	voter, ok := parseAddress(c, c.Param("address"))
	if !ok {
		return
	}

	voted, err := h.proposalService.HasVoted(c.Request.Context(), id, voter)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"voted": voted})
}

// Vote casts the caller's voice credits on a proposal
// POST /api/proposals/:id/vote
func (h *ProposalHandler) Vote(c *gin.Context) {
	voter, ok := callerAddress(c)
	if !ok {
		return
	}
	id, ok := parseProposalID(c)
	if !ok {
		return
	}

	var req struct {
		Choice models.VoteChoice `json:"choice" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	proposal, err := h.proposalService.Vote(c.Request.Context(), voter, id, req.Choice)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, proposal)
}

// Finalize advances a proposal whose initial window has elapsed
// POST /api/proposals/:id/finalize
func (h *ProposalHandler) Finalize(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		return
	}
	id, ok := parseProposalID(c)
	if !ok {
		return
	}

	proposal, err := h.proposalService.Finalize(c.Request.Context(), caller, id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, proposal)
}

// ClaimBond returns the bond of a passed proposal to its proposer
// POST /api/proposals/:id/claim-bond
func (h *ProposalHandler) ClaimBond(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		return
	}
	id, ok := parseProposalID(c)
	if !ok {
		return
	}

	proposal, err := h.proposalService.ClaimBond(c.Request.Context(), caller, id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, proposal)
}

// GetSettings returns the parameters applied to new proposals
// GET /api/proposals/settings
func (h *ProposalHandler) GetSettings(c *gin.Context) {
	settings, err := h.proposalService.GetSettings(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, settings)
}

// ContributeReward adds the caller's tokens to the vault rewards pool
// POST /api/proposals/rewards
func (h *ProposalHandler) ContributeReward(c *gin.Context) {
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

	settings, err := h.proposalService.ContributeReward(c.Request.Context(), contributor, req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, settings)
}
