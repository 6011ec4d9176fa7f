package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"grant-governance/internal/auth"
	"grant-governance/internal/models"
	"grant-governance/internal/services"
	"grant-governance/internal/utils"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

var (
	notFoundErrors = []error{
		services.ErrProposalNotFound,
		services.ErrElectionNotFound,
		services.ErrRandomnessRequestNotFound,
		services.ErrNoStakeLock,
	}
	forbiddenErrors = []error{
		services.ErrUnauthorized,
		services.ErrOnlyProposer,
	}
	conflictErrors = []error{
		services.ErrVotingClosed,
		services.ErrFinalizationNotAllowed,
		services.ErrAlreadyFinalized,
		services.ErrBondAlreadyClaimed,
		services.ErrDuplicateVote,
		services.ErrProposalNotPassedOrStillProcessing,
		services.ErrElectionNotYetClosed,
		services.ErrCooldownNotElapsed,
		services.ErrElectionNotOpenForRegistration,
		services.ErrElectionNotOpenForVoting,
		services.ErrElectionNotClosed,
		services.ErrElectionAlreadyFinalized,
		services.ErrAlreadyRegistered,
		services.ErrRandomnessPending,
		services.ErrRandomnessAlreadyFulfilled,
		services.ErrStakeLocked,
	}
	badRequestErrors = []error{
		services.ErrInvalidProposalKind,
		services.ErrInvalidVoteChoice,
		services.ErrInvalidTerm,
		services.ErrInvalidConfiguration,
		services.ErrInvalidAmount,
		services.ErrInvalidLockDuration,
		services.ErrVoteArityMismatch,
		services.ErrInvalidVoteWeight,
		services.ErrVoiceCreditsRequired,
		services.ErrBeneficiariesRequired,
		utils.ErrInvalidContentRef,
	}
)

// statusFor maps a service error to an HTTP status. Precondition failures
// not listed elsewhere are 422.
func statusFor(err error) int {
	is := func(target error) bool { return errors.Is(err, target) }
	switch {
	case lo.ContainsBy(notFoundErrors, is):
		return http.StatusNotFound
	case lo.ContainsBy(forbiddenErrors, is):
		return http.StatusForbidden
	case lo.ContainsBy(conflictErrors, is):
		return http.StatusConflict
	case lo.ContainsBy(badRequestErrors, is):
		return http.StatusBadRequest
	case lo.ContainsBy([]error{
		services.ErrProposalBondInsufficient,
		services.ErrBeneficiaryAlreadyPendingOrExists,
		services.ErrBeneficiaryDoesNotExist,
		services.ErrBeneficiaryExists,
		services.ErrNoVoiceCredits,
		services.ErrInsufficientVoiceCredits,
		services.ErrIneligibleBeneficiary,
		services.ErrElectionDisabled,
		services.ErrInsufficientBalance,
		services.ErrInsufficientAllowance,
	}, is):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Printf("[API] %s %s failed: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": message})
}

// callerAddress returns the authenticated address or writes a 401
func callerAddress(c *gin.Context) (common.Address, bool) {
	addr, ok := auth.GetAddress(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	}
	return addr, ok
}

func parseAddress(c *gin.Context, value string) (common.Address, bool) {
	if !common.IsHexAddress(value) {
		badRequest(c, "invalid address")
		return common.Address{}, false
	}
	return common.HexToAddress(value), true
}

func parseTerm(c *gin.Context) (models.ElectionTerm, bool) {
	term := models.ElectionTerm(c.Param("term"))
	if !term.Valid() {
		respondError(c, services.ErrInvalidTerm)
		return "", false
	}
	return term, true
}

func parseProposalID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		badRequest(c, "invalid proposal id")
		return 0, false
	}
	return id, true
}

// pagination reads limit (1..100, default 20) and offset (default 0)
func pagination(c *gin.Context) (int, int) {
	limit := 20
	offset := 0

	if limitStr := c.Query("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}

	if offsetStr := c.Query("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			offset = o
		}
	}
	return limit, offset
}
