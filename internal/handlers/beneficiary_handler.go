package handlers

import (
	"errors"
	"net/http"

	"grant-governance/internal/services"
	"grant-governance/internal/utils"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
)

type BeneficiaryHandler struct {
	beneficiaryService *services.BeneficiaryService
}

func NewBeneficiaryHandler(beneficiaryService *services.BeneficiaryService) *BeneficiaryHandler {
	return &BeneficiaryHandler{
		beneficiaryService: beneficiaryService,
	}
}

// ListBeneficiaries lists the directory
// GET /api/beneficiaries
func (h *BeneficiaryHandler) ListBeneficiaries(c *gin.Context) {
	limit, offset := pagination(c)

	beneficiaries, err := h.beneficiaryService.ListBeneficiaries(c.Request.Context(), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"beneficiaries": beneficiaries,
		"total":         len(beneficiaries),
	})
}

// GetBeneficiary returns one directory entry
// GET /api/beneficiaries/:address
func (h *BeneficiaryHandler) GetBeneficiary(c *gin.Context) {
	addr, ok := parseAddress(c, c.Param("address"))
	if !ok {
		return
	}

	beneficiary, err := h.beneficiaryService.GetBeneficiary(c.Request.Context(), addr)
	if err != nil {
		if errors.Is(err, services.ErrBeneficiaryDoesNotExist) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"beneficiary": beneficiary,
		"content_cid": utils.CIDFromContentRef(common.HexToHash(beneficiary.ContentRef)),
	})
}
