package handlers

import (
	"errors"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"

	"grant-governance/internal/auth"
	"grant-governance/internal/services"
)

// AuthHandler handles wallet login endpoints
type AuthHandler struct {
	nonces     auth.NonceStore
	credits    services.VoiceCreditSource
	governance common.Address
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(nonces auth.NonceStore, credits services.VoiceCreditSource, governance common.Address) *AuthHandler {
	return &AuthHandler{
		nonces:     nonces,
		credits:    credits,
		governance: governance,
	}
}

// Challenge issues a one-time nonce for the wallet to sign
// POST /auth/challenge
func (h *AuthHandler) Challenge(c *gin.Context) {
	var req struct {
		Address string `json:"address" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	addr, ok := parseAddress(c, req.Address)
	if !ok {
		return
	}

	nonce, err := auth.IssueChallenge(c.Request.Context(), h.nonces, addr)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"nonce":   nonce,
		"message": auth.LoginMessage(nonce),
	})
}

// Verify checks the signed challenge and returns a JWT.
// The signature is the hex encoded personal_sign result over the challenge message.
// POST /auth/verify
func (h *AuthHandler) Verify(c *gin.Context) {
	var req struct {
		Address   string `json:"address" binding:"required"`
		Signature string `json:"signature" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	addr, ok := parseAddress(c, req.Address)
	if !ok {
		return
	}

	err := auth.VerifyChallenge(c.Request.Context(), h.nonces, addr, req.Signature)
	if errors.Is(err, auth.ErrNonceNotFound) || errors.Is(err, auth.ErrInvalidSignature) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	token, err := auth.GenerateToken(addr)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":   token,
		"address": addr.Hex(),
	})
}

// Logout handles logout (stateless JWT, client-side only)
// POST /auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Successfully logged out",
	})
}

// GetMe returns the authenticated address and its current voice credits
// GET /auth/me
func (h *AuthHandler) GetMe(c *gin.Context) {
	addr, ok := callerAddress(c)
	if !ok {
		return
	}

	credits, err := h.credits.GetVoiceCredits(c.Request.Context(), addr)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"address":       addr.Hex(),
		"voice_credits": credits,
		"governance":    addr == h.governance,
	})
}
