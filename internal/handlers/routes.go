package handlers

import (
	"net/http"
	"time"

	"grant-governance/internal/auth"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
)

// Handlers groups every HTTP handler of the API
type Handlers struct {
	Auth        *AuthHandler
	Proposal    *ProposalHandler
	Election    *ElectionHandler
	Ledger      *LedgerHandler
	Beneficiary *BeneficiaryHandler
	Admin       *AdminHandler
	Event       *EventHandler
}

// RegisterRoutes mounts the API on router. Governance routes are restricted
// to the governance address.
func RegisterRoutes(router *gin.Engine, h Handlers, governance common.Address) {
	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// Authentication routes (public)
	authRoutes := router.Group("/auth")
	{
		authRoutes.POST("/challenge", h.Auth.Challenge)
		authRoutes.POST("/verify", h.Auth.Verify)
		authRoutes.POST("/logout", h.Auth.Logout)
	}

	// Authenticated /auth/me route
	authProtected := router.Group("/auth")
	authProtected.Use(auth.AuthMiddleware())
	{
		authProtected.GET("/me", h.Auth.GetMe)
	}

	// Public read routes
	public := router.Group("/api")
	{
		public.GET("/proposals", h.Proposal.ListProposals)
		public.GET("/proposals/settings", h.Proposal.GetSettings)
		public.GET("/proposals/:id", h.Proposal.GetProposal)
		public.GET("/proposals/:id/voters/:address", h.Proposal.HasVoted)

		public.GET("/elections/configurations", h.Election.ListConfigurations)
		public.GET("/elections/treasury", h.Election.GetTreasury)
		public.GET("/elections/:term", h.Election.GetElection)
		public.GET("/elections/:term/tallies", h.Election.GetTallies)
		public.GET("/elections/:term/awardees", h.Election.GetAwardees)

		public.GET("/beneficiaries", h.Beneficiary.ListBeneficiaries)
		public.GET("/beneficiaries/:address", h.Beneficiary.GetBeneficiary)

		public.GET("/ledger/:address", h.Ledger.GetAccount)
		public.GET("/staking/:address", h.Ledger.GetStake)

		public.GET("/events", h.Event.ListEvents)
	}

	// API routes (protected)
	api := router.Group("/api")
	api.Use(auth.AuthMiddleware())
	{
		api.POST("/proposals", h.Proposal.CreateProposal)
		api.POST("/proposals/rewards", h.Proposal.ContributeReward)
		api.POST("/proposals/:id/vote", h.Proposal.Vote)
		api.POST("/proposals/:id/finalize", h.Proposal.Finalize)
		api.POST("/proposals/:id/claim-bond", h.Proposal.ClaimBond)

		api.POST("/elections/incentives", h.Election.ContributeIncentive)
		api.POST("/elections/:term/initialize", h.Election.Initialize)
		api.POST("/elections/:term/register", h.Election.Register)
		api.POST("/elections/:term/vote", h.Election.Vote)
		api.POST("/elections/:term/refresh", h.Election.Refresh)
		api.POST("/elections/:term/finalize", h.Election.Finalize)

		api.POST("/ledger/approve", h.Ledger.Approve)
		api.POST("/ledger/transfer", h.Ledger.Transfer)
		api.POST("/staking/lock", h.Ledger.Lock)
		api.POST("/staking/withdraw", h.Ledger.Withdraw)
	}

	// Admin routes (protected + governance only)
	admin := router.Group("/api/admin")
	admin.Use(auth.AuthMiddleware())
	admin.Use(auth.GovernanceOnly(governance))
	{
		admin.PUT("/proposals/settings", h.Admin.UpdateProposalSettings)
		admin.PUT("/proposals/rewards-budget", h.Admin.UpdateRewardsBudget)
		admin.PUT("/elections/:term/configuration", h.Admin.UpdateElectionConfiguration)
		admin.POST("/randomness/:requestId", h.Admin.FulfillRandomness)
		admin.POST("/ledger/mint", h.Admin.Mint)
	}
}
