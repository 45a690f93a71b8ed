package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/xid"

	coreport "github.com/yiwen-ai/walletbase/internal/domain/port/core"
	creditUseCase "github.com/yiwen-ai/walletbase/internal/domain/usecase/credit"
	walletUseCase "github.com/yiwen-ai/walletbase/internal/domain/usecase/wallet"
	"github.com/yiwen-ai/walletbase/internal/infrastructure/adapter/api/dto"
)

// WalletHandler handles wallet and credit-trail HTTP requests
type WalletHandler struct {
	wallets *walletUseCase.Store
	credits *creditUseCase.Service
	logger  coreport.Logger
}

// NewWalletHandler creates a new wallet handler instance
func NewWalletHandler(
	wallets *walletUseCase.Store,
	credits *creditUseCase.Service,
	logger coreport.Logger,
) *WalletHandler {
	return &WalletHandler{
		wallets: wallets,
		credits: credits,
		logger:  logger,
	}
}

// GetWallet handles the GET /wallet/:uid endpoint
func (h *WalletHandler) GetWallet(c *gin.Context) {
	uid, ok := parseIDParam(c, "uid")
	if !ok {
		return
	}

	w, err := h.wallets.Get(c.Request.Context(), uid)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.WalletFromEntity(w))
}

// ListCredits handles the GET /wallet/:uid/credits endpoint
func (h *WalletHandler) ListCredits(c *gin.Context) {
	uid, ok := parseIDParam(c, "uid")
	if !ok {
		return
	}
	opts, ok := parseListOptions(c)
	if !ok {
		return
	}

	entries, err := h.credits.List(c.Request.Context(), uid, opts)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.CreditsFromEntities(entries))
}

// AwardCredits handles the POST /wallet/:uid/credits endpoint. It seeds a
// user's credit score outside the transaction flow.
func (h *WalletHandler) AwardCredits(c *gin.Context) {
	uid, ok := parseIDParam(c, "uid")
	if !ok {
		return
	}

	var req dto.AwardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request format: "+err.Error())
		return
	}
	txn, err := xid.FromString(req.Txn)
	if err != nil {
		badRequest(c, "invalid txn format")
		return
	}

	if err := h.credits.Award(c.Request.Context(), uid, txn, req.Amount, req.Description); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
