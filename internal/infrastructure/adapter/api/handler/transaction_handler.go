package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/xid"

	"github.com/yiwen-ai/walletbase/internal/domain/entity"
	coreport "github.com/yiwen-ai/walletbase/internal/domain/port/core"
	transferUseCase "github.com/yiwen-ai/walletbase/internal/domain/usecase/transfer"
	"github.com/yiwen-ai/walletbase/internal/infrastructure/adapter/api/dto"
)

// TransactionHandler handles transfer saga HTTP requests
type TransactionHandler struct {
	transfers *transferUseCase.Coordinator
	logger    coreport.Logger
}

// NewTransactionHandler creates a new transaction handler instance
func NewTransactionHandler(
	transfers *transferUseCase.Coordinator,
	logger coreport.Logger,
) *TransactionHandler {
	return &TransactionHandler{
		transfers: transfers,
		logger:    logger,
	}
}

// Prepare handles the POST /wallet/:uid/transactions endpoint
func (h *TransactionHandler) Prepare(c *gin.Context) {
	uid, ok := parseIDParam(c, "uid")
	if !ok {
		return
	}

	var req dto.TransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request format: "+err.Error())
		return
	}

	payee, err := xid.FromString(req.Payee)
	if err != nil {
		badRequest(c, "invalid payee format")
		return
	}
	var subPayee *xid.ID
	if req.SubPayee != "" {
		id, err := xid.FromString(req.SubPayee)
		if err != nil {
			badRequest(c, "invalid subPayee format")
			return
		}
		subPayee = &id
	}

	txn, err := h.transfers.Prepare(c.Request.Context(), transferUseCase.PrepareInput{
		Payer:       uid,
		Payee:       payee,
		SubPayee:    subPayee,
		Kind:        req.Kind,
		Amount:      req.Amount,
		SysFee:      req.SysFee,
		SubShares:   req.SubShares,
		Description: req.Description,
		Payload:     req.Payload,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.TransactionFromEntity(txn))
}

// Get handles the GET /wallet/:uid/transactions/:id endpoint
func (h *TransactionHandler) Get(c *gin.Context) {
	uid, ok := parseIDParam(c, "uid")
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	txn, err := h.transfers.Get(c.Request.Context(), uid, id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.TransactionFromEntity(txn))
}

// List handles the GET /wallet/:uid/transactions endpoint
func (h *TransactionHandler) List(c *gin.Context) {
	uid, ok := parseIDParam(c, "uid")
	if !ok {
		return
	}
	opts, ok := parseListOptions(c)
	if !ok {
		return
	}

	txns, err := h.transfers.List(c.Request.Context(), uid, opts)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.TransactionsFromEntities(txns))
}

// ListByPayee handles the GET /payee/:uid/transactions endpoint
func (h *TransactionHandler) ListByPayee(c *gin.Context) {
	uid, ok := parseIDParam(c, "uid")
	if !ok {
		return
	}
	opts, ok := parseListOptions(c)
	if !ok {
		return
	}

	rows, err := h.transfers.ListByPayee(c.Request.Context(), uid, opts)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.PayeeTransactionsFromEntities(rows))
}

// AdvanceToPrepared handles the POST /wallet/:uid/transactions/:id/prepared endpoint
func (h *TransactionHandler) AdvanceToPrepared(c *gin.Context) {
	h.transition(c, h.transfers.AdvanceToPrepared)
}

// Commit handles the POST /wallet/:uid/transactions/:id/commit endpoint
func (h *TransactionHandler) Commit(c *gin.Context) {
	h.transition(c, h.transfers.Commit)
}

// Cancel handles the POST /wallet/:uid/transactions/:id/cancel endpoint
func (h *TransactionHandler) Cancel(c *gin.Context) {
	h.transition(c, h.transfers.Cancel)
}

// transition runs one saga transition identified by the path parameters
func (h *TransactionHandler) transition(
	c *gin.Context,
	fn func(ctx context.Context, uid, id xid.ID) (*entity.Transaction, error),
) {
	uid, ok := parseIDParam(c, "uid")
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	txn, err := fn(c.Request.Context(), uid, id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.TransactionFromEntity(txn))
}
