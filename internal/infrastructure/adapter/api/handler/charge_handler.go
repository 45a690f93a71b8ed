package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	coreport "github.com/yiwen-ai/walletbase/internal/domain/port/core"
	"github.com/yiwen-ai/walletbase/internal/domain/port/payment"
	chargeUseCase "github.com/yiwen-ai/walletbase/internal/domain/usecase/charge"
	"github.com/yiwen-ai/walletbase/internal/infrastructure/adapter/api/dto"
)

// ChargeHandler handles fiat charge and provider customer HTTP requests
type ChargeHandler struct {
	charges *chargeUseCase.Coordinator
	logger  coreport.Logger
}

// NewChargeHandler creates a new charge handler instance
func NewChargeHandler(charges *chargeUseCase.Coordinator, logger coreport.Logger) *ChargeHandler {
	return &ChargeHandler{
		charges: charges,
		logger:  logger,
	}
}

// Create handles the POST /wallet/:uid/charges endpoint
func (h *ChargeHandler) Create(c *gin.Context) {
	uid, ok := parseIDParam(c, "uid")
	if !ok {
		return
	}

	var req dto.ChargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request format: "+err.Error())
		return
	}

	ch, err := h.charges.Create(c.Request.Context(), chargeUseCase.CreateInput{
		UID:      uid,
		Provider: req.Provider,
		Quantity: req.Quantity,
		Currency: req.Currency,
		Amount:   req.Amount,
		Payload:  req.Payload,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ChargeFromEntity(ch))
}

// Get handles the GET /wallet/:uid/charges/:id endpoint
func (h *ChargeHandler) Get(c *gin.Context) {
	uid, ok := parseIDParam(c, "uid")
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	ch, err := h.charges.Get(c.Request.Context(), uid, id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ChargeFromEntity(ch))
}

// List handles the GET /wallet/:uid/charges endpoint. An optional status
// query parameter filters by charge status.
func (h *ChargeHandler) List(c *gin.Context) {
	uid, ok := parseIDParam(c, "uid")
	if !ok {
		return
	}
	opts, ok := parseListOptions(c)
	if !ok {
		return
	}

	var status *int8
	if raw := c.Query("status"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 8)
		if err != nil {
			badRequest(c, "invalid status format")
			return
		}
		s := int8(parsed)
		status = &s
	}

	charges, err := h.charges.List(c.Request.Context(), uid, status, opts)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ChargesFromEntities(charges))
}

// Refund handles the POST /wallet/:uid/charges/:id/refund endpoint
func (h *ChargeHandler) Refund(c *gin.Context) {
	uid, ok := parseIDParam(c, "uid")
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	ch, err := h.charges.Refund(c.Request.Context(), uid, id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ChargeFromEntity(ch))
}

// HandleEvent handles the POST /webhooks/:provider endpoint. Providers
// deliver at least once; duplicate events are acknowledged without effect.
func (h *ChargeHandler) HandleEvent(c *gin.Context) {
	provider := c.Param("provider")

	var req dto.ChargeEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid event format: "+err.Error())
		return
	}

	intent := &payment.Intent{
		ID:          req.ID,
		Status:      payment.IntentStatus(req.Status),
		Amount:      req.Amount,
		Currency:    req.Currency,
		FailureCode: req.FailureCode,
		FailureMsg:  req.FailureMsg,
		Payload:     req.Payload,
	}

	if err := h.charges.HandleEvent(c.Request.Context(), provider, intent); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// GetCustomer handles the GET /wallet/:uid/customers/:provider endpoint
func (h *ChargeHandler) GetCustomer(c *gin.Context) {
	uid, ok := parseIDParam(c, "uid")
	if !ok {
		return
	}

	cust, err := h.charges.GetCustomer(c.Request.Context(), uid, c.Param("provider"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.CustomerFromEntity(cust))
}

// SaveCustomer handles the PUT /wallet/:uid/customers/:provider endpoint
func (h *ChargeHandler) SaveCustomer(c *gin.Context) {
	uid, ok := parseIDParam(c, "uid")
	if !ok {
		return
	}

	var req dto.CustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request format: "+err.Error())
		return
	}

	cust, err := h.charges.SaveCustomer(c.Request.Context(), uid, c.Param("provider"), req.Customer, req.Payload)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.CustomerFromEntity(cust))
}
