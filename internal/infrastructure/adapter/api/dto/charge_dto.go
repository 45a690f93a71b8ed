package dto

import (
	"sort"

	"github.com/yiwen-ai/walletbase/internal/domain/entity"
)

// ChargeRequest represents the API request for opening a fiat charge
type ChargeRequest struct {
	Provider string `json:"provider" binding:"required"`
	Quantity int64  `json:"quantity" binding:"required,gt=0"`
	Currency string `json:"currency" binding:"required"`
	Amount   int64  `json:"amount" binding:"required,gt=0"`
	Payload  []byte `json:"payload"`
}

// ChargeResponse represents the API response for a charge
type ChargeResponse struct {
	UID            string  `json:"uid"`
	ID             string  `json:"id"`
	Status         int8    `json:"status"`
	StatusName     string  `json:"statusName"`
	UpdatedAt      int64   `json:"updatedAt"`
	ExpireAt       int64   `json:"expireAt"`
	Quantity       int64   `json:"quantity"`
	Currency       string  `json:"currency"`
	Amount         int64   `json:"amount"`
	AmountRefunded int64   `json:"amountRefunded"`
	Provider       string  `json:"provider"`
	ChargeID       string  `json:"chargeId,omitempty"`
	Txn            *string `json:"txn,omitempty"`
	TxnRefunded    *string `json:"txnRefunded,omitempty"`
	FailureCode    string  `json:"failureCode,omitempty"`
	FailureMsg     string  `json:"failureMsg,omitempty"`
}

// ChargeFromEntity maps a charge entity to its API representation
func ChargeFromEntity(c *entity.Charge) ChargeResponse {
	resp := ChargeResponse{
		UID:            c.UID.String(),
		ID:             c.ID.String(),
		Status:         c.Status,
		StatusName:     entity.ChargeStatusName(c.Status),
		UpdatedAt:      c.UpdatedAt,
		ExpireAt:       c.ExpireAt,
		Quantity:       c.Quantity,
		Currency:       c.Currency,
		Amount:         c.Amount,
		AmountRefunded: c.AmountRefunded,
		Provider:       c.Provider,
		ChargeID:       c.ChargeID,
		FailureCode:    c.FailureCode,
		FailureMsg:     c.FailureMsg,
	}
	if c.Txn != nil {
		s := c.Txn.String()
		resp.Txn = &s
	}
	if c.TxnRefunded != nil {
		s := c.TxnRefunded.String()
		resp.TxnRefunded = &s
	}
	return resp
}

// ChargesFromEntities maps a slice of charge entities
func ChargesFromEntities(charges []entity.Charge) []ChargeResponse {
	out := make([]ChargeResponse, 0, len(charges))
	for i := range charges {
		out = append(out, ChargeFromEntity(&charges[i]))
	}
	return out
}

// ChargeEventRequest represents a payment provider webhook event
type ChargeEventRequest struct {
	ID          string `json:"id" binding:"required"`
	Status      string `json:"status" binding:"required,oneof=pending succeeded failed refunded"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	FailureCode string `json:"failureCode"`
	FailureMsg  string `json:"failureMsg"`
	Payload     []byte `json:"payload"`
}

// CustomerRequest represents the API request for recording a provider
// customer identity
type CustomerRequest struct {
	Customer string `json:"customer" binding:"required"`
	Payload  []byte `json:"payload"`
}

// CustomerResponse represents the API response for a provider customer
type CustomerResponse struct {
	UID       string   `json:"uid"`
	Provider  string   `json:"provider"`
	CreatedAt int64    `json:"createdAt"`
	UpdatedAt int64    `json:"updatedAt"`
	Customer  string   `json:"customer"`
	Customers []string `json:"customers"`
}

// CustomerFromEntity maps a customer entity to its API representation
func CustomerFromEntity(c *entity.Customer) CustomerResponse {
	history := make([]string, 0, len(c.Customers))
	for id := range c.Customers {
		history = append(history, id)
	}
	sort.Strings(history)
	return CustomerResponse{
		UID:       c.UID.String(),
		Provider:  c.Provider,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
		Customer:  c.Customer,
		Customers: history,
	}
}
