package dto

import (
	"github.com/yiwen-ai/walletbase/internal/domain/entity"
)

// TransactionRequest represents the API request for preparing a transfer
type TransactionRequest struct {
	Payee       string `json:"payee" binding:"required"`
	SubPayee    string `json:"subPayee"`
	Kind        string `json:"kind" binding:"required,oneof=award topup refund withdraw spend sponsor subscribe"`
	Amount      int64  `json:"amount" binding:"required,gt=0"`
	SysFee      *int64 `json:"sysFee"`
	SubShares   *int64 `json:"subShares"`
	Description string `json:"description"`
	Payload     []byte `json:"payload"`
}

// TransactionResponse represents the API response for a transfer
type TransactionResponse struct {
	UID         string  `json:"uid"`
	ID          string  `json:"id"`
	Payee       string  `json:"payee"`
	SubPayee    *string `json:"subPayee,omitempty"`
	Status      int8    `json:"status"`
	StatusName  string  `json:"statusName"`
	Kind        string  `json:"kind"`
	Amount      int64   `json:"amount"`
	SysFee      int64   `json:"sysFee"`
	SubShares   int64   `json:"subShares"`
	PayeeNet    int64   `json:"payeeNet"`
	Description string  `json:"description,omitempty"`
}

// TransactionFromEntity maps a transaction entity to its API representation
func TransactionFromEntity(t *entity.Transaction) TransactionResponse {
	resp := TransactionResponse{
		UID:         t.UID.String(),
		ID:          t.ID.String(),
		Payee:       t.Payee.String(),
		Status:      t.Status,
		StatusName:  entity.StatusName(t.Status),
		Kind:        t.Kind,
		Amount:      t.Amount,
		SysFee:      t.SysFee,
		SubShares:   t.SubShares,
		PayeeNet:    t.PayeeNet(),
		Description: t.Description,
	}
	if t.SubPayee != nil {
		s := t.SubPayee.String()
		resp.SubPayee = &s
	}
	return resp
}

// TransactionsFromEntities maps a slice of transaction entities
func TransactionsFromEntities(txns []entity.Transaction) []TransactionResponse {
	out := make([]TransactionResponse, 0, len(txns))
	for i := range txns {
		out = append(out, TransactionFromEntity(&txns[i]))
	}
	return out
}

// PayeeTransactionResponse represents one row of the payee-side index
type PayeeTransactionResponse struct {
	Payee string `json:"payee"`
	Txn   string `json:"txn"`
	UID   string `json:"uid"`
}

// PayeeTransactionsFromEntities maps a slice of payee index rows
func PayeeTransactionsFromEntities(rows []entity.PayeeTransaction) []PayeeTransactionResponse {
	out := make([]PayeeTransactionResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, PayeeTransactionResponse{
			Payee: r.Payee.String(),
			Txn:   r.Txn.String(),
			UID:   r.UID.String(),
		})
	}
	return out
}
