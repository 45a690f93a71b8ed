package dto

import (
	"github.com/yiwen-ai/walletbase/internal/domain/entity"
)

// WalletResponse represents the API response for a wallet's balances
type WalletResponse struct {
	UID      string `json:"uid"`
	Sequence int64  `json:"sequence"`
	Award    int64  `json:"award"`
	Topup    int64  `json:"topup"`
	Income   int64  `json:"income"`
	Balance  int64  `json:"balance"`
	Credits  int64  `json:"credits"`
}

// WalletFromEntity maps a wallet entity to its API representation.
// Txn and checksum are internal bookkeeping and never leave the service.
func WalletFromEntity(w *entity.Wallet) WalletResponse {
	return WalletResponse{
		UID:      w.UID.String(),
		Sequence: w.Sequence,
		Award:    w.Award,
		Topup:    w.Topup,
		Income:   w.Income,
		Balance:  w.Balance(),
		Credits:  w.Credits,
	}
}

// AwardRequest represents the API request for seeding a user's credit score
type AwardRequest struct {
	Txn         string `json:"txn" binding:"required"`
	Amount      int64  `json:"amount" binding:"required,gt=0"`
	Description string `json:"description"`
}

// CreditResponse represents one entry of a user's credit trail
type CreditResponse struct {
	UID         string `json:"uid"`
	Txn         string `json:"txn"`
	Kind        string `json:"kind"`
	Amount      int64  `json:"amount"`
	Description string `json:"description,omitempty"`
}

// CreditFromEntity maps a credit entry to its API representation
func CreditFromEntity(c *entity.Credit) CreditResponse {
	return CreditResponse{
		UID:         c.UID.String(),
		Txn:         c.Txn.String(),
		Kind:        c.Kind,
		Amount:      c.Amount,
		Description: c.Description,
	}
}

// CreditsFromEntities maps a slice of credit entries
func CreditsFromEntities(entries []entity.Credit) []CreditResponse {
	out := make([]CreditResponse, 0, len(entries))
	for i := range entries {
		out = append(out, CreditFromEntity(&entries[i]))
	}
	return out
}
