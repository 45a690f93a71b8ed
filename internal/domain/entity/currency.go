package entity

import (
	"fmt"
	"strings"

	errs "github.com/yiwen-ai/walletbase/internal/domain/error"
)

// Currency describes a supported fiat currency for charges. MinAmount and
// MaxAmount bound a single charge in the currency's minor units.
type Currency struct {
	Name      string `json:"name"`
	Alpha     string `json:"alpha"`
	Decimals  uint8  `json:"decimals"`
	Code      uint16 `json:"code"`
	MinAmount int64  `json:"min_amount"`
	MaxAmount int64  `json:"max_amount"`
}

// Currencies is the closed table of supported charge currencies.
// https://www.iban.com/currency-codes
var Currencies = []Currency{
	{Name: "US Dollar", Alpha: "USD", Decimals: 2, Code: 840, MinAmount: 200, MaxAmount: 200000},
	{Name: "Euro", Alpha: "EUR", Decimals: 2, Code: 978, MinAmount: 200, MaxAmount: 200000},
	{Name: "港幣", Alpha: "HKD", Decimals: 2, Code: 344, MinAmount: 1000, MaxAmount: 1000000},
	{Name: "人民币", Alpha: "CNY", Decimals: 2, Code: 156, MinAmount: 1000, MaxAmount: 1000000},
	{Name: "Japanese Yen", Alpha: "JPY", Decimals: 0, Code: 392, MinAmount: 200, MaxAmount: 2000000},
	{Name: "Pound Sterling", Alpha: "GBP", Decimals: 2, Code: 826, MinAmount: 200, MaxAmount: 200000},
	{Name: "Singapore Dollar", Alpha: "SGD", Decimals: 2, Code: 702, MinAmount: 200, MaxAmount: 300000},
	{Name: "Canadian Dollar", Alpha: "CAD", Decimals: 2, Code: 124, MinAmount: 200, MaxAmount: 300000},
	{Name: "Australian Dollar", Alpha: "AUD", Decimals: 2, Code: 36, MinAmount: 200, MaxAmount: 300000},
	{Name: "Swiss Franc", Alpha: "CHF", Decimals: 2, Code: 756, MinAmount: 200, MaxAmount: 200000},
	{Name: "新臺幣", Alpha: "TWD", Decimals: 2, Code: 901, MinAmount: 1000, MaxAmount: 1000000},
	{Name: "Korean Won", Alpha: "KRW", Decimals: 0, Code: 410, MinAmount: 2000, MaxAmount: 2000000},
}

// ParseCurrency resolves a currency by its alpha code, case-insensitively.
func ParseCurrency(alpha string) (Currency, error) {
	up := strings.ToUpper(alpha)
	for _, cur := range Currencies {
		if cur.Alpha == up {
			return cur, nil
		}
	}
	return Currency{}, fmt.Errorf("%w: %q", errs.ErrInvalidCurrency, alpha)
}

// ValidAmount checks a charge amount against the currency's bounds.
func (c Currency) ValidAmount(amount int64) error {
	if amount < c.MinAmount || amount > c.MaxAmount {
		return fmt.Errorf("%w: amount %d outside %d..%d for %s",
			errs.ErrInvalidCurrency, amount, c.MinAmount, c.MaxAmount, c.Alpha)
	}
	return nil
}
