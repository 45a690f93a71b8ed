package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/yiwen-ai/walletbase/internal/domain/error"
)

func TestParseCurrency(t *testing.T) {
	usd, err := ParseCurrency("usd")
	require.NoError(t, err)
	assert.Equal(t, "USD", usd.Alpha)
	assert.Equal(t, uint16(840), usd.Code)

	jpy, err := ParseCurrency("JPY")
	require.NoError(t, err)
	assert.Equal(t, uint8(0), jpy.Decimals)

	_, err = ParseCurrency("XXX")
	assert.ErrorIs(t, err, errs.ErrInvalidCurrency)
}

func TestCurrencyValidAmount(t *testing.T) {
	usd, err := ParseCurrency("USD")
	require.NoError(t, err)

	assert.NoError(t, usd.ValidAmount(usd.MinAmount))
	assert.NoError(t, usd.ValidAmount(usd.MaxAmount))
	assert.ErrorIs(t, usd.ValidAmount(usd.MinAmount-1), errs.ErrInvalidCurrency)
	assert.ErrorIs(t, usd.ValidAmount(usd.MaxAmount+1), errs.ErrInvalidCurrency)
}
