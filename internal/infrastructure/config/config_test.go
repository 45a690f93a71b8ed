package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Database: DatabaseConfig{Driver: "memory"},
		Wallet: WalletConfig{
			ChecksumKey: strings.Repeat("ab", 32),
		},
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, validConfig().Validate())

	cfg := validConfig()
	cfg.Wallet.ChecksumKey = "deadbeef"
	assert.Error(t, cfg.Validate(), "short key")

	cfg = validConfig()
	cfg.Wallet.ChecksumKey = strings.Repeat("zz", 32)
	assert.Error(t, cfg.Validate(), "not hex")

	cfg = validConfig()
	cfg.Database.Driver = "sqlite"
	assert.Error(t, cfg.Validate(), "unsupported driver")
}

func TestChecksumKey(t *testing.T) {
	cfg := validConfig()
	key := cfg.ChecksumKey()
	assert.Equal(t, [2]byte{0xab, 0xab}, [2]byte{key[0], key[31]})
}
