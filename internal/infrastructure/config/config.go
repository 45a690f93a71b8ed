package config

import "time"

// Config holds all configuration for the application
type Config struct {
	Environment string           `mapstructure:"environment"`
	Server      ServerConfig     `mapstructure:"server"`
	Database    DatabaseConfig   `mapstructure:"database"`
	Logger      LoggerConfig     `mapstructure:"logger"`
	Wallet      WalletConfig     `mapstructure:"wallet"`
	Reconciler  ReconcilerConfig `mapstructure:"reconciler"`
	Payment     PaymentConfig    `mapstructure:"payment"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	ReadTimeout       time.Duration `mapstructure:"readTimeout"`       // seconds
	WriteTimeout      time.Duration `mapstructure:"writeTimeout"`      // seconds
	IdleTimeout       time.Duration `mapstructure:"idleTimeout"`       // seconds
	ReadHeaderTimeout time.Duration `mapstructure:"readHeaderTimeout"` // seconds
	ShutdownTimeout   time.Duration `mapstructure:"shutdownTimeout"`   // seconds
}

// DatabaseConfig contains database connection settings. Driver "memory"
// selects the in-process stores, for development and tests.
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	Host            string        `mapstructure:"host"`
	Port            string        `mapstructure:"port"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	SSLMode         string        `mapstructure:"sslMode"`
	MaxOpenConns    int           `mapstructure:"maxOpenConns"`
	MaxIdleConns    int           `mapstructure:"maxIdleConns"`
	ConnMaxLifetime time.Duration `mapstructure:"connMaxLifetime"` // minutes
	ConnMaxIdleTime time.Duration `mapstructure:"connMaxIdleTime"` // minutes
}

// LoggerConfig contains logger settings
type LoggerConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// WalletConfig contains ledger engine settings. ChecksumKey is the hex-encoded
// 32-byte key for the wallet row checksum; it must never rotate in place
// without re-signing every row.
type WalletConfig struct {
	ChecksumKey   string        `mapstructure:"checksumKey"`
	MaxRetries    int           `mapstructure:"maxRetries"`
	RetryInterval time.Duration `mapstructure:"retryInterval"` // milliseconds
	MaxInterval   time.Duration `mapstructure:"maxInterval"`   // milliseconds
}

// ReconcilerConfig contains stale transaction sweep settings
type ReconcilerConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	Interval   time.Duration `mapstructure:"interval"`   // seconds
	StaleAfter time.Duration `mapstructure:"staleAfter"` // seconds
	BatchSize  int           `mapstructure:"batchSize"`
}

// PaymentConfig contains payment provider settings
type PaymentConfig struct {
	Provider string `mapstructure:"provider"`
}
