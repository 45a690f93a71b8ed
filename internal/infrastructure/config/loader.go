package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Environment constants
const (
	Development = "development"
	Production  = "production"
	Test        = "test"
)

// ConfigPaths defines the paths to look for config files
var ConfigPaths = []string{
	"./configs",
	"../configs",
	"../../configs",
}

// DotEnvPaths defines the paths to look for .env files
var DotEnvPaths = []string{
	".env",
	"./configs/.env",
	"../configs/.env",
}

// LoadConfig loads the configuration for the current environment: defaults,
// then the environment's yaml file if present, then WB_* environment
// variables on top.
func LoadConfig() (*Config, error) {
	loadDotEnvFile()

	env := getEnvironment()

	v := viper.New()
	v.SetConfigName(env)
	v.SetConfigType("yaml")
	for _, path := range ConfigPaths {
		v.AddConfigPath(path)
	}
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// a missing file is fine, the environment has to carry the rest
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("WB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	processEnvOverrides(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	config.Environment = env
	processDurations(&config)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks the settings that cannot have safe defaults.
func (c *Config) Validate() error {
	key, err := hex.DecodeString(c.Wallet.ChecksumKey)
	if err != nil || len(key) != 32 {
		return fmt.Errorf("wallet.checksumKey must be 32 hex-encoded bytes")
	}
	switch c.Database.Driver {
	case "postgres", "memory":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	return nil
}

// ChecksumKey returns the decoded wallet checksum key. Validate must have
// accepted the config first.
func (c *Config) ChecksumKey() [32]byte {
	var key [32]byte
	raw, _ := hex.DecodeString(c.Wallet.ChecksumKey)
	copy(key[:], raw)
	return key
}

// loadDotEnvFile loads environment variables from the first readable .env
// file. Missing files are not an error.
func loadDotEnvFile() {
	for _, path := range DotEnvPaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// setDefaults sets default values for non-critical configuration
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.readTimeout", 15)       // seconds
	v.SetDefault("server.writeTimeout", 15)      // seconds
	v.SetDefault("server.idleTimeout", 60)       // seconds
	v.SetDefault("server.readHeaderTimeout", 10) // seconds
	v.SetDefault("server.shutdownTimeout", 10)   // seconds

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.sslMode", "disable")
	v.SetDefault("database.maxOpenConns", 50)
	v.SetDefault("database.maxIdleConns", 25)
	v.SetDefault("database.connMaxLifetime", 30) // minutes
	v.SetDefault("database.connMaxIdleTime", 15) // minutes

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")

	v.SetDefault("wallet.maxRetries", 5)
	v.SetDefault("wallet.retryInterval", 20) // milliseconds
	v.SetDefault("wallet.maxInterval", 500)  // milliseconds

	v.SetDefault("reconciler.enabled", true)
	v.SetDefault("reconciler.interval", 60)     // seconds
	v.SetDefault("reconciler.staleAfter", 600)  // seconds
	v.SetDefault("reconciler.batchSize", 100)

	v.SetDefault("payment.provider", "fakepay")
}

// getEnvironment determines the environment from WB_ENV
func getEnvironment() string {
	env := os.Getenv("WB_ENV")
	if env == "" {
		env = Development
	}
	return strings.ToLower(env)
}

// processEnvOverrides maps well-known environment variables onto config keys
// so sensitive values never need to live in the yaml files.
func processEnvOverrides(v *viper.Viper) {
	overrides := map[string]string{
		"WB_DB_HOST":      "database.host",
		"WB_DB_PORT":      "database.port",
		"WB_DB_USERNAME":  "database.username",
		"WB_DB_PASSWORD":  "database.password",
		"WB_DB_NAME":      "database.database",
		"WB_DB_SSL_MODE":  "database.sslMode",
		"WB_SERVER_HOST":  "server.host",
		"WB_SERVER_PORT":  "server.port",
		"WB_LOGGER_LEVEL": "logger.level",
		"WB_CHECKSUM_KEY": "wallet.checksumKey",
	}
	for name, key := range overrides {
		if val := os.Getenv(name); val != "" {
			v.Set(key, val)
		}
	}
}

// processDurations converts raw numeric durations into time.Duration
func processDurations(config *Config) {
	config.Server.ReadTimeout = time.Duration(config.Server.ReadTimeout) * time.Second
	config.Server.WriteTimeout = time.Duration(config.Server.WriteTimeout) * time.Second
	config.Server.IdleTimeout = time.Duration(config.Server.IdleTimeout) * time.Second
	config.Server.ReadHeaderTimeout = time.Duration(config.Server.ReadHeaderTimeout) * time.Second
	config.Server.ShutdownTimeout = time.Duration(config.Server.ShutdownTimeout) * time.Second

	config.Database.ConnMaxLifetime = time.Duration(config.Database.ConnMaxLifetime) * time.Minute
	config.Database.ConnMaxIdleTime = time.Duration(config.Database.ConnMaxIdleTime) * time.Minute

	config.Wallet.RetryInterval = time.Duration(config.Wallet.RetryInterval) * time.Millisecond
	config.Wallet.MaxInterval = time.Duration(config.Wallet.MaxInterval) * time.Millisecond

	config.Reconciler.Interval = time.Duration(config.Reconciler.Interval) * time.Second
	config.Reconciler.StaleAfter = time.Duration(config.Reconciler.StaleAfter) * time.Second
}
