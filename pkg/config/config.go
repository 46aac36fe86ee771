package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the bridge node service.
type Config struct {
	// Server Configuration
	MetricsAddr string
	HealthAddr  string

	// Database Configuration (individual fields for database.NewClient)
	DBHost            string
	DBPort            int
	DBUser            string
	DBPassword        string
	DBName            string
	DBSSLMode         string
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration

	// Bridge holds every setting specific to the Bridge Action Executor
	// itself, as opposed to the surrounding service scaffolding above.
	Bridge BridgeConfig

	LogLevel string
}

// BridgeConfig holds the settings the Bridge Action Executor reads: the
// destination chain it submits to, the node's own signing identity and the
// committee it collects signatures from. The two queue capacities are
// loaded but not passed to the executor, whose queues are always sized
// bridge.ChannelSize.
type BridgeConfig struct {
	// Destination Chain Configuration
	ChainRPCURL string

	// Node Identity
	NodeSigningKey string // hex-encoded secp256k1 private key
	GasObjectID    string // hex-encoded ObjectID of the node's gas coin

	// Committee Configuration
	CommitteeRosterPath string
	ValidityThreshold   uint64 // 0 means derive from the roster's total stake

	// Pipeline Tuning
	SigningQueueCapacity   int
	ExecutionQueueCapacity int
}

// Load reads configuration from environment variables.
//
// SECURITY: The required BRIDGE_* variables have no defaults and must be
// explicitly set; DB_HOST and DB_NAME fall back to "localhost" and
// "bridge_node". Call Validate() after Load() to ensure all required
// configuration is present.
func Load() (*Config, error) {
	cfg := &Config{
		MetricsAddr: getEnv("BRIDGE_HOST", "0.0.0.0") + ":" + getEnv("METRICS_PORT", "9090"),
		HealthAddr:  getEnv("BRIDGE_HOST", "0.0.0.0") + ":" + getEnv("HEALTH_CHECK_PORT", "8081"),

		DBHost:            getEnv("DB_HOST", "localhost"),
		DBPort:            getEnvInt("DB_PORT", 5432),
		DBUser:            getEnv("DB_USER", "bridge"),
		DBPassword:        getEnv("DB_PASSWORD", ""),
		DBName:            getEnv("DB_NAME", "bridge_node"),
		DBSSLMode:         getEnv("DB_SSL_MODE", "require"),
		DBMaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
		DBConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", time.Hour),

		Bridge: BridgeConfig{
			ChainRPCURL: getEnv("BRIDGE_CHAIN_RPC_URL", ""),

			NodeSigningKey: getEnv("BRIDGE_NODE_SIGNING_KEY", ""),
			GasObjectID:    getEnv("BRIDGE_GAS_OBJECT_ID", ""),

			CommitteeRosterPath: getEnv("BRIDGE_COMMITTEE_ROSTER_PATH", ""),
			ValidityThreshold:   uint64(getEnvInt("BRIDGE_VALIDITY_THRESHOLD", 0)),

			SigningQueueCapacity:   getEnvInt("BRIDGE_SIGNING_QUEUE_CAPACITY", 1000),
			ExecutionQueueCapacity: getEnvInt("BRIDGE_EXECUTION_QUEUE_CAPACITY", 1000),
		},

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	return cfg, nil
}

// Validate checks that all required configuration is present.
func (c *Config) Validate() error {
	var errors []string

	if c.Bridge.ChainRPCURL == "" {
		errors = append(errors, "BRIDGE_CHAIN_RPC_URL is required but not set")
	}
	if c.Bridge.NodeSigningKey == "" {
		errors = append(errors, "BRIDGE_NODE_SIGNING_KEY is required but not set")
	}
	if c.Bridge.GasObjectID == "" {
		errors = append(errors, "BRIDGE_GAS_OBJECT_ID is required but not set")
	}
	if c.Bridge.CommitteeRosterPath == "" {
		errors = append(errors, "BRIDGE_COMMITTEE_ROSTER_PATH is required but not set")
	}
	if c.DBHost == "" || c.DBName == "" {
		errors = append(errors, "DB_HOST and DB_NAME are required but not set")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
