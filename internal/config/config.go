package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Storage backends.
const (
	StorageMemory   = "memory"
	StorageSQLite   = "sqlite"
	StorageDynamoDB = "dynamodb"
)

const devJWTSecret = "dev-secret-change-me"

// Config holds all application configuration.
type Config struct {
	Database  DatabaseConfig
	GRPC      GRPCConfig
	Gateway   GatewayConfig
	Auth      AuthConfig
	Telemetry TelemetryConfig
}

// DatabaseConfig selects and configures the entity storage.
type DatabaseConfig struct {
	Storage     string `env:"DEUSVENT_STORAGE" envDefault:"sqlite"`
	Path        string `env:"DEUSVENT_DB_PATH" envDefault:"deusvent.db"`
	DynamoTable string `env:"DEUSVENT_DYNAMODB_TABLE" envDefault:"game_data"`
}

// GRPCConfig contains gRPC server settings.
type GRPCConfig struct {
	Address string `env:"DEUSVENT_GRPC_ADDRESS" envDefault:":50051"`
}

// GatewayConfig contains the WebSocket gateway settings.
type GatewayConfig struct {
	Address string `env:"DEUSVENT_HTTP_ADDRESS" envDefault:":8080"`
	// CanonicalDomain is where naked domain requests are redirected, empty
	// disables redirects.
	CanonicalDomain string `env:"DEUSVENT_CANONICAL_DOMAIN"`
}

// AuthConfig contains authentication settings.
type AuthConfig struct {
	JWTSecret string        `env:"DEUSVENT_JWT_SECRET"`
	TokenTTL  time.Duration `env:"DEUSVENT_JWT_TTL" envDefault:"8760h"`
}

// TelemetryConfig contains tracing settings.
type TelemetryConfig struct {
	// OTLPEndpoint is the OTLP/HTTP collector, empty disables tracing.
	OTLPEndpoint string `env:"DEUSVENT_OTEL_ENDPOINT"`
	ServiceName  string `env:"DEUSVENT_SERVICE_NAME" envDefault:"deusvent"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load loads configuration from environment variables and requires the JWT
// secret to be set.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := ParseEnv(cfg); err != nil {
		return nil, err
	}
	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("DEUSVENT_JWT_SECRET environment variable is not set; required for production")
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadWithDefaults is like Load but uses a development JWT secret when none
// is set. Only use in development.
func LoadWithDefaults() (*Config, error) {
	cfg := &Config{}
	if err := ParseEnv(cfg); err != nil {
		return nil, err
	}
	if cfg.Auth.JWTSecret == "" {
		cfg.Auth.JWTSecret = devJWTSecret
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Database.Storage {
	case StorageMemory, StorageSQLite, StorageDynamoDB:
	default:
		return fmt.Errorf("unknown storage %q, expected %s, %s or %s",
			c.Database.Storage, StorageMemory, StorageSQLite, StorageDynamoDB)
	}
	if c.Auth.TokenTTL < 0 {
		return fmt.Errorf("DEUSVENT_JWT_TTL must not be negative")
	}
	return nil
}

// String returns a string representation of the config (sensitive values are masked).
func (c *Config) String() string {
	return fmt.Sprintf("Config{Storage: %s, DB: %s, gRPC: %s, HTTP: %s, Auth: *** (masked) ***}",
		c.Database.Storage, c.Database.Path, c.GRPC.Address, c.Gateway.Address)
}
