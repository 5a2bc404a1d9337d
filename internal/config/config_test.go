package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

func clearEnv() {
	for _, k := range []string{
		"DEUSVENT_STORAGE", "DEUSVENT_DB_PATH", "DEUSVENT_DYNAMODB_TABLE",
		"DEUSVENT_GRPC_ADDRESS", "DEUSVENT_HTTP_ADDRESS", "DEUSVENT_CANONICAL_DOMAIN",
		"DEUSVENT_JWT_SECRET", "DEUSVENT_JWT_TTL", "DEUSVENT_OTEL_ENDPOINT",
	} {
		os.Unsetenv(k)
	}
}

func TestLoadWithDefaults_Succeeds(t *testing.T) {
	clearEnv()
	cfg, err := LoadWithDefaults()
	if err != nil {
		t.Fatalf("LoadWithDefaults: %v", err)
	}
	if cfg.GRPC.Address == "" || cfg.Database.Path == "" || cfg.Auth.JWTSecret == "" || cfg.Gateway.Address == "" {
		t.Fatalf("unexpected empty defaults: %+v", cfg)
	}
	if cfg.Database.Storage != StorageSQLite {
		t.Fatalf("expected sqlite storage by default, got %q", cfg.Database.Storage)
	}
	if cfg.Auth.TokenTTL != 365*24*time.Hour {
		t.Fatalf("unexpected token ttl %v", cfg.Auth.TokenTTL)
	}
	if cfg.Telemetry.OTLPEndpoint != "" {
		t.Fatalf("tracing must be disabled by default")
	}
}

func TestLoad_RequiresJWTSecret(t *testing.T) {
	clearEnv()
	t.Setenv("DEUSVENT_DB_PATH", "test.db")
	t.Setenv("DEUSVENT_GRPC_ADDRESS", ":1234")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error when DEUSVENT_JWT_SECRET is not set")
	}
	t.Setenv("DEUSVENT_JWT_SECRET", "x")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load with secret set: %v", err)
	}
	if cfg.Database.Path != "test.db" || cfg.GRPC.Address != ":1234" {
		t.Fatalf("env not applied: %+v", cfg)
	}
	if strings.Contains(cfg.String(), "x}") {
		t.Fatalf("secret leaked in %s", cfg)
	}
}

func TestLoad_Validation(t *testing.T) {
	clearEnv()
	t.Setenv("DEUSVENT_STORAGE", "postgres")
	if _, err := LoadWithDefaults(); err == nil {
		t.Fatalf("expected error for unknown storage")
	}
	t.Setenv("DEUSVENT_STORAGE", StorageDynamoDB)
	t.Setenv("DEUSVENT_JWT_TTL", "not-a-duration")
	_, err := LoadWithDefaults()
	if err == nil || !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env error, got %v", err)
	}
}
