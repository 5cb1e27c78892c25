package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/iho/chequer/internal/infrastructure/config"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"DATABASE_URL", "GATEWAY_URL", "HTTP_PORT", "SETTLEMENT_RETRIES"} {
		t.Setenv(key, "placeholder")
		os.Unsetenv(key)
	}

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.DatabaseURL == "" {
		t.Fatalf("expected default database URL to be set")
	}

	if cfg.HTTPPort != "8080" {
		t.Fatalf("expected default HTTP port 8080, got %s", cfg.HTTPPort)
	}

	if cfg.SettlementRetries != 5 {
		t.Fatalf("expected default retry bound 5, got %d", cfg.SettlementRetries)
	}

	if cfg.MaxAmountMinor != 1000000 {
		t.Fatalf("expected default cheque ceiling 1000000, got %d", cfg.MaxAmountMinor)
	}

	if cfg.EventChannel != "chequer.cheque.events" {
		t.Fatalf("expected default event channel, got %s", cfg.EventChannel)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("REDIS_URL", "redis://example")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("GATEWAY_URL", "http://gateway.internal")
	t.Setenv("GATEWAY_TIMEOUT", "5s")
	t.Setenv("SETTLEMENT_RETRIES", "3")
	t.Setenv("REVERSAL_WINDOW", "48h")
	t.Setenv("LEASE_TTL", "30s")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.DatabaseURL != "postgres://example" {
		t.Fatalf("expected custom database URL, got %s", cfg.DatabaseURL)
	}

	if cfg.RedisURL != "redis://example" {
		t.Fatalf("expected custom redis URL, got %s", cfg.RedisURL)
	}

	if cfg.HTTPPort != "9090" {
		t.Fatalf("expected HTTP port override, got %s", cfg.HTTPPort)
	}

	if cfg.GatewayURL != "http://gateway.internal" || cfg.GatewayTimeout != 5*time.Second {
		t.Fatalf("expected gateway overrides, got url=%s timeout=%s", cfg.GatewayURL, cfg.GatewayTimeout)
	}

	if cfg.SettlementRetries != 3 {
		t.Fatalf("expected retry bound override, got %d", cfg.SettlementRetries)
	}

	if cfg.ReversalWindow != 48*time.Hour || cfg.LeaseTTL != 30*time.Second {
		t.Fatalf("expected window overrides, got reversal=%s lease=%s", cfg.ReversalWindow, cfg.LeaseTTL)
	}
}

func TestLoadInvalidDuration(t *testing.T) {
	t.Setenv("HTTP_READ_TIMEOUT", "not-a-duration")

	if _, err := config.Load(); err == nil {
		t.Fatalf("expected error for invalid duration")
	}
}
