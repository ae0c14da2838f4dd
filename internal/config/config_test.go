package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"APP_ENV", "PORT", "LOCKOUT_THRESHOLD", "LOCKOUT_DURATION", "PROTECTED_PREFIXES", "TOKEN_FORMAT"} {
		t.Setenv(k, "")
	}

	cfg := Load()

	if cfg.Env != "dev" || cfg.Port != 8080 {
		t.Fatalf("unexpected env/port: %s/%d", cfg.Env, cfg.Port)
	}
	if cfg.LockoutThreshold != 5 || cfg.LockoutDuration != 15*time.Minute {
		t.Fatalf("unexpected lockout policy: %d/%v", cfg.LockoutThreshold, cfg.LockoutDuration)
	}
	if cfg.TokenFormat != "jwt" {
		t.Fatalf("unexpected token format %q", cfg.TokenFormat)
	}
	if len(cfg.ProtectedPrefixes) != 3 {
		t.Fatalf("unexpected protected prefixes %v", cfg.ProtectedPrefixes)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("LOCKOUT_THRESHOLD", "3")
	t.Setenv("LOCKOUT_DURATION", "30m")
	t.Setenv("BASE_URL", "https://shop.example.com/")
	t.Setenv("PROTECTED_PREFIXES", " /account , ,/wishlist")

	cfg := Load()

	if cfg.Port != 9090 || cfg.LockoutThreshold != 3 || cfg.LockoutDuration != 30*time.Minute {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.BaseURL != "https://shop.example.com" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.BaseURL)
	}
	if len(cfg.ProtectedPrefixes) != 2 || cfg.ProtectedPrefixes[1] != "/wishlist" {
		t.Fatalf("unexpected prefixes %v", cfg.ProtectedPrefixes)
	}
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("PORT", "eighty")
	t.Setenv("LOCKOUT_DURATION", "-5m")

	cfg := Load()

	if cfg.Port != 8080 {
		t.Fatalf("expected default port, got %d", cfg.Port)
	}
	if cfg.LockoutDuration != 15*time.Minute {
		t.Fatalf("expected default lockout duration, got %v", cfg.LockoutDuration)
	}
}
