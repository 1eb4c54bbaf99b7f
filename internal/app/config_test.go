package app_test

import (
	"testing"
	"time"

	"shadowbar/internal/app"
)

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("SHADOWBAR_RELAY_URL", "")
	t.Setenv("SHADOWBAR_TIMEOUT", "")

	cfg := app.Config{}.FromEnv()
	if cfg.RelayURL != app.DefaultRelayURL {
		t.Fatalf("relay = %q, want %q", cfg.RelayURL, app.DefaultRelayURL)
	}
	if cfg.Timeout != app.DefaultTimeout {
		t.Fatalf("timeout = %v, want %v", cfg.Timeout, app.DefaultTimeout)
	}
}

func TestFromEnv_Environment(t *testing.T) {
	t.Setenv("SHADOWBAR_RELAY_URL", "ws://relay.example:9000")
	t.Setenv("SHADOWBAR_TIMEOUT", "90")

	cfg := app.Config{}.FromEnv()
	if cfg.RelayURL != "ws://relay.example:9000" {
		t.Fatalf("relay = %q", cfg.RelayURL)
	}
	if cfg.Timeout != 90*time.Second {
		t.Fatalf("timeout = %v", cfg.Timeout)
	}
}

func TestFromEnv_ExplicitWins(t *testing.T) {
	t.Setenv("SHADOWBAR_RELAY_URL", "ws://relay.example:9000")
	t.Setenv("SHADOWBAR_TIMEOUT", "90")

	cfg := app.Config{RelayURL: "ws://flag.example:7000", Timeout: 5 * time.Second}.FromEnv()
	if cfg.RelayURL != "ws://flag.example:7000" {
		t.Fatalf("relay = %q, flag should win over env", cfg.RelayURL)
	}
	if cfg.Timeout != 5*time.Second {
		t.Fatalf("timeout = %v, flag should win over env", cfg.Timeout)
	}
}

func TestFromEnv_BadTimeoutIgnored(t *testing.T) {
	t.Setenv("SHADOWBAR_TIMEOUT", "soon")

	cfg := app.Config{}.FromEnv()
	if cfg.Timeout != app.DefaultTimeout {
		t.Fatalf("timeout = %v, want default for unparseable value", cfg.Timeout)
	}
}
