package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Server.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Server.Port)
	}
	if cfg.JWT.Expiration != 7*24*time.Hour {
		t.Errorf("expected default jwt expiration of a week, got %v", cfg.JWT.Expiration)
	}
	if cfg.WebSocket.SendBufferSize != 256 {
		t.Errorf("expected default send buffer of 256, got %d", cfg.WebSocket.SendBufferSize)
	}
	if !cfg.Policy.RejectEmptyMessages {
		t.Error("empty messages must be rejected by default")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("JWT_EXPIRATION", "2h")
	t.Setenv("DB_MAX_OPEN_CONNS", "50")
	t.Setenv("POLICY_REJECT_EMPTY_MESSAGES", "false")

	cfg := Load()

	if cfg.Server.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Server.Port)
	}
	if cfg.JWT.Expiration != 2*time.Hour {
		t.Errorf("expected jwt expiration 2h, got %v", cfg.JWT.Expiration)
	}
	if cfg.Database.MaxOpenConns != 50 {
		t.Errorf("expected 50 max open conns, got %d", cfg.Database.MaxOpenConns)
	}
	if cfg.Policy.RejectEmptyMessages {
		t.Error("expected empty message rejection disabled")
	}
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("DB_MAX_OPEN_CONNS", "lots")
	t.Setenv("JWT_EXPIRATION", "soon")

	cfg := Load()

	if cfg.Database.MaxOpenConns != 25 {
		t.Errorf("malformed int must fall back to default, got %d", cfg.Database.MaxOpenConns)
	}
	if cfg.JWT.Expiration != 7*24*time.Hour {
		t.Errorf("malformed duration must fall back to default, got %v", cfg.JWT.Expiration)
	}
}
