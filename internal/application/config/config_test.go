package config_test

import (
	"testing"
	"time"

	"github.com/qrave1/anonspeak/internal/application/config"
)

func TestNewDefaults(t *testing.T) {
	cfg, err := config.New()
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if cfg.Port != "3000" {
		t.Errorf("expected default port 3000, got %s", cfg.Port)
	}
	if cfg.Rooms.CleanupDelay != time.Hour {
		t.Errorf("expected cleanup delay 1h, got %s", cfg.Rooms.CleanupDelay)
	}
	if cfg.RateLimit.Retention != time.Hour {
		t.Errorf("expected rate limit retention 1h, got %s", cfg.RateLimit.Retention)
	}
	if len(cfg.Rooms.Permanent) != 3 {
		t.Fatalf("expected 3 default permanent rooms, got %d", len(cfg.Rooms.Permanent))
	}
	if cfg.Rooms.Permanent[0].Name != "Lobby" || cfg.Rooms.Permanent[0].MaxUsers != 50 {
		t.Errorf("unexpected first permanent room: %+v", cfg.Rooms.Permanent[0])
	}
	if cfg.Coturn.Enabled() {
		t.Error("coturn should be disabled without host and secret")
	}
	if servers := cfg.ICEServers(); len(servers) != 1 || servers[0].URLs[0] != "stun:stun.l.google.com:19302" {
		t.Errorf("unexpected ICE servers: %+v", servers)
	}
}

func TestNewFromEnv(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("PERMANENT_ROOMS", "Main:10,Quiet")
	t.Setenv("ROOM_STRICT_DEMOTE", "true")
	t.Setenv("COTURN_HOST", "turn.example.com:3478")
	t.Setenv("COTURN_SECRET", "s3cret")

	cfg, err := config.New()
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("expected port 8080, got %s", cfg.Port)
	}
	if !cfg.Rooms.StrictDemote {
		t.Error("expected strict demote to be enabled")
	}
	if len(cfg.Rooms.Permanent) != 2 {
		t.Fatalf("expected 2 permanent rooms, got %d", len(cfg.Rooms.Permanent))
	}
	if cfg.Rooms.Permanent[1].Name != "Quiet" || cfg.Rooms.Permanent[1].MaxUsers != 0 {
		t.Errorf("unexpected second permanent room: %+v", cfg.Rooms.Permanent[1])
	}
	if !cfg.Coturn.Enabled() {
		t.Error("coturn should be enabled")
	}
}

func TestPermanentRoomUnmarshalText(t *testing.T) {
	var p config.PermanentRoom
	if err := p.UnmarshalText([]byte("Lobby:abc")); err == nil {
		t.Error("expected error for non-numeric max users")
	}

	if err := p.UnmarshalText([]byte("Q&A: Live:10")); err != nil {
		t.Fatalf("UnmarshalText failed: %v", err)
	}
	if p.Name != "Q&A: Live" || p.MaxUsers != 10 {
		t.Errorf("expected name with colon and limit 10, got %+v", p)
	}

	if err := p.UnmarshalText([]byte("Lobby")); err != nil || p.Name != "Lobby" || p.MaxUsers != 0 {
		t.Errorf("plain name: %+v, %v", p, err)
	}
}
