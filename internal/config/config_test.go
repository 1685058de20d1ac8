package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("WORLD_BASE_URL", " http://bridge:8500/ ")
	t.Setenv("WORLD_WS_URL", "ws://bridge:8500/events")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.WorldBaseURL != "http://bridge:8500" {
		t.Fatalf("base url = %q", cfg.WorldBaseURL)
	}
	if cfg.StoreBackend != StoreBadger || cfg.BadgerDir != "data/games" {
		t.Fatalf("store = %s %s", cfg.StoreBackend, cfg.BadgerDir)
	}
	if cfg.EgressMode != "auto" || cfg.HTTPAddr != ":8080" {
		t.Fatalf("egress = %s addr = %s", cfg.EgressMode, cfg.HTTPAddr)
	}
	if cfg.EventTimeout != 10*time.Second || cfg.WorldTimeout != 8*time.Second {
		t.Fatalf("timeouts = %s %s", cfg.EventTimeout, cfg.WorldTimeout)
	}
}

func TestLoadRequiresWorld(t *testing.T) {
	t.Setenv("WORLD_BASE_URL", "")
	t.Setenv("WORLD_WS_URL", "ws://bridge/events")
	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "WORLD_BASE_URL") {
		t.Fatalf("err = %v", err)
	}
}

func TestValidateStore(t *testing.T) {
	base := AppConfig{WorldBaseURL: "http://b", WorldWSURL: "ws://b", EgressMode: "http", StoreBackend: StoreRedis}
	if err := base.Validate(); err == nil || !strings.Contains(err.Error(), "REDIS_URL") {
		t.Fatalf("err = %v", err)
	}
	base.RedisURL = "redis://localhost:6379/0"
	if err := base.Validate(); err != nil {
		t.Fatalf("valid redis config rejected: %v", err)
	}
	base.StoreBackend = "mysql"
	if err := base.Validate(); err == nil {
		t.Fatalf("unknown backend accepted")
	}
	base.StoreBackend = StoreRedis
	base.EgressMode = "carrier-pigeon"
	if err := base.Validate(); err == nil {
		t.Fatalf("unknown egress accepted")
	}
}
