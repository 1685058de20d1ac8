package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	StoreBadger = "badger"
	StoreRedis  = "redis"
)

type AppConfig struct {
	WorldBaseURL string        `env:"WORLD_BASE_URL"`
	WorldWSURL   string        `env:"WORLD_WS_URL"`
	WorldToken   string        `env:"WORLD_TOKEN"`
	// EgressMode picks how commands reach the world: http, ws or auto.
	EgressMode   string        `env:"WORLD_EGRESS"        envDefault:"auto"`
	EgressDryRun bool          `env:"WORLD_EGRESS_DRYRUN" envDefault:"false"`
	WorldTimeout time.Duration `env:"WORLD_TIMEOUT"       envDefault:"8s"`
	WorldRetries int           `env:"WORLD_RETRIES"       envDefault:"3"`

	StoreBackend string `env:"STORE_BACKEND" envDefault:"badger"`
	BadgerDir    string `env:"BADGER_DIR"    envDefault:"data/games"`
	RedisURL     string `env:"REDIS_URL"`

	ArchiveDSN string `env:"ARCHIVE_DSN"`

	BlockColorsDir string `env:"BLOCK_COLORS_DIR"`
	MessagesDir    string `env:"MESSAGES_DIR"`

	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`
	PGNDir   string `env:"PGN_DIR"`

	EventWorkers int           `env:"EVENT_WORKERS" envDefault:"4"`
	EventQueue   int           `env:"EVENT_QUEUE"   envDefault:"256"`
	EventTimeout time.Duration `env:"EVENT_TIMEOUT" envDefault:"10s"`
}

func Load() (*AppConfig, error) {
	cfg := &AppConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) normalize() {
	c.WorldBaseURL = strings.TrimRight(strings.TrimSpace(c.WorldBaseURL), "/")
	c.WorldWSURL = strings.TrimSpace(c.WorldWSURL)
	c.WorldToken = strings.TrimSpace(c.WorldToken)
	c.EgressMode = strings.ToLower(strings.TrimSpace(c.EgressMode))
	c.StoreBackend = strings.ToLower(strings.TrimSpace(c.StoreBackend))
	c.BadgerDir = strings.TrimSpace(c.BadgerDir)
	c.RedisURL = strings.TrimSpace(c.RedisURL)
	c.ArchiveDSN = strings.TrimSpace(c.ArchiveDSN)
	c.BlockColorsDir = strings.TrimSpace(c.BlockColorsDir)
	c.MessagesDir = strings.TrimSpace(c.MessagesDir)
	c.HTTPAddr = strings.TrimSpace(c.HTTPAddr)
	c.PGNDir = strings.TrimSpace(c.PGNDir)
}

func (c *AppConfig) Validate() error {
	if c.WorldBaseURL == "" {
		return errors.New("WORLD_BASE_URL is required")
	}
	if c.WorldWSURL == "" {
		return errors.New("WORLD_WS_URL is required")
	}
	switch c.EgressMode {
	case "http", "ws", "auto":
	default:
		return fmt.Errorf("WORLD_EGRESS must be http, ws or auto, got %q", c.EgressMode)
	}
	switch c.StoreBackend {
	case StoreBadger:
		if c.BadgerDir == "" {
			return errors.New("BADGER_DIR is required for the badger store")
		}
	case StoreRedis:
		if c.RedisURL == "" {
			return errors.New("REDIS_URL is required for the redis store")
		}
	default:
		return fmt.Errorf("STORE_BACKEND must be badger or redis, got %q", c.StoreBackend)
	}
	return nil
}
