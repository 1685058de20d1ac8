package chessbuilder

import (
	"context"
	"errors"
	"testing"

	"github.com/park285/immersive-chess/internal/config"
	svcchess "github.com/park285/immersive-chess/internal/service/chess"
)

func TestNewWiresInMemoryBadger(t *testing.T) {
	cfg := &config.AppConfig{
		WorldBaseURL: "http://127.0.0.1:1",
		WorldWSURL:   "ws://127.0.0.1:1/events",
		EgressMode:   "http",
		StoreBackend: config.StoreBadger,
	}
	deps, err := New(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	t.Cleanup(func() { _ = deps.Close(context.Background()) })

	if deps.Service == nil || deps.Store == nil || deps.Client == nil || deps.Stream == nil {
		t.Fatalf("deps = %+v", deps)
	}
	if deps.Archive != nil {
		t.Fatalf("archive opened without a dsn")
	}
	if _, err := deps.Service.RecentGames(context.Background(), 5); !errors.Is(err, svcchess.ErrArchiveDisabled) {
		t.Fatalf("recent: %v", err)
	}
}

func TestNewRejectsNilConfig(t *testing.T) {
	if _, err := New(context.Background(), nil, nil); err == nil {
		t.Fatalf("nil config accepted")
	}
}
