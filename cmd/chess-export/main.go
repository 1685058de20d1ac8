package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/park285/immersive-chess/internal/obslog"
	"github.com/park285/immersive-chess/internal/store/archive"
	"github.com/park285/immersive-chess/internal/store/export"
)

func main() {
	dsn := flag.String("dsn", os.Getenv("ARCHIVE_DSN"), "archive DSN (postgres:// or sqlite:)")
	out := flag.String("out", "games.parquet", "parquet file to write")
	limit := flag.Int("limit", 10000, "most recent games to export")
	flag.Parse()

	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	logger := obslog.L()
	defer func() { _ = logger.Sync() }()

	if *dsn == "" {
		logger.Fatal("ARCHIVE_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	arc, err := archive.Open(ctx, *dsn)
	if err != nil {
		logger.Fatal("archive_open_failed", zap.Error(err))
	}
	defer func() { _ = arc.Close() }()

	games, err := arc.Recent(ctx, *limit)
	if err != nil {
		logger.Fatal("archive_query_failed", zap.Error(err))
	}
	if err := export.WriteParquet(*out, games); err != nil {
		logger.Fatal("parquet_write_failed", zap.String("out", *out), zap.Error(err))
	}
	logger.Info("archive_exported", zap.String("out", *out), zap.Int("games", len(games)))
}
