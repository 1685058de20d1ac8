package redisstore

import (
	"strings"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/park285/immersive-chess/internal/store/storetest"
	"github.com/park285/immersive-chess/internal/voxel"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := New(rdb)
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func TestStore(t *testing.T) {
	s, _ := newTestStore(t)
	storetest.Run(t, s)
}

func TestKeysArePrefixed(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := t.Context()
	rec := storetest.NewRecord(t, "keys")
	if err := s.Save(ctx, rec); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.IndexBoard(ctx, rec.SaveID(), []voxel.BlockPos{voxel.Pos(1, 2, 3)}); err != nil {
		t.Fatalf("index: %v", err)
	}
	if !mr.Exists("ichess:games/" + rec.SaveID()) {
		t.Fatalf("game key missing: %v", mr.Keys())
	}
	pgn, err := mr.Get("ichess:games/" + rec.SaveID() + ".pgn")
	if err != nil || !strings.Contains(pgn, "1. e4") {
		t.Fatalf("pgn = %q %v", pgn, err)
	}
	if v, _ := mr.Get("ichess:board/1,2,3"); v != rec.SaveID() {
		t.Fatalf("board index = %q", v)
	}
}

func TestParseRedisURL(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		addr    string
		pass    string
		db      int
		tls     bool
		wantErr bool
	}{
		{name: "full", raw: "redis://:secret@localhost:6380/2", addr: "localhost:6380", pass: "secret", db: 2},
		{name: "default port", raw: "redis://localhost", addr: "localhost:6379"},
		{name: "tls", raw: "rediss://host:6380/1", addr: "host:6380", db: 1, tls: true},
		{name: "bad db", raw: "redis://host/x", wantErr: true},
		{name: "bad scheme", raw: "http://localhost", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := ParseRedisURL(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", opts)
				}
				return
			}
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if opts.Addr != tt.addr || opts.Password != tt.pass || opts.DB != tt.db {
				t.Fatalf("opts = %+v", opts)
			}
			if (opts.TLSConfig != nil) != tt.tls {
				t.Fatalf("tls = %v, want %v", opts.TLSConfig != nil, tt.tls)
			}
		})
	}
}
