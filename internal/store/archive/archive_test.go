package archive

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/park285/immersive-chess/internal/store/storetest"
)

func openMemory(t *testing.T) *Archive {
	t.Helper()
	a, err := Open(context.Background(), "sqlite::memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func TestSaveAndGet(t *testing.T) {
	a := openMemory(t)
	ctx := context.Background()
	g := GameFromRecord(storetest.NewRecord(t, "g-1"))
	g.Result = "1-0"
	g.Termination = "resignation"
	if err := a.SaveResult(ctx, g); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := a.Get(ctx, "g-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.White != "alice" || got.Black != "bob" || got.Result != "1-0" || len(got.MovesUCI) != 1 {
		t.Fatalf("got %+v", got)
	}
	if got.SaveID != "2024.05.01/g-1" {
		t.Fatalf("save id = %s", got.SaveID)
	}

	g.Result = "0-1"
	if err := a.SaveResult(ctx, g); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	got, _ = a.Get(ctx, "g-1")
	if got.Result != "0-1" {
		t.Fatalf("upsert did not update: %s", got.Result)
	}
	if _, err := a.Get(ctx, "none"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRecentOrder(t *testing.T) {
	a := openMemory(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"old", "mid", "new"} {
		g := GameFromRecord(storetest.NewRecord(t, id))
		g.EndedAt = base.Add(time.Duration(i) * time.Hour)
		if err := a.SaveResult(ctx, g); err != nil {
			t.Fatalf("save %s: %v", id, err)
		}
	}
	got, err := a.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 2 || got[0].GameID != "new" || got[1].GameID != "mid" {
		t.Fatalf("recent = %+v", got)
	}
	if !got[0].EndedAt.Equal(base.Add(2 * time.Hour)) {
		t.Fatalf("ended at = %v", got[0].EndedAt)
	}
}

func TestRebind(t *testing.T) {
	a := &Archive{dialect: dialectPostgres}
	if got := a.rebind("a = ? AND b = ?"); got != "a = $1 AND b = $2" {
		t.Fatalf("rebind = %q", got)
	}
	a.dialect = dialectSQLite
	if got := a.rebind("a = ?"); got != "a = ?" {
		t.Fatalf("sqlite rebind changed query: %q", got)
	}
}

func TestOpenRequiresDSN(t *testing.T) {
	if _, err := Open(context.Background(), " "); err == nil {
		t.Fatalf("expected error")
	}
}

func TestPlayerStats(t *testing.T) {
	a := openMemory(t)
	ctx := context.Background()
	results := map[string]string{"w1": "1-0", "w2": "1-0", "d1": "1/2-1/2", "l1": "0-1"}
	for id, res := range results {
		g := GameFromRecord(storetest.NewRecord(t, id))
		g.Result = res
		if err := a.SaveResult(ctx, g); err != nil {
			t.Fatalf("save %s: %v", id, err)
		}
	}

	alice, err := a.PlayerStats(ctx, "alice")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if alice.Games != 4 || alice.Wins != 2 || alice.Draws != 1 || alice.Losses != 1 {
		t.Fatalf("alice: %+v", alice)
	}
	bob, _ := a.PlayerStats(ctx, "bob")
	if bob.Wins != 1 || bob.Losses != 2 {
		t.Fatalf("bob: %+v", bob)
	}
	nobody, _ := a.PlayerStats(ctx, "carol")
	if nobody.Games != 0 {
		t.Fatalf("carol: %+v", nobody)
	}
}
