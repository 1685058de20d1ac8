// Package storetest holds behaviour checks shared by every store.Store.
package storetest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	nchess "github.com/corentings/chess/v2"

	"github.com/park285/immersive-chess/internal/board"
	"github.com/park285/immersive-chess/internal/game"
	"github.com/park285/immersive-chess/internal/store"
	"github.com/park285/immersive-chess/internal/voxel"
)

// NewRecord builds a stored game with one move played.
func NewRecord(t testing.TB, gameID string) *game.Record {
	t.Helper()
	st := game.CreateWithID(board.New(voxel.Pos(0, 64, 0), voxel.North), nil, gameID, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
	st.SetPlayer(nchess.White, "alice")
	st.SetPlayer(nchess.Black, "bob")
	if !st.DoMove(nchess.E2, nchess.E4, st.Piece(nchess.E2)) {
		t.Fatalf("setup move failed")
	}
	return st.Record()
}

// Run exercises s. It must start empty.
func Run(t *testing.T, s store.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("LoadMissing", func(t *testing.T) {
		if _, err := s.Load(ctx, "2024.05.01/missing"); !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("SaveLoad", func(t *testing.T) {
		rec := NewRecord(t, "save-load")
		if err := s.Save(ctx, rec); err != nil {
			t.Fatalf("save: %v", err)
		}
		got, err := s.Load(ctx, rec.SaveID())
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		if got.SaveID() != rec.SaveID() || len(got.Moves) != 1 || got.Moves[0] != "e2e4" {
			t.Fatalf("loaded %+v", got)
		}
		if got.Board != rec.Board {
			t.Fatalf("board lost")
		}
	})

	t.Run("Update", func(t *testing.T) {
		rec := NewRecord(t, "update")
		if err := s.Save(ctx, rec); err != nil {
			t.Fatalf("save: %v", err)
		}
		err := s.Update(ctx, rec.SaveID(), func(r *game.Record) error {
			st, err := game.FromRecord(r, nil)
			if err != nil {
				return err
			}
			if !st.DoMove(nchess.E7, nchess.E5, st.Piece(nchess.E7)) {
				return errors.New("move rejected")
			}
			*r = *st.Record()
			return nil
		})
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		got, _ := s.Load(ctx, rec.SaveID())
		if len(got.Moves) != 2 {
			t.Fatalf("moves = %v", got.Moves)
		}
		if err := s.Update(ctx, "2024.05.01/none", func(*game.Record) error { return nil }); !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("UpdateErrorKeepsRecord", func(t *testing.T) {
		rec := NewRecord(t, "update-error")
		if err := s.Save(ctx, rec); err != nil {
			t.Fatalf("save: %v", err)
		}
		boom := errors.New("boom")
		err := s.Update(ctx, rec.SaveID(), func(r *game.Record) error {
			r.Moves = nil
			return boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("expected boom, got %v", err)
		}
		got, _ := s.Load(ctx, rec.SaveID())
		if len(got.Moves) != 1 {
			t.Fatalf("failed update was applied")
		}
	})

	t.Run("ConcurrentUpdates", func(t *testing.T) {
		rec := NewRecord(t, "concurrent")
		rec.Tags["Counter"] = ""
		if err := s.Save(ctx, rec); err != nil {
			t.Fatalf("save: %v", err)
		}
		var wg sync.WaitGroup
		var mu sync.Mutex
		applied := 0
		for i := 0; i < 4; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := s.Update(ctx, rec.SaveID(), func(r *game.Record) error {
					r.Tags["Counter"] += "x"
					return nil
				})
				if err == nil {
					mu.Lock()
					applied++
					mu.Unlock()
				} else if !errors.Is(err, store.ErrConflict) {
					t.Errorf("update: %v", err)
				}
			}()
		}
		wg.Wait()
		got, _ := s.Load(ctx, rec.SaveID())
		if len(got.Tags["Counter"]) != applied {
			t.Fatalf("lost update: counter %q, applied %d", got.Tags["Counter"], applied)
		}
	})

	t.Run("BoardIndex", func(t *testing.T) {
		positions := []voxel.BlockPos{voxel.Pos(1, 2, 3), voxel.Pos(-4, 5, 6)}
		if _, err := s.BoardAt(ctx, positions[0]); !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		if err := s.IndexBoard(ctx, "2024.05.01/idx", positions); err != nil {
			t.Fatalf("index: %v", err)
		}
		id, err := s.BoardAt(ctx, positions[1])
		if err != nil || id != "2024.05.01/idx" {
			t.Fatalf("BoardAt = %q %v", id, err)
		}
		if err := s.UnindexBoard(ctx, positions); err != nil {
			t.Fatalf("unindex: %v", err)
		}
		if _, err := s.BoardAt(ctx, positions[1]); !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("expected ErrNotFound after unindex, got %v", err)
		}
	})
}
