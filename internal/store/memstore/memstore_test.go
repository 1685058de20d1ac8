package memstore

import (
	"testing"

	"github.com/park285/immersive-chess/internal/store/storetest"
)

func TestStore(t *testing.T) {
	s := New()
	storetest.Run(t, s)

	rec := storetest.NewRecord(t, "pgn")
	if err := s.Save(t.Context(), rec); err != nil {
		t.Fatalf("save: %v", err)
	}
	if pgn, ok := s.PGN(rec.SaveID()); !ok || pgn != rec.Game {
		t.Fatalf("pgn not mirrored")
	}
}
