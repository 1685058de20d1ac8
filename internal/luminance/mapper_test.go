package luminance

import (
	"os"
	"path/filepath"
	"testing"

	nchess "github.com/corentings/chess/v2"

	"github.com/park285/immersive-chess/internal/voxel"
)

func TestEmbeddedDefaults(t *testing.T) {
	m, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if m.Len() == 0 {
		t.Fatalf("embedded block colors are empty")
	}
	if got := m.ColorOfFirstBlock("minecraft:white_wool", "minecraft:black_wool"); got != nchess.White {
		t.Fatalf("white wool should be the light material, got %v", got)
	}
	if got := m.ColorOfFirstBlock("minecraft:black_wool", "minecraft:white_wool"); got != nchess.Black {
		t.Fatalf("black wool should be the dark material, got %v", got)
	}
}

func TestUnknownStateUsesAverage(t *testing.T) {
	m := FromValues(map[voxel.BlockState]float64{"minecraft:a": 10, "minecraft:b": 30})
	if got := m.Luminance("minecraft:nope"); got != 20 {
		t.Fatalf("average = %v, want 20", got)
	}
	empty := FromValues(nil)
	if got := empty.Luminance("minecraft:nope"); got != DefaultLuminance {
		t.Fatalf("empty default = %v", got)
	}
	// equal luminance is never white
	if got := m.ColorOfFirstBlock("minecraft:x", "minecraft:y"); got != nchess.Black {
		t.Fatalf("tie should resolve to black, got %v", got)
	}
}

func TestOverrideDirLaterWins(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.json"), []byte(`{"blockstates":{"minecraft:white_wool":1}}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "b.yaml"), []byte("blockstates:\n  minecraft:white_wool: 2\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	m, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := m.Luminance("minecraft:white_wool"); got != 2 {
		t.Fatalf("override = %v, want 2", got)
	}
}

func TestMissingBlockStatesRejected(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bad.json"), []byte(`{"colors":{}}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := New(dir); err == nil {
		t.Fatalf("expected error for document without blockstates")
	}
}

func TestOrderedStates(t *testing.T) {
	m := FromValues(map[voxel.BlockState]float64{"minecraft:c": 3, "minecraft:a": 1, "minecraft:b": 2})
	got := m.OrderedStates()
	if len(got) != 3 || got[0] != "minecraft:a" || got[2] != "minecraft:c" {
		t.Fatalf("order = %v", got)
	}
}
