package worldlink

import (
	"context"
	"errors"
	"testing"

	"github.com/park285/immersive-chess/internal/voxel"
)

type fakeBridge struct {
	blocks    []PlacedBlock
	applied   [][]voxel.Change
	denied    map[string][]voxel.BlockPos
	permCalls int
	applyErr  error
	permErr   error
}

func (f *fakeBridge) Region(_ context.Context, _ voxel.BlockBox) ([]PlacedBlock, error) {
	return f.blocks, nil
}

func (f *fakeBridge) ApplyChanges(_ context.Context, changes []voxel.Change) error {
	if f.applyErr != nil {
		return f.applyErr
	}
	f.applied = append(f.applied, changes)
	return nil
}

func (f *fakeBridge) Permissions(_ context.Context, player string, _ voxel.BlockBox) ([]voxel.BlockPos, error) {
	f.permCalls++
	if f.permErr != nil {
		return nil, f.permErr
	}
	return f.denied[player], nil
}

func TestRemoteWorldSnapshot(t *testing.T) {
	stone := voxel.Solid(voxel.MustState("stone"))
	fb := &fakeBridge{blocks: []PlacedBlock{
		{Pos: voxel.Pos(0, 64, 0), Block: stone},
		{Pos: voxel.Pos(50, 64, 0), Block: stone},
	}}
	box := voxel.BoxOf(voxel.Pos(0, 64, 0), voxel.Pos(3, 65, 3))
	w, err := FetchRegion(context.Background(), fb, box)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if w.Block(voxel.Pos(0, 64, 0)) != stone {
		t.Fatalf("expected stone from snapshot")
	}
	if !w.Block(voxel.Pos(1, 64, 0)).IsAir() {
		t.Fatalf("missing block should be air")
	}
	if !w.Block(voxel.Pos(50, 64, 0)).IsAir() {
		t.Fatalf("blocks outside the region should be ignored")
	}
}

func TestRemoteWorldFlush(t *testing.T) {
	fb := &fakeBridge{}
	w, err := FetchRegion(context.Background(), fb, voxel.BoxOf(voxel.Pos(0, 0, 0), voxel.Pos(2, 2, 2)))
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	gold := voxel.Solid(voxel.MustState("gold_block"))
	_ = w.SetBlock(voxel.Pos(1, 1, 1), gold)
	_ = w.BreakBlock(voxel.Pos(1, 2, 1), true)

	if w.Block(voxel.Pos(1, 1, 1)) != gold {
		t.Fatalf("writes should be visible before flush")
	}
	if len(fb.applied) != 0 {
		t.Fatalf("nothing should be sent before flush")
	}
	n, err := w.Flush(context.Background())
	if err != nil || n != 2 {
		t.Fatalf("flush: n=%d err=%v", n, err)
	}
	if len(fb.applied) != 1 || fb.applied[0][0].Kind != voxel.ChangeSet || fb.applied[0][1].Kind != voxel.ChangeBreak {
		t.Fatalf("unexpected applied changes: %+v", fb.applied)
	}
	if n, _ := w.Flush(context.Background()); n != 0 {
		t.Fatalf("second flush should be empty, got %d", n)
	}
}

func TestRemoteWorldFlushError(t *testing.T) {
	fb := &fakeBridge{applyErr: errors.New("boom")}
	w, _ := FetchRegion(context.Background(), fb, voxel.BoxOf(voxel.Pos(0, 0, 0), voxel.Pos(1, 1, 1)))
	_ = w.BreakBlock(voxel.Pos(0, 0, 0), false)
	if _, err := w.Flush(context.Background()); err == nil {
		t.Fatalf("expected flush error")
	}
}

func TestRemoteWorldPermissions(t *testing.T) {
	fb := &fakeBridge{denied: map[string][]voxel.BlockPos{"bob": {voxel.Pos(1, 0, 1)}}}
	w, _ := FetchRegion(context.Background(), fb, voxel.BoxOf(voxel.Pos(0, 0, 0), voxel.Pos(2, 0, 2)))

	if w.CanModify("bob", voxel.Pos(1, 0, 1)) {
		t.Fatalf("bob should be denied")
	}
	if !w.CanModify("bob", voxel.Pos(0, 0, 0)) {
		t.Fatalf("bob should be allowed elsewhere")
	}
	if !w.CanModify("alice", voxel.Pos(1, 0, 1)) {
		t.Fatalf("alice should be allowed")
	}
	if fb.permCalls != 2 {
		t.Fatalf("expected one lookup per player, got %d", fb.permCalls)
	}

	failing := &fakeBridge{permErr: errors.New("down")}
	w2, _ := FetchRegion(context.Background(), failing, voxel.BoxOf(voxel.Pos(0, 0, 0), voxel.Pos(1, 0, 1)))
	if w2.CanModify("alice", voxel.Pos(0, 0, 0)) {
		t.Fatalf("failed lookups should deny")
	}
}
