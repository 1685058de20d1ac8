package worldlink

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/park285/immersive-chess/internal/obslog"
	"github.com/park285/immersive-chess/internal/voxel"
)

// Bridge is the part of the command API a RemoteWorld needs.
type Bridge interface {
	Region(ctx context.Context, box voxel.BlockBox) ([]PlacedBlock, error)
	ApplyChanges(ctx context.Context, changes []voxel.Change) error
	Permissions(ctx context.Context, player string, box voxel.BlockBox) ([]voxel.BlockPos, error)
}

var _ Bridge = (*Client)(nil)

// RemoteWorld is a voxel.World over a snapshot of one region. Reads come
// from the snapshot, writes are applied to it and buffered until Flush.
// Positions outside the region read as air.
type RemoteWorld struct {
	ctx    context.Context
	bridge Bridge
	box    voxel.BlockBox
	mem    *voxel.MemWorld

	mu     sync.Mutex
	denied map[string]map[voxel.BlockPos]bool
}

var _ voxel.World = (*RemoteWorld)(nil)

// FetchRegion loads the snapshot of box. ctx is kept for permission lookups
// made while the world is in use.
func FetchRegion(ctx context.Context, bridge Bridge, box voxel.BlockBox) (*RemoteWorld, error) {
	blocks, err := bridge.Region(ctx, box)
	if err != nil {
		return nil, fmt.Errorf("fetch region %s..%s: %w", box.Min, box.Max, err)
	}
	w := &RemoteWorld{
		ctx:    ctx,
		bridge: bridge,
		box:    box,
		mem:    voxel.NewMemWorld(),
		denied: map[string]map[voxel.BlockPos]bool{},
	}
	for _, pb := range blocks {
		if box.Contains(pb.Pos) {
			w.mem.Load(pb.Pos, pb.Block)
		}
	}
	obslog.L().Debug("world_region_fetched",
		zap.String("min", box.Min.String()),
		zap.String("max", box.Max.String()),
		zap.Int("blocks", w.mem.Len()),
	)
	return w, nil
}

func (w *RemoteWorld) Box() voxel.BlockBox { return w.box }

func (w *RemoteWorld) Block(pos voxel.BlockPos) voxel.Block {
	if !w.box.Contains(pos) {
		return voxel.Air
	}
	return w.mem.Block(pos)
}

func (w *RemoteWorld) SetBlock(pos voxel.BlockPos, b voxel.Block) error {
	return w.mem.SetBlock(pos, b)
}

func (w *RemoteWorld) BreakBlock(pos voxel.BlockPos, drop bool) error {
	return w.mem.BreakBlock(pos, drop)
}

// CanModify asks the bridge once per player for the protected positions of
// the region. A failed lookup denies.
func (w *RemoteWorld) CanModify(player string, pos voxel.BlockPos) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	denied, ok := w.denied[player]
	if !ok {
		list, err := w.bridge.Permissions(w.ctx, player, w.box)
		if err != nil {
			obslog.L().Warn("world_permissions_failed", zap.String("player", player), zap.Error(err))
			return false
		}
		denied = make(map[voxel.BlockPos]bool, len(list))
		for _, p := range list {
			denied[p] = true
		}
		w.denied[player] = denied
	}
	return !denied[pos]
}

// Flush sends every buffered change in one call.
func (w *RemoteWorld) Flush(ctx context.Context) (int, error) {
	changes := w.mem.Changes()
	if len(changes) == 0 {
		return 0, nil
	}
	if err := w.bridge.ApplyChanges(ctx, changes); err != nil {
		return 0, fmt.Errorf("apply %d changes: %w", len(changes), err)
	}
	return len(changes), nil
}
