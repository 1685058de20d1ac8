package chess

import (
	"github.com/park285/immersive-chess/internal/board"
	"github.com/park285/immersive-chess/internal/voxel"
)

// searchRadius covers a whole board plus its border seen from any of its
// squares.
const searchRadius = 9

// regionAround is the snapshot needed to recognize a board through pos and
// to reach the piece layer above it.
func regionAround(pos voxel.BlockPos) voxel.BlockBox {
	d := voxel.Pos(searchRadius, 0, searchRadius)
	return voxel.BlockBox{
		Min: pos.Sub(d).Down(),
		Max: pos.Add(d).Up(),
	}
}

// regionOf spans a board, its border and the piece layer.
func regionOf(b board.Board) voxel.BlockBox {
	bounds := b.Bounds()
	return voxel.BlockBox{
		Min: bounds.Min.Sub(voxel.Pos(1, 1, 1)),
		Max: bounds.Max.Add(voxel.Pos(1, 1, 1)),
	}
}

func union(a, b voxel.BlockBox) voxel.BlockBox {
	return voxel.BlockBox{
		Min: voxel.Pos(min(a.Min.X, b.Min.X), min(a.Min.Y, b.Min.Y), min(a.Min.Z, b.Min.Z)),
		Max: voxel.Pos(max(a.Max.X, b.Max.X), max(a.Max.Y, b.Max.Y), max(a.Max.Z, b.Max.Z)),
	}
}
