package voxel

// BlockBox is an inclusive axis aligned box of block positions.
type BlockBox struct {
	Min BlockPos `json:"min"`
	Max BlockPos `json:"max"`
}

// BoxOf builds the box spanned by two corners in any order.
func BoxOf(a, b BlockPos) BlockBox {
	return BlockBox{
		Min: BlockPos{min(a.X, b.X), min(a.Y, b.Y), min(a.Z, b.Z)},
		Max: BlockPos{max(a.X, b.X), max(a.Y, b.Y), max(a.Z, b.Z)},
	}
}

func (b BlockBox) Contains(p BlockPos) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

func (b BlockBox) CountX() int { return b.Max.X - b.Min.X + 1 }
func (b BlockBox) CountY() int { return b.Max.Y - b.Min.Y + 1 }
func (b BlockBox) CountZ() int { return b.Max.Z - b.Min.Z + 1 }

// Positions iterates X fastest, then Y, then Z.
func (b BlockBox) Positions() []BlockPos {
	out := make([]BlockPos, 0, b.CountX()*b.CountY()*b.CountZ())
	for z := b.Min.Z; z <= b.Max.Z; z++ {
		for y := b.Min.Y; y <= b.Max.Y; y++ {
			for x := b.Min.X; x <= b.Max.X; x++ {
				out = append(out, BlockPos{x, y, z})
			}
		}
	}
	return out
}

// Corners returns the four horizontal corners of the bottom layer in
// Positions order.
func (b BlockBox) Corners() [4]BlockPos {
	y := b.Min.Y
	return [4]BlockPos{
		{b.Min.X, y, b.Min.Z},
		{b.Max.X, y, b.Min.Z},
		{b.Min.X, y, b.Max.Z},
		{b.Max.X, y, b.Max.Z},
	}
}

// Ring returns the one block border around the box on layer y.
func (b BlockBox) Ring(y int) []BlockPos {
	var out []BlockPos
	for z := b.Min.Z - 1; z <= b.Max.Z+1; z++ {
		for x := b.Min.X - 1; x <= b.Max.X+1; x++ {
			if x == b.Min.X-1 || x == b.Max.X+1 || z == b.Min.Z-1 || z == b.Max.Z+1 {
				out = append(out, BlockPos{x, y, z})
			}
		}
	}
	return out
}

// Expand grows the box by n on every side.
func (b BlockBox) Expand(n int) BlockBox {
	d := BlockPos{n, n, n}
	return BlockBox{Min: b.Min.Sub(d), Max: b.Max.Add(d)}
}
