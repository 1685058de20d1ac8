package structure

import (
	"fmt"

	"github.com/park285/immersive-chess/internal/voxel"
)

// Block is one placed block inside a structure template.
type Block struct {
	Pos   [3]int           `json:"pos" yaml:"pos"`
	State voxel.BlockState `json:"state" yaml:"state"`
}

// Fill places State in every position of the inclusive box From..To.
type Fill struct {
	From  [3]int           `json:"from" yaml:"from"`
	To    [3]int           `json:"to" yaml:"to"`
	State voxel.BlockState `json:"state" yaml:"state"`
}

// Structure is a miniature block template rendered on a piece.
type Structure struct {
	Size   [3]int  `json:"size" yaml:"size"`
	Blocks []Block `json:"blocks,omitempty" yaml:"blocks,omitempty"`
	Fills  []Fill  `json:"fills,omitempty" yaml:"fills,omitempty"`
}

// Expand returns every block of the template with fills resolved.
// Explicit blocks win over fills at the same position.
func (s *Structure) Expand() []Block {
	if s == nil {
		return nil
	}
	at := map[[3]int]voxel.BlockState{}
	var order [][3]int
	put := func(p [3]int, st voxel.BlockState) {
		if _, ok := at[p]; !ok {
			order = append(order, p)
		}
		at[p] = st
	}
	for _, f := range s.Fills {
		box := voxel.BoxOf(voxel.Pos(f.From[0], f.From[1], f.From[2]), voxel.Pos(f.To[0], f.To[1], f.To[2]))
		for _, p := range box.Positions() {
			put([3]int{p.X, p.Y, p.Z}, f.State)
		}
	}
	for _, b := range s.Blocks {
		put(b.Pos, b.State)
	}
	out := make([]Block, 0, len(order))
	for _, p := range order {
		out = append(out, Block{Pos: p, State: at[p]})
	}
	return out
}

// Validate checks that every block lies inside Size.
func (s *Structure) Validate() error {
	for _, b := range s.Expand() {
		for i := 0; i < 3; i++ {
			if b.Pos[i] < 0 || b.Pos[i] >= s.Size[i] {
				return fmt.Errorf("block %v outside structure size %v", b.Pos, s.Size)
			}
		}
	}
	return nil
}

func (s *Structure) Clone() *Structure {
	if s == nil {
		return nil
	}
	c := &Structure{Size: s.Size}
	c.Blocks = append(c.Blocks, s.Blocks...)
	c.Fills = append(c.Fills, s.Fills...)
	return c
}

// Equal compares the expanded contents.
func (s *Structure) Equal(o *Structure) bool {
	if s == nil || o == nil {
		return s == o
	}
	if s.Size != o.Size {
		return false
	}
	a, b := s.Expand(), o.Expand()
	if len(a) != len(b) {
		return false
	}
	idx := make(map[[3]int]voxel.BlockState, len(a))
	for _, blk := range a {
		idx[blk.Pos] = blk.State
	}
	for _, blk := range b {
		if idx[blk.Pos] != blk.State {
			return false
		}
	}
	return true
}
