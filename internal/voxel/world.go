package voxel

// World is the view of the voxel world the chess core reads and mutates.
type World interface {
	Block(pos BlockPos) Block
	SetBlock(pos BlockPos, b Block) error
	// BreakBlock removes the block, optionally dropping it as an item.
	BreakBlock(pos BlockPos, drop bool) error
	CanModify(player string, pos BlockPos) bool
}

// ChangeKind describes one recorded world mutation.
type ChangeKind string

const (
	ChangeSet   ChangeKind = "set"
	ChangeBreak ChangeKind = "break"
)

type Change struct {
	Kind  ChangeKind `json:"kind"`
	Pos   BlockPos   `json:"pos"`
	Block Block      `json:"block,omitempty"`
	Drop  bool       `json:"drop,omitempty"`
}
