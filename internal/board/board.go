package board

import (
	"encoding/json"
	"fmt"

	nchess "github.com/corentings/chess/v2"

	"github.com/park285/immersive-chess/internal/voxel"
)

// Size is the number of squares along each side of a board.
const Size = 8

// BlockName identifies converted board blocks in the world.
const BlockName = "immersivechess:board"

// Board maps an 8x8 area of world blocks onto chess squares. A1 is always a
// dark square; white plays toward WhitePlayDirection.
type Board struct {
	a1     voxel.BlockPos
	dir    voxel.Direction
	bounds voxel.BlockBox
}

func New(a1 voxel.BlockPos, whitePlayDirection voxel.Direction) Board {
	return Board{a1: a1, dir: whitePlayDirection, bounds: computeBounds(a1, whitePlayDirection)}
}

func computeBounds(a1 voxel.BlockPos, dir voxel.Direction) voxel.BlockBox {
	far := a1.Offset(dir, Size-1).Offset(dir.RotateYClockwise(), Size-1)
	return voxel.BoxOf(a1, far)
}

func (b Board) A1() voxel.BlockPos                  { return b.a1 }
func (b Board) WhitePlayDirection() voxel.Direction { return b.dir }
func (b Board) Bounds() voxel.BlockBox              { return b.bounds }
func (b Board) Contains(pos voxel.BlockPos) bool    { return b.bounds.Contains(pos) }
func (b Board) IsZero() bool                        { return b == Board{} }

// Square returns the chess square at pos. Rows run along the white play
// direction, columns along its clockwise rotation.
func (b Board) Square(pos voxel.BlockPos) (nchess.Square, bool) {
	if !b.bounds.Contains(pos) {
		return 0, false
	}
	local := pos.Sub(b.a1)
	forwardAxis := b.dir.Axis()
	sidewaysAxis := voxel.AxisX
	if forwardAxis == voxel.AxisX {
		sidewaysAxis = voxel.AxisZ
	}
	row := absInt(local.Component(forwardAxis))
	col := absInt(local.Component(sidewaysAxis))
	return nchess.NewSquare(nchess.File(col), nchess.Rank(row)), true
}

// Pos returns the block position of sq.
func (b Board) Pos(sq nchess.Square) voxel.BlockPos {
	return b.a1.Offset(b.dir, int(sq.Rank())).Offset(b.dir.RotateYClockwise(), int(sq.File()))
}

// ColorOfPos returns the board colour of the square at pos.
func (b Board) ColorOfPos(pos voxel.BlockPos) (nchess.Color, bool) {
	if !b.bounds.Contains(pos) {
		return nchess.NoColor, false
	}
	d := pos.Sub(b.a1)
	if (absInt(d.X)+absInt(d.Z))%2 == 0 {
		return nchess.Black, true
	}
	return nchess.White, true
}

// Side reports which player's half the square belongs to.
func Side(sq nchess.Square) nchess.Color {
	if sq.Rank() <= nchess.Rank4 {
		return nchess.White
	}
	return nchess.Black
}

func (b Board) SideOfPos(pos voxel.BlockPos) (nchess.Color, bool) {
	sq, ok := b.Square(pos)
	if !ok {
		return nchess.NoColor, false
	}
	return Side(sq), true
}

// Squares lists every board position with its square in A1..H8 order.
func (b Board) Squares() []voxel.BlockPos {
	out := make([]voxel.BlockPos, 0, Size*Size)
	for sq := nchess.A1; sq <= nchess.H8; sq++ {
		out = append(out, b.Pos(sq))
	}
	return out
}

func (b Board) String() string {
	return fmt.Sprintf("board(a1=%s, white=%s)", b.a1, b.dir)
}

type boardJSON struct {
	A1             voxel.BlockPos `json:"A1"`
	WhiteDirection voxel.BlockPos `json:"WhiteDirection"`
}

func (b Board) MarshalJSON() ([]byte, error) {
	return json.Marshal(boardJSON{A1: b.a1, WhiteDirection: b.dir.Vector()})
}

func (b *Board) UnmarshalJSON(data []byte) error {
	var raw boardJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v := raw.WhiteDirection
	dir := voxel.FacingOf(v.X, v.Y, v.Z)
	if dir.Vector() != v {
		return fmt.Errorf("invalid white direction %s", v)
	}
	*b = New(raw.A1, dir)
	return nil
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
