package piece

import (
	"fmt"
	"strings"

	nchess "github.com/corentings/chess/v2"

	"github.com/park285/immersive-chess/internal/voxel"
)

// Namespace prefixes piece identifiers and block names.
const Namespace = "immersivechess"

// Piece is a coloured chess piece as it exists in the world.
type Piece uint8

// Order matters: case slots are indexed by Index().
const (
	None Piece = iota
	BlackPawn
	BlackRook
	BlackKnight
	BlackBishop
	BlackQueen
	BlackKing
	WhitePawn
	WhiteRook
	WhiteKnight
	WhiteBishop
	WhiteQueen
	WhiteKing
)

// All lists every piece in slot order.
var All = []Piece{
	BlackPawn, BlackRook, BlackKnight, BlackBishop, BlackQueen, BlackKing,
	WhitePawn, WhiteRook, WhiteKnight, WhiteBishop, WhiteQueen, WhiteKing,
}

type info struct {
	name   string
	height int
	color  nchess.Color
	kind   nchess.PieceType
}

var infos = [...]info{
	None:        {"none", 0, nchess.NoColor, nchess.NoPieceType},
	BlackPawn:   {"black_pawn", 10, nchess.Black, nchess.Pawn},
	BlackRook:   {"black_rook", 12, nchess.Black, nchess.Rook},
	BlackKnight: {"black_knight", 13, nchess.Black, nchess.Knight},
	BlackBishop: {"black_bishop", 14, nchess.Black, nchess.Bishop},
	BlackQueen:  {"black_queen", 15, nchess.Black, nchess.Queen},
	BlackKing:   {"black_king", 16, nchess.Black, nchess.King},
	WhitePawn:   {"white_pawn", 10, nchess.White, nchess.Pawn},
	WhiteRook:   {"white_rook", 12, nchess.White, nchess.Rook},
	WhiteKnight: {"white_knight", 13, nchess.White, nchess.Knight},
	WhiteBishop: {"white_bishop", 14, nchess.White, nchess.Bishop},
	WhiteQueen:  {"white_queen", 15, nchess.White, nchess.Queen},
	WhiteKing:   {"white_king", 16, nchess.White, nchess.King},
}

func (p Piece) valid() bool { return p > None && int(p) < len(infos) }

func (p Piece) info() info {
	if int(p) >= len(infos) {
		return infos[None]
	}
	return infos[p]
}

// Name is the lower case name, e.g. "white_queen".
func (p Piece) Name() string { return p.info().name }

func (p Piece) String() string { return p.Name() }

// EnumName is the upper case form used as a persistence key.
func (p Piece) EnumName() string { return strings.ToUpper(p.Name()) }

// Identifier is the namespaced id, e.g. "immersivechess:white_queen".
func (p Piece) Identifier() string { return Namespace + ":" + p.Name() }

// Height of the design volume in 1/8 of a block.
func (p Piece) Height() int { return p.info().height }

func (p Piece) Color() nchess.Color { return p.info().color }

func (p Piece) Type() nchess.PieceType { return p.info().kind }

// Index is the slot index in All, or -1 for None.
func (p Piece) Index() int {
	if !p.valid() {
		return -1
	}
	return int(p) - 1
}

// Promotions lists the pieces a pawn may become.
func (p Piece) Promotions() []Piece {
	switch p {
	case BlackPawn:
		return []Piece{BlackRook, BlackKnight, BlackBishop, BlackQueen}
	case WhitePawn:
		return []Piece{WhiteRook, WhiteKnight, WhiteBishop, WhiteQueen}
	}
	return nil
}

// NChess converts to the rules library piece.
func (p Piece) NChess() nchess.Piece {
	if !p.valid() {
		return nchess.NoPiece
	}
	return nchess.NewPiece(p.Type(), p.Color())
}

func FromNChess(np nchess.Piece) Piece {
	return Of(np.Type(), np.Color())
}

// Of returns the piece of the given type and colour.
func Of(kind nchess.PieceType, color nchess.Color) Piece {
	for _, p := range All {
		if p.Type() == kind && p.Color() == color {
			return p
		}
	}
	return None
}

// Parse accepts either the lower or upper case name, with or without the
// namespace.
func Parse(s string) (Piece, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, Namespace+":")
	for _, p := range All {
		if p.Name() == s {
			return p, nil
		}
	}
	return None, fmt.Errorf("unknown piece %q", s)
}

func (p Piece) MarshalText() ([]byte, error) {
	if !p.valid() {
		return nil, fmt.Errorf("cannot marshal piece %d", uint8(p))
	}
	return []byte(p.EnumName()), nil
}

func (p *Piece) UnmarshalText(b []byte) error {
	v, err := Parse(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// BlockState is the world block for this piece facing the given direction.
func (p Piece) BlockState(facing voxel.Direction) voxel.BlockState {
	return voxel.BlockState(p.Identifier()).With("facing", facing.String())
}

// FromBlockState recognizes a piece block.
func FromBlockState(s voxel.BlockState) (Piece, voxel.Direction, bool) {
	name := s.Name()
	if !strings.HasPrefix(name, Namespace+":") {
		return None, voxel.North, false
	}
	p, err := Parse(name)
	if err != nil {
		return None, voxel.North, false
	}
	facing := voxel.North
	if v, ok := s.Property("facing"); ok {
		if d, err := voxel.ParseDirection(v); err == nil {
			facing = d
		}
	}
	return p, facing, true
}
