package game

import (
	nchess "github.com/corentings/chess/v2"

	"github.com/park285/immersive-chess/internal/piece"
	"github.com/park285/immersive-chess/internal/structure"
	"github.com/park285/immersive-chess/internal/voxel"
)

// Projection receives every world effect of a state transition.
type Projection interface {
	PlacePiece(sq nchess.Square, p piece.Piece, s *structure.Structure)
	BreakPiece(sq nchess.Square)
	// SetMinedPiece marks the board square as holding a lifted piece;
	// piece.None clears the marker.
	SetMinedPiece(sq nchess.Square, p piece.Piece)
	SetInCheck(sq nchess.Square, inCheck bool)
	UpdateStructure(sq nchess.Square, p piece.Piece, s *structure.Structure)
	// RestoreSquare puts back the block a board square replaced. ok is
	// false when nothing was recorded for sq.
	RestoreSquare(sq nchess.Square, original voxel.Block, ok bool)
	Announce(e Event)
}

type EventKind int

const (
	EventDrawOffered EventKind = iota + 1
	EventGameEnded
)

// Event is a notification for players around the board.
type Event struct {
	Kind   EventKind
	Status Status
	White  string
	Black  string
	// OfferedBy is the colour that offered a draw.
	OfferedBy nchess.Color
}

// Winner returns the winning colour, or NoColor for draws.
func (e Event) Winner() nchess.Color {
	switch e.Status {
	case WinWhite:
		return nchess.White
	case WinBlack:
		return nchess.Black
	}
	return nchess.NoColor
}

// PlayerName returns the player of color at the time of the event.
func (e Event) PlayerName(c nchess.Color) string {
	if c == nchess.White {
		return e.White
	}
	if c == nchess.Black {
		return e.Black
	}
	return ""
}

type nopProjection struct{}

func (nopProjection) PlacePiece(nchess.Square, piece.Piece, *structure.Structure)      {}
func (nopProjection) BreakPiece(nchess.Square)                                         {}
func (nopProjection) SetMinedPiece(nchess.Square, piece.Piece)                         {}
func (nopProjection) SetInCheck(nchess.Square, bool)                                   {}
func (nopProjection) UpdateStructure(nchess.Square, piece.Piece, *structure.Structure) {}
func (nopProjection) RestoreSquare(nchess.Square, voxel.Block, bool)                   {}
func (nopProjection) Announce(Event)                                                   {}
