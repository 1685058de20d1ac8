package projector

import (
	"slices"

	nchess "github.com/corentings/chess/v2"

	"github.com/park285/immersive-chess/internal/game"
	"github.com/park285/immersive-chess/internal/piece"
	"github.com/park285/immersive-chess/internal/structure"
)

// PieceItem is a lifted piece in a player's inventory. It is only valid for
// the game and move it was mined in.
type PieceItem struct {
	Piece        piece.Piece          `json:"piece"`
	SaveID       string               `json:"saveId"`
	Source       nchess.Square        `json:"source"`
	Destinations []nchess.Square      `json:"destinations"`
	MoveIndex    int                  `json:"moveIndex"`
	Structure    *structure.Structure `json:"structure,omitempty"`
	// Slot is the inventory slot reported by the bridge.
	Slot int `json:"slot,omitempty"`
}

// CanGoTo reports whether sq is among the item's destinations.
func (it PieceItem) CanGoTo(sq nchess.Square) bool {
	return slices.Contains(it.Destinations, sq)
}

// MineLoot is what a player receives for lifting the piece on sq. A pawn
// that can reach the last rank turns into the pawn, restricted to its own
// square, plus one item per promotion piece.
func MineLoot(st *game.State, sq nchess.Square) []PieceItem {
	if st == nil || st.IsFinished() {
		return nil
	}
	p := st.Piece(sq)
	if p == piece.None {
		return nil
	}
	pawn := PieceItem{
		Piece:        p,
		SaveID:       st.SaveID(),
		Source:       sq,
		Destinations: st.LegalDestinations(sq),
		MoveIndex:    st.CurrentMoveIndex(),
		Structure:    st.Structure(p),
	}
	if p.Type() != nchess.Pawn || !reachesLastRank(pawn.Destinations) {
		return []PieceItem{pawn}
	}

	var targets []nchess.Square
	for _, d := range pawn.Destinations {
		if d != sq {
			targets = append(targets, d)
		}
	}
	pawn.Destinations = []nchess.Square{sq}
	loot := []PieceItem{pawn}
	for _, promo := range p.Promotions() {
		loot = append(loot, PieceItem{
			Piece:        promo,
			SaveID:       pawn.SaveID,
			Source:       sq,
			Destinations: slices.Clone(targets),
			MoveIndex:    pawn.MoveIndex,
			Structure:    st.Structure(promo),
		})
	}
	return loot
}

func reachesLastRank(squares []nchess.Square) bool {
	for _, sq := range squares {
		if r := sq.Rank(); r == nchess.Rank1 || r == nchess.Rank8 {
			return true
		}
	}
	return false
}
