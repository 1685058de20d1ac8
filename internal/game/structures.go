package game

import (
	nchess "github.com/corentings/chess/v2"

	"github.com/park285/immersive-chess/internal/piece"
	"github.com/park285/immersive-chess/internal/structure"
)

// StructuresOf returns the custom structures brought by the player of c.
func (s *State) StructuresOf(c nchess.Color) structure.Map {
	m, ok := s.structures[c]
	if !ok || m == nil {
		m = structure.Map{}
		s.structures[c] = m
	}
	return m
}

// SetStructures stores the player's structures and switches the colour to
// RenderOwn when the set contains pieces of that colour.
func (s *State) SetStructures(c nchess.Color, m structure.Map) {
	if m == nil {
		m = structure.Map{}
	}
	s.structures[c] = m
	if m.HasAnyOf(c) {
		s.SetRenderOption(c, structure.RenderOwn)
	}
	s.PlacePieces()
	s.markDirty()
}

func (s *State) RenderOption(c nchess.Color) structure.RenderOption {
	return s.renderOptions[c]
}

// ValidRenderOptions lists the options available for pieces of colour c.
func (s *State) ValidRenderOptions(c nchess.Color) []structure.RenderOption {
	out := []structure.RenderOption{structure.RenderDefault}
	if m, ok := s.structures[c]; ok && m.HasAnyOf(c) {
		out = append(out, structure.RenderOwn)
	}
	if m, ok := s.structures[opposite(c)]; ok && m.HasAnyOf(c) {
		out = append(out, structure.RenderOpponent)
	}
	return out
}

func (s *State) SetRenderOption(c nchess.Color, o structure.RenderOption) bool {
	valid := false
	for _, v := range s.ValidRenderOptions(c) {
		if v == o {
			valid = true
			break
		}
	}
	if !valid {
		return false
	}
	s.renderOptions[c] = o
	s.markDirty()
	s.updatePieceStructures()
	return true
}

// Structure resolves the structure a piece is drawn with.
func (s *State) Structure(p piece.Piece) *structure.Structure {
	defaults := structure.Defaults()
	switch s.RenderOption(p.Color()) {
	case structure.RenderOwn:
		return s.structures[p.Color()].GetOrDefault(p)
	case structure.RenderOpponent:
		return s.structures[opposite(p.Color())].GetOrDefault(p)
	default:
		return defaults[p]
	}
}

func (s *State) updatePieceStructures() {
	for sq, np := range s.game.Position().Board().SquareMap() {
		if np == nchess.NoPiece {
			continue
		}
		s.updatePieceStructure(sq)
	}
}

func (s *State) updatePieceStructure(sq nchess.Square) {
	p := s.Piece(sq)
	if p == piece.None {
		return
	}
	s.proj.UpdateStructure(sq, p, s.Structure(p))
}
