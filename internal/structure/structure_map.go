package structure

import (
	nchess "github.com/corentings/chess/v2"

	"github.com/park285/immersive-chess/internal/piece"
)

// Map holds the custom structure chosen for each piece. JSON keys are the
// upper case piece names.
type Map map[piece.Piece]*Structure

func (m Map) HasAnyOf(color nchess.Color) bool {
	for p := range m {
		if p.Color() == color {
			return true
		}
	}
	return false
}

func (m Map) Get(p piece.Piece) (*Structure, bool) {
	s, ok := m[p]
	return s, ok && s != nil
}

// GetOrDefault falls back to the default structure of p.
func (m Map) GetOrDefault(p piece.Piece) *Structure {
	if s, ok := m.Get(p); ok {
		return s
	}
	return Defaults()[p]
}

func (m Map) Clone() Map {
	if m == nil {
		return nil
	}
	out := make(Map, len(m))
	for k, v := range m {
		out[k] = v.Clone()
	}
	return out
}

// OfColor keeps only the pieces of color.
func (m Map) OfColor(color nchess.Color) Map {
	out := Map{}
	for k, v := range m {
		if k.Color() == color {
			out[k] = v
		}
	}
	return out
}
