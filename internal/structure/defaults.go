package structure

import (
	"embed"
	"fmt"
	"sync"

	"go.uber.org/zap"
	yaml "gopkg.in/yaml.v3"

	"github.com/park285/immersive-chess/internal/obslog"
	"github.com/park285/immersive-chess/internal/piece"
)

//go:embed default_structures.yaml
var defaultFiles embed.FS

var (
	defaultsOnce sync.Once
	defaults     Map
)

// Defaults returns the built-in piece structures. They are parsed once.
func Defaults() Map {
	defaultsOnce.Do(func() {
		m, err := loadDefaults()
		if err != nil {
			obslog.L().Error("default_structures_load_failed", zap.Error(err))
			m = Map{}
		}
		defaults = m
	})
	return defaults
}

func loadDefaults() (Map, error) {
	raw, err := defaultFiles.ReadFile("default_structures.yaml")
	if err != nil {
		return nil, fmt.Errorf("read default structures: %w", err)
	}
	return ParseYAML(raw)
}

// ParseYAML reads a document keyed by piece name. Pieces missing from the
// document are logged and skipped.
func ParseYAML(raw []byte) (Map, error) {
	var doc map[string]*Structure
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse structures: %w", err)
	}
	byPiece := make(map[piece.Piece]*Structure, len(doc))
	for name, s := range doc {
		p, err := piece.Parse(name)
		if err != nil {
			return nil, err
		}
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("structure %s: %w", name, err)
		}
		byPiece[p] = s
	}
	out := Map{}
	for _, p := range piece.All {
		s, ok := byPiece[p]
		if !ok {
			obslog.L().Error("default_structure_missing", zap.String("piece", p.Name()))
			continue
		}
		out[p] = s
	}
	return out, nil
}
