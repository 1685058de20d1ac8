package luminance

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	nchess "github.com/corentings/chess/v2"
	yaml "gopkg.in/yaml.v3"

	"github.com/park285/immersive-chess/internal/voxel"
)

//go:embed block_colors.json
var defaultFiles embed.FS

// DefaultLuminance is used when no data has been loaded at all.
const DefaultLuminance = 50.0

var ErrMissingBlockStates = errors.New("missing attribute 'blockstates' in block colors")

type blockColors struct {
	BlockStates map[string]float64 `json:"blockstates" yaml:"blockstates"`
}

// Mapper maps block states to perceived luminance (0..100).
type Mapper struct {
	mu      sync.RWMutex
	values  map[voxel.BlockState]float64
	average float64
}

// New loads the embedded block colors and then applies overrides from dir
// if provided. Later files override earlier ones.
func New(overrideDir string) (*Mapper, error) {
	m := &Mapper{values: map[voxel.BlockState]float64{}, average: DefaultLuminance}
	raw, err := fs.ReadFile(defaultFiles, "block_colors.json")
	if err != nil {
		return nil, fmt.Errorf("read embedded block colors: %w", err)
	}
	if err := m.apply(raw, ".json"); err != nil {
		return nil, fmt.Errorf("embedded block colors: %w", err)
	}
	if strings.TrimSpace(overrideDir) != "" {
		if err := m.applyDir(overrideDir); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// FromValues builds a mapper from an explicit table.
func FromValues(values map[voxel.BlockState]float64) *Mapper {
	m := &Mapper{values: map[voxel.BlockState]float64{}, average: DefaultLuminance}
	for k, v := range values {
		m.values[k] = v
	}
	m.recompute()
	return m
}

func (m *Mapper) applyDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read block colors dir: %w", err)
	}
	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".json", ".yaml", ".yml":
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	for _, name := range files {
		b, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
		if err := m.apply(b, strings.ToLower(filepath.Ext(name))); err != nil {
			return fmt.Errorf("parse %s: %w", name, err)
		}
	}
	return nil
}

func (m *Mapper) apply(raw []byte, ext string) error {
	var doc blockColors
	var err error
	if ext == ".json" {
		err = json.Unmarshal(raw, &doc)
	} else {
		err = yaml.Unmarshal(raw, &doc)
	}
	if err != nil {
		return err
	}
	if doc.BlockStates == nil {
		return ErrMissingBlockStates
	}
	parsed := make(map[voxel.BlockState]float64, len(doc.BlockStates))
	for k, v := range doc.BlockStates {
		st, err := voxel.ParseBlockState(k)
		if err != nil {
			return err
		}
		parsed[st] = v
	}
	m.mu.Lock()
	for k, v := range parsed {
		m.values[k] = v
	}
	m.recompute()
	m.mu.Unlock()
	return nil
}

// recompute expects m.mu held for writing.
func (m *Mapper) recompute() {
	if len(m.values) == 0 {
		m.average = DefaultLuminance
		return
	}
	var sum float64
	for _, v := range m.values {
		sum += v
	}
	m.average = sum / float64(len(m.values))
}

// Luminance returns the mapped value, or the average of all known values.
func (m *Mapper) Luminance(state voxel.BlockState) float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if v, ok := m.values[state]; ok {
		return v
	}
	return m.average
}

// ColorOfFirstBlock reports White when a is brighter than b.
func (m *Mapper) ColorOfFirstBlock(a, b voxel.BlockState) nchess.Color {
	if m.Luminance(a) > m.Luminance(b) {
		return nchess.White
	}
	return nchess.Black
}

// OrderedStates lists known states from darkest to brightest.
func (m *Mapper) OrderedStates() []voxel.BlockState {
	m.mu.RLock()
	out := make([]voxel.BlockState, 0, len(m.values))
	for k := range m.values {
		out = append(out, k)
	}
	m.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool {
		li, lj := m.Luminance(out[i]), m.Luminance(out[j])
		if li != lj {
			return li < lj
		}
		return out[i] < out[j]
	})
	return out
}

func (m *Mapper) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.values)
}
