// Package memstore is an in-memory store for tests and local runs.
package memstore

import (
	"context"
	"sync"

	"github.com/park285/immersive-chess/internal/game"
	"github.com/park285/immersive-chess/internal/store"
	"github.com/park285/immersive-chess/internal/voxel"
)

type Store struct {
	mu     sync.RWMutex
	games  map[string][]byte
	pgns   map[string]string
	boards map[voxel.BlockPos]string
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		games:  make(map[string][]byte),
		pgns:   make(map[string]string),
		boards: make(map[voxel.BlockPos]string),
	}
}

func (s *Store) Load(_ context.Context, saveID string) (*game.Record, error) {
	s.mu.RLock()
	raw, ok := s.games[store.GameKey(saveID)]
	s.mu.RUnlock()
	if !ok {
		return nil, store.ErrNotFound
	}
	return store.Decode(raw)
}

func (s *Store) Save(_ context.Context, rec *game.Record) error {
	raw, err := store.Encode(rec)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.games[store.GameKey(rec.SaveID())] = raw
	s.pgns[store.PGNKey(rec.SaveID())] = rec.Game
	return nil
}

func (s *Store) Update(ctx context.Context, saveID string, fn func(*game.Record) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, ok := s.games[store.GameKey(saveID)]
	if !ok {
		return store.ErrNotFound
	}
	rec, err := store.Decode(raw)
	if err != nil {
		return err
	}
	if err := fn(rec); err != nil {
		return err
	}
	out, err := store.Encode(rec)
	if err != nil {
		return err
	}
	s.games[store.GameKey(saveID)] = out
	s.pgns[store.PGNKey(saveID)] = rec.Game
	return nil
}

// PGN returns the stored PGN text of a game.
func (s *Store) PGN(saveID string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.pgns[store.PGNKey(saveID)]
	return v, ok
}

func (s *Store) BoardAt(_ context.Context, pos voxel.BlockPos) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.boards[pos]
	if !ok {
		return "", store.ErrNotFound
	}
	return id, nil
}

func (s *Store) IndexBoard(_ context.Context, saveID string, positions []voxel.BlockPos) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range positions {
		s.boards[p] = saveID
	}
	return nil
}

func (s *Store) UnindexBoard(_ context.Context, positions []voxel.BlockPos) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range positions {
		delete(s.boards, p)
	}
	return nil
}

func (s *Store) Close() error { return nil }
