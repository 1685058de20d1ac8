// Package badgerstore keeps games in an embedded BadgerDB.
package badgerstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"

	"github.com/park285/immersive-chess/internal/game"
	"github.com/park285/immersive-chess/internal/obslog"
	"github.com/park285/immersive-chess/internal/store"
	"github.com/park285/immersive-chess/internal/voxel"
)

// Store wraps BadgerDB for persistent storage
type Store struct {
	db *badger.DB
}

var _ store.Store = (*Store)(nil)

// Open opens (or creates) the database in dir. An empty dir keeps
// everything in memory.
func Open(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = zapLogger{obslog.L().Sugar().Named("badger")}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	obslog.L().Info("badger_opened", zap.String("dir", dir), zap.Bool("in_memory", dir == ""))
	return &Store{db: db}, nil
}

// Close closes the database
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Load(_ context.Context, saveID string) (*game.Record, error) {
	var rec *game.Record
	err := s.db.View(func(txn *badger.Txn) error {
		r, err := get(txn, saveID)
		rec = r
		return err
	})
	return rec, err
}

func (s *Store) Save(_ context.Context, rec *game.Record) error {
	raw, err := store.Encode(rec)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return put(txn, rec, raw)
	})
}

// Update retries when another transaction committed the same keys first.
func (s *Store) Update(ctx context.Context, saveID string, fn func(*game.Record) error) error {
	for attempt := 1; attempt <= store.MaxUpdateAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := s.db.Update(func(txn *badger.Txn) error {
			rec, err := get(txn, saveID)
			if err != nil {
				return err
			}
			if err := fn(rec); err != nil {
				return err
			}
			raw, err := store.Encode(rec)
			if err != nil {
				return err
			}
			return put(txn, rec, raw)
		})
		if errors.Is(err, badger.ErrConflict) {
			obslog.L().Warn("badger_update_conflict", zap.String("save_id", saveID), zap.Int("attempt", attempt))
			continue
		}
		return err
	}
	return store.ErrConflict
}

// PGN returns the PGN text stored next to a game.
func (s *Store) PGN(_ context.Context, saveID string) (string, error) {
	var out string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(store.PGNKey(saveID)))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return store.ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			out = string(val)
			return nil
		})
	})
	return out, err
}

func (s *Store) BoardAt(_ context.Context, pos voxel.BlockPos) (string, error) {
	var id string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(store.BoardKey(pos)))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return store.ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			id = string(val)
			return nil
		})
	})
	return id, err
}

func (s *Store) IndexBoard(_ context.Context, saveID string, positions []voxel.BlockPos) error {
	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	for _, p := range positions {
		if err := wb.Set([]byte(store.BoardKey(p)), []byte(saveID)); err != nil {
			return err
		}
	}
	return wb.Flush()
}

func (s *Store) UnindexBoard(_ context.Context, positions []voxel.BlockPos) error {
	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	for _, p := range positions {
		if err := wb.Delete([]byte(store.BoardKey(p))); err != nil {
			return err
		}
	}
	return wb.Flush()
}

// SaveIDs lists every stored game.
func (s *Store) SaveIDs(_ context.Context) ([]string, error) {
	var ids []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(game.Location)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			key := string(it.Item().Key())
			if strings.HasSuffix(key, ".pgn") {
				continue
			}
			ids = append(ids, strings.TrimPrefix(key, game.Location))
		}
		return nil
	})
	return ids, err
}

func get(txn *badger.Txn, saveID string) (*game.Record, error) {
	item, err := txn.Get([]byte(store.GameKey(saveID)))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var rec *game.Record
	err = item.Value(func(val []byte) error {
		r, derr := store.Decode(val)
		rec = r
		return derr
	})
	return rec, err
}

func put(txn *badger.Txn, rec *game.Record, raw []byte) error {
	if err := txn.Set([]byte(store.GameKey(rec.SaveID())), raw); err != nil {
		return err
	}
	return txn.Set([]byte(store.PGNKey(rec.SaveID())), []byte(rec.Game))
}

type zapLogger struct{ s *zap.SugaredLogger }

func (l zapLogger) Errorf(f string, v ...interface{})   { l.s.Errorf(f, v...) }
func (l zapLogger) Warningf(f string, v ...interface{}) { l.s.Warnf(f, v...) }
func (l zapLogger) Infof(f string, v ...interface{})    { l.s.Debugf(f, v...) }
func (l zapLogger) Debugf(f string, v ...interface{})   { l.s.Debugf(f, v...) }
