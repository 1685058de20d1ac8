// Package store persists chess games and the index from board blocks to
// the game that owns them.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/park285/immersive-chess/internal/game"
	"github.com/park285/immersive-chess/internal/voxel"
)

var (
	ErrNotFound = errors.New("store: not found")
	ErrConflict = errors.New("store: concurrent update")
)

// MaxUpdateAttempts bounds optimistic retries of Update.
const MaxUpdateAttempts = 3

// Store is the durable home of game records.
type Store interface {
	Load(ctx context.Context, saveID string) (*game.Record, error)
	Save(ctx context.Context, rec *game.Record) error
	// Update loads the record, applies fn and stores the result atomically.
	// It is retried when another writer got there first.
	Update(ctx context.Context, saveID string, fn func(*game.Record) error) error
	BoardAt(ctx context.Context, pos voxel.BlockPos) (string, error)
	IndexBoard(ctx context.Context, saveID string, positions []voxel.BlockPos) error
	UnindexBoard(ctx context.Context, positions []voxel.BlockPos) error
	Close() error
}

func GameKey(saveID string) string       { return game.Location + strings.TrimSpace(saveID) }
func PGNKey(saveID string) string        { return GameKey(saveID) + ".pgn" }
func BoardKey(pos voxel.BlockPos) string { return "board/" + pos.String() }

// Encode serializes a record for storage.
func Encode(rec *game.Record) ([]byte, error) {
	if rec == nil {
		return nil, errors.New("store: nil record")
	}
	if strings.TrimSpace(rec.GameID()) == "" {
		return nil, errors.New("store: record without game id")
	}
	return json.Marshal(rec)
}

func Decode(raw []byte) (*game.Record, error) {
	var rec game.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return &rec, nil
}
