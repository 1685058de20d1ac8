// Package redisstore shares games between server instances through Redis.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/park285/immersive-chess/internal/game"
	"github.com/park285/immersive-chess/internal/obslog"
	"github.com/park285/immersive-chess/internal/store"
	"github.com/park285/immersive-chess/internal/voxel"
)

const prefix = "ichess:"

type Store struct{ rdb *redis.Client }

var _ store.Store = (*Store)(nil)

func New(rdb *redis.Client) *Store { return &Store{rdb: rdb} }

// Open connects to redisURL and checks the connection.
func Open(ctx context.Context, redisURL string) (*Store, error) {
	if strings.TrimSpace(redisURL) == "" {
		return nil, fmt.Errorf("REDIS_URL is required for the redis store")
	}
	opts, err := ParseRedisURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return New(rdb), nil
}

func (s *Store) Close() error {
	if s == nil || s.rdb == nil {
		return nil
	}
	return s.rdb.Close()
}

func (s *Store) keyGame(saveID string) string     { return prefix + store.GameKey(saveID) }
func (s *Store) keyPGN(saveID string) string      { return prefix + store.PGNKey(saveID) }
func (s *Store) keyBoard(p voxel.BlockPos) string { return prefix + store.BoardKey(p) }

func (s *Store) Load(ctx context.Context, saveID string) (*game.Record, error) {
	raw, err := s.rdb.Get(ctx, s.keyGame(saveID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return store.Decode(raw)
}

func (s *Store) Save(ctx context.Context, rec *game.Record) error {
	raw, err := store.Encode(rec)
	if err != nil {
		return err
	}
	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, s.keyGame(rec.SaveID()), raw, 0)
	pipe.Set(ctx, s.keyPGN(rec.SaveID()), rec.Game, 0)
	_, err = pipe.Exec(ctx)
	return err
}

// Update uses optimistic concurrency control with WATCH on the game key.
func (s *Store) Update(ctx context.Context, saveID string, fn func(*game.Record) error) error {
	gameK := s.keyGame(saveID)
	for attempt := 1; attempt <= store.MaxUpdateAttempts; attempt++ {
		err := s.rdb.Watch(ctx, func(tx *redis.Tx) error {
			raw, err := tx.Get(ctx, gameK).Bytes()
			if errors.Is(err, redis.Nil) {
				return store.ErrNotFound
			}
			if err != nil {
				return err
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
			// persist atomically
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, gameK, out, 0)
				pipe.Set(ctx, s.keyPGN(saveID), rec.Game, 0)
				return nil
			})
			return err
		}, gameK)
		if errors.Is(err, redis.TxFailedErr) {
			obslog.L().Warn("redis_update_conflict", zap.String("save_id", saveID), zap.Int("attempt", attempt))
			continue
		}
		return err
	}
	return store.ErrConflict
}

func (s *Store) PGN(ctx context.Context, saveID string) (string, error) {
	v, err := s.rdb.Get(ctx, s.keyPGN(saveID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", store.ErrNotFound
	}
	return v, err
}

func (s *Store) BoardAt(ctx context.Context, pos voxel.BlockPos) (string, error) {
	v, err := s.rdb.Get(ctx, s.keyBoard(pos)).Result()
	if errors.Is(err, redis.Nil) {
		return "", store.ErrNotFound
	}
	return v, err
}

func (s *Store) IndexBoard(ctx context.Context, saveID string, positions []voxel.BlockPos) error {
	if len(positions) == 0 {
		return nil
	}
	pairs := make([]any, 0, 2*len(positions))
	for _, p := range positions {
		pairs = append(pairs, s.keyBoard(p), saveID)
	}
	return s.rdb.MSet(ctx, pairs...).Err()
}

func (s *Store) UnindexBoard(ctx context.Context, positions []voxel.BlockPos) error {
	if len(positions) == 0 {
		return nil
	}
	keys := make([]string, 0, len(positions))
	for _, p := range positions {
		keys = append(keys, s.keyBoard(p))
	}
	return s.rdb.Del(ctx, keys...).Err()
}

// ParseRedisURL turns redis:// or rediss:// URLs into client options.
// A missing port means 6379 and rediss enables TLS.
func ParseRedisURL(raw string) (*redis.Options, error) {
	opts, err := redis.ParseURL(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return opts, nil
}
