package chess

import (
	"context"
	"errors"
	"fmt"
	"strings"

	nchess "github.com/corentings/chess/v2"
	"go.uber.org/zap"

	"github.com/park285/immersive-chess/internal/adapter/chesspresenter"
	"github.com/park285/immersive-chess/internal/game"
	"github.com/park285/immersive-chess/internal/piece"
	"github.com/park285/immersive-chess/internal/render"
	"github.com/park285/immersive-chess/internal/store"
	"github.com/park285/immersive-chess/internal/voxel"
	"github.com/park285/immersive-chess/pkg/chessdto"
)

const maxRecentGames = 50

func (s *Service) restore(ctx context.Context, saveID string) (*game.State, *game.Record, error) {
	if s == nil {
		return nil, nil, ErrServiceNotReady
	}
	saveID = strings.TrimSpace(saveID)
	if saveID == "" {
		return nil, nil, fmt.Errorf("%w: empty save id", ErrGameNotFound)
	}
	rec, err := s.store.Load(ctx, saveID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil, fmt.Errorf("%w: %s", ErrGameNotFound, saveID)
	}
	if err != nil {
		return nil, nil, err
	}
	st, err := game.FromRecord(rec, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("restore %s: %w", saveID, err)
	}
	return st, rec, nil
}

// Screen is the board screen of a game. A render failure leaves the image
// empty rather than failing the call.
func (s *Service) Screen(ctx context.Context, saveID string) (*chessdto.ScreenState, error) {
	st, _, err := s.restore(ctx, saveID)
	if err != nil {
		return nil, err
	}
	img, err := s.renderer.RenderPNG(ctx, st, s.snapshotOptions(st))
	if err != nil {
		s.logger.Warn("board_render_failed", zap.String("save_id", saveID), zap.Error(err))
		img = nil
	}
	return chesspresenter.ToDTOScreen(st, s.formatter, img), nil
}

// ScreenAt resolves the game owning pos first.
func (s *Service) ScreenAt(ctx context.Context, pos voxel.BlockPos) (*chessdto.ScreenState, error) {
	if s == nil {
		return nil, ErrServiceNotReady
	}
	id, err := s.boardAt(ctx, pos)
	if err != nil {
		return nil, err
	}
	if id == "" {
		return nil, fmt.Errorf("%w: %s", ErrNotOnBoard, pos)
	}
	return s.Screen(ctx, id)
}

func (s *Service) BoardPNG(ctx context.Context, saveID string) ([]byte, error) {
	st, _, err := s.restore(ctx, saveID)
	if err != nil {
		return nil, err
	}
	return s.renderer.RenderPNG(ctx, st, s.snapshotOptions(st))
}

func (s *Service) PGN(ctx context.Context, saveID string) (string, error) {
	_, rec, err := s.restore(ctx, saveID)
	if err != nil {
		return "", err
	}
	return rec.Game, nil
}

func (s *Service) RecentGames(ctx context.Context, limit int) (*chessdto.RecentGamesResponse, error) {
	if s == nil {
		return nil, ErrServiceNotReady
	}
	if s.archive == nil {
		return nil, ErrArchiveDisabled
	}
	if limit <= 0 || limit > maxRecentGames {
		limit = maxRecentGames
	}
	games, err := s.archive.Recent(ctx, limit)
	if err != nil {
		return nil, err
	}
	return chesspresenter.ToDTORecent(games), nil
}

func (s *Service) PlayerProfile(ctx context.Context, name string) (*chessdto.PlayerProfile, error) {
	if s == nil {
		return nil, ErrServiceNotReady
	}
	if s.archive == nil {
		return nil, ErrArchiveDisabled
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: player name is required", ErrInvalidEvent)
	}
	stats, err := s.archive.PlayerStats(ctx, name)
	if err != nil {
		return nil, err
	}
	return chesspresenter.ToDTOProfile(stats), nil
}

func (s *Service) snapshotOptions(st *game.State) render.Options {
	opts := render.Options{HUDHeader: s.formatter.Title(st.PlayerName(nchess.White), st.PlayerName(nchess.Black))}
	if st.IsFinished() {
		opts.HUDTurn = s.formatter.Status(st.Status())
	} else {
		opts.HUDTurn = s.formatter.OnMove(st)
	}

	ucis := st.MovesUCI()
	if n := len(ucis); n > 0 {
		if hl, ok := highlightOf(ucis[n-1]); ok {
			opts.Highlight = hl
		}
	}
	sans := st.MovesSAN()
	if n := len(sans); n > 0 && strings.ContainsAny(sans[n-1], "+#") {
		if sq, ok := kingSquare(st, st.ColorOnMove()); ok {
			opts.Check = &sq
		}
	}
	if sq, ok := st.MinedSquare(); ok {
		opts.Mined = &sq
	}
	return opts
}

func highlightOf(uci string) (*render.MoveHighlight, bool) {
	if len(uci) < 4 {
		return nil, false
	}
	from, err := game.ParseSquare(uci[0:2])
	if err != nil {
		return nil, false
	}
	to, err := game.ParseSquare(uci[2:4])
	if err != nil {
		return nil, false
	}
	return &render.MoveHighlight{From: from, To: to}, true
}

func kingSquare(st *game.State, c nchess.Color) (nchess.Square, bool) {
	for sq := nchess.A1; sq <= nchess.H8; sq++ {
		p := st.Piece(sq)
		if p != piece.None && p.Type() == nchess.King && p.Color() == c {
			return sq, true
		}
	}
	return 0, false
}
