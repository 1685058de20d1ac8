package chess

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/park285/immersive-chess/internal/adapter/chesspresenter"
	"github.com/park285/immersive-chess/internal/board"
	"github.com/park285/immersive-chess/internal/game"
	"github.com/park285/immersive-chess/internal/luminance"
	"github.com/park285/immersive-chess/internal/projector"
	"github.com/park285/immersive-chess/internal/render"
	"github.com/park285/immersive-chess/internal/store"
	"github.com/park285/immersive-chess/internal/store/archive"
	"github.com/park285/immersive-chess/internal/voxel"
	"github.com/park285/immersive-chess/internal/worldlink"
	"github.com/park285/immersive-chess/pkg/chessdto"
)

// createLock serializes board creation so two players cannot claim the same
// blocks at once.
const createLock = "board-create"

// Archiver keeps finished games.
type Archiver interface {
	SaveResult(ctx context.Context, g archive.Game) error
	Recent(ctx context.Context, limit int) ([]archive.Game, error)
	PlayerStats(ctx context.Context, name string) (archive.Stats, error)
}

// Messages renders player-facing texts by key.
type Messages interface {
	Text(key string, data any) string
}

type Config struct {
	// PGNDir receives a <saveID>.pgn file per game when set.
	PGNDir       string
	EventWorkers int
	EventQueue   int
	EventTimeout time.Duration
}

type Deps struct {
	Store    store.Store
	Archive  Archiver
	Bridge   worldlink.Bridge
	Egress   worldlink.Egress
	Messages Messages
	Mapper   *luminance.Mapper
	Renderer render.BoardRenderer
}

type Service struct {
	store     store.Store
	archive   Archiver
	bridge    worldlink.Bridge
	egress    worldlink.Egress
	msgs      Messages
	mapper    *luminance.Mapper
	renderer  render.BoardRenderer
	formatter *chesspresenter.Formatter
	cfg       Config
	locks     *keyedMutex
	logger    *zap.Logger
}

func NewService(d Deps, cfg Config, logger *zap.Logger) (*Service, error) {
	if d.Store == nil {
		return nil, fmt.Errorf("game store is required")
	}
	if d.Bridge == nil {
		return nil, fmt.Errorf("world bridge is required")
	}
	if d.Egress == nil {
		return nil, fmt.Errorf("world egress is required")
	}
	if d.Mapper == nil {
		return nil, fmt.Errorf("luminance mapper is required")
	}
	if d.Messages == nil {
		return nil, fmt.Errorf("message catalog is required")
	}
	if d.Renderer == nil {
		d.Renderer = render.NewSVGBoardRenderer()
	}
	if cfg.EventWorkers <= 0 {
		cfg.EventWorkers = 4
	}
	if cfg.EventQueue <= 0 {
		cfg.EventQueue = 256
	}
	if cfg.EventTimeout <= 0 {
		cfg.EventTimeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:     d.Store,
		archive:   d.Archive,
		bridge:    d.Bridge,
		egress:    d.Egress,
		msgs:      d.Messages,
		mapper:    d.Mapper,
		renderer:  d.Renderer,
		formatter: chesspresenter.NewFormatter(d.Messages),
		cfg:       cfg,
		locks:     newKeyedMutex(),
		logger:    logger,
	}, nil
}

func validateEvent(ev worldlink.Event) error {
	if strings.TrimSpace(ev.Player) == "" {
		return fmt.Errorf("%w: player is required", ErrInvalidEvent)
	}
	switch ev.Kind {
	case worldlink.EventUseCase, worldlink.EventBreakStart, worldlink.EventUseBoard:
		return nil
	case worldlink.EventPlace, worldlink.EventInventoryTick:
		if ev.Item == nil {
			return fmt.Errorf("%w: %s without item", ErrInvalidEvent, ev.Kind)
		}
		return nil
	case worldlink.EventButton:
		if _, err := projector.ParseButton(ev.Button); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidEvent, err)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidEvent, ev.Kind)
	}
}

// boardAt returns the save id indexed at pos, or "" when there is none.
func (s *Service) boardAt(ctx context.Context, pos voxel.BlockPos) (string, error) {
	id, err := s.store.BoardAt(ctx, pos)
	if errors.Is(err, store.ErrNotFound) {
		return "", nil
	}
	return id, err
}

// resolve finds the game an event belongs to. An empty id means no game.
func (s *Service) resolve(ctx context.Context, ev worldlink.Event) (string, error) {
	switch ev.Kind {
	case worldlink.EventInventoryTick:
		return ev.Item.SaveID, nil
	case worldlink.EventButton:
		if ev.SaveID != "" {
			return ev.SaveID, nil
		}
		return s.boardAt(ctx, ev.Pos)
	case worldlink.EventPlace:
		id, err := s.boardAt(ctx, ev.Pos.Down())
		if err == nil && id == "" {
			return "", ErrNotOnBoard
		}
		return id, err
	case worldlink.EventBreakStart:
		return s.boardAt(ctx, ev.Pos.Down())
	default:
		return s.boardAt(ctx, ev.Pos)
	}
}

// load restores a game. A missing record yields nil for inventory ticks and
// ErrGameNotFound otherwise.
func (s *Service) load(ctx context.Context, saveID string, kind worldlink.EventKind) (*game.State, *game.Record, error) {
	if saveID == "" {
		return nil, nil, nil
	}
	rec, err := s.store.Load(ctx, saveID)
	if errors.Is(err, store.ErrNotFound) {
		if kind == worldlink.EventInventoryTick {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("%w: %s", ErrGameNotFound, saveID)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load %s: %w", saveID, err)
	}
	st, err := game.FromRecord(rec, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("restore %s: %w", saveID, err)
	}
	return st, rec, nil
}

// HandleEvent applies one player interaction: it loads the game owning the
// touched blocks, runs the interaction against a snapshot of the world,
// sends the resulting block changes and messages, and persists the game.
func (s *Service) HandleEvent(ctx context.Context, ev worldlink.Event) (*chessdto.EventResult, error) {
	if s == nil {
		return nil, ErrServiceNotReady
	}
	if err := validateEvent(ev); err != nil {
		return nil, err
	}
	if ev.Kind == worldlink.EventUseCase {
		defer s.locks.Lock(createLock)()
	}

	saveID, err := s.resolve(ctx, ev)
	if err != nil {
		return nil, err
	}
	if saveID != "" {
		defer s.locks.Lock(saveID)()
	}

	st, loaded, err := s.load(ctx, saveID, ev.Kind)
	if err != nil {
		return nil, err
	}

	var world *worldlink.RemoteWorld
	if ev.Kind != worldlink.EventInventoryTick {
		box := regionAround(ev.Pos)
		if st != nil {
			box = union(box, regionOf(st.Board()))
		}
		if world, err = worldlink.FetchRegion(ctx, s.bridge, box); err != nil {
			return nil, err
		}
	}

	outbox := worldlink.NewOutbox()
	var vw voxel.World
	if world != nil {
		vw = world
	}
	in := projector.NewInteractions(vw, outbox, outbox, s.msgs, s.mapper)
	if st != nil {
		in.Attach(st)
	}

	wasFinished := st != nil && st.IsFinished()
	res := &chessdto.EventResult{EventID: ev.ID, SaveID: saveID}
	player := projector.Player{Name: ev.Player, Operator: ev.Operator}
	next := st
	boardEnded := false

	switch ev.Kind {
	case worldlink.EventUseCase:
		next, res.Handled = in.UseCase(st, player, ev.Pos, ev.Structures)
	case worldlink.EventBreakStart:
		res.Handled = in.BreakStart(st, player, ev.Pos, ev.Item)
	case worldlink.EventPlace:
		res.Handled = in.Place(st, player, ev.Pos, *ev.Item)
	case worldlink.EventUseBoard:
		res.Handled = in.UseBoard(st, player, ev.Pos, ev.HoldsPiece)
	case worldlink.EventButton:
		b, _ := projector.ParseButton(ev.Button)
		res.Handled = in.Press(st, player, b)
		boardEnded = res.Handled && b == projector.ButtonStopBoard
	case worldlink.EventInventoryTick:
		action := in.InventoryTick(st, player, *ev.Item)
		res.Action = action.String()
		res.Handled = action != projector.TickKeep
	}

	if world != nil {
		n, err := world.Flush(ctx)
		if err != nil {
			s.logger.Error("world_flush_failed", zap.String("save_id", saveID), zap.String("kind", string(ev.Kind)), zap.Error(err))
			return nil, err
		}
		if n > 0 {
			s.logger.Debug("world_flushed", zap.String("save_id", saveID), zap.Int("changes", n))
		}
	}
	if err := outbox.Flush(ctx, s.egress); err != nil {
		s.logger.Warn("world_egress_failed", zap.String("save_id", saveID), zap.Error(err))
	}

	created := next != nil && next != st
	if created {
		res.Created = true
		res.SaveID = next.SaveID()
		if st != nil {
			s.unindex(ctx, st.Board())
		}
	}
	if next == nil {
		return res, nil
	}

	if err := s.persist(ctx, next, loaded, created); err != nil {
		return nil, err
	}
	switch {
	case created:
		if err := s.store.IndexBoard(ctx, next.SaveID(), next.Board().Squares()); err != nil {
			return nil, fmt.Errorf("index board: %w", err)
		}
	case boardEnded:
		s.unindex(ctx, next.Board())
	}

	res.Finished = next.IsFinished()
	if res.Finished && (created || !wasFinished) {
		s.archiveResult(ctx, next)
	}
	return res, nil
}

func (s *Service) persist(ctx context.Context, st *game.State, loaded *game.Record, created bool) error {
	if !st.IsDirty() {
		return nil
	}
	rec := st.Record()
	var err error
	if created || loaded == nil {
		err = s.store.Save(ctx, rec)
	} else {
		err = s.store.Update(ctx, rec.SaveID(), func(cur *game.Record) error {
			if !cur.UpdatedAt.Equal(loaded.UpdatedAt) {
				return ErrStaleGameVersion
			}
			*cur = *rec
			return nil
		})
	}
	if err != nil {
		return fmt.Errorf("save %s: %w", rec.SaveID(), err)
	}
	st.MarkSaved()
	s.logger.Debug("game_saved", zap.String("save_id", rec.SaveID()), zap.Int("moves", len(rec.Moves)))
	s.writePGN(rec)
	return nil
}

func (s *Service) unindex(ctx context.Context, b board.Board) {
	if err := s.store.UnindexBoard(ctx, b.Squares()); err != nil {
		s.logger.Warn("board_unindex_failed", zap.String("board", b.String()), zap.Error(err))
	}
}

func (s *Service) archiveResult(ctx context.Context, st *game.State) {
	if s.archive == nil {
		return
	}
	g := archive.GameFromRecord(st.Record())
	if err := s.archive.SaveResult(ctx, g); err != nil {
		s.logger.Warn("game_archive_failed", zap.String("save_id", g.SaveID), zap.Error(err))
		return
	}
	s.logger.Info("game_archived", zap.String("save_id", g.SaveID), zap.String("result", g.Result), zap.String("termination", g.Termination))
}

func (s *Service) writePGN(rec *game.Record) {
	dir := strings.TrimSpace(s.cfg.PGNDir)
	if dir == "" {
		return
	}
	path := filepath.Join(dir, filepath.FromSlash(rec.SaveID())+".pgn")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		s.logger.Warn("pgn_write_failed", zap.String("path", path), zap.Error(err))
		return
	}
	if err := os.WriteFile(path, []byte(rec.Game), 0o644); err != nil {
		s.logger.Warn("pgn_write_failed", zap.String("path", path), zap.Error(err))
	}
}
