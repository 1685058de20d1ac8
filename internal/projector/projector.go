package projector

import (
	"strconv"
	"sync"

	nchess "github.com/corentings/chess/v2"
	"go.uber.org/zap"

	"github.com/park285/immersive-chess/internal/board"
	"github.com/park285/immersive-chess/internal/game"
	"github.com/park285/immersive-chess/internal/obslog"
	"github.com/park285/immersive-chess/internal/piece"
	"github.com/park285/immersive-chess/internal/structure"
	"github.com/park285/immersive-chess/internal/voxel"
)

// Board block state properties.
const (
	PropColor = "color"
	PropCheck = "check"
	PropGhost = "ghost"

	ghostNone = "none"
)

// Sound names played around the board.
const (
	SoundBell      = "minecraft:block.note_block.bell"
	SoundHornWin   = "minecraft:item.goat_horn.sound.0"
	SoundHornLose  = "minecraft:item.goat_horn.sound.7"
	SoundPlacement = "minecraft:block.wood.place"
)

// Sound is played for Player only when set, otherwise at Pos for everyone
// except Except.
type Sound struct {
	Name   string         `json:"name"`
	Pos    voxel.BlockPos `json:"pos"`
	Player string         `json:"player,omitempty"`
	Except string         `json:"except,omitempty"`
	Volume float32        `json:"volume"`
	Pitch  float32        `json:"pitch"`
}

// Notifier delivers texts and sounds to players.
type Notifier interface {
	Actionbar(player, text string)
	Chat(player, text string)
	Broadcast(text string)
	PlaySound(s Sound)
}

// Messages renders player-facing texts by key.
type Messages interface {
	Text(key string, data any) string
}

// Projector applies game state effects to the blocks of one board.
type Projector struct {
	world  voxel.World
	board  board.Board
	notify Notifier
	msgs   Messages

	mu         sync.RWMutex
	structures map[nchess.Square]Placed
}

// Placed is the structure a square's piece is currently drawn with.
type Placed struct {
	Piece     piece.Piece
	Structure *structure.Structure
}

var _ game.Projection = (*Projector)(nil)

func New(w voxel.World, b board.Board, n Notifier, msgs Messages) *Projector {
	if n == nil {
		n = nopNotifier{}
	}
	return &Projector{
		world:      w,
		board:      b,
		notify:     n,
		msgs:       msgs,
		structures: map[nchess.Square]Placed{},
	}
}

func (p *Projector) Board() board.Board { return p.board }

// PieceBlock is the block of pc as it stands on the board.
func (p *Projector) PieceBlock(pc piece.Piece) voxel.Block {
	facing := p.board.WhitePlayDirection()
	if pc.Color() == nchess.Black {
		facing = facing.Opposite()
	}
	return voxel.Block{State: pc.BlockState(facing), BlockEntity: true}
}

func (p *Projector) PlacePiece(sq nchess.Square, pc piece.Piece, s *structure.Structure) {
	p.setStructure(sq, pc, s)
	pos := p.board.Pos(sq).Up()
	want := p.PieceBlock(pc)
	if p.world.Block(pos).State == want.State {
		return
	}
	if err := p.world.SetBlock(pos, want); err != nil {
		obslog.L().Error("projector_place_failed", zap.String("pos", pos.String()), zap.String("piece", pc.Name()), zap.Error(err))
	}
}

func (p *Projector) BreakPiece(sq nchess.Square) {
	p.mu.Lock()
	delete(p.structures, sq)
	p.mu.Unlock()

	pos := p.board.Pos(sq).Up()
	if p.world.Block(pos).IsAir() {
		return
	}
	if err := p.world.BreakBlock(pos, false); err != nil {
		obslog.L().Error("projector_break_failed", zap.String("pos", pos.String()), zap.Error(err))
	}
}

func (p *Projector) SetMinedPiece(sq nchess.Square, pc piece.Piece) {
	v := ghostNone
	if pc != piece.None {
		v = pc.Name()
	}
	p.setBoardProperty(sq, PropGhost, v)
}

func (p *Projector) SetInCheck(sq nchess.Square, inCheck bool) {
	p.setBoardProperty(sq, PropCheck, strconv.FormatBool(inCheck))
}

func (p *Projector) UpdateStructure(sq nchess.Square, pc piece.Piece, s *structure.Structure) {
	p.setStructure(sq, pc, s)
}

// RestoreSquare puts the original block back and clears the space above.
func (p *Projector) RestoreSquare(sq nchess.Square, original voxel.Block, ok bool) {
	pos := p.board.Pos(sq)
	p.clearAbove(pos, true)
	if !ok {
		p.placeBack(pos)
		return
	}
	if err := p.world.SetBlock(pos, original); err != nil {
		obslog.L().Error("projector_restore_failed", zap.String("pos", pos.String()), zap.Error(err))
	}
}

// StructureAt returns the structure drawn on sq.
func (p *Projector) StructureAt(sq nchess.Square) (Placed, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	v, ok := p.structures[sq]
	return v, ok
}

func (p *Projector) setStructure(sq nchess.Square, pc piece.Piece, s *structure.Structure) {
	p.mu.Lock()
	p.structures[sq] = Placed{Piece: pc, Structure: s}
	p.mu.Unlock()
}

func (p *Projector) setBoardProperty(sq nchess.Square, key, value string) {
	pos := p.board.Pos(sq)
	b := p.world.Block(pos)
	if b.State.Name() != board.BlockName {
		obslog.L().Warn("projector_not_board_block", zap.String("pos", pos.String()), zap.String("state", b.State.String()))
		return
	}
	if v, _ := b.State.Property(key); v == value {
		return
	}
	b.State = b.State.With(key, value)
	if err := p.world.SetBlock(pos, b); err != nil {
		obslog.L().Error("projector_board_update_failed", zap.String("pos", pos.String()), zap.Error(err))
	}
}

func (p *Projector) text(key string, data any) string {
	if p.msgs == nil {
		return key
	}
	return p.msgs.Text(key, data)
}

type nopNotifier struct{}

func (nopNotifier) Actionbar(string, string) {}
func (nopNotifier) Chat(string, string)      {}
func (nopNotifier) Broadcast(string)         {}
func (nopNotifier) PlaySound(Sound)          {}
