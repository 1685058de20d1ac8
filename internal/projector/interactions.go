package projector

import (
	"errors"

	nchess "github.com/corentings/chess/v2"
	"go.uber.org/zap"

	"github.com/park285/immersive-chess/internal/board"
	"github.com/park285/immersive-chess/internal/game"
	"github.com/park285/immersive-chess/internal/luminance"
	"github.com/park285/immersive-chess/internal/obslog"
	"github.com/park285/immersive-chess/internal/piece"
	"github.com/park285/immersive-chess/internal/structure"
	"github.com/park285/immersive-chess/internal/voxel"
)

// Player identifies who triggered an interaction.
type Player struct {
	Name     string `json:"name"`
	Operator bool   `json:"operator,omitempty"`
}

// Inventory moves piece items in and out of player inventories.
type Inventory interface {
	GiveItems(player string, items []PieceItem)
	TakeItem(player string, item PieceItem)
	DiscardSlot(player string, slot int)
	DropSlot(player string, slot int)
}

// Interactions turns player actions in the world into game intents.
type Interactions struct {
	world     voxel.World
	notify    Notifier
	inventory Inventory
	msgs      Messages
	mapper    *luminance.Mapper
}

func NewInteractions(w voxel.World, n Notifier, inv Inventory, msgs Messages, mapper *luminance.Mapper) *Interactions {
	if n == nil {
		n = nopNotifier{}
	}
	return &Interactions{world: w, notify: n, inventory: inv, msgs: msgs, mapper: mapper}
}

// Projector returns a projector for b over the interaction's world.
func (in *Interactions) Projector(b board.Board) *Projector {
	return New(in.world, b, in.notify, in.msgs)
}

// Attach binds st to a projector over the interaction's world.
func (in *Interactions) Attach(st *game.State) *Projector {
	p := in.Projector(st.Board())
	st.SetProjection(p)
	return p
}

func (in *Interactions) actionbar(player, key string) {
	text := key
	if in.msgs != nil {
		text = in.msgs.Text(key, nil)
	}
	in.notify.Actionbar(player, text)
}

// UseCase handles the chess case used on pos. st is the game owning the
// board block at pos, if any. It returns the game now bound to the board.
func (in *Interactions) UseCase(st *game.State, player Player, pos voxel.BlockPos, structures structure.Map) (*game.State, bool) {
	if st == nil || !IsBoardBlock(in.world.Block(pos)) {
		return in.initializeBoard(nil, player, pos, structures)
	}
	if st.IsFinished() {
		return in.initializeBoard(st, player, pos, structures)
	}
	if st.CurrentMoveIndex() > 1 {
		in.actionbar(player.Name, "game_in_progress")
		return st, false
	}
	side, ok := st.Board().SideOfPos(pos)
	if !ok {
		return st, false
	}
	return st, st.TogglePlayer(side, player.Name, structures)
}

func (in *Interactions) initializeBoard(prev *game.State, player Player, pos voxel.BlockPos, structures structure.Map) (*game.State, bool) {
	b, err := board.Recognize(in.world, player.Name, pos, in.mapper)
	if err != nil {
		level := obslog.L().Info
		if errors.Is(err, board.ErrBoardAccess) {
			level = obslog.L().Warn
		}
		level("board_invalid", zap.String("player", player.Name), zap.String("pos", pos.String()), zap.Error(err))
		in.actionbar(player.Name, "invalid_board")
		return prev, false
	}

	proj := in.Projector(b)
	st := game.Create(b, proj)
	proj.ConvertBoard(st, prev)
	st.SetPlayerWithStructures(nchess.Black, player.Name, structures)
	in.actionbar(player.Name, "valid_board")
	return st, true
}

// BreakStart handles a player starting to break the piece block at pos. A
// held item that may move onto the square captures; otherwise the piece is
// mined when the rules allow it.
func (in *Interactions) BreakStart(st *game.State, player Player, pos voxel.BlockPos, held *PieceItem) bool {
	if st == nil {
		if err := in.world.BreakBlock(pos, false); err != nil {
			obslog.L().Error("interaction_break_failed", zap.String("pos", pos.String()), zap.Error(err))
			return false
		}
		return true
	}
	sq, ok := st.Board().Square(pos.Down())
	if !ok {
		return false
	}

	if held != nil && held.SaveID == st.SaveID() && held.CanGoTo(sq) {
		if in.Place(st, player, pos, *held) {
			return true
		}
	}

	if !st.CanMinePiece(sq, player.Name) {
		return false
	}
	loot := MineLoot(st, sq)
	if in.inventory != nil {
		in.inventory.GiveItems(player.Name, loot)
	}
	if err := in.world.BreakBlock(pos, false); err != nil {
		obslog.L().Error("interaction_mine_failed", zap.String("pos", pos.String()), zap.Error(err))
	}
	st.SetMinedSquareAt(pos)
	obslog.L().Info("piece_mined", zap.String("save_id", st.SaveID()), zap.String("player", player.Name), zap.String("square", sq.String()), zap.Int("loot", len(loot)))
	return true
}

// Place puts item on top of the board square below pos and plays the move.
func (in *Interactions) Place(st *game.State, player Player, pos voxel.BlockPos, item PieceItem) bool {
	if st == nil || item.SaveID != st.SaveID() {
		return false
	}
	sq, ok := st.Board().Square(pos.Down())
	if !ok {
		return false
	}
	if !player.Operator && !item.CanGoTo(sq) {
		return false
	}
	if !in.canReplace(pos, item.Piece) {
		return false
	}
	if !st.DoMove(item.Source, sq, item.Piece) {
		return false
	}
	if placed := st.Piece(sq); placed != piece.None {
		st.Projection().PlacePiece(sq, placed, st.Structure(placed))
	}
	if in.inventory != nil {
		in.inventory.TakeItem(player.Name, item)
	}
	in.notify.PlaySound(Sound{Name: SoundPlacement, Pos: pos, Volume: 1, Pitch: 0.8})
	return true
}

// canReplace allows placing onto air or onto a piece of the other colour.
func (in *Interactions) canReplace(pos voxel.BlockPos, p piece.Piece) bool {
	b := in.world.Block(pos)
	if b.IsAir() {
		return true
	}
	there, _, ok := piece.FromBlockState(b.State)
	return ok && there.Color() != p.Color()
}

// UseBoard runs the integrity check before the board screen opens. A board
// block without a game is reverted.
func (in *Interactions) UseBoard(st *game.State, player Player, pos voxel.BlockPos, activeHoldsPiece bool) bool {
	if st == nil {
		obslog.L().Error("board_without_game", zap.String("player", player.Name), zap.String("pos", pos.String()))
		if b, err := board.Recognize(in.world, player.Name, pos, in.mapper); err == nil {
			p := in.Projector(b)
			for _, sqPos := range b.Squares() {
				p.clearAbove(sqPos, true)
				p.placeBack(sqPos)
			}
		} else {
			in.Projector(board.Board{}).placeBack(pos)
		}
		return false
	}
	st.PerformIntegrityCheck(activeHoldsPiece)
	return true
}

// TickAction is what happens to a piece item during an inventory check.
type TickAction int

const (
	TickKeep TickAction = iota
	TickDiscard
	TickDrop
)

func (a TickAction) String() string {
	switch a {
	case TickDiscard:
		return "discard"
	case TickDrop:
		return "drop"
	}
	return "keep"
}

// InventoryTick checks a held piece item. Items of unknown or finished
// games, or of another move, are discarded; items held by a player who is
// not on move are dropped. Operators keep everything.
func (in *Interactions) InventoryTick(st *game.State, player Player, item PieceItem) TickAction {
	action := tickAction(st, player, item)
	if in.inventory != nil {
		switch action {
		case TickDiscard:
			in.inventory.DiscardSlot(player.Name, item.Slot)
		case TickDrop:
			in.inventory.DropSlot(player.Name, item.Slot)
		}
	}
	return action
}

func tickAction(st *game.State, player Player, item PieceItem) TickAction {
	if player.Operator {
		return TickKeep
	}
	if st == nil || item.SaveID == "" || item.SaveID != st.SaveID() || item.MoveIndex == 0 {
		return TickDiscard
	}
	if st.IsFinished() {
		return TickDiscard
	}
	if !st.HasMinedPiece() || item.MoveIndex != st.CurrentMoveIndex() {
		return TickDiscard
	}
	if !st.IsPlayerOnMove(player.Name) {
		return TickDrop
	}
	return TickKeep
}
