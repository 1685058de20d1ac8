package projector

import (
	nchess "github.com/corentings/chess/v2"
	"go.uber.org/zap"

	"github.com/park285/immersive-chess/internal/board"
	"github.com/park285/immersive-chess/internal/game"
	"github.com/park285/immersive-chess/internal/obslog"
	"github.com/park285/immersive-chess/internal/piece"
	"github.com/park285/immersive-chess/internal/voxel"
)

// BoardBlock builds the board block of a square that keeps looking like
// appearance.
func BoardBlock(c nchess.Color, appearance voxel.BlockState) voxel.Block {
	color := "black"
	if c == nchess.White {
		color = "white"
	}
	st := voxel.BlockState(board.BlockName).
		With(PropColor, color).
		With(PropCheck, "false").
		With(PropGhost, ghostNone)
	return voxel.Block{State: st, Appearance: appearance, FullCube: true, BlockEntity: true}
}

// IsBoardBlock reports whether b is a converted board square.
func IsBoardBlock(b voxel.Block) bool { return b.State.Name() == board.BlockName }

// ConvertBoard turns every square of st's board into a board block and puts
// the pieces on it. Squares already converted by prev keep prev's originals.
func (p *Projector) ConvertBoard(st *game.State, prev *game.State) {
	for sq := nchess.A1; sq <= nchess.H8; sq++ {
		pos := p.board.Pos(sq)
		current := p.world.Block(pos)
		original := current
		if IsBoardBlock(current) {
			if prev != nil {
				if b, ok := prev.Original(sq); ok {
					original = b
				} else {
					original = voxel.Solid(current.Looks())
				}
			} else {
				original = voxel.Solid(current.Looks())
			}
		}
		st.SetOriginal(sq, original)

		c, _ := p.board.ColorOfPos(pos)
		if err := p.world.SetBlock(pos, BoardBlock(c, original.Looks())); err != nil {
			obslog.L().Error("projector_convert_failed", zap.String("pos", pos.String()), zap.Error(err))
			continue
		}
		p.clearAbove(pos, true)
	}
	obslog.L().Info("board_converted", zap.String("save_id", st.SaveID()), zap.String("board", p.board.String()))
	st.PlacePieces()
}

// RestoreBoard gives the board squares back to the world.
func (p *Projector) RestoreBoard(st *game.State) {
	st.EndBoardBlocks()
	st.ClearOriginals()
	p.mu.Lock()
	clear(p.structures)
	p.mu.Unlock()
}

// placeBack reverts a board block without a recorded original to the block
// it looks like.
func (p *Projector) placeBack(pos voxel.BlockPos) {
	b := p.world.Block(pos)
	if !IsBoardBlock(b) {
		return
	}
	if err := p.world.SetBlock(pos, voxel.Solid(b.Looks())); err != nil {
		obslog.L().Error("projector_place_back_failed", zap.String("pos", pos.String()), zap.Error(err))
	}
}

// clearAbove breaks the block on top of a square. Unless all is set, piece
// blocks are left standing.
func (p *Projector) clearAbove(pos voxel.BlockPos, all bool) {
	above := pos.Up()
	b := p.world.Block(above)
	if b.IsAir() {
		return
	}
	_, _, isPiece := piece.FromBlockState(b.State)
	if isPiece && !all {
		return
	}
	// pieces have no loot outside of a running game
	if err := p.world.BreakBlock(above, !isPiece); err != nil {
		obslog.L().Error("projector_clear_above_failed", zap.String("pos", above.String()), zap.Error(err))
	}
}
