package game

import (
	"fmt"

	nchess "github.com/corentings/chess/v2"
	"go.uber.org/zap"

	"github.com/park285/immersive-chess/internal/obslog"
	"github.com/park285/immersive-chess/internal/piece"
	"github.com/park285/immersive-chess/internal/voxel"
)

// PerformIntegrityCheck returns a lifted piece to its square once the
// active player no longer carries a piece item, then syncs the world.
func (s *State) PerformIntegrityCheck(activeHoldsPiece bool) {
	if s.hasMined && s.ActivePlayerName() != "" && !activeHoldsPiece {
		obslog.L().Info("game_integrity_restore", zap.String("save_id", s.SaveID()), zap.String("square", s.minedSquare.String()))
		s.ClearMinedSquare()
	}
	s.PlacePieces()
}

// PlacePieces projects the logical position onto the world. Pieces of an
// absent player are removed; the lifted square is left alone.
func (s *State) PlacePieces() {
	b := s.game.Position().Board()
	for sq := nchess.A1; sq <= nchess.H8; sq++ {
		np := b.Piece(sq)
		if np == nchess.NoPiece {
			continue
		}
		if s.hasMined && sq == s.minedSquare {
			continue
		}
		if s.PlayerName(np.Color()) == "" {
			s.proj.BreakPiece(sq)
			continue
		}
		s.placePiece(sq, piece.FromNChess(np))
	}
}

// CanMinePiece reports whether name may lift the piece on sq.
func (s *State) CanMinePiece(sq nchess.Square, name string) bool {
	if s.hasMined || !s.HasBothPlayers() || s.IsFinished() {
		return false
	}
	p := s.Piece(sq)
	if p == piece.None || p.Color() != s.ColorOnMove() {
		return false
	}
	return s.IsPlayerOnMove(name)
}

func (s *State) SetMinedSquare(sq nchess.Square) {
	if s.hasMined {
		obslog.L().Error("game_mined_twice", zap.String("save_id", s.SaveID()), zap.String("square", sq.String()))
	}
	s.minedSquare = sq
	s.hasMined = true
	s.markDirty()
	s.proj.SetMinedPiece(sq, s.Piece(sq))
}

// SetMinedSquareAt marks the square under a piece block position.
func (s *State) SetMinedSquareAt(pos voxel.BlockPos) bool {
	sq, ok := s.board.Square(pos.Down())
	if !ok {
		obslog.L().Error("game_mined_outside_board", zap.String("save_id", s.SaveID()), zap.String("pos", pos.String()))
		return false
	}
	s.SetMinedSquare(sq)
	return true
}

func (s *State) ClearMinedSquare() {
	if s.hasMined {
		s.proj.SetMinedPiece(s.minedSquare, piece.None)
	}
	s.hasMined = false
	s.minedSquare = 0
	s.markDirty()
}

// LegalDestinations lists the squares the piece on sq may be put on,
// including sq itself. It is empty when sq holds no piece.
func (s *State) LegalDestinations(sq nchess.Square) []nchess.Square {
	if s.Piece(sq) == piece.None {
		return nil
	}
	var out []nchess.Square
	seen := map[nchess.Square]bool{}
	for _, mv := range s.game.ValidMoves() {
		if mv.S1() != sq || seen[mv.S2()] {
			continue
		}
		seen[mv.S2()] = true
		out = append(out, mv.S2())
	}
	return append(out, sq)
}

// DoMove plays the piece lifted from src onto dst. promotion is the piece
// put down, which decides the promotion of a pawn. Putting a piece back on
// its own square only clears the lifted state.
func (s *State) DoMove(src, dst nchess.Square, promotion piece.Piece) bool {
	if src == dst {
		s.ClearMinedSquare()
		return true
	}

	mv, ok := s.findMove(src, dst, promotion)
	if !ok {
		obslog.L().Error("game_move_not_found", zap.String("save_id", s.SaveID()), zap.String("from", src.String()), zap.String("to", dst.String()))
		return false
	}

	mover := s.ColorOnMove()
	prevKing, hadKing := s.kingSquare(mover)
	if err := s.applyMove(mv); err != nil {
		obslog.L().Error("game_move_failed", zap.String("save_id", s.SaveID()), zap.String("move", mv.String()), zap.Error(err))
		return false
	}

	switch {
	case mv.HasTag(nchess.KingSideCastle):
		s.ExecuteDisplacement(nchess.NewSquare(nchess.FileH, src.Rank()), squarePtr(nchess.NewSquare(nchess.FileF, src.Rank())), piece.Of(nchess.Rook, mover))
	case mv.HasTag(nchess.QueenSideCastle):
		s.ExecuteDisplacement(nchess.NewSquare(nchess.FileA, src.Rank()), squarePtr(nchess.NewSquare(nchess.FileD, src.Rank())), piece.Of(nchess.Rook, mover))
	}
	if mv.HasTag(nchess.EnPassant) {
		s.ExecuteDisplacement(nchess.NewSquare(dst.File(), src.Rank()), nil, piece.None)
	}

	onMove := s.ColorOnMove()
	if king, ok := s.kingSquare(onMove); ok {
		s.proj.SetInCheck(king, mv.HasTag(nchess.Check) || s.game.Method() == nchess.Checkmate)
	}
	if s.IsFinished() {
		s.onGameEnded()
	} else if hadKing {
		s.proj.SetInCheck(prevKing, false)
	}

	s.updatePieceStructure(dst)
	s.ClearMinedSquare()
	s.drawOfferedBy = nchess.NoColor
	s.markDirty()

	obslog.L().Info("game_move",
		zap.String("save_id", s.SaveID()),
		zap.String("uci", s.ucis[len(s.ucis)-1]),
		zap.String("san", s.sans[len(s.sans)-1]),
		zap.String("status", s.Status().String()),
	)
	return true
}

// ExecuteDisplacement moves a piece block outside of the player's own
// hand, as for the rook of a castle. A nil destination removes the piece.
func (s *State) ExecuteDisplacement(from nchess.Square, to *nchess.Square, p piece.Piece) {
	s.proj.BreakPiece(from)
	if to != nil && p != piece.None {
		s.placePiece(*to, p)
	}
}

// UndoMove takes back the last half move by replaying the rest. Any
// resignation or agreed draw is discarded.
func (s *State) UndoMove() bool {
	if len(s.ucis) == 0 {
		return false
	}
	replay := s.ucis[:len(s.ucis)-1]
	g := nchess.NewGame()
	for k, v := range s.tags {
		g.AddTagPair(k, v)
	}
	prevGame, prevSAN, prevUCI, prevEnd := s.game, s.sans, s.ucis, s.endReason
	s.game, s.sans, s.ucis, s.endReason = g, nil, nil, ""
	if err := s.replay(replay); err != nil {
		s.game, s.sans, s.ucis, s.endReason = prevGame, prevSAN, prevUCI, prevEnd
		obslog.L().Error("game_undo_failed", zap.String("save_id", s.SaveID()), zap.Error(err))
		return false
	}
	s.drawOfferedBy = nchess.NoColor
	s.markDirty()
	return true
}

func (s *State) placePiece(sq nchess.Square, p piece.Piece) {
	s.proj.PlacePiece(sq, p, s.Structure(p))
}

func (s *State) findMove(src, dst nchess.Square, promotion piece.Piece) (*nchess.Move, bool) {
	want := promotion.Type()
	switch want {
	case nchess.Queen, nchess.Rook, nchess.Bishop, nchess.Knight:
	default:
		want = nchess.Queen
	}
	for _, mv := range s.game.ValidMoves() {
		if mv.S1() != src || mv.S2() != dst {
			continue
		}
		if mv.Promo() != nchess.NoPieceType && mv.Promo() != want {
			continue
		}
		m := mv
		return &m, true
	}
	return nil, false
}

// applyMove records notation and ends the game on claimable draws, since
// nobody at a physical board can claim them.
func (s *State) applyMove(mv *nchess.Move) error {
	pos := s.game.Position()
	san := nchess.AlgebraicNotation{}.Encode(pos, mv)
	uci := nchess.UCINotation{}.Encode(pos, mv)
	if err := s.game.Move(mv, nil); err != nil {
		return fmt.Errorf("%w: %v", ErrIllegalMove, err)
	}
	s.sans = append(s.sans, san)
	s.ucis = append(s.ucis, uci)
	if s.game.Outcome() == nchess.NoOutcome {
		for _, m := range s.game.EligibleDraws() {
			if m == nchess.ThreefoldRepetition || m == nchess.FiftyMoveRule {
				_ = s.game.Draw(m)
				break
			}
		}
	}
	return nil
}

func (s *State) replay(ucis []string) error {
	for i, raw := range ucis {
		decoded, err := nchess.UCINotation{}.Decode(s.game.Position(), raw)
		if err != nil {
			return fmt.Errorf("%w: move %d %q: %v", ErrInvalidRecord, i+1, raw, err)
		}
		mv, ok := s.matchValid(decoded.S1(), decoded.S2(), decoded.Promo())
		if !ok {
			return fmt.Errorf("%w: move %d %q is illegal", ErrInvalidRecord, i+1, raw)
		}
		if err := s.applyMove(mv); err != nil {
			return err
		}
	}
	return nil
}

func (s *State) matchValid(src, dst nchess.Square, promo nchess.PieceType) (*nchess.Move, bool) {
	for _, mv := range s.game.ValidMoves() {
		if mv.S1() == src && mv.S2() == dst && mv.Promo() == promo {
			m := mv
			return &m, true
		}
	}
	return nil, false
}

func (s *State) kingSquare(c nchess.Color) (nchess.Square, bool) {
	b := s.game.Position().Board()
	for sq := nchess.A1; sq <= nchess.H8; sq++ {
		np := b.Piece(sq)
		if np.Type() == nchess.King && np.Color() == c {
			return sq, true
		}
	}
	return 0, false
}

func squarePtr(sq nchess.Square) *nchess.Square { return &sq }
