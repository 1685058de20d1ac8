package game

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	nchess "github.com/corentings/chess/v2"

	"github.com/park285/immersive-chess/internal/board"
	"github.com/park285/immersive-chess/internal/piece"
	"github.com/park285/immersive-chess/internal/structure"
	"github.com/park285/immersive-chess/internal/voxel"
)

type recorder struct {
	placed   map[nchess.Square]piece.Piece
	broken   []nchess.Square
	mined    map[nchess.Square]piece.Piece
	check    map[nchess.Square]bool
	updated  []nchess.Square
	restored []nchess.Square
	events   []Event
}

func newRecorder() *recorder {
	return &recorder{
		placed: map[nchess.Square]piece.Piece{},
		mined:  map[nchess.Square]piece.Piece{},
		check:  map[nchess.Square]bool{},
	}
}

func (r *recorder) PlacePiece(sq nchess.Square, p piece.Piece, _ *structure.Structure) {
	r.placed[sq] = p
}

func (r *recorder) BreakPiece(sq nchess.Square) {
	r.broken = append(r.broken, sq)
	delete(r.placed, sq)
}

func (r *recorder) SetMinedPiece(sq nchess.Square, p piece.Piece) {
	if p == piece.None {
		delete(r.mined, sq)
		return
	}
	r.mined[sq] = p
}

func (r *recorder) SetInCheck(sq nchess.Square, v bool) { r.check[sq] = v }

func (r *recorder) UpdateStructure(sq nchess.Square, _ piece.Piece, _ *structure.Structure) {
	r.updated = append(r.updated, sq)
}

func (r *recorder) RestoreSquare(sq nchess.Square, _ voxel.Block, ok bool) {
	if ok {
		r.restored = append(r.restored, sq)
	}
}

func (r *recorder) Announce(e Event) { r.events = append(r.events, e) }

func (r *recorder) brokeSquare(sq nchess.Square) bool {
	for _, b := range r.broken {
		if b == sq {
			return true
		}
	}
	return false
}

func newTestState(t *testing.T) (*State, *recorder) {
	t.Helper()
	rec := newRecorder()
	b := board.New(voxel.Pos(0, 64, 0), voxel.East)
	s := CreateWithID(b, rec, "game-1", time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC))
	return s, rec
}

func seated(t *testing.T) (*State, *recorder) {
	t.Helper()
	s, rec := newTestState(t)
	s.SetPlayer(nchess.White, "alice")
	s.SetPlayer(nchess.Black, "bob")
	return s, rec
}

func play(t *testing.T, s *State, moves ...string) {
	t.Helper()
	for _, m := range moves {
		src, err := ParseSquare(m[:2])
		if err != nil {
			t.Fatalf("bad square in %s: %v", m, err)
		}
		dst, err := ParseSquare(m[2:4])
		if err != nil {
			t.Fatalf("bad square in %s: %v", m, err)
		}
		promo := piece.None
		if len(m) == 5 {
			kinds := map[byte]nchess.PieceType{'q': nchess.Queen, 'r': nchess.Rook, 'b': nchess.Bishop, 'n': nchess.Knight}
			promo = piece.Of(kinds[m[4]], s.ColorOnMove())
		}
		if !s.DoMove(src, dst, promo) {
			t.Fatalf("move %s rejected", m)
		}
	}
}

func TestCreateIdentity(t *testing.T) {
	s, _ := newTestState(t)
	if s.SaveID() != "2024.03.09/game-1" {
		t.Fatalf("save id = %s", s.SaveID())
	}
	if s.CurrentMoveIndex() != 1 || s.ColorOnMove() != nchess.White {
		t.Fatalf("fresh game state wrong")
	}
	if !s.IsDirty() {
		t.Fatalf("new game must be dirty")
	}
	if s.Status() != NotFinished {
		t.Fatalf("status = %s", s.Status())
	}
}

func TestSaveIDUnknownDate(t *testing.T) {
	rec := &Record{Tags: map[string]string{TagGameID: "x"}}
	if rec.SaveID() != "unknown/x" {
		t.Fatalf("save id = %s", rec.SaveID())
	}
}

func TestTogglePlayer(t *testing.T) {
	s, rec := newTestState(t)
	if !s.TogglePlayer(nchess.Black, "bob", nil) {
		t.Fatalf("claim failed")
	}
	if s.PlayerName(nchess.Black) != "bob" {
		t.Fatalf("black = %q", s.PlayerName(nchess.Black))
	}
	if s.TogglePlayer(nchess.Black, "carol", nil) {
		t.Fatalf("other player must not take a held seat")
	}
	// white is empty so its pieces were broken, black placed
	if _, ok := rec.placed[nchess.E8]; !ok {
		t.Fatalf("black king not placed")
	}
	if !rec.brokeSquare(nchess.E1) {
		t.Fatalf("white king should be removed while white is empty")
	}
	if !s.TogglePlayer(nchess.Black, "bob", nil) {
		t.Fatalf("release failed")
	}
	if s.PlayerName(nchess.Black) != "" {
		t.Fatalf("seat not released")
	}
	if c, ok := s.ColorOf("bob"); ok {
		t.Fatalf("bob still has colour %v", c)
	}
}

func TestRenderOptions(t *testing.T) {
	s, _ := newTestState(t)
	custom := structure.Map{
		piece.WhiteQueen: &structure.Structure{Size: [3]int{1, 1, 1}, Blocks: []structure.Block{{State: "minecraft:dirt"}}},
		piece.BlackQueen: &structure.Structure{Size: [3]int{1, 1, 1}, Blocks: []structure.Block{{State: "minecraft:stone"}}},
	}
	s.SetPlayerWithStructures(nchess.White, "alice", custom)
	if s.RenderOption(nchess.White) != structure.RenderOwn {
		t.Fatalf("own structures should select RenderOwn")
	}
	black := s.ValidRenderOptions(nchess.Black)
	if len(black) != 2 || black[1] != structure.RenderOpponent {
		t.Fatalf("black options = %v", black)
	}
	if s.SetRenderOption(nchess.Black, structure.RenderOwn) {
		t.Fatalf("black has no own structures yet")
	}
	if !s.SetRenderOption(nchess.Black, structure.RenderOpponent) {
		t.Fatalf("opponent option rejected")
	}
	if s.Structure(piece.BlackQueen) != custom[piece.BlackQueen] {
		t.Fatalf("opponent structure not used")
	}
	if s.Structure(piece.BlackPawn) != structure.Defaults()[piece.BlackPawn] {
		t.Fatalf("missing custom piece should fall back to default")
	}
	s.RemovePlayer(nchess.White)
	if s.RenderOption(nchess.White) != structure.RenderDefault {
		t.Fatalf("render option not reset")
	}
}

func TestMiningRules(t *testing.T) {
	s, rec := newTestState(t)
	s.SetPlayer(nchess.White, "alice")
	if s.CanMinePiece(nchess.E2, "alice") {
		t.Fatalf("cannot mine without both players")
	}
	s.SetPlayer(nchess.Black, "bob")
	if s.CanMinePiece(nchess.E7, "bob") {
		t.Fatalf("black is not on move")
	}
	if s.CanMinePiece(nchess.E2, "bob") {
		t.Fatalf("bob is not the active player")
	}
	if s.CanMinePiece(nchess.E4, "alice") {
		t.Fatalf("empty square")
	}
	if !s.CanMinePiece(nchess.E2, "alice") {
		t.Fatalf("alice should mine e2")
	}
	s.SetMinedSquare(nchess.E2)
	if rec.mined[nchess.E2] != piece.WhitePawn {
		t.Fatalf("mined marker not projected")
	}
	if s.CanMinePiece(nchess.D2, "alice") {
		t.Fatalf("only one piece may be mined")
	}
	s.PerformIntegrityCheck(false)
	if s.HasMinedPiece() {
		t.Fatalf("integrity check should clear the mined square")
	}
	if _, ok := rec.mined[nchess.E2]; ok {
		t.Fatalf("mined marker not cleared")
	}
}

func TestSetMinedSquareAt(t *testing.T) {
	s, _ := seated(t)
	pos := s.Board().Pos(nchess.G1).Up()
	if !s.SetMinedSquareAt(pos) {
		t.Fatalf("SetMinedSquareAt failed")
	}
	if sq, ok := s.MinedSquare(); !ok || sq != nchess.G1 {
		t.Fatalf("mined = %v %v", sq, ok)
	}
	s.ClearMinedSquare()
	if s.SetMinedSquareAt(voxel.Pos(100, 100, 100)) {
		t.Fatalf("outside board accepted")
	}
}

func TestLegalDestinations(t *testing.T) {
	s, _ := seated(t)
	got := s.LegalDestinations(nchess.E2)
	if len(got) != 3 || got[len(got)-1] != nchess.E2 {
		t.Fatalf("e2 destinations = %v", got)
	}
	if d := s.LegalDestinations(nchess.E4); d != nil {
		t.Fatalf("empty square has destinations %v", d)
	}
	if d := s.LegalDestinations(nchess.E7); len(d) != 1 || d[0] != nchess.E7 {
		t.Fatalf("piece off move may only go back: %v", d)
	}
}

func TestDoMoveBasics(t *testing.T) {
	s, _ := seated(t)
	s.SetMinedSquare(nchess.E2)
	if !s.DoMove(nchess.E2, nchess.E2, piece.WhitePawn) {
		t.Fatalf("putting back must succeed")
	}
	if s.HasMinedPiece() || s.CurrentMoveIndex() != 1 {
		t.Fatalf("put back changed the game")
	}
	if s.DoMove(nchess.E2, nchess.E5, piece.WhitePawn) {
		t.Fatalf("illegal move accepted")
	}
	s.Draw("alice")
	play(t, s, "e2e4")
	if s.CurrentMoveIndex() != 2 || s.ColorOnMove() != nchess.Black {
		t.Fatalf("move not applied")
	}
	if s.DrawOfferedTo() != "" {
		t.Fatalf("draw offer should be cleared by a move")
	}
	if got := s.MovesSAN(); len(got) != 1 || got[0] != "e4" {
		t.Fatalf("san = %v", got)
	}
	if got := s.MovesUCI(); got[0] != "e2e4" {
		t.Fatalf("uci = %v", got)
	}
}

func TestCastlingMovesRook(t *testing.T) {
	s, rec := seated(t)
	play(t, s, "e2e4", "e7e5", "g1f3", "b8c6", "f1c4", "g8f6", "e1g1")
	if !rec.brokeSquare(nchess.H1) {
		t.Fatalf("rook not removed from h1")
	}
	if rec.placed[nchess.F1] != piece.WhiteRook {
		t.Fatalf("rook not placed on f1: %v", rec.placed[nchess.F1])
	}
}

func TestEnPassantRemovesPawn(t *testing.T) {
	s, rec := seated(t)
	play(t, s, "e2e4", "a7a6", "e4e5", "d7d5", "e5d6")
	if !rec.brokeSquare(nchess.D5) {
		t.Fatalf("captured pawn on d5 not removed")
	}
	if s.Piece(nchess.D5) != piece.None {
		t.Fatalf("d5 still occupied")
	}
}

func TestPromotionUsesPlacedPiece(t *testing.T) {
	s, _ := seated(t)
	play(t, s, "a2a4", "b7b5", "a4b5", "a7a6", "b5a6", "c8b7", "a6b7", "b8c6")
	if !s.DoMove(nchess.B7, nchess.A8, piece.WhiteKnight) {
		t.Fatalf("promotion rejected")
	}
	if s.Piece(nchess.A8) != piece.WhiteKnight {
		t.Fatalf("a8 = %v", s.Piece(nchess.A8))
	}
	if last := s.MovesUCI()[len(s.MovesUCI())-1]; last != "b7a8n" {
		t.Fatalf("uci = %s", last)
	}
}

func TestCheckmateEndsGame(t *testing.T) {
	s, rec := seated(t)
	play(t, s, "f2f3", "e7e5", "g2g4", "d8h4")
	if s.Status() != WinBlack {
		t.Fatalf("status = %s", s.Status())
	}
	if !rec.check[nchess.E1] {
		t.Fatalf("white king should be marked in check")
	}
	if len(rec.events) == 0 || rec.events[len(rec.events)-1].Kind != EventGameEnded {
		t.Fatalf("game end not announced: %+v", rec.events)
	}
	if s.CanMinePiece(nchess.A2, "alice") {
		t.Fatalf("finished game allows mining")
	}
	if !strings.Contains(s.PGN(), "[Termination \"checkmate\"]") {
		t.Fatalf("pgn termination missing:\n%s", s.PGN())
	}
}

func TestThreefoldRepetitionDraws(t *testing.T) {
	s, _ := seated(t)
	play(t, s, "g1f3", "g8f6", "f3g1", "f6g8", "g1f3", "g8f6", "f3g1", "f6g8")
	if s.Status() != DrawRepetition {
		t.Fatalf("status = %s", s.Status())
	}
}

func TestResign(t *testing.T) {
	s, rec := newTestState(t)
	s.SetPlayer(nchess.White, "alice")
	if s.Resign("alice") {
		t.Fatalf("resign without opponent")
	}
	s.SetPlayer(nchess.Black, "bob")
	if s.Resign("carol") {
		t.Fatalf("non-player resigned")
	}
	if !s.Resign("alice") {
		t.Fatalf("resign failed")
	}
	if s.Status() != WinBlack {
		t.Fatalf("status = %s", s.Status())
	}
	if s.Resign("bob") {
		t.Fatalf("resign after end")
	}
	e := rec.events[len(rec.events)-1]
	if e.Winner() != nchess.Black || e.PlayerName(e.Winner()) != "bob" {
		t.Fatalf("event = %+v", e)
	}
}

func TestDrawOfferAndAccept(t *testing.T) {
	s, rec := seated(t)
	if !s.Draw("alice") {
		t.Fatalf("offer failed")
	}
	if s.DrawOfferedTo() != "bob" {
		t.Fatalf("offered to %q", s.DrawOfferedTo())
	}
	if rec.events[0].Kind != EventDrawOffered || rec.events[0].OfferedBy != nchess.White {
		t.Fatalf("offer not announced: %+v", rec.events)
	}
	if s.Draw("alice") {
		t.Fatalf("offerer cannot accept")
	}
	if !s.Draw("bob") {
		t.Fatalf("accept failed")
	}
	if s.Status() != Draw {
		t.Fatalf("status = %s", s.Status())
	}
}

func TestDrawSamePlayerBothSeats(t *testing.T) {
	s, _ := newTestState(t)
	s.SetPlayer(nchess.White, "solo")
	s.SetPlayer(nchess.Black, "solo")
	if !s.Draw("solo") || !s.Draw("solo") {
		t.Fatalf("solo player should offer then accept")
	}
	if !s.IsFinished() {
		t.Fatalf("game not finished")
	}
}

func TestForceDraw(t *testing.T) {
	s, _ := newTestState(t)
	s.ForceDraw()
	if s.Status() != Draw {
		t.Fatalf("status = %s", s.Status())
	}
	s.ForceDraw()
}

func TestUndoMove(t *testing.T) {
	s, _ := seated(t)
	if s.UndoMove() {
		t.Fatalf("nothing to undo")
	}
	play(t, s, "e2e4", "e7e5")
	if !s.UndoMove() {
		t.Fatalf("undo failed")
	}
	if s.CurrentMoveIndex() != 2 || s.Piece(nchess.E7) != piece.BlackPawn {
		t.Fatalf("undo did not restore position")
	}
	if s.PlayerName(nchess.White) != "alice" || s.GameID() != "game-1" {
		t.Fatalf("tags lost on undo")
	}
}

func TestUndoMoveKeepsPlayerTags(t *testing.T) {
	s, _ := seated(t)
	play(t, s, "e2e4", "e7e5", "g1f3")
	if !s.UndoMove() || !s.UndoMove() {
		t.Fatalf("undo failed")
	}
	tags := s.Tags()
	if tags[TagWhite] != "alice" || tags[TagBlack] != "bob" {
		t.Fatalf("player tags after undo: %v", tags)
	}
	if tags[TagGameID] != "game-1" || tags[TagDate] == "" {
		t.Fatalf("game tags after undo: %v", tags)
	}
	rec := s.Record()
	if rec.Tags[TagWhite] != "alice" || rec.Tags[TagBlack] != "bob" {
		t.Fatalf("record tags after undo: %v", rec.Tags)
	}
	pgn := s.PGN()
	if !strings.Contains(pgn, `[White "alice"]`) || !strings.Contains(pgn, `[Black "bob"]`) {
		t.Fatalf("pgn lost players:\n%s", pgn)
	}

	s.RemovePlayer(nchess.Black)
	play(t, s, "e7e5")
	if !s.UndoMove() {
		t.Fatalf("undo failed")
	}
	if _, ok := s.Tags()[TagBlack]; ok || s.PlayerName(nchess.White) != "alice" {
		t.Fatalf("freed seat came back on undo: %v", s.Tags())
	}
}

func TestRecordRoundTrip(t *testing.T) {
	s, _ := seated(t)
	s.SetStructures(nchess.Black, structure.Map{piece.BlackKing: structure.Defaults()[piece.WhiteKing]})
	play(t, s, "e2e4", "e7e5")
	s.SetMinedSquare(nchess.G1)
	s.SetOriginal(nchess.A1, voxel.Solid("minecraft:black_wool"))
	s.Draw("bob")

	raw, err := json.Marshal(s.Record())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	back, err := FromRecord(&rec, nil)
	if err != nil {
		t.Fatalf("FromRecord: %v", err)
	}
	if back.SaveID() != s.SaveID() || back.FEN() != s.FEN() {
		t.Fatalf("identity or position lost")
	}
	if sq, ok := back.MinedSquare(); !ok || sq != nchess.G1 {
		t.Fatalf("mined lost")
	}
	if back.DrawOfferedTo() != "alice" {
		t.Fatalf("draw offer lost")
	}
	if back.RenderOption(nchess.Black) != structure.RenderOwn {
		t.Fatalf("black render option = %s", back.RenderOption(nchess.Black))
	}
	if back.Structure(piece.BlackKing) == nil {
		t.Fatalf("black king structure lost")
	}
	if _, ok := back.Original(nchess.A1); !ok {
		t.Fatalf("originals lost")
	}
	if back.Board() != s.Board() {
		t.Fatalf("board lost")
	}
}

func TestRecordRestoresResignation(t *testing.T) {
	s, _ := seated(t)
	play(t, s, "d2d4")
	s.Resign("bob")
	back, err := FromRecord(s.Record(), nil)
	if err != nil {
		t.Fatalf("FromRecord: %v", err)
	}
	if back.Status() != WinWhite {
		t.Fatalf("status = %s", back.Status())
	}
	if !back.Record().Finished() {
		t.Fatalf("record should be finished")
	}
}

func TestFromRecordRejectsBadMoves(t *testing.T) {
	rec := &Record{Board: board.New(voxel.Pos(0, 0, 0), voxel.North), Moves: []string{"e2e5"}}
	if _, err := FromRecord(rec, nil); err == nil {
		t.Fatalf("expected error for illegal move")
	}
	if _, err := FromRecord(&Record{}, nil); err == nil {
		t.Fatalf("expected error for missing board")
	}
}

func TestPGN(t *testing.T) {
	s, _ := seated(t)
	play(t, s, "e2e4", "e7e5", "g1f3")
	pgn := s.PGN()
	for _, want := range []string{"[White \"alice\"]", "[Black \"bob\"]", "[Date \"2024.03.09\"]", "[GameId \"game-1\"]", "1. e4 e5 2. Nf3 *"} {
		if !strings.Contains(pgn, want) {
			t.Fatalf("pgn missing %q:\n%s", want, pgn)
		}
	}
}

func TestEndBoardBlocks(t *testing.T) {
	s, rec := newTestState(t)
	s.SetOriginal(nchess.A1, voxel.Solid("minecraft:stone"))
	s.EndBoardBlocks()
	if len(rec.restored) != 1 || rec.restored[0] != nchess.A1 {
		t.Fatalf("restored = %v", rec.restored)
	}
}
