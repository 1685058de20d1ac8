package game

import (
	"strings"
	"time"

	nchess "github.com/corentings/chess/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/park285/immersive-chess/internal/board"
	"github.com/park285/immersive-chess/internal/obslog"
	"github.com/park285/immersive-chess/internal/piece"
	"github.com/park285/immersive-chess/internal/structure"
	"github.com/park285/immersive-chess/internal/voxel"
)

// PGN tag keys
const (
	TagGameID = "GameId"
	TagDate   = "Date"
	TagWhite  = "White"
	TagBlack  = "Black"
)

// Location prefixes every save id in durable storage.
const Location = "games/"

const dateLayout = "2006.01.02"

// State is the persistent chess game bound to one board in the world.
type State struct {
	game  *nchess.Game
	board board.Board

	// tags mirrors the PGN tag pairs so they survive a rebuilt game.
	tags map[string]string

	minedSquare nchess.Square
	hasMined    bool

	// structures holds both colour sets for each player.
	structures    map[nchess.Color]structure.Map
	renderOptions map[nchess.Color]structure.RenderOption
	drawOfferedBy nchess.Color

	originals map[nchess.Square]voxel.Block

	sans      []string
	ucis      []string
	endReason string

	proj      Projection
	dirty     bool
	updatedAt time.Time
}

// Create starts a new game on b with a fresh id dated today.
func Create(b board.Board, proj Projection) *State {
	return CreateWithID(b, proj, uuid.NewString(), time.Now())
}

func CreateWithID(b board.Board, proj Projection, gameID string, date time.Time) *State {
	s := newState(b, proj)
	s.setTag(TagGameID, gameID)
	s.setTag(TagDate, date.Format(dateLayout))
	s.markDirty()
	obslog.L().Info("game_created", zap.String("save_id", s.SaveID()), zap.String("board", b.String()))
	return s
}

func newState(b board.Board, proj Projection) *State {
	if proj == nil {
		proj = nopProjection{}
	}
	return &State{
		game:          nchess.NewGame(),
		board:         b,
		tags:          map[string]string{},
		structures:    map[nchess.Color]structure.Map{},
		renderOptions: structure.DefaultRenderOptions(),
		drawOfferedBy: nchess.NoColor,
		originals:     map[nchess.Square]voxel.Block{},
		proj:          proj,
	}
}

// SetProjection swaps the world the state projects onto.
func (s *State) SetProjection(p Projection) {
	if p == nil {
		p = nopProjection{}
	}
	s.proj = p
}

func (s *State) Projection() Projection { return s.proj }

func (s *State) GameID() string { return s.tags[TagGameID] }

// SaveID is "<date>/<game id>"; the date defaults to "unknown".
func (s *State) SaveID() string {
	date := strings.TrimSpace(s.tags[TagDate])
	if date == "" {
		date = "unknown"
	}
	return date + "/" + s.GameID()
}

func (s *State) Board() board.Board { return s.board }

func (s *State) WhitePlayDirection() voxel.Direction { return s.board.WhitePlayDirection() }

func (s *State) IsDirty() bool { return s.dirty }

// MarkSaved clears the dirty flag after a successful save.
func (s *State) MarkSaved() { s.dirty = false }

func (s *State) UpdatedAt() time.Time { return s.updatedAt }

func (s *State) markDirty() {
	s.dirty = true
	s.updatedAt = time.Now()
}

func (s *State) setTag(k, v string) {
	s.tags[k] = v
	s.game.AddTagPair(k, v)
}

func (s *State) removeTag(k string) {
	delete(s.tags, k)
	s.game.RemoveTagPair(k)
}

func tagOf(c nchess.Color) string {
	if c == nchess.White {
		return TagWhite
	}
	return TagBlack
}

func (s *State) setPlayerName(c nchess.Color, name string) {
	if strings.TrimSpace(name) != "" {
		s.setTag(tagOf(c), name)
	} else {
		s.removeTag(tagOf(c))
	}
	s.markDirty()
}

func (s *State) SetPlayer(c nchess.Color, name string) {
	s.setPlayerName(c, name)
	obslog.L().Info("game_player_joined", zap.String("save_id", s.SaveID()), zap.String("color", ColorName(c)), zap.String("player", name))
}

func (s *State) SetPlayerWithStructures(c nchess.Color, name string, structures structure.Map) {
	s.SetPlayer(c, name)
	s.SetStructures(c, structures)
}

// RemovePlayer frees the seat and takes that colour's pieces off the board.
func (s *State) RemovePlayer(c nchess.Color) {
	s.setPlayerName(c, "")
	delete(s.structures, c)
	s.SetRenderOption(c, structure.RenderDefault)
	s.PlacePieces()
}

// TogglePlayer claims an empty seat or releases the seat held by name.
func (s *State) TogglePlayer(c nchess.Color, name string, structures structure.Map) bool {
	current := s.PlayerName(c)
	if current == "" {
		s.SetPlayerWithStructures(c, name, structures)
		return true
	}
	if current == name {
		s.RemovePlayer(c)
		return true
	}
	return false
}

// PlayerName returns "" when the seat is empty.
func (s *State) PlayerName(c nchess.Color) string {
	return strings.TrimSpace(s.tags[tagOf(c)])
}

func (s *State) HasBothPlayers() bool {
	return s.PlayerName(nchess.White) != "" && s.PlayerName(nchess.Black) != ""
}

// ColorOf returns the seat held by name, checking white first.
func (s *State) ColorOf(name string) (nchess.Color, bool) {
	for _, c := range []nchess.Color{nchess.White, nchess.Black} {
		if name != "" && s.PlayerName(c) == name {
			return c, true
		}
	}
	return nchess.NoColor, false
}

func (s *State) ColorOnMove() nchess.Color { return s.game.Position().Turn() }

// CurrentMoveIndex is the number of played half moves plus one.
func (s *State) CurrentMoveIndex() int { return len(s.ucis) + 1 }

func (s *State) ActivePlayerName() string { return s.PlayerName(s.ColorOnMove()) }

func (s *State) IsPlayerOnMove(name string) bool {
	active := s.ActivePlayerName()
	return active != "" && active == name
}

func (s *State) Piece(sq nchess.Square) piece.Piece {
	return piece.FromNChess(s.game.Position().Board().Piece(sq))
}

func (s *State) HasMinedPiece() bool { return s.hasMined }

// MinedSquare returns the lifted square, if any.
func (s *State) MinedSquare() (nchess.Square, bool) { return s.minedSquare, s.hasMined }

func (s *State) Status() Status { return statusOf(s.game) }

func (s *State) IsFinished() bool { return s.Status().IsFinished() }

func (s *State) FEN() string { return s.game.FEN() }

// MovesSAN returns the played moves in standard algebraic notation.
func (s *State) MovesSAN() []string { return append([]string(nil), s.sans...) }

func (s *State) MovesUCI() []string { return append([]string(nil), s.ucis...) }

func (s *State) Tags() map[string]string {
	out := map[string]string{}
	for k, v := range s.tags {
		out[k] = v
	}
	return out
}

// SetOriginal remembers the world block a board square replaced.
func (s *State) SetOriginal(sq nchess.Square, b voxel.Block) {
	s.originals[sq] = b
	s.markDirty()
}

func (s *State) Original(sq nchess.Square) (voxel.Block, bool) {
	b, ok := s.originals[sq]
	return b, ok
}

func (s *State) ClearOriginals() {
	s.originals = map[nchess.Square]voxel.Block{}
	s.markDirty()
}

// EndBoardBlocks puts the original world blocks back.
func (s *State) EndBoardBlocks() {
	for sq := nchess.A1; sq <= nchess.H8; sq++ {
		b, ok := s.originals[sq]
		s.proj.RestoreSquare(sq, b, ok)
	}
	obslog.L().Info("game_board_ended", zap.String("save_id", s.SaveID()))
}
