package game

import (
	"fmt"
	"sort"
	"strings"
	"time"

	nchess "github.com/corentings/chess/v2"

	"github.com/park285/immersive-chess/internal/board"
	"github.com/park285/immersive-chess/internal/structure"
	"github.com/park285/immersive-chess/internal/voxel"
)

// Record is the persisted shape of a State.
type Record struct {
	Tags              map[string]string      `json:"Tags"`
	Game              string                 `json:"Game"`
	Moves             []string               `json:"Moves"`
	Outcome           string                 `json:"Outcome,omitempty"`
	Method            string                 `json:"Method,omitempty"`
	EndReason         string                 `json:"EndReason,omitempty"`
	Board             board.Board            `json:"Board"`
	Mined             string                 `json:"Mined,omitempty"`
	DrawOfferedBy     string                 `json:"DrawOfferedBy,omitempty"`
	StructuresOfWhite structure.Map          `json:"StructuresOfWhite"`
	StructuresOfBlack structure.Map          `json:"StructuresOfBlack"`
	WhiteRenderOption structure.RenderOption `json:"WhiteRenderOption"`
	BlackRenderOption structure.RenderOption `json:"BlackRenderOption"`
	Originals         map[string]voxel.Block `json:"Originals,omitempty"`
	UpdatedAt         time.Time              `json:"UpdatedAt"`
}

// SaveID mirrors State.SaveID for a stored record.
func (r *Record) SaveID() string {
	date := strings.TrimSpace(r.Tags[TagDate])
	if date == "" {
		date = "unknown"
	}
	return date + "/" + r.Tags[TagGameID]
}

func (r *Record) GameID() string { return r.Tags[TagGameID] }

// Finished reports whether the stored game has a result.
func (r *Record) Finished() bool {
	return r.Outcome != "" && r.Outcome != string(nchess.NoOutcome)
}

func (s *State) Record() *Record {
	rec := &Record{
		Tags:              s.Tags(),
		Game:              s.PGN(),
		Moves:             s.MovesUCI(),
		Outcome:           string(s.game.Outcome()),
		Method:            s.termination(),
		EndReason:         s.endReason,
		Board:             s.board,
		DrawOfferedBy:     ColorName(s.drawOfferedBy),
		StructuresOfWhite: s.StructuresOf(nchess.White),
		StructuresOfBlack: s.StructuresOf(nchess.Black),
		WhiteRenderOption: s.RenderOption(nchess.White),
		BlackRenderOption: s.RenderOption(nchess.Black),
		UpdatedAt:         s.updatedAt,
	}
	if s.hasMined {
		rec.Mined = s.minedSquare.String()
	}
	if len(s.originals) > 0 {
		rec.Originals = make(map[string]voxel.Block, len(s.originals))
		for sq, b := range s.originals {
			rec.Originals[sq.String()] = b
		}
	}
	return rec
}

// FromRecord rebuilds a State by replaying the stored moves.
func FromRecord(rec *Record, proj Projection) (*State, error) {
	if rec == nil || rec.Board.IsZero() {
		return nil, fmt.Errorf("%w: missing board", ErrInvalidRecord)
	}
	s := newState(rec.Board, proj)
	for k, v := range rec.Tags {
		s.setTag(k, v)
	}
	if err := s.replay(rec.Moves); err != nil {
		return nil, err
	}
	if err := s.restoreEnding(rec); err != nil {
		return nil, err
	}
	if rec.Mined != "" {
		sq, err := ParseSquare(rec.Mined)
		if err != nil {
			return nil, fmt.Errorf("%w: mined: %v", ErrInvalidRecord, err)
		}
		s.minedSquare, s.hasMined = sq, true
	}
	s.drawOfferedBy = ParseColor(rec.DrawOfferedBy)
	if rec.StructuresOfWhite != nil {
		s.structures[nchess.White] = rec.StructuresOfWhite
	}
	if rec.StructuresOfBlack != nil {
		s.structures[nchess.Black] = rec.StructuresOfBlack
	}
	s.renderOptions[nchess.White] = rec.WhiteRenderOption
	s.renderOptions[nchess.Black] = rec.BlackRenderOption
	for k, b := range rec.Originals {
		sq, err := ParseSquare(k)
		if err != nil {
			return nil, fmt.Errorf("%w: originals: %v", ErrInvalidRecord, err)
		}
		s.originals[sq] = b
	}
	s.updatedAt = rec.UpdatedAt
	return s, nil
}

func (s *State) restoreEnding(rec *Record) error {
	s.endReason = rec.EndReason
	switch rec.EndReason {
	case "":
		return nil
	case endResignation:
		switch nchess.Outcome(rec.Outcome) {
		case nchess.WhiteWon:
			s.game.Resign(nchess.Black)
		case nchess.BlackWon:
			s.game.Resign(nchess.White)
		default:
			return fmt.Errorf("%w: resignation with outcome %q", ErrInvalidRecord, rec.Outcome)
		}
	case endAgreement:
		if s.game.Outcome() == nchess.NoOutcome {
			if err := s.game.Draw(nchess.DrawOffer); err != nil {
				return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
			}
		}
	default:
		return fmt.Errorf("%w: unknown end reason %q", ErrInvalidRecord, rec.EndReason)
	}
	return nil
}

// ParseSquare reads algebraic square names such as "e4".
func ParseSquare(s string) (nchess.Square, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for sq := nchess.A1; sq <= nchess.H8; sq++ {
		if sq.String() == s {
			return sq, nil
		}
	}
	return 0, fmt.Errorf("invalid square %q", s)
}

// PGN renders the game with its tag pairs and numbered SAN moves.
func (s *State) PGN() string {
	result := string(s.game.Outcome())
	if result == "" {
		result = string(nchess.NoOutcome)
	}
	tags := s.Tags()
	var b strings.Builder
	b.WriteString("[Event \"Immersive Chess\"]\n")
	b.WriteString("[Site \"World\"]\n")
	for _, k := range []string{TagDate, TagWhite, TagBlack, TagGameID} {
		if v, ok := tags[k]; ok {
			b.WriteString(fmt.Sprintf("[%s \"%s\"]\n", k, sanitizePGN(v)))
		}
	}
	var extra []string
	for k := range tags {
		switch k {
		case TagDate, TagWhite, TagBlack, TagGameID, "Event", "Site", "Result", "Termination":
			continue
		}
		extra = append(extra, k)
	}
	sort.Strings(extra)
	for _, k := range extra {
		b.WriteString(fmt.Sprintf("[%s \"%s\"]\n", k, sanitizePGN(tags[k])))
	}
	if term := s.termination(); term != "" {
		b.WriteString(fmt.Sprintf("[Termination \"%s\"]\n", term))
	}
	b.WriteString(fmt.Sprintf("[Result \"%s\"]\n\n", result))

	for i := 0; i < len(s.sans); i += 2 {
		turn := (i / 2) + 1
		b.WriteString(fmt.Sprintf("%d. %s", turn, strings.TrimSpace(s.sans[i])))
		if i+1 < len(s.sans) {
			b.WriteString(" ")
			b.WriteString(strings.TrimSpace(s.sans[i+1]))
		}
		b.WriteString(" ")
	}
	b.WriteString(result)
	return b.String()
}

func (s *State) termination() string {
	switch s.endReason {
	case endResignation:
		return "resignation"
	case endAgreement:
		return "draw agreed"
	}
	switch s.Status() {
	case WinWhite, WinBlack:
		return "checkmate"
	case DrawStalemate:
		return "stalemate"
	case DrawRepetition:
		return "repetition"
	case DrawNoCapture:
		return "fifty move rule"
	case DrawMaterial:
		return "insufficient material"
	}
	return ""
}

func sanitizePGN(s string) string {
	s = strings.ReplaceAll(s, "\\", " ")
	s = strings.ReplaceAll(s, "\"", "'")
	return strings.TrimSpace(s)
}
