package game

import nchess "github.com/corentings/chess/v2"

// Status is the typed game result shown on the board screen.
type Status int

const (
	NotFinished Status = iota
	WinWhite
	WinBlack
	Draw
	DrawStalemate
	DrawRepetition
	DrawNoCapture
	DrawMaterial
)

var statusNames = [...]string{
	"NOT_FINISHED", "WIN_WHITE", "WIN_BLACK", "DRAW",
	"DRAW_STALEMATE", "DRAW_REPETITION", "DRAW_NOCAPTURE", "DRAW_MATERIAL",
}

func (s Status) String() string {
	if int(s) >= 0 && int(s) < len(statusNames) {
		return statusNames[s]
	}
	return "UNKNOWN"
}

func (s Status) IsFinished() bool { return s != NotFinished }

func (s Status) IsDraw() bool { return s >= Draw }

func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func statusOf(g *nchess.Game) Status {
	switch g.Outcome() {
	case nchess.WhiteWon:
		return WinWhite
	case nchess.BlackWon:
		return WinBlack
	case nchess.Draw:
		switch g.Method() {
		case nchess.Stalemate:
			return DrawStalemate
		case nchess.ThreefoldRepetition, nchess.FivefoldRepetition:
			return DrawRepetition
		case nchess.FiftyMoveRule, nchess.SeventyFiveMoveRule:
			return DrawNoCapture
		case nchess.InsufficientMaterial:
			return DrawMaterial
		default:
			return Draw
		}
	}
	return NotFinished
}

func opposite(c nchess.Color) nchess.Color {
	switch c {
	case nchess.White:
		return nchess.Black
	case nchess.Black:
		return nchess.White
	}
	return nchess.NoColor
}

// ColorName is the persisted form of a colour.
func ColorName(c nchess.Color) string {
	switch c {
	case nchess.White:
		return "WHITE"
	case nchess.Black:
		return "BLACK"
	}
	return ""
}

func ParseColor(s string) nchess.Color {
	switch s {
	case "WHITE", "white", "w":
		return nchess.White
	case "BLACK", "black", "b":
		return nchess.Black
	}
	return nchess.NoColor
}
