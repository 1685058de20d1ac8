package chesspresenter

import (
	"strings"

	nchess "github.com/corentings/chess/v2"

	"github.com/park285/immersive-chess/internal/game"
	"github.com/park285/immersive-chess/internal/structure"
)

// Messages renders catalog templates by key.
type Messages interface {
	Text(key string, data any) string
}

// Formatter renders the board screen texts from the message catalog.
type Formatter struct {
	msgs Messages
}

func NewFormatter(msgs Messages) *Formatter {
	return &Formatter{msgs: msgs}
}

func (f *Formatter) text(key string, data any) string {
	if f == nil || f.msgs == nil {
		return key
	}
	return f.msgs.Text(key, data)
}

func (f *Formatter) seat(name string) string {
	if strings.TrimSpace(name) == "" {
		return f.text("screen.empty_seat", nil)
	}
	return name
}

// Title is "<white> vs <black>", or the generic title when nobody is seated.
func (f *Formatter) Title(white, black string) string {
	if white == "" && black == "" {
		return f.text("screen.title", nil)
	}
	return f.text("screen.versus", map[string]string{"White": f.seat(white), "Black": f.seat(black)})
}

func (f *Formatter) OnMove(st *game.State) string {
	if !st.HasBothPlayers() {
		return f.text("screen.waiting", nil)
	}
	c := st.ColorOnMove()
	return f.text("screen.on_move", map[string]string{"Player": st.PlayerName(c), "Color": colorLabel(c)})
}

func (f *Formatter) Status(s game.Status) string {
	return f.text("screen.status."+strings.ToLower(s.String()), nil)
}

func (f *Formatter) RenderOption(o structure.RenderOption) string {
	return f.text(o.MessageKey(), nil)
}

func colorLabel(c nchess.Color) string {
	switch c {
	case nchess.White:
		return "White"
	case nchess.Black:
		return "Black"
	}
	return ""
}
