package projector

import (
	"fmt"
	"strings"

	nchess "github.com/corentings/chess/v2"
	"go.uber.org/zap"

	"github.com/park285/immersive-chess/internal/game"
	"github.com/park285/immersive-chess/internal/obslog"
	"github.com/park285/immersive-chess/internal/structure"
)

// Button is a control on the board screen.
type Button int

const (
	ButtonDraw Button = iota
	ButtonResign
	ButtonStopBoard
	ButtonRenderWhiteDefault
	ButtonRenderWhiteOwn
	ButtonRenderWhiteOpponent
	ButtonRenderBlackDefault
	ButtonRenderBlackOwn
	ButtonRenderBlackOpponent
)

var buttonNames = [...]string{
	"DRAW",
	"RESIGN",
	"STOP_BOARD",
	"RENDER_WHITE_DEFAULT",
	"RENDER_WHITE_OWN",
	"RENDER_WHITE_OPPONENT",
	"RENDER_BLACK_DEFAULT",
	"RENDER_BLACK_OWN",
	"RENDER_BLACK_OPPONENT",
}

func (b Button) String() string {
	if b < 0 || int(b) >= len(buttonNames) {
		return fmt.Sprintf("Button(%d)", int(b))
	}
	return buttonNames[b]
}

// ParseButton accepts the upper case name or the numeric id.
func ParseButton(s string) (Button, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for i, n := range buttonNames {
		if n == s {
			return Button(i), nil
		}
	}
	var id int
	if _, err := fmt.Sscanf(s, "%d", &id); err == nil && id >= 0 && id < len(buttonNames) {
		return Button(id), nil
	}
	return 0, fmt.Errorf("unknown button %q", s)
}

func (b Button) MarshalText() ([]byte, error) { return []byte(b.String()), nil }

func (b *Button) UnmarshalText(text []byte) error {
	v, err := ParseButton(string(text))
	if err != nil {
		return err
	}
	*b = v
	return nil
}

// RenderTarget returns the colour and option a render button selects.
func (b Button) RenderTarget() (nchess.Color, structure.RenderOption, bool) {
	if b < ButtonRenderWhiteDefault || b > ButtonRenderBlackOpponent {
		return nchess.NoColor, 0, false
	}
	idx := int(b - ButtonRenderWhiteDefault)
	color := nchess.White
	if idx >= len(structure.RenderOptions) {
		color = nchess.Black
	}
	option, err := structure.RenderOptionAt(idx % len(structure.RenderOptions))
	if err != nil {
		return nchess.NoColor, 0, false
	}
	return color, option, true
}

// Press runs a screen button for player.
func (in *Interactions) Press(st *game.State, player Player, b Button) bool {
	if st == nil {
		return false
	}
	obslog.L().Debug("button_pressed", zap.String("save_id", st.SaveID()), zap.String("player", player.Name), zap.String("button", b.String()))
	switch b {
	case ButtonDraw:
		return st.Draw(player.Name)
	case ButtonResign:
		return st.Resign(player.Name)
	case ButtonStopBoard:
		return in.stopBoard(st, player)
	}
	color, option, ok := b.RenderTarget()
	if !ok {
		return false
	}
	if !player.Operator && player.Name != st.PlayerName(nchess.White) && player.Name != st.PlayerName(nchess.Black) {
		return false
	}
	return st.SetRenderOption(color, option)
}

// stopBoard ends the board once the game is over or has not started. An
// operator may force a draw first.
func (in *Interactions) stopBoard(st *game.State, player Player) bool {
	if !st.IsFinished() && player.Operator {
		st.ForceDraw()
	}
	if !st.IsFinished() && st.CurrentMoveIndex() != 1 {
		return false
	}
	proj, ok := st.Projection().(*Projector)
	if !ok {
		proj = in.Attach(st)
	}
	proj.RestoreBoard(st)
	obslog.L().Info("board_stopped", zap.String("save_id", st.SaveID()), zap.String("player", player.Name))
	return true
}
