package chesspresenter

import (
	nchess "github.com/corentings/chess/v2"

	"github.com/park285/immersive-chess/internal/game"
	"github.com/park285/immersive-chess/pkg/chessdto"
)

// ToDTOScreen builds the board screen of st. image may be nil.
func ToDTOScreen(st *game.State, f *Formatter, image []byte) *chessdto.ScreenState {
	if st == nil {
		return nil
	}
	white, black := st.PlayerName(nchess.White), st.PlayerName(nchess.Black)
	status := st.Status()
	return &chessdto.ScreenState{
		SaveID:        st.SaveID(),
		GameID:        st.GameID(),
		Title:         f.Title(white, black),
		White:         white,
		Black:         black,
		MoveIndex:     st.CurrentMoveIndex(),
		ColorOnMove:   game.ColorName(st.ColorOnMove()),
		OnMoveText:    f.OnMove(st),
		Status:        status.String(),
		StatusText:    f.Status(status),
		Finished:      status.IsFinished(),
		DrawOfferedTo: st.DrawOfferedTo(),
		FEN:           st.FEN(),
		Moves:         toDTOMoves(st.MovesSAN(), st.MovesUCI()),
		Render: []chessdto.Render{
			toDTORender(st, nchess.White),
			toDTORender(st, nchess.Black),
		},
		BoardImage: append([]byte(nil), image...),
	}
}

func toDTOMoves(sans, ucis []string) []chessdto.Move {
	out := make([]chessdto.Move, 0, len(ucis))
	for i, uci := range ucis {
		c := nchess.White
		if i%2 == 1 {
			c = nchess.Black
		}
		m := chessdto.Move{Index: i + 1, Color: game.ColorName(c), UCI: uci}
		if i < len(sans) {
			m.SAN = sans[i]
		}
		out = append(out, m)
	}
	return out
}

func toDTORender(st *game.State, c nchess.Color) chessdto.Render {
	r := chessdto.Render{Color: game.ColorName(c), Selected: st.RenderOption(c).String()}
	for _, o := range st.ValidRenderOptions(c) {
		r.Valid = append(r.Valid, o.String())
	}
	return r
}
