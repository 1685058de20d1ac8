package projector

import (
	nchess "github.com/corentings/chess/v2"

	"github.com/park285/immersive-chess/internal/game"
)

func (p *Projector) Announce(e game.Event) {
	switch e.Kind {
	case game.EventDrawOffered:
		p.announceDrawOffer(e)
	case game.EventGameEnded:
		if e.Status.IsDraw() {
			p.announceDraw(e)
		} else {
			p.announceWin(e)
		}
	}
}

func (p *Projector) announceDrawOffer(e game.Event) {
	opponent := e.PlayerName(opposite(e.OfferedBy))
	if opponent == "" {
		return
	}
	data := map[string]any{"Player": e.PlayerName(e.OfferedBy)}
	p.notify.Actionbar(opponent, p.text("draw_offer_message", data))
	p.notify.Chat(opponent, p.text("draw_offer_chat", data))
	p.notify.PlaySound(Sound{Name: SoundBell, Player: opponent, Volume: 1, Pitch: 1})
}

func (p *Projector) announceDraw(e game.Event) {
	msg := p.text("draw_message", nil)
	for _, name := range uniqueNames(e.White, e.Black) {
		p.notify.Actionbar(name, msg)
	}
	if e.White != "" && e.Black != "" && e.White != e.Black {
		p.notify.Broadcast(p.text("draw_broadcast", map[string]any{"White": e.White, "Black": e.Black}))
	}
	p.notify.PlaySound(Sound{Name: SoundHornWin, Pos: p.board.Pos(nchess.A1), Volume: 1, Pitch: 1})
}

func (p *Projector) announceWin(e game.Event) {
	winnerColor := e.Winner()
	winner := e.PlayerName(winnerColor)
	loser := e.PlayerName(opposite(winnerColor))
	// a game against oneself is not news
	if winner != "" && loser != "" && winner != loser {
		p.notify.Broadcast(p.text("win_broadcast", map[string]any{"Winner": winner, "Loser": loser}))
	}
	if winner != "" {
		p.notify.Actionbar(winner, p.text("win_message", nil))
	}
	separate := loser != "" && loser != winner
	if separate {
		p.notify.Actionbar(loser, p.text("lose_message", nil))
	}

	victory := Sound{Name: SoundHornWin, Pos: p.board.Pos(nchess.A1), Volume: 1, Pitch: 1.5}
	if separate {
		victory.Except = loser
	}
	p.notify.PlaySound(victory)
	if separate {
		p.notify.PlaySound(Sound{Name: SoundHornLose, Player: loser, Volume: 1, Pitch: 0.8})
	}
}

func uniqueNames(names ...string) []string {
	var out []string
	seen := map[string]bool{}
	for _, n := range names {
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
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
