package game

import (
	nchess "github.com/corentings/chess/v2"
	"go.uber.org/zap"

	"github.com/park285/immersive-chess/internal/obslog"
)

// persisted end reasons that the move list alone cannot reproduce
const (
	endResignation = "resignation"
	endAgreement   = "agreement"
)

// Resign ends the game in favour of the opponent of name.
func (s *State) Resign(name string) bool {
	if s.IsFinished() || !s.HasBothPlayers() {
		return false
	}
	c, ok := s.ColorOf(name)
	if !ok {
		return false
	}
	s.game.Resign(c)
	s.endReason = endResignation
	s.markDirty()
	obslog.L().Info("game_resign", zap.String("save_id", s.SaveID()), zap.String("player", name))
	s.onGameEnded()
	return true
}

// Draw offers a draw, or accepts a pending offer from the other side.
func (s *State) Draw(name string) bool {
	if s.IsFinished() || !s.HasBothPlayers() {
		return false
	}
	c, ok := s.ColorOf(name)
	if !ok {
		return false
	}

	if s.drawOfferedBy == nchess.NoColor {
		s.drawOfferedBy = c
		s.markDirty()
		obslog.L().Info("game_draw_offer", zap.String("save_id", s.SaveID()), zap.String("player", name))
		s.proj.Announce(Event{
			Kind:      EventDrawOffered,
			White:     s.PlayerName(nchess.White),
			Black:     s.PlayerName(nchess.Black),
			OfferedBy: c,
		})
		return true
	}

	// one player holding both seats may accept their own offer
	if c == opposite(s.drawOfferedBy) || s.PlayerName(nchess.White) == s.PlayerName(nchess.Black) {
		if err := s.game.Draw(nchess.DrawOffer); err != nil {
			obslog.L().Error("game_draw_failed", zap.String("save_id", s.SaveID()), zap.Error(err))
			return false
		}
		s.endReason = endAgreement
		s.markDirty()
		s.onGameEnded()
		return true
	}
	return false
}

// ForceDraw ends an unfinished game as a draw.
func (s *State) ForceDraw() {
	if s.IsFinished() {
		return
	}
	if err := s.game.Draw(nchess.DrawOffer); err != nil {
		obslog.L().Error("game_force_draw_failed", zap.String("save_id", s.SaveID()), zap.Error(err))
		return
	}
	s.endReason = endAgreement
	s.markDirty()
	s.onGameEnded()
}

// DrawOfferedTo names the player who may accept a pending draw offer.
func (s *State) DrawOfferedTo() string {
	if s.drawOfferedBy == nchess.NoColor {
		return ""
	}
	return s.PlayerName(opposite(s.drawOfferedBy))
}

func (s *State) DrawOfferedBy() nchess.Color { return s.drawOfferedBy }

func (s *State) onGameEnded() {
	status := s.Status()
	if !status.IsFinished() {
		obslog.L().Error("game_end_not_finished", zap.String("save_id", s.SaveID()))
		return
	}
	obslog.L().Info("game_ended",
		zap.String("save_id", s.SaveID()),
		zap.String("status", status.String()),
		zap.String("white", s.PlayerName(nchess.White)),
		zap.String("black", s.PlayerName(nchess.Black)),
	)
	s.proj.Announce(Event{
		Kind:   EventGameEnded,
		Status: status,
		White:  s.PlayerName(nchess.White),
		Black:  s.PlayerName(nchess.Black),
	})
}
