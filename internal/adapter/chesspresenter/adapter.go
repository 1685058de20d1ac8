package chesspresenter

import (
	"github.com/park285/immersive-chess/internal/store/archive"
	"github.com/park285/immersive-chess/pkg/chessdto"
)

func ToDTOArchived(g archive.Game) chessdto.ArchivedGame {
	return chessdto.ArchivedGame{
		GameID:      g.GameID,
		SaveID:      g.SaveID,
		White:       g.White,
		Black:       g.Black,
		Result:      g.Result,
		Termination: g.Termination,
		MovesUCI:    append([]string(nil), g.MovesUCI...),
		MoveCount:   len(g.MovesUCI),
		Date:        g.Date,
		EndedAt:     g.EndedAt,
	}
}

func ToDTORecent(games []archive.Game) *chessdto.RecentGamesResponse {
	out := &chessdto.RecentGamesResponse{Games: make([]chessdto.ArchivedGame, 0, len(games))}
	for _, g := range games {
		out.Games = append(out.Games, ToDTOArchived(g))
	}
	return out
}

func ToDTOProfile(s archive.Stats) *chessdto.PlayerProfile {
	return &chessdto.PlayerProfile{
		Name:   s.Player,
		Games:  s.Games,
		Wins:   s.Wins,
		Losses: s.Losses,
		Draws:  s.Draws,
	}
}
