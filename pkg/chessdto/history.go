package chessdto

import "time"

// ArchivedGame is a finished game from the archive.
type ArchivedGame struct {
	GameID      string    `json:"gameId"`
	SaveID      string    `json:"saveId"`
	White       string    `json:"white"`
	Black       string    `json:"black"`
	Result      string    `json:"result"`
	Termination string    `json:"termination"`
	MovesUCI    []string  `json:"movesUci"`
	MoveCount   int       `json:"moveCount"`
	Date        string    `json:"date"`
	EndedAt     time.Time `json:"endedAt"`
}
