package chessdto

// ScreenState is what the board screen shows for one game.
type ScreenState struct {
	SaveID        string   `json:"saveId"`
	GameID        string   `json:"gameId"`
	Title         string   `json:"title"`
	White         string   `json:"white"`
	Black         string   `json:"black"`
	MoveIndex     int      `json:"moveIndex"`
	ColorOnMove   string   `json:"colorOnMove"`
	OnMoveText    string   `json:"onMoveText"`
	Status        string   `json:"status"`
	StatusText    string   `json:"statusText"`
	Finished      bool     `json:"finished"`
	DrawOfferedTo string   `json:"drawOfferedTo,omitempty"`
	FEN           string   `json:"fen"`
	Moves         []Move   `json:"moves"`
	Render        []Render `json:"render"`
	BoardImage    []byte   `json:"boardImage,omitempty"`
}

// Render is the piece appearance choice of one side.
type Render struct {
	Color    string   `json:"color"`
	Selected string   `json:"selected"`
	Valid    []string `json:"valid"`
}
