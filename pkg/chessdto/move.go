package chessdto

// Move is one played half move.
type Move struct {
	Index int    `json:"index"`
	Color string `json:"color"`
	SAN   string `json:"san"`
	UCI   string `json:"uci"`
}
