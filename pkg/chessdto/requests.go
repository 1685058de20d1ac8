package chessdto

// EventResult reports what one world event did.
type EventResult struct {
	EventID  string `json:"eventId,omitempty"`
	SaveID   string `json:"saveId,omitempty"`
	Handled  bool   `json:"handled"`
	Created  bool   `json:"created,omitempty"`
	Finished bool   `json:"finished,omitempty"`
	// Action is the inventory verdict of an inventory tick.
	Action string `json:"action,omitempty"`
}

type RecentGamesResponse struct {
	Games []ArchivedGame `json:"games"`
}
