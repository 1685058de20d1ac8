package chessdto

// Error codes carried by DomainError.
const (
	CodeGameNotFound = "game_not_found"
	CodeNotOnBoard   = "not_on_board"
	CodeInvalidEvent = "invalid_event"
	CodeUnavailable  = "unavailable"
	CodeInternal     = "internal"
)

type DomainError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

func (e DomainError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Code != "" {
		return e.Code
	}
	return "chess service error"
}
