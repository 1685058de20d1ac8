package chess

import (
	"context"
	"errors"

	"github.com/park285/immersive-chess/internal/store"
	"github.com/park285/immersive-chess/pkg/chessdto"
)

var (
	ErrGameNotFound     = errors.New("chess game not found")
	ErrNotOnBoard       = errors.New("position is not on a chess board")
	ErrInvalidEvent     = errors.New("invalid world event")
	ErrArchiveDisabled  = errors.New("chess archive not configured")
	ErrServiceNotReady  = errors.New("chess service not ready")
	ErrStaleGameVersion = errors.New("chess game changed concurrently")
)

// ToDomainError maps service errors onto the DTO shape callers render.
func ToDomainError(err error) chessdto.DomainError {
	var de chessdto.DomainError
	switch {
	case errors.As(err, &de):
		return de
	case errors.Is(err, ErrGameNotFound), errors.Is(err, store.ErrNotFound):
		return chessdto.DomainError{Code: chessdto.CodeGameNotFound, Message: err.Error()}
	case errors.Is(err, ErrNotOnBoard):
		return chessdto.DomainError{Code: chessdto.CodeNotOnBoard, Message: err.Error()}
	case errors.Is(err, ErrInvalidEvent):
		return chessdto.DomainError{Code: chessdto.CodeInvalidEvent, Message: err.Error()}
	case errors.Is(err, ErrArchiveDisabled), errors.Is(err, ErrServiceNotReady):
		return chessdto.DomainError{Code: chessdto.CodeUnavailable, Message: err.Error()}
	case errors.Is(err, ErrStaleGameVersion), errors.Is(err, store.ErrConflict), errors.Is(err, context.DeadlineExceeded):
		return chessdto.DomainError{Code: chessdto.CodeUnavailable, Message: err.Error(), Retryable: true}
	default:
		return chessdto.DomainError{Code: chessdto.CodeInternal, Message: "internal error"}
	}
}
