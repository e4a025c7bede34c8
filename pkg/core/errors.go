package core

import (
	"errors"
	"fmt"
)

// Error classes. Every error returned by the aggregate wraps exactly one of these,
// so callers can map them with errors.Is.
var (
	ErrValidation   = errors.New("validation error")
	ErrNotFound     = errors.New("not found")
	ErrIllegalState = errors.New("illegal state")
	ErrIllegalMove  = errors.New("illegal move")
	ErrPersistence  = errors.New("persistence error")
)

var (
	ErrOutOfBounds = fmt.Errorf("%w: coordinate out of bounds", ErrValidation)
	ErrUnknownGoma = fmt.Errorf("%w: unknown goma", ErrValidation)
	ErrUnknownSide = fmt.Errorf("%w: unknown side", ErrValidation)

	ErrGameNotFound   = fmt.Errorf("%w: game", ErrNotFound)
	ErrPlayerNotFound = fmt.Errorf("%w: player", ErrNotFound)

	ErrFurigomaPending         = fmt.Errorf("%w: furigoma has not been resolved", ErrIllegalState)
	ErrFurigomaAlreadyResolved = fmt.Errorf("%w: furigoma already resolved", ErrIllegalState)
	ErrNotYourTurn             = fmt.Errorf("%w: not your turn", ErrIllegalState)
	ErrGameAlreadyFinished     = fmt.Errorf("%w: game already finished", ErrIllegalState)

	ErrInvalidPlacement = fmt.Errorf("%w: invalid placement", ErrIllegalMove)
	ErrEmptyCell        = fmt.Errorf("%w: empty cell", ErrIllegalMove)
	ErrGomaNotInStock   = fmt.Errorf("%w: goma not in stock", ErrIllegalMove)
	ErrNotYourGoma      = fmt.Errorf("%w: goma belongs to the other side", ErrIllegalMove)

	ErrVersionConflict = fmt.Errorf("%w: version conflict", ErrPersistence)
)
