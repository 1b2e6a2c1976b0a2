package engine

import (
	"errors"
	"fmt"

	"skyops/internal/domain"
)

// ValidationError is a client-local rejection; no remote call was made.
type ValidationError struct {
	Msg string
}

func (e ValidationError) Error() string { return e.Msg }

func validationf(format string, args ...any) error {
	return ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// InvalidTransitionError rejects a status change the lifecycle table
// does not allow.
type InvalidTransitionError struct {
	From, To domain.Status
}

func (e InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition %s -> %s", e.From, e.To)
}

// ErrStalePricing marks a pricing snapshot that was superseded by a
// newer calculate request before its response landed.
var ErrStalePricing = errors.New("pricing snapshot superseded by a newer request")
