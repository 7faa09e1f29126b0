package domain

import (
	"errors"
	"fmt"
)

// Business outcomes of a lifecycle operation. They are wrapped with context
// and matched with errors.Is.
var (
	ErrNotFound          = errors.New("shift not found")
	ErrUnauthorized      = errors.New("not the owner of the shift")
	ErrInvalidState      = errors.New("invalid shift state")
	ErrAlreadyClaimed    = errors.New("shift already claimed")
	ErrAlreadyClockedIn  = errors.New("already clocked in")
	ErrAlreadyClockedOut = errors.New("already clocked out")
	ErrNotClockedIn      = errors.New("not clocked in")
	ErrEmptyPool         = errors.New("free shift has no eligible pool")
	ErrValidation        = errors.New("invalid shift input")
)

// StorageError marks a fault of the persistence layer, as opposed to a
// rejected request.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func IsBusinessError(err error) bool {
	for _, target := range []error{
		ErrNotFound, ErrUnauthorized, ErrInvalidState, ErrAlreadyClaimed,
		ErrAlreadyClockedIn, ErrAlreadyClockedOut, ErrNotClockedIn,
		ErrEmptyPool, ErrValidation,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
