package services

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition is returned when a proposal cannot advance further.
var ErrInvalidTransition = errors.New("proposal is already completed")

// ErrProposalNotFound is returned when a proposal id does not exist.
var ErrProposalNotFound = errors.New("proposal not found")

// ErrProfileNotFound is returned when a profile id does not exist.
var ErrProfileNotFound = errors.New("profile not found")

// ValidationError reports bad input for a single field. Recoverable; shown
// inline to the user.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
