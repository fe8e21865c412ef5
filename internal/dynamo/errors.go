package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for simulation operations.
var (
	// ErrInvalidGrid indicates a non-positive step size or a step count below one.
	ErrInvalidGrid = errors.New("dynamo: invalid time grid")

	// ErrLengthMismatch indicates two trajectories that do not share a grid.
	ErrLengthMismatch = errors.New("dynamo: trajectory length mismatch")
)

// LengthError reports the offending lengths of a shape mismatch.
type LengthError struct {
	Want int
	Got  int
}

func (e *LengthError) Error() string {
	return fmt.Sprintf("%s: want %d samples, got %d", ErrLengthMismatch, e.Want, e.Got)
}

func (e *LengthError) Unwrap() error {
	return ErrLengthMismatch
}
