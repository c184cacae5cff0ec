package fjsp

import "errors"

var (
	// ErrNilInstance is returned when a nil *Instance is passed where one is required.
	ErrNilInstance = errors.New("fjsp: instance is nil")

	// ErrInvalidInstance wraps the first structural check an Instance fails.
	ErrInvalidInstance = errors.New("fjsp: invalid instance")

	// ErrMalformedInput is returned by the text readers when the input ends early
	// or a token cannot be parsed.
	ErrMalformedInput = errors.New("fjsp: malformed input")

	// ErrKeyLength is returned when a key vector is not 2*TotalNumOperations long.
	ErrKeyLength = errors.New("fjsp: wrong key length")

	// ErrInfeasible wraps the first feasibility check a Solution fails.
	ErrInfeasible = errors.New("fjsp: infeasible solution")
)
