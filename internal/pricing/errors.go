package pricing

import "errors"

var (
	// ErrInvalidInput means the caller passed malformed arguments.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound means a referenced product, material or price tier does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidData means the reference tables contain values that cannot be priced.
	ErrInvalidData = errors.New("invalid reference data")
)
