package projections

import "errors"

// Common projection store errors
var (
	ErrNotFound = errors.New("transaction not found")
)
