package errors

import (
	"errors"
)

// Common error types
var (
	// ErrStorageFault marks a durability/IO failure in the ledger. Callers
	// must not retry blindly: the mutation may or may not have applied.
	ErrStorageFault = errors.New("storage fault")

	// ErrBadPattern marks a malformed banned-term pattern. Raised at
	// compile time so a bad entry never disables moderation silently.
	ErrBadPattern = errors.New("bad banned pattern")

	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
)
