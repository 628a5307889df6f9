package ledger

import (
	"errors"
	"fmt"
)

// ErrNotFound reports a row addressed by id that does not exist or is
// not owned by the requesting user.
var ErrNotFound = errors.New("ledger: not found")

// ValidationError rejects malformed engine input before any store access.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
