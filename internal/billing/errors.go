package billing

import (
	"errors"
	"fmt"
)

// ValidationError reports a missing or malformed request field. It maps to
// a client-correctable 400 response.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

var (
	ErrRecordNotFound   = errors.New("billing record not found")
	ErrCategoryNotFound = errors.New("category not found")
)
