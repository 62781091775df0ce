package bags

import (
	"errors"
	"fmt"
)

// ErrEmptyAPIKey indicates that the client was created without an API key.
var ErrEmptyAPIKey = errors.New("Bags API key must be set")

// Error is returned for transport failures and for responses that are not successful.
// Message holds the upstream error text when the API provided one.
type Error struct {
	Op      string
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("failed to %s: %s", e.Op, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}
