package persist

import (
	"errors"
	"fmt"
)

// ErrAuthRequired means no usable credentials were available: none stored
// and none entered. Every *AuthError also matches it under errors.Is.
var ErrAuthRequired = errors.New("authentication required")

// AuthError is a rejected credential (HTTP 401/403).
type AuthError struct {
	Status  int
	Message string
}

func (e *AuthError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("authentication failed (%d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("authentication failed (%d)", e.Status)
}

// Is makes errors.Is(err, ErrAuthRequired) hold for auth failures.
func (e *AuthError) Is(target error) bool { return target == ErrAuthRequired }

// ServerError is any other non-2xx response.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error (%d): %s", e.Status, e.Message)
}

// ConflictError means the remote file moved past the revision we based
// the write on.
type ConflictError struct {
	Path     string
	Revision string
	Message  string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("remote %s changed since revision %q: %s", e.Path, e.Revision, e.Message)
}
