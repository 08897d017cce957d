package sessions

import "errors"

// ValidationError rejects malformed or missing input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// UnauthorizedError rejects an identity token or session.
type UnauthorizedError struct {
	Message string
}

func (e *UnauthorizedError) Error() string {
	return e.Message
}

// ForbiddenError rejects a caller lacking permission on a resource.
type ForbiddenError struct {
	Message string
}

func (e *ForbiddenError) Error() string {
	return e.Message
}

var (
	ErrIdentityTokenRequired = &ValidationError{Message: "identity token is required"}
	ErrSessionTokenRequired  = &ValidationError{Message: "session token is required"}
	ErrSessionInvalid        = &UnauthorizedError{Message: "invalid or expired session"}
	ErrSessionNotFound       = errors.New("session not found")
)
