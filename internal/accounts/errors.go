package accounts

import "errors"

var (
	// ErrInvalidCredentials never says which part of the credentials was wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrConflict           = errors.New("username already taken")
	ErrNotFound           = errors.New("account not found")
	ErrUpdateFailed       = errors.New("profile could not be updated")
)

// ValidationError is a rejected input with a reason fit for the end user.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func invalid(reason string) error {
	return &ValidationError{Reason: reason}
}
