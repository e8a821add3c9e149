package services

import (
	"errors"
	"fmt"

	"htech-admin/internal/repository"
)

var (
	// ErrInvalidCredentials is the only error a failed login ever reports.
	ErrInvalidCredentials = errors.New("invalid username or password")

	ErrUnauthenticated = errors.New("unauthenticated")
	ErrInvalidToken    = fmt.Errorf("%w: invalid token", ErrUnauthenticated)
	ErrTokenExpired    = fmt.Errorf("%w: token expired", ErrInvalidToken)

	ErrForbidden          = errors.New("forbidden")
	ErrNoMatchingResource = fmt.Errorf("%w: no resource matches the requested path", ErrForbidden)
	ErrActionMissing      = fmt.Errorf("%w: required action not granted", ErrForbidden)

	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrValidation    = errors.New("validation failed")
)

// translate maps repository sentinels onto service sentinels and leaves
// everything else wrapped with the operation name.
func translate(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case errors.Is(err, repository.ErrConflict):
		return fmt.Errorf("%s: %w", op, ErrAlreadyExists)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
