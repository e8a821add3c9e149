package repository

import (
	"crypto/subtle"
	"errors"

	"github.com/lib/pq"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("record already exists")
	// ErrSessionConflict means the stored refresh hash changed between
	// verification and rotation.
	ErrSessionConflict = errors.New("session was modified concurrently")
)

const pgErrUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pgErrUniqueViolation
	}
	return false
}

func hashesEqual(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
