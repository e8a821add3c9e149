package services

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLength = 8
	// bcrypt ignores everything past 72 bytes.
	maxPasswordBytes = 72
)

var passwordCost = bcrypt.DefaultCost

// dummyHash is compared against when the user does not exist so that unknown
// usernames cost the same as wrong passwords.
var dummyHash = sync.OnceValue(func() []byte {
	hash, err := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), passwordCost)
	if err != nil {
		panic(fmt.Sprintf("failed to build dummy bcrypt hash: %v", err))
	}
	return hash
})

func HashPassword(password string) (string, error) {
	if err := validatePassword(password); err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), passwordCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func burnPasswordCheck(password string) {
	_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(password))
}

func validatePassword(password string) error {
	if strings.TrimSpace(password) == "" || len(password) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minPasswordLength)
	}
	if len(password) > maxPasswordBytes {
		return fmt.Errorf("%w: password must be at most %d bytes", ErrValidation, maxPasswordBytes)
	}
	return nil
}

// HashRefreshToken returns the hex SHA-256 digest stored for a refresh token.
func HashRefreshToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
