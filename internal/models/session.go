package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// UserSession is the single long-lived credential record a user may hold.
// Only the SHA-256 of the refresh token is persisted.
type UserSession struct {
	ID               string    `json:"id" db:"id"`
	UserID           string    `json:"user_id" db:"user_id"`
	RefreshTokenHash string    `json:"-" db:"refresh_token_hash"`
	IPAddress        *string   `json:"ip_address" db:"ip_address"`
	UserAgent        *string   `json:"user_agent" db:"user_agent"`
	CreatedBy        *string   `json:"created_by" db:"created_by"`
	UpdatedBy        *string   `json:"updated_by" db:"updated_by"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
}

// ClientMeta describes the client a credential pair was issued to.
type ClientMeta struct {
	IPAddress string
	UserAgent string
}

type TokenKind string

const (
	AccessToken  TokenKind = "access"
	RefreshToken TokenKind = "refresh"
)

type Claims struct {
	jwt.RegisteredClaims
	Kind TokenKind `json:"kind"`
}

type TokenPair struct {
	AccessToken      string    `json:"-"`
	RefreshToken     string    `json:"-"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}
