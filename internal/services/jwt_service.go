package services

import (
	"errors"
	"fmt"
	"time"

	"htech-admin/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// JWTService signs and verifies access and refresh credentials. Each kind has
// its own secret so a refresh token can never pass as an access token.
type JWTService struct {
	accessSecret  []byte
	refreshSecret []byte
	issuer        string
	now           func() time.Time
}

func NewJWTService(accessSecret, refreshSecret, issuer string) *JWTService {
	return &JWTService{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		issuer:        issuer,
		now:           time.Now,
	}
}

func (s *JWTService) secretFor(kind models.TokenKind) ([]byte, error) {
	switch kind {
	case models.AccessToken:
		return s.accessSecret, nil
	case models.RefreshToken:
		return s.refreshSecret, nil
	default:
		return nil, fmt.Errorf("unknown token kind %q", kind)
	}
}

// Issue mints a token of the given kind for subjectID that expires after ttl.
func (s *JWTService) Issue(subjectID string, kind models.TokenKind, ttl time.Duration) (string, time.Time, error) {
	secret, err := s.secretFor(kind)
	if err != nil {
		return "", time.Time{}, err
	}

	now := s.now()
	claims := models.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   subjectID,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Kind: kind,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("error generate token string: %w", err)
	}
	return tokenString, claims.ExpiresAt.Time, nil
}

// Verify parses tokenString as a token of the given kind. Expired tokens
// yield ErrTokenExpired, every other failure ErrInvalidToken.
func (s *JWTService) Verify(kind models.TokenKind, tokenString string) (*models.Claims, error) {
	secret, err := s.secretFor(kind)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	token, err := jwt.ParseWithClaims(
		tokenString,
		&models.Claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return secret, nil
		},
		opts...,
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*models.Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%w: invalid token claims", ErrInvalidToken)
	}
	if claims.Kind != kind {
		return nil, fmt.Errorf("%w: expected %s token, got %q", ErrInvalidToken, kind, claims.Kind)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims, nil
}

// SubjectIgnoringExpiry checks the signature and kind of a possibly expired
// token and returns its subject. It is only suitable for best-effort logout.
func (s *JWTService) SubjectIgnoringExpiry(kind models.TokenKind, tokenString string) (string, error) {
	secret, err := s.secretFor(kind)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	claims := &models.Claims{}
	_, err = jwt.ParseWithClaims(
		tokenString,
		claims,
		func(*jwt.Token) (any, error) { return secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if claims.Kind != kind || claims.Subject == "" {
		return "", fmt.Errorf("%w: unexpected claims", ErrInvalidToken)
	}
	return claims.Subject, nil
}
