package services

import (
	"testing"
	"time"

	"htech-admin/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTServiceRoundTrip(t *testing.T) {
	svc := NewJWTService("access", "refresh", "issuer")

	token, expiresAt, err := svc.Issue("user-1", models.AccessToken, time.Minute)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Minute), expiresAt, 2*time.Second)

	claims, err := svc.Verify(models.AccessToken, token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, models.AccessToken, claims.Kind)
	assert.NotEmpty(t, claims.ID)
}

func TestJWTServiceTokensAreUnique(t *testing.T) {
	svc := NewJWTService("access", "refresh", "issuer")

	first, _, err := svc.Issue("user-1", models.RefreshToken, time.Hour)
	require.NoError(t, err)
	second, _, err := svc.Issue("user-1", models.RefreshToken, time.Hour)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestJWTServiceRejectsWrongKind(t *testing.T) {
	svc := NewJWTService("access", "refresh", "issuer")

	refresh, _, err := svc.Issue("user-1", models.RefreshToken, time.Hour)
	require.NoError(t, err)

	_, err = svc.Verify(models.AccessToken, refresh)
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.NotErrorIs(t, err, ErrTokenExpired)
}

func TestJWTServiceExpiredToken(t *testing.T) {
	svc := NewJWTService("access", "refresh", "issuer")
	svc.now = func() time.Time { return time.Now().Add(-2 * time.Minute) }

	token, _, err := svc.Issue("user-1", models.AccessToken, time.Minute)
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.Verify(models.AccessToken, token)
	assert.ErrorIs(t, err, ErrTokenExpired)
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestJWTServiceRejectsForgedTokens(t *testing.T) {
	svc := NewJWTService("access", "refresh", "issuer")
	claims := models.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			Issuer:    "issuer",
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
		Kind: models.AccessToken,
	}

	tests := []struct {
		name  string
		token func() string
	}{
		{name: "garbage", token: func() string { return "not-a-jwt" }},
		{name: "foreign secret", token: func() string {
			s, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("other"))
			return s
		}},
		{name: "alg none", token: func() string {
			s, _ := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
			return s
		}},
		{name: "other issuer", token: func() string {
			c := claims
			c.Issuer = "someone-else"
			s, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte("access"))
			return s
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Verify(models.AccessToken, tt.token())
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestSubjectIgnoringExpiry(t *testing.T) {
	svc := NewJWTService("access", "refresh", "issuer")
	svc.now = func() time.Time { return time.Now().Add(-time.Hour) }
	expired, _, err := svc.Issue("user-1", models.AccessToken, time.Minute)
	require.NoError(t, err)
	svc.now = time.Now

	subject, err := svc.SubjectIgnoringExpiry(models.AccessToken, expired)
	require.NoError(t, err)
	assert.Equal(t, "user-1", subject)

	refresh, _, err := svc.Issue("user-1", models.RefreshToken, time.Hour)
	require.NoError(t, err)
	_, err = svc.SubjectIgnoringExpiry(models.AccessToken, refresh)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
