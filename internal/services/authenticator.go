package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"htech-admin/internal/models"
	"htech-admin/internal/repository"
)

// Identity is the authenticated caller of a request.
type Identity struct {
	User    *models.User
	Session *models.UserSession
}

type Authenticator struct {
	jwtService  *JWTService
	userRepo    repository.IUserRepository
	sessionRepo repository.SessionRepository
}

func NewAuthenticator(jwtService *JWTService, userRepo repository.IUserRepository, sessionRepo repository.SessionRepository) *Authenticator {
	return &Authenticator{
		jwtService:  jwtService,
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
	}
}

// AuthenticateAccess resolves an access token to the user and their live
// session. An expired token reports ErrTokenExpired so clients know to refresh.
func (a *Authenticator) AuthenticateAccess(ctx context.Context, accessToken string) (*Identity, error) {
	if accessToken == "" {
		return nil, fmt.Errorf("%w: missing access token", ErrUnauthenticated)
	}
	claims, err := a.jwtService.Verify(models.AccessToken, accessToken)
	if err != nil {
		return nil, err
	}
	return a.loadIdentity(ctx, claims.Subject)
}

// AuthenticateRefresh resolves a refresh token and returns the identity along
// with the stored hash that matched, for use as the compare-and-swap guard.
func (a *Authenticator) AuthenticateRefresh(ctx context.Context, refreshToken string) (*Identity, string, error) {
	if refreshToken == "" {
		return nil, "", fmt.Errorf("%w: missing refresh token", ErrUnauthenticated)
	}
	claims, err := a.jwtService.Verify(models.RefreshToken, refreshToken)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}

	session, err := a.sessionRepo.GetByUserID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", fmt.Errorf("%w: no active session", ErrUnauthenticated)
		}
		return nil, "", fmt.Errorf("failed to load session: %w", err)
	}

	presented := HashRefreshToken(refreshToken)
	if subtle.ConstantTimeCompare([]byte(presented), []byte(session.RefreshTokenHash)) != 1 {
		return nil, "", fmt.Errorf("%w: refresh token was superseded", ErrUnauthenticated)
	}

	user, err := a.loadActiveUser(ctx, claims.Subject)
	if err != nil {
		return nil, "", err
	}
	return &Identity{User: user, Session: session}, presented, nil
}

func (a *Authenticator) loadIdentity(ctx context.Context, userID string) (*Identity, error) {
	user, err := a.loadActiveUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	session, err := a.sessionRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: no active session", ErrUnauthenticated)
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return &Identity{User: user, Session: session}, nil
}

func (a *Authenticator) loadActiveUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := a.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: user no longer exists", ErrUnauthenticated)
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if !user.IsActive() {
		return nil, fmt.Errorf("%w: user no longer exists", ErrUnauthenticated)
	}
	return user, nil
}
