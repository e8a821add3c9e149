package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"htech-admin/internal/config"
	"htech-admin/internal/event"
	"htech-admin/internal/metrics"
	"htech-admin/internal/models"
	"htech-admin/internal/repository"
)

// SessionService drives the credential lifecycle: login, refresh and logout.
// A user holds at most one session; every call touches at most that one row.
type SessionService struct {
	userRepo      repository.IUserRepository
	sessionRepo   repository.SessionRepository
	jwtService    *JWTService
	authenticator *Authenticator
	publisher     event.Publisher
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewSessionService(
	userRepo repository.IUserRepository,
	sessionRepo repository.SessionRepository,
	jwtService *JWTService,
	authenticator *Authenticator,
	publisher event.Publisher,
	cfg config.AuthConfig,
) *SessionService {
	if publisher == nil {
		publisher = event.NopPublisher{}
	}
	return &SessionService{
		userRepo:      userRepo,
		sessionRepo:   sessionRepo,
		jwtService:    jwtService,
		authenticator: authenticator,
		publisher:     publisher,
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
	}
}

// Login checks the password and replaces whatever session the user had with a
// fresh one. Unknown users, deactivated users and wrong passwords are
// indistinguishable to the caller.
func (s *SessionService) Login(ctx context.Context, username, password string, meta models.ClientMeta) (*models.User, *models.TokenPair, error) {
	user, err := s.userRepo.GetUserByUsername(ctx, username)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if user == nil {
		burnPasswordCheck(password)
		s.loginFailed(ctx, username, "", meta, "unknown user")
		return nil, nil, ErrInvalidCredentials
	}
	if !CheckPasswordHash(password, user.PasswordHash) {
		s.loginFailed(ctx, username, user.ID, meta, "wrong password")
		return nil, nil, ErrInvalidCredentials
	}
	if !user.IsActive() {
		s.loginFailed(ctx, username, user.ID, meta, "user deactivated")
		return nil, nil, ErrInvalidCredentials
	}

	pair, err := s.issuePair(user.ID)
	if err != nil {
		return nil, nil, err
	}

	session := &models.UserSession{
		UserID:           user.ID,
		RefreshTokenHash: HashRefreshToken(pair.RefreshToken),
		IPAddress:        optional(meta.IPAddress),
		UserAgent:        optional(meta.UserAgent),
		CreatedBy:        &user.ID,
		UpdatedBy:        &user.ID,
	}
	if err := s.sessionRepo.Upsert(ctx, session); err != nil {
		return nil, nil, fmt.Errorf("failed to store session: %w", err)
	}

	now := time.Now().UTC()
	if err := s.userRepo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		log.Printf("failed to update last login for user %s: %v", user.ID, err)
	} else {
		user.LastLogin = &now
	}

	metrics.ObserveLogin(metrics.ResultSuccess)
	s.publish(ctx, event.LoginSucceeded, user.ID, username, meta, "")
	return user, pair, nil
}

// Refresh rotates the session: the presented refresh token is consumed and a
// new pair is returned. Of several concurrent refreshes with the same token
// exactly one succeeds.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string, meta models.ClientMeta) (*models.User, *models.TokenPair, error) {
	identity, presentedHash, err := s.authenticator.AuthenticateRefresh(ctx, refreshToken)
	if err != nil {
		s.refreshFailed(ctx, "", meta, err)
		return nil, nil, err
	}
	user := identity.User

	pair, err := s.issuePair(user.ID)
	if err != nil {
		return nil, nil, err
	}

	next := &models.UserSession{
		RefreshTokenHash: HashRefreshToken(pair.RefreshToken),
		IPAddress:        optional(meta.IPAddress),
		UserAgent:        optional(meta.UserAgent),
		UpdatedBy:        &user.ID,
	}
	if err := s.sessionRepo.Replace(ctx, user.ID, presentedHash, next); err != nil {
		if errors.Is(err, repository.ErrSessionConflict) || errors.Is(err, repository.ErrNotFound) {
			err = fmt.Errorf("%w: %w", ErrUnauthenticated, err)
			s.refreshFailed(ctx, user.ID, meta, err)
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("failed to rotate session: %w", err)
	}

	metrics.ObserveRefresh(metrics.ResultSuccess)
	s.publish(ctx, event.RefreshSucceeded, user.ID, user.Username, meta, "")
	return user, pair, nil
}

// Logout removes the user's session. Logging out twice is not an error.
func (s *SessionService) Logout(ctx context.Context, userID string, meta models.ClientMeta) error {
	if userID == "" {
		return nil
	}
	if err := s.sessionRepo.Delete(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	s.publish(ctx, event.LoggedOut, userID, "", meta, "")
	return nil
}

func (s *SessionService) issuePair(userID string) (*models.TokenPair, error) {
	access, accessExp, err := s.jwtService.Issue(userID, models.AccessToken, s.accessTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to issue access token: %w", err)
	}
	refresh, refreshExp, err := s.jwtService.Issue(userID, models.RefreshToken, s.refreshTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to issue refresh token: %w", err)
	}
	return &models.TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

func (s *SessionService) loginFailed(ctx context.Context, username, userID string, meta models.ClientMeta, reason string) {
	log.Printf("login failed for %q: %s", username, reason)
	metrics.ObserveLogin(metrics.ResultFailure)
	s.publish(ctx, event.LoginFailed, userID, username, meta, reason)
}

func (s *SessionService) refreshFailed(ctx context.Context, userID string, meta models.ClientMeta, err error) {
	log.Printf("refresh rejected: %v", err)
	metrics.ObserveRefresh(metrics.ResultFailure)
	s.publish(ctx, event.RefreshFailed, userID, "", meta, err.Error())
}

func (s *SessionService) publish(ctx context.Context, eventType event.AuthEventType, userID, username string, meta models.ClientMeta, reason string) {
	evt := event.NewAuthEvent(eventType)
	evt.UserID = userID
	evt.Username = username
	evt.IPAddress = meta.IPAddress
	evt.UserAgent = meta.UserAgent
	evt.Reason = reason
	s.publisher.Publish(ctx, evt)
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
