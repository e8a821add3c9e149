package services

import (
	"context"
	"sync"
	"testing"

	"htech-admin/internal/event"
	"htech-admin/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginIssuesPairAndStoresHashedRefresh(t *testing.T) {
	env := newTestEnv(t, nil)
	user := env.createUser(t, "alice")
	ctx := context.Background()

	loggedIn, pair, err := env.sessions.Login(ctx, "alice", testPassword, models.ClientMeta{IPAddress: "10.0.0.1", UserAgent: "console"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)
	assert.NotNil(t, loggedIn.LastLogin)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.True(t, pair.AccessExpiresAt.Before(pair.RefreshExpiresAt))

	session, err := env.store.Sessions.GetByUserID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, HashRefreshToken(pair.RefreshToken), session.RefreshTokenHash)
	assert.NotEqual(t, pair.RefreshToken, session.RefreshTokenHash)
	require.NotNil(t, session.IPAddress)
	assert.Equal(t, "10.0.0.1", *session.IPAddress)

	assert.Contains(t, env.publisher.types(), event.LoginSucceeded)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	require.NoError(t, env.store.Users.UpdateStatus(ctx, bob.ID, models.UserStatusDeactivated))

	tests := []struct {
		name     string
		username string
		password string
	}{
		{name: "wrong password", username: "alice", password: "wrong-password"},
		{name: "unknown user", username: "mallory", password: testPassword},
		{name: "deactivated user", username: "bob", password: testPassword},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := env.sessions.Login(ctx, tt.username, tt.password, models.ClientMeta{})
			assert.Equal(t, ErrInvalidCredentials, err)
		})
	}
}

func TestSecondLoginInvalidatesFirstSession(t *testing.T) {
	env := newTestEnv(t, nil)
	user := env.createUser(t, "alice")
	ctx := context.Background()

	first := env.login(t, "alice")
	second := env.login(t, "alice")

	_, _, err := env.sessions.Refresh(ctx, first.RefreshToken, models.ClientMeta{})
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, pair, err := env.sessions.Refresh(ctx, second.RefreshToken, models.ClientMeta{})
	require.NoError(t, err)

	session, err := env.store.Sessions.GetByUserID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, HashRefreshToken(pair.RefreshToken), session.RefreshTokenHash)
}

func TestRefreshRotatesAndRetiresPreviousToken(t *testing.T) {
	env := newTestEnv(t, nil)
	env.createUser(t, "alice")
	ctx := context.Background()

	original := env.login(t, "alice")

	_, rotated, err := env.sessions.Refresh(ctx, original.RefreshToken, models.ClientMeta{})
	require.NoError(t, err)
	assert.NotEqual(t, original.RefreshToken, rotated.RefreshToken)
	assert.NotEqual(t, original.AccessToken, rotated.AccessToken)

	_, _, err = env.sessions.Refresh(ctx, original.RefreshToken, models.ClientMeta{})
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, _, err = env.sessions.Refresh(ctx, rotated.RefreshToken, models.ClientMeta{})
	assert.NoError(t, err)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	env := newTestEnv(t, nil)
	env.createUser(t, "alice")
	pair := env.login(t, "alice")

	_, _, err := env.sessions.Refresh(context.Background(), pair.AccessToken, models.ClientMeta{})
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestConcurrentRefreshHasExactlyOneWinner(t *testing.T) {
	env := newTestEnv(t, nil)
	user := env.createUser(t, "alice")
	pair := env.login(t, "alice")
	ctx := context.Background()

	const racers = 8
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		winners  []*models.TokenPair
		failures int
	)
	start := make(chan struct{})
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, next, err := env.sessions.Refresh(ctx, pair.RefreshToken, models.ClientMeta{})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				assert.ErrorIs(t, err, ErrUnauthenticated)
				failures++
				return
			}
			winners = append(winners, next)
		}()
	}
	close(start)
	wg.Wait()

	require.Len(t, winners, 1)
	assert.Equal(t, racers-1, failures)

	session, err := env.store.Sessions.GetByUserID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, HashRefreshToken(winners[0].RefreshToken), session.RefreshTokenHash)
}

func TestLogoutIsIdempotentAndRevokesCredentials(t *testing.T) {
	env := newTestEnv(t, nil)
	user := env.createUser(t, "alice")
	pair := env.login(t, "alice")
	ctx := context.Background()

	require.NoError(t, env.sessions.Logout(ctx, user.ID, models.ClientMeta{}))
	require.NoError(t, env.sessions.Logout(ctx, user.ID, models.ClientMeta{}))

	_, err := env.auth.AuthenticateAccess(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, _, err = env.sessions.Refresh(ctx, pair.RefreshToken, models.ClientMeta{})
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestAuthenticateAccess(t *testing.T) {
	env := newTestEnv(t, nil)
	user := env.createUser(t, "alice")
	pair := env.login(t, "alice")
	ctx := context.Background()

	identity, err := env.auth.AuthenticateAccess(ctx, pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, identity.User.ID)
	assert.Equal(t, user.ID, identity.Session.UserID)

	_, err = env.auth.AuthenticateAccess(ctx, "")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = env.auth.AuthenticateAccess(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
