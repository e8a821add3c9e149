package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"htech-admin/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// SessionRepository persists at most one session row per user.
type SessionRepository interface {
	GetByUserID(ctx context.Context, userID string) (*models.UserSession, error)
	// Upsert inserts the session or replaces the user's existing row in place.
	Upsert(ctx context.Context, session *models.UserSession) error
	// Replace swaps the stored refresh hash for next.RefreshTokenHash only if the
	// stored hash still equals expectedHash.
	Replace(ctx context.Context, userID, expectedHash string, next *models.UserSession) error
	Delete(ctx context.Context, userID string) error
}

type sessionRepository struct {
	db *sqlx.DB
}

func NewSessionRepository(db *sqlx.DB) SessionRepository {
	return &sessionRepository{db: db}
}

const sessionColumns = `id, user_id, refresh_token_hash, ip_address, user_agent, created_by, updated_by, created_at, updated_at`

func (r *sessionRepository) GetByUserID(ctx context.Context, userID string) (*models.UserSession, error) {
	if userID == "" {
		return nil, fmt.Errorf("user ID cannot be empty")
	}
	var session models.UserSession
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE user_id = $1`
	if err := r.db.GetContext(ctx, &session, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &session, nil
}

func (r *sessionRepository) Upsert(ctx context.Context, session *models.UserSession) error {
	if session.UserID == "" {
		return fmt.Errorf("user ID cannot be empty")
	}
	if session.ID == "" {
		session.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	session.CreatedAt = now
	session.UpdatedAt = now

	query := `
		INSERT INTO sessions (` + sessionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (user_id) DO UPDATE SET
			refresh_token_hash = EXCLUDED.refresh_token_hash,
			ip_address = EXCLUDED.ip_address,
			user_agent = EXCLUDED.user_agent,
			updated_by = EXCLUDED.updated_by,
			updated_at = EXCLUDED.updated_at
		RETURNING id, created_by, created_at`

	err := r.db.QueryRowxContext(ctx, query,
		session.ID, session.UserID, session.RefreshTokenHash, session.IPAddress, session.UserAgent,
		session.CreatedBy, session.UpdatedBy, session.CreatedAt, session.UpdatedAt,
	).Scan(&session.ID, &session.CreatedBy, &session.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert session: %w", err)
	}
	return nil
}

func (r *sessionRepository) Replace(ctx context.Context, userID, expectedHash string, next *models.UserSession) (err error) {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("failed to begin session transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var stored string
	err = tx.GetContext(ctx, &stored, `SELECT refresh_token_hash FROM sessions WHERE user_id = $1 FOR UPDATE`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to lock session: %w", err)
	}
	if !hashesEqual(stored, expectedHash) {
		return ErrSessionConflict
	}

	next.UserID = userID
	next.UpdatedAt = time.Now().UTC()
	err = tx.QueryRowxContext(ctx, `
		UPDATE sessions
		SET refresh_token_hash = $2, ip_address = $3, user_agent = $4, updated_by = $5, updated_at = $6
		WHERE user_id = $1
		RETURNING id, created_by, created_at`,
		userID, next.RefreshTokenHash, next.IPAddress, next.UserAgent, next.UpdatedBy, next.UpdatedAt,
	).Scan(&next.ID, &next.CreatedBy, &next.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to rotate session: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit session rotation: %w", err)
	}
	return nil
}

// Delete removes the user's session. A missing row is not an error.
func (r *sessionRepository) Delete(ctx context.Context, userID string) error {
	if userID == "" {
		return fmt.Errorf("user ID cannot be empty")
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
