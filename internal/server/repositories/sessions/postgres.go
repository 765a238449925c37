package sessions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/totpgate/internal/common"
	"github.com/dmitrijs2005/totpgate/internal/dbx"
	"github.com/dmitrijs2005/totpgate/internal/server/models"
)

const selectColumns = `s.id, s.requester_id, s.target_id, u.username, s.target_display_name, s.verified_at, s.expires_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// PairLockKey is the text hashed into the advisory lock key of a pair.
func PairLockKey(requesterID, targetID string) string {
	return "verification_session:" + requesterID + ":" + targetID
}

func (r *PostgresRepository) LockPair(ctx context.Context, requesterID, targetID string) error {
	query := `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`
	if _, err := r.db.ExecContext(ctx, query, PairLockKey(requesterID, targetID)); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) InvalidateLive(ctx context.Context, requesterID, targetID string, now time.Time) (int64, error) {
	query := `
		UPDATE verification_sessions
		SET expires_at = $3
		WHERE requester_id = $1 AND target_id = $2 AND expires_at > $3
	`
	res, err := r.db.ExecContext(ctx, query, requesterID, targetID, now)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) Create(ctx context.Context, s *models.VerificationSession) (*models.VerificationSession, error) {
	query := `
		INSERT INTO verification_sessions (requester_id, target_id, target_display_name, verified_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		s.RequesterID, s.TargetID, s.TargetDisplayName, s.VerifiedAt, s.ExpiresAt).Scan(&s.ID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

func (r *PostgresRepository) FindLive(ctx context.Context, requesterID, targetID string, now time.Time) (*models.VerificationSession, error) {
	query := `
		SELECT ` + selectColumns + `
		FROM verification_sessions s
		JOIN users u ON u.id = s.target_id
		WHERE s.requester_id = $1 AND s.target_id = $2 AND s.expires_at > $3
		ORDER BY s.verified_at DESC
		LIMIT 1
	`
	s := &models.VerificationSession{}
	err := r.db.QueryRowContext(ctx, query, requesterID, targetID, now).Scan(
		&s.ID, &s.RequesterID, &s.TargetID, &s.TargetUsername, &s.TargetDisplayName, &s.VerifiedAt, &s.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

func (r *PostgresRepository) ListLiveByRequester(ctx context.Context, requesterID string, now time.Time) ([]*models.VerificationSession, error) {
	query := `
		SELECT ` + selectColumns + `
		FROM verification_sessions s
		JOIN users u ON u.id = s.target_id
		WHERE s.requester_id = $1 AND s.expires_at > $2
		ORDER BY s.verified_at DESC
	`
	return r.list(ctx, query, requesterID, now)
}

func (r *PostgresRepository) ListExpiredBefore(ctx context.Context, cutoff time.Time) ([]*models.VerificationSession, error) {
	query := `
		SELECT ` + selectColumns + `
		FROM verification_sessions s
		JOIN users u ON u.id = s.target_id
		WHERE s.expires_at < $1
		ORDER BY s.expires_at
		FOR UPDATE OF s
	`
	return r.list(ctx, query, cutoff)
}

func (r *PostgresRepository) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		DELETE FROM verification_sessions
		WHERE expires_at < $1
	`
	res, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]*models.VerificationSession, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.VerificationSession, 0)
	for rows.Next() {
		s := &models.VerificationSession{}
		if err := rows.Scan(&s.ID, &s.RequesterID, &s.TargetID, &s.TargetUsername, &s.TargetDisplayName, &s.VerifiedAt, &s.ExpiresAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}
