package secrets

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/totpgate/internal/common"
	"github.com/dmitrijs2005/totpgate/internal/dbx"
	"github.com/dmitrijs2005/totpgate/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, userID string, secret string) error {
	query := `
		INSERT INTO totp_secrets (user_id, secret)
		VALUES ($1, $2)
	`
	if _, err := r.db.ExecContext(ctx, query, userID, secret); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByUserID(ctx context.Context, userID string) (*models.Secret, error) {
	query := `
		SELECT user_id, secret, created_at
		FROM totp_secrets
		WHERE user_id = $1
	`
	s := &models.Secret{}
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&s.UserID, &s.Secret, &s.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}
