// Package secrets stores the TOTP shared secret of each identity.
package secrets

import (
	"context"

	"github.com/dmitrijs2005/totpgate/internal/server/models"
)

// Repository persists one secret per user. Secrets are written once at
// registration and never rotated.
type Repository interface {
	Create(ctx context.Context, userID string, secret string) error
	// GetByUserID returns common.ErrorNotFound when the user has no secret.
	GetByUserID(ctx context.Context, userID string) (*models.Secret, error)
}
