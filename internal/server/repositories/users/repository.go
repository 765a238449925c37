// Package users declares the server-side repository contract for identities.
package users

import (
	"context"

	"github.com/dmitrijs2005/totpgate/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	// GetUserByLogin looks a user up by public handle; common.ErrorNotFound when absent.
	GetUserByLogin(ctx context.Context, login string) (*models.User, error)
}
