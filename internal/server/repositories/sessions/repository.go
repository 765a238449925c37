// Package sessions persists verification sessions.
//
// Rows are never deleted by the request path. The only mutation of an
// existing row is InvalidateLive, which ends a live session by setting its
// expires_at to the invalidation instant.
package sessions

import (
	"context"
	"time"

	"github.com/dmitrijs2005/totpgate/internal/server/models"
)

type Repository interface {
	// LockPair takes a transaction-scoped lock on the ordered pair. It must
	// be called on a transaction handle; the lock is released on commit or
	// rollback.
	LockPair(ctx context.Context, requesterID, targetID string) error

	// InvalidateLive sets expires_at = now on every row of the pair that is
	// still live at now and returns how many rows were touched.
	InvalidateLive(ctx context.Context, requesterID, targetID string, now time.Time) (int64, error)

	// Create inserts s and fills s.ID.
	Create(ctx context.Context, s *models.VerificationSession) (*models.VerificationSession, error)

	// FindLive returns the live session of the pair at now, or
	// common.ErrorNotFound.
	FindLive(ctx context.Context, requesterID, targetID string, now time.Time) (*models.VerificationSession, error)

	// ListLiveByRequester returns the requester's live sessions, most
	// recently verified first.
	ListLiveByRequester(ctx context.Context, requesterID string, now time.Time) ([]*models.VerificationSession, error)

	// ListExpiredBefore returns sessions with expires_at < cutoff and locks
	// them for the rest of the transaction.
	ListExpiredBefore(ctx context.Context, cutoff time.Time) ([]*models.VerificationSession, error)

	// DeleteExpiredBefore removes sessions with expires_at < cutoff.
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
