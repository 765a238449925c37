package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/dmitrijs2005/totpgate/internal/common"
	"github.com/dmitrijs2005/totpgate/internal/dbx"
	"github.com/dmitrijs2005/totpgate/internal/logging"
	"github.com/dmitrijs2005/totpgate/internal/server/models"
	"github.com/dmitrijs2005/totpgate/internal/server/repositories/repomanager"
)

// SessionService owns verification sessions. At most one session per ordered
// (requester, target) pair is live at any instant; liveness is evaluated
// lazily against expires_at, so nothing ever sweeps expired rows here.
type SessionService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	retry       dbx.RetryPolicy
	logger      logging.Logger
}

func NewSessionService(db *sql.DB, m repomanager.RepositoryManager, l logging.Logger) *SessionService {
	return &SessionService{
		db:          db,
		repomanager: m,
		retry:       dbx.DefaultRetryPolicy,
		logger:      l.With("module", "session_service"),
	}
}

// CreateSession ends any live session of the pair at now and starts a new one
// lasting models.SessionValidity. Lock, invalidate and insert run in one
// transaction, so concurrent calls for the same pair from any number of
// processes leave exactly one live row. Serialization failures and deadlocks
// rerun the whole transaction.
func (s *SessionService) CreateSession(ctx context.Context, requesterID, targetID, targetDisplayName string, now time.Time) (*models.VerificationSession, error) {
	if requesterID == targetID {
		return nil, common.ErrSelfVerification
	}

	var created *models.VerificationSession

	err := dbx.WithRetryTx(ctx, s.db, nil, s.retry, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Sessions(tx)

		if err := repo.LockPair(ctx, requesterID, targetID); err != nil {
			return err
		}

		invalidated, err := repo.InvalidateLive(ctx, requesterID, targetID, now)
		if err != nil {
			return err
		}
		if invalidated > 0 {
			s.logger.Debug(ctx, "previous session invalidated", "requester", requesterID, "target", targetID, "count", invalidated)
		}

		created, err = repo.Create(ctx, &models.VerificationSession{
			RequesterID:       requesterID,
			TargetID:          targetID,
			TargetDisplayName: targetDisplayName,
			VerifiedAt:        now,
			ExpiresAt:         now.Add(models.SessionValidity),
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

// IsLive reports whether requesterID currently holds a live session for
// targetID. The relation is directional.
func (s *SessionService) IsLive(ctx context.Context, requesterID, targetID string, now time.Time) (bool, error) {
	sess, err := s.findLive(ctx, requesterID, targetID, now)
	if err != nil {
		return false, err
	}
	return sess != nil, nil
}

// Describe returns the live session of the pair with its remaining validity,
// or nil when there is none.
func (s *SessionService) Describe(ctx context.Context, requesterID, targetID string, now time.Time) (*models.SessionDetails, error) {
	sess, err := s.findLive(ctx, requesterID, targetID, now)
	if err != nil || sess == nil {
		return nil, err
	}
	return sess.Details(now), nil
}

// ListLiveForRequester returns every live session held by requesterID, most
// recently verified first. The result is never nil.
func (s *SessionService) ListLiveForRequester(ctx context.Context, requesterID string, now time.Time) ([]*models.SessionDetails, error) {
	list, err := s.repomanager.Sessions(s.db).ListLiveByRequester(ctx, requesterID, now)
	if err != nil {
		return nil, err
	}

	result := make([]*models.SessionDetails, 0, len(list))
	for _, sess := range list {
		result = append(result, sess.Details(now))
	}
	return result, nil
}

func (s *SessionService) findLive(ctx context.Context, requesterID, targetID string, now time.Time) (*models.VerificationSession, error) {
	if requesterID == targetID {
		return nil, nil
	}
	sess, err := s.repomanager.Sessions(s.db).FindLive(ctx, requesterID, targetID, now)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil
		}
		return nil, err
	}
	// the store already filters on expires_at; re-check against the same now
	if !sess.IsLiveAt(now) {
		return nil, nil
	}
	return sess, nil
}
