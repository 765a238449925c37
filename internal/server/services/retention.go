package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/totpgate/internal/dbx"
	"github.com/dmitrijs2005/totpgate/internal/logging"
	"github.com/dmitrijs2005/totpgate/internal/server/archive"
	"github.com/dmitrijs2005/totpgate/internal/server/metrics"
	"github.com/dmitrijs2005/totpgate/internal/server/repositories/repomanager"
)

// Archiver stores one archive object.
type Archiver interface {
	Archive(ctx context.Context, key string, payload []byte) error
}

// PurgeReport summarizes one retention run.
type PurgeReport struct {
	ObjectKey            string
	SessionsArchived     int
	SessionsDeleted      int64
	RefreshTokensDeleted int64
}

type archivedSession struct {
	ID                string    `json:"id"`
	RequesterID       string    `json:"requester_id"`
	TargetID          string    `json:"target_id"`
	TargetUsername    string    `json:"target_username"`
	TargetDisplayName string    `json:"target_display_name"`
	VerifiedAt        time.Time `json:"verified_at"`
	ExpiresAt         time.Time `json:"expires_at"`
}

type archiveDocument struct {
	Cutoff     time.Time         `json:"cutoff"`
	ArchivedAt time.Time         `json:"archived_at"`
	Sessions   []archivedSession `json:"sessions"`
}

// RetentionService removes long-expired sessions. It runs out of band and
// nothing on the request path depends on it.
type RetentionService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	archiver    Archiver
	metrics     *metrics.Metrics
	logger      logging.Logger
	now         func() time.Time
}

func NewRetentionService(db *sql.DB, rm repomanager.RepositoryManager, a Archiver, m *metrics.Metrics, l logging.Logger) *RetentionService {
	return &RetentionService{
		db:          db,
		repomanager: rm,
		archiver:    a,
		metrics:     m,
		logger:      l.With("module", "retention_service"),
		now:         time.Now,
	}
}

// Purge archives every session that expired before cutoff as a single JSON
// object and then deletes those rows together with refresh tokens expired
// before cutoff. Rows stay locked from selection to deletion; a failed upload
// rolls everything back.
func (s *RetentionService) Purge(ctx context.Context, cutoff time.Time) (*PurgeReport, error) {
	report := &PurgeReport{}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		sessionsRepo := s.repomanager.Sessions(tx)

		expired, err := sessionsRepo.ListExpiredBefore(ctx, cutoff)
		if err != nil {
			return fmt.Errorf("error listing expired sessions: %w", err)
		}

		if len(expired) > 0 {
			now := s.now()
			doc := archiveDocument{Cutoff: cutoff, ArchivedAt: now, Sessions: make([]archivedSession, 0, len(expired))}
			for _, e := range expired {
				doc.Sessions = append(doc.Sessions, archivedSession{
					ID:                e.ID,
					RequesterID:       e.RequesterID,
					TargetID:          e.TargetID,
					TargetUsername:    e.TargetUsername,
					TargetDisplayName: e.TargetDisplayName,
					VerifiedAt:        e.VerifiedAt,
					ExpiresAt:         e.ExpiresAt,
				})
			}

			payload, err := json.Marshal(doc)
			if err != nil {
				return fmt.Errorf("error encoding archive: %w", err)
			}

			report.ObjectKey = archive.ObjectKey(now)
			if err := s.archiver.Archive(ctx, report.ObjectKey, payload); err != nil {
				return fmt.Errorf("error archiving sessions: %w", err)
			}
			report.SessionsArchived = len(expired)

			report.SessionsDeleted, err = sessionsRepo.DeleteExpiredBefore(ctx, cutoff)
			if err != nil {
				return fmt.Errorf("error deleting sessions: %w", err)
			}
		}

		report.RefreshTokensDeleted, err = s.repomanager.RefreshTokens(tx).DeleteExpiredBefore(ctx, cutoff)
		if err != nil {
			return fmt.Errorf("error deleting refresh tokens: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ObservePurged(report.SessionsArchived)
	s.logger.Info(ctx, "retention run finished",
		"cutoff", cutoff,
		"archived", report.SessionsArchived,
		"deleted", report.SessionsDeleted,
		"refresh_tokens_deleted", report.RefreshTokensDeleted,
		"object", report.ObjectKey)
	return report, nil
}
