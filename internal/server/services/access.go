package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/totpgate/internal/common"
	"github.com/dmitrijs2005/totpgate/internal/logging"
	"github.com/dmitrijs2005/totpgate/internal/server/limiter"
	"github.com/dmitrijs2005/totpgate/internal/server/metrics"
	"github.com/dmitrijs2005/totpgate/internal/server/models"
	"github.com/dmitrijs2005/totpgate/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/totpgate/internal/totp"
)

// Messages returned in VerificationResult.
const (
	MsgVerified         = "verification successful"
	MsgTargetNotFound   = "target user not found"
	MsgSelfVerification = "self-verification is not allowed"
	MsgTooManyAttempts  = "too many verification attempts"
	MsgNotConfigured    = "TOTP is not configured for target user"
	MsgInvalidCode      = "invalid or expired code"
)

// VerificationResult is the outcome of VerifyAndEstablishSession. Policy
// failures are reported with Valid=false and a Message; only infrastructure
// problems are returned as errors.
type VerificationResult struct {
	Valid            bool
	Message          string
	ValiditySeconds  int
	RemainingSeconds int
	ExpiresAt        *time.Time
}

// CodeSnapshot is the current code of a target and how long its step lasts.
type CodeSnapshot struct {
	Code             string
	RemainingSeconds int
	ExpiresAt        time.Time
}

// AccessService is the access gate. Protected reads call Authorize; code
// submissions go through VerifyAndEstablishSession.
type AccessService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	sessions    *SessionService
	limiter     limiter.Limiter
	tolerance   int
	metrics     *metrics.Metrics
	logger      logging.Logger
}

// NewAccessService wires the gate. lim and m may be nil, which disables
// throttling and metrics respectively.
func NewAccessService(db *sql.DB, rm repomanager.RepositoryManager, sessions *SessionService,
	lim limiter.Limiter, tolerance int, m *metrics.Metrics, l logging.Logger) *AccessService {
	return &AccessService{
		db:          db,
		repomanager: rm,
		sessions:    sessions,
		limiter:     lim,
		tolerance:   tolerance,
		metrics:     m,
		logger:      l.With("module", "access_service"),
	}
}

// Authorize reports whether requesterID may read targetID's protected data
// at now. false must be treated as a hard deny.
func (s *AccessService) Authorize(ctx context.Context, requesterID, targetID string, now time.Time) (bool, error) {
	ok, err := s.sessions.IsLive(ctx, requesterID, targetID, now)
	if err != nil {
		return false, err
	}
	s.metrics.ObserveAuthorization(ok)
	return ok, nil
}

// VerifyAndEstablishSession checks code against the secret of the user
// named targetHandle and, when it matches, starts a session for
// (requesterID, target).
func (s *AccessService) VerifyAndEstablishSession(ctx context.Context, requesterID, targetHandle, code string, now time.Time) (*VerificationResult, error) {
	result, outcome, err := s.verify(ctx, requesterID, targetHandle, code, now)
	if err != nil {
		s.metrics.ObserveVerification(metrics.OutcomeError)
		s.logger.Error(ctx, "verification failed", "requester", requesterID, "target", targetHandle, "error", err)
		return nil, err
	}

	s.metrics.ObserveVerification(outcome)
	s.logger.Info(ctx, "verification", "requester", requesterID, "target", targetHandle, "outcome", outcome)
	return result, nil
}

func (s *AccessService) verify(ctx context.Context, requesterID, targetHandle, code string, now time.Time) (*VerificationResult, string, error) {
	target, err := s.repomanager.Users(s.db).GetUserByLogin(ctx, targetHandle)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return deny(MsgTargetNotFound), metrics.OutcomeUnknownTarget, nil
		}
		return nil, "", err
	}

	if target.ID == requesterID {
		return deny(MsgSelfVerification), metrics.OutcomeSelf, nil
	}

	if s.limiter != nil {
		allowed, err := s.limiter.Allow(ctx, limiter.VerifyKey(requesterID, target.ID))
		if err != nil {
			return nil, "", fmt.Errorf("attempt limiter: %w", err)
		}
		if !allowed {
			return deny(MsgTooManyAttempts), metrics.OutcomeThrottled, nil
		}
	}

	secret, err := s.repomanager.Secrets(s.db).GetByUserID(ctx, target.ID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return deny(MsgNotConfigured), metrics.OutcomeNotConfigured, nil
		}
		return nil, "", err
	}

	if !totp.ValidateCode(secret.Secret, code, now, s.tolerance) {
		return deny(MsgInvalidCode), metrics.OutcomeInvalidCode, nil
	}

	sess, err := s.sessions.CreateSession(ctx, requesterID, target.ID, target.DisplayName, now)
	if err != nil {
		return nil, "", err
	}

	validity := int(models.SessionValidity / time.Second)
	expiresAt := sess.ExpiresAt
	return &VerificationResult{
		Valid:            true,
		Message:          MsgVerified,
		ValiditySeconds:  validity,
		RemainingSeconds: validity,
		ExpiresAt:        &expiresAt,
	}, metrics.OutcomeSuccess, nil
}

func deny(msg string) *VerificationResult {
	return &VerificationResult{Valid: false, Message: msg}
}

// GenerateCodeForTarget returns the current code of the user named
// targetHandle. Unknown users yield common.ErrorNotFound, users without a
// secret common.ErrTOTPNotConfigured.
func (s *AccessService) GenerateCodeForTarget(ctx context.Context, targetHandle string, now time.Time) (*CodeSnapshot, error) {
	target, err := s.repomanager.Users(s.db).GetUserByLogin(ctx, targetHandle)
	if err != nil {
		return nil, err
	}

	secret, err := s.repomanager.Secrets(s.db).GetByUserID(ctx, target.ID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrTOTPNotConfigured
		}
		return nil, err
	}

	code, err := totp.GenerateCode(secret.Secret, now)
	if err != nil {
		return nil, fmt.Errorf("stored secret of %s: %w", target.ID, err)
	}

	s.metrics.ObserveCodeIssued()
	return &CodeSnapshot{
		Code:             code,
		RemainingSeconds: totp.RemainingSeconds(now),
		ExpiresAt:        totp.WindowEnd(now),
	}, nil
}

// ListMySessions lists the live sessions held by requesterID.
func (s *AccessService) ListMySessions(ctx context.Context, requesterID string, now time.Time) ([]*models.SessionDetails, error) {
	return s.sessions.ListLiveForRequester(ctx, requesterID, now)
}

// DescribeSession returns the live session requesterID holds for the user
// named targetHandle, or nil. Unknown handles yield common.ErrorNotFound.
func (s *AccessService) DescribeSession(ctx context.Context, requesterID, targetHandle string, now time.Time) (*models.SessionDetails, error) {
	target, err := s.repomanager.Users(s.db).GetUserByLogin(ctx, targetHandle)
	if err != nil {
		return nil, err
	}

	details, err := s.sessions.Describe(ctx, requesterID, target.ID, now)
	if err != nil || details == nil {
		return nil, err
	}
	details.TargetUsername = target.UserName
	return details, nil
}
