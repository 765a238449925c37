package services

import (
	"context"
	"database/sql"
	"time"

	"github.com/dmitrijs2005/totpgate/internal/common"
	"github.com/dmitrijs2005/totpgate/internal/server/repositories/repomanager"
)

// ProfileView is what a requester with a live session may see of a target.
type ProfileView struct {
	Username         string
	DisplayName      string
	RemainingMinutes int
}

// ProfileService serves the target profile read, gated by AccessService.
type ProfileService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	access      *AccessService
	sessions    *SessionService
}

func NewProfileService(db *sql.DB, m repomanager.RepositoryManager, access *AccessService, sessions *SessionService) *ProfileService {
	return &ProfileService{db: db, repomanager: m, access: access, sessions: sessions}
}

// GetProfile returns the profile of the user named targetHandle. Owners may
// always read their own profile; anyone else needs a live session, and
// without one the read fails with common.ErrorUnauthorized.
func (s *ProfileService) GetProfile(ctx context.Context, requesterID, targetHandle string, now time.Time) (*ProfileView, error) {
	target, err := s.repomanager.Users(s.db).GetUserByLogin(ctx, targetHandle)
	if err != nil {
		return nil, err
	}

	view := &ProfileView{Username: target.UserName, DisplayName: target.DisplayName}
	if target.ID == requesterID {
		return view, nil
	}

	ok, err := s.access.Authorize(ctx, requesterID, target.ID, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, common.ErrorUnauthorized
	}

	details, err := s.sessions.Describe(ctx, requesterID, target.ID, now)
	if err != nil {
		return nil, err
	}
	if details == nil {
		// expired between the two reads
		return nil, common.ErrorUnauthorized
	}
	view.RemainingMinutes = details.RemainingMinutes
	return view, nil
}
