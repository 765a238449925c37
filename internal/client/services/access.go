package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/totpgate/internal/api"
	"github.com/dmitrijs2005/totpgate/internal/client/client"
)

// AccessService wraps the delegation calls: showing one's own code,
// verifying someone else's code and reading what a session unlocks.
type AccessService interface {
	Code(ctx context.Context, username string) (*api.GenerateCodeResponse, error)
	Verify(ctx context.Context, username, code string) (*api.VerifyCodeResponse, error)
	Sessions(ctx context.Context) ([]*api.Session, error)
	Session(ctx context.Context, username string) (*api.Session, error)
	Profile(ctx context.Context, username string) (*api.GetProfileResponse, error)
}

type accessService struct {
	client client.Client
}

func NewAccessService(client client.Client) AccessService {
	return &accessService{client: client}
}

func normalizeUsername(username string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return "", fmt.Errorf("%w: username is required", client.ErrInvalidInput)
	}
	return username, nil
}

func (s *accessService) Code(ctx context.Context, username string) (*api.GenerateCodeResponse, error) {
	username, err := normalizeUsername(username)
	if err != nil {
		return nil, err
	}
	return s.client.GenerateCode(ctx, username)
}

// Verify submits code for username. Codes are sent as typed apart from
// surrounding blanks; the server decides what is well formed.
func (s *accessService) Verify(ctx context.Context, username, code string) (*api.VerifyCodeResponse, error) {
	username, err := normalizeUsername(username)
	if err != nil {
		return nil, err
	}
	return s.client.VerifyCode(ctx, username, strings.TrimSpace(code))
}

func (s *accessService) Sessions(ctx context.Context) ([]*api.Session, error) {
	return s.client.ListSessions(ctx)
}

// Session returns nil without error when there is no live session.
func (s *accessService) Session(ctx context.Context, username string) (*api.Session, error) {
	username, err := normalizeUsername(username)
	if err != nil {
		return nil, err
	}
	return s.client.GetSession(ctx, username)
}

func (s *accessService) Profile(ctx context.Context, username string) (*api.GetProfileResponse, error) {
	username, err := normalizeUsername(username)
	if err != nil {
		return nil, err
	}
	return s.client.GetProfile(ctx, username)
}
