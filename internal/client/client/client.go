package client

import (
	"context"

	"github.com/dmitrijs2005/totpgate/internal/api"
)

type Client interface {
	Close() error
	Ping(ctx context.Context) error
	Register(ctx context.Context, username, displayName string, salt []byte, key []byte) error
	GetSalt(ctx context.Context, username string) ([]byte, error)
	Login(ctx context.Context, username string, key []byte) error
	Logout()
	GenerateCode(ctx context.Context, username string) (*api.GenerateCodeResponse, error)
	VerifyCode(ctx context.Context, username, code string) (*api.VerifyCodeResponse, error)
	ListSessions(ctx context.Context) ([]*api.Session, error)
	GetSession(ctx context.Context, username string) (*api.Session, error)
	GetProfile(ctx context.Context, username string) (*api.GetProfileResponse, error)
}
