package services

import (
	"context"

	"github.com/dmitrijs2005/totpgate/internal/api"
)

// fakeClient implements client.Client for service unit tests.
type fakeClient struct {
	CloseErr    error
	RegisterErr error
	GetSaltRet  []byte
	GetSaltErr  error
	LoginErr    error
	PingErr     error

	CodeRet     *api.GenerateCodeResponse
	VerifyRet   *api.VerifyCodeResponse
	SessionsRet []*api.Session
	SessionRet  *api.Session
	ProfileRet  *api.GetProfileResponse
	CallErr     error

	LastRegisterUser    string
	LastRegisterDisplay string
	LastRegisterSalt    []byte
	LastRegisterKey     []byte
	LastGetSaltUser     string
	LastLoginUser       string
	LastLoginKey        []byte
	LastTarget          string
	LastCode            string
	LoggedOut           bool
	Calls               int
}

func (f *fakeClient) Close() error                   { return f.CloseErr }
func (f *fakeClient) Ping(ctx context.Context) error { return f.PingErr }
func (f *fakeClient) Logout()                        { f.LoggedOut = true }

func (f *fakeClient) Register(ctx context.Context, username, displayName string, salt []byte, key []byte) error {
	f.LastRegisterUser = username
	f.LastRegisterDisplay = displayName
	f.LastRegisterSalt = append([]byte(nil), salt...)
	f.LastRegisterKey = append([]byte(nil), key...)
	return f.RegisterErr
}

func (f *fakeClient) GetSalt(ctx context.Context, username string) ([]byte, error) {
	f.LastGetSaltUser = username
	return append([]byte(nil), f.GetSaltRet...), f.GetSaltErr
}

func (f *fakeClient) Login(ctx context.Context, username string, key []byte) error {
	f.LastLoginUser = username
	f.LastLoginKey = append([]byte(nil), key...)
	return f.LoginErr
}

func (f *fakeClient) GenerateCode(ctx context.Context, username string) (*api.GenerateCodeResponse, error) {
	f.Calls++
	f.LastTarget = username
	return f.CodeRet, f.CallErr
}

func (f *fakeClient) VerifyCode(ctx context.Context, username, code string) (*api.VerifyCodeResponse, error) {
	f.Calls++
	f.LastTarget = username
	f.LastCode = code
	return f.VerifyRet, f.CallErr
}

func (f *fakeClient) ListSessions(ctx context.Context) ([]*api.Session, error) {
	f.Calls++
	return f.SessionsRet, f.CallErr
}

func (f *fakeClient) GetSession(ctx context.Context, username string) (*api.Session, error) {
	f.Calls++
	f.LastTarget = username
	return f.SessionRet, f.CallErr
}

func (f *fakeClient) GetProfile(ctx context.Context, username string) (*api.GetProfileResponse, error) {
	f.Calls++
	f.LastTarget = username
	return f.ProfileRet, f.CallErr
}
