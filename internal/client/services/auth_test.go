package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dmitrijs2005/totpgate/internal/client/client"
	"github.com/dmitrijs2005/totpgate/internal/cryptox"
	"github.com/stretchr/testify/require"
)

func TestRegister_SendsSaltAndVerifier(t *testing.T) {
	fc := &fakeClient{}
	svc := NewAuthService(fc)

	err := svc.Register(context.Background(), " alice ", " Alice A. ", []byte("pass"))
	require.NoError(t, err)

	require.Equal(t, "alice", fc.LastRegisterUser)
	require.Equal(t, "Alice A.", fc.LastRegisterDisplay)
	require.Len(t, fc.LastRegisterSalt, saltSize)

	want := cryptox.MakeVerifier(cryptox.DeriveMasterKey([]byte("pass"), fc.LastRegisterSalt))
	require.Equal(t, want, fc.LastRegisterKey)
}

func TestRegister_FreshSaltEachTime(t *testing.T) {
	fc := &fakeClient{}
	svc := NewAuthService(fc)

	require.NoError(t, svc.Register(context.Background(), "a", "", []byte("p")))
	first := fc.LastRegisterSalt
	require.NoError(t, svc.Register(context.Background(), "a", "", []byte("p")))
	require.NotEqual(t, first, fc.LastRegisterSalt)
}

func TestRegister_Validation(t *testing.T) {
	tests := []struct {
		name     string
		username string
		password []byte
	}{
		{name: "blank username", username: "  ", password: []byte("p")},
		{name: "empty password", username: "alice", password: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fc := &fakeClient{}
			err := NewAuthService(fc).Register(context.Background(), tt.username, "", tt.password)
			require.ErrorIs(t, err, client.ErrInvalidInput)
			require.Empty(t, fc.LastRegisterUser)
		})
	}
}

func TestRegister_ErrorFromClient(t *testing.T) {
	fc := &fakeClient{RegisterErr: client.ErrAlreadyExists}
	err := NewAuthService(fc).Register(context.Background(), "u", "", []byte("p"))
	require.ErrorIs(t, err, client.ErrAlreadyExists)
}

func TestLogin_Success(t *testing.T) {
	fc := &fakeClient{GetSaltRet: []byte("salt")}
	svc := NewAuthService(fc)

	require.NoError(t, svc.Login(context.Background(), "user", []byte("pass")))

	require.Equal(t, "user", fc.LastGetSaltUser)
	require.Equal(t, "user", fc.LastLoginUser)
	want := cryptox.MakeVerifier(cryptox.DeriveMasterKey([]byte("pass"), []byte("salt")))
	require.Equal(t, want, fc.LastLoginKey)
}

func TestLogin_GetSaltError_Wrapped(t *testing.T) {
	fc := &fakeClient{GetSaltErr: errors.New("network down")}
	err := NewAuthService(fc).Login(context.Background(), "u", []byte("p"))
	require.Error(t, err)
	require.True(t, strings.HasPrefix(err.Error(), "get salt error:"))
	require.Empty(t, fc.LastLoginUser)
}

func TestLogin_UnknownUserLooksUnauthorized(t *testing.T) {
	fc := &fakeClient{GetSaltErr: client.ErrNotFound}
	err := NewAuthService(fc).Login(context.Background(), "ghost", []byte("p"))
	require.ErrorIs(t, err, client.ErrUnauthorized)
	require.NotErrorIs(t, err, client.ErrNotFound)
}

func TestLogin_LoginError_Wrapped(t *testing.T) {
	fc := &fakeClient{GetSaltRet: []byte("s"), LoginErr: client.ErrUnauthorized}
	err := NewAuthService(fc).Login(context.Background(), "u", []byte("p"))
	require.ErrorIs(t, err, client.ErrUnauthorized)
	require.True(t, strings.HasPrefix(err.Error(), "login error:"))
}

func TestLogin_BlankUsername(t *testing.T) {
	fc := &fakeClient{}
	err := NewAuthService(fc).Login(context.Background(), " ", []byte("p"))
	require.ErrorIs(t, err, client.ErrInvalidInput)
	require.Empty(t, fc.LastGetSaltUser)
}

func TestLogout_Ping_Close_Delegations(t *testing.T) {
	fc := &fakeClient{}
	svc := NewAuthService(fc)

	require.NoError(t, svc.Ping(context.Background()))
	require.NoError(t, svc.Close(context.Background()))
	svc.Logout()
	require.True(t, fc.LoggedOut)

	fc.PingErr = errors.New("down")
	fc.CloseErr = errors.New("io")
	require.Error(t, svc.Ping(context.Background()))
	require.Error(t, svc.Close(context.Background()))
}
