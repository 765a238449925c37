// Package services contains application services for the totpgate CLI.
// This file defines the authentication service: register, login, logout and
// the liveness check. Passwords never leave the process; only the salt and
// the Argon2id-derived verifier are sent to the server.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/totpgate/internal/client/client"
	"github.com/dmitrijs2005/totpgate/internal/common"
	"github.com/dmitrijs2005/totpgate/internal/cryptox"
)

const saltSize = 32

// AuthService defines authentication operations for the CLI.
//
// All methods must honor context cancellation/timeouts.
type AuthService interface {
	Register(ctx context.Context, username, displayName string, password []byte) error
	Login(ctx context.Context, username string, password []byte) error
	Logout()
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

type authService struct {
	client client.Client
}

// NewAuthService constructs an AuthService bound to the given API client.
func NewAuthService(client client.Client) AuthService {
	return &authService{client: client}
}

// Register creates a new account on the server. It generates a random salt,
// derives a master key from the password and sends salt and verifier.
func (a *authService) Register(ctx context.Context, username, displayName string, password []byte) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return fmt.Errorf("%w: username is required", client.ErrInvalidInput)
	}
	if len(password) == 0 {
		return fmt.Errorf("%w: password is required", client.ErrInvalidInput)
	}

	salt := common.GenerateRandByteArray(saltSize)
	key := cryptox.DeriveMasterKey(password, salt)
	defer common.WipeByteArray(key)

	return a.client.Register(ctx, username, strings.TrimSpace(displayName), salt, cryptox.MakeVerifier(key))
}

// Login fetches the user's salt, derives the verifier candidate and exchanges
// it for a token pair held by the client.
func (a *authService) Login(ctx context.Context, username string, password []byte) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return fmt.Errorf("%w: username is required", client.ErrInvalidInput)
	}

	salt, err := a.client.GetSalt(ctx, username)
	if err != nil {
		// unknown users and wrong passwords look the same to the caller
		if errors.Is(err, client.ErrNotFound) {
			return fmt.Errorf("login error: %w", client.ErrUnauthorized)
		}
		return fmt.Errorf("get salt error: %w", err)
	}

	key := cryptox.DeriveMasterKey(password, salt)
	defer common.WipeByteArray(key)

	if err := a.client.Login(ctx, username, cryptox.MakeVerifier(key)); err != nil {
		return fmt.Errorf("login error: %w", err)
	}
	return nil
}

func (a *authService) Logout() {
	a.client.Logout()
}

// Ping proxies a liveness check to the underlying client.
func (a *authService) Ping(ctx context.Context) error {
	return a.client.Ping(ctx)
}

// Close releases resources held by the underlying client.
func (a *authService) Close(ctx context.Context) error {
	return a.client.Close()
}
