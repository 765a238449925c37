// Package services contains server-side business logic: identities and
// tokens (UserService), verification sessions (SessionService), the access
// gate (AccessService), gated reads (ProfileService) and the retention job
// (RetentionService).
package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/totpgate/internal/common"
	"github.com/dmitrijs2005/totpgate/internal/dbx"
	"github.com/dmitrijs2005/totpgate/internal/server/auth"
	"github.com/dmitrijs2005/totpgate/internal/server/config"
	"github.com/dmitrijs2005/totpgate/internal/server/models"
	"github.com/dmitrijs2005/totpgate/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/totpgate/internal/totp"
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// UserService provides identity operations:
//   - Register: create a user together with its TOTP secret
//   - Login: verify credentials and mint tokens
//   - RefreshToken: rotate refresh tokens and mint new access tokens
type UserService struct {
	db                           *sql.DB
	repomanager                  repomanager.RepositoryManager
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
	now                          func() time.Time
	generateSecret               func() (string, error)
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *UserService {
	return &UserService{
		db:                           db,
		repomanager:                  m,
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
		now:                          time.Now,
		generateSecret:               totp.GenerateSecret,
	}
}

// RefreshToken exchanges a valid refresh token for a new pair. The old token
// is deleted and the new one stored in the same transaction.
func (s *UserService) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {

	token, err := s.repomanager.RefreshTokens(s.db).Find(ctx, refreshToken)
	if err != nil {
		return nil, fmt.Errorf("error searching refresh token: %w", err)
	}

	if !token.Expires.After(s.now()) {
		return nil, common.ErrRefreshTokenExpired
	}

	var tokenPair *TokenPair

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.RefreshTokens(tx).Delete(ctx, refreshToken); err != nil {
			return fmt.Errorf("error deleting refresh token: %w", err)
		}

		var err error
		tokenPair, err = s.generateTokenPair(ctx, tx, token.UserID)
		if err != nil {
			return fmt.Errorf("error generating token pair: %w", err)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	return tokenPair, nil
}

// Register creates the user and its TOTP secret atomically. The secret is
// generated exactly once here and never returned.
func (s *UserService) Register(ctx context.Context, username, displayName string, salt, verifier []byte) (*models.User, error) {

	username = strings.TrimSpace(username)
	if username == "" || len(username) > common.UserNameMaxLength {
		return nil, fmt.Errorf("%w: username must be 1..%d characters", common.ErrorValidation, common.UserNameMaxLength)
	}
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName = username
	}
	if utf8.RuneCountInString(displayName) > common.DisplayNameMaxLength {
		return nil, fmt.Errorf("%w: display name must be at most %d characters", common.ErrorValidation, common.DisplayNameMaxLength)
	}

	secret, err := s.generateSecret()
	if err != nil {
		return nil, fmt.Errorf("error generating secret: %w", err)
	}

	user := &models.User{
		UserName:    username,
		DisplayName: displayName,
		Salt:        salt,
		Verifier:    verifier,
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		created, err := s.repomanager.Users(tx).Create(ctx, user)
		if err != nil {
			return fmt.Errorf("error creating user: %w", err)
		}
		user = created

		if err := s.repomanager.Secrets(tx).Create(ctx, user.ID, secret); err != nil {
			return fmt.Errorf("error storing secret: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

// decoySalt derives a stable salt for a handle that does not exist, so
// repeated GetSalt calls look the same as for a real user.
func (s *UserService) decoySalt(userName string) []byte {
	mac := hmac.New(sha256.New, s.jwtSecret)
	mac.Write([]byte("decoy-salt:" + userName))
	return mac.Sum(nil)
}

// GetSalt returns the user's salt. Unknown users get a decoy salt so the
// endpoint does not reveal which handles exist.
func (s *UserService) GetSalt(ctx context.Context, userName string) ([]byte, error) {

	user, err := s.repomanager.Users(s.db).GetUserByLogin(ctx, userName)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return s.decoySalt(userName), nil
		}
		return nil, common.ErrorInternal
	}

	return user.Salt, nil
}

func (s *UserService) generateAccessToken(userID string) (string, error) {
	return auth.GenerateToken(userID, s.jwtSecret, s.accessTokenValidityDuration)
}

func (s *UserService) generateRefreshToken() (string, error) {
	return common.MakeRandHexString(32)
}

func (s *UserService) checkVerifier(verifier []byte, verifierCandidate []byte) bool {
	return subtle.ConstantTimeCompare(verifier, verifierCandidate) == 1
}

func (s *UserService) Login(ctx context.Context, userName string, verifierCandidate []byte) (*TokenPair, error) {

	user, err := s.repomanager.Users(s.db).GetUserByLogin(ctx, userName)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, common.ErrorInternal
	}

	if !s.checkVerifier(user.Verifier, verifierCandidate) {
		return nil, common.ErrorUnauthorized
	}

	return s.generateTokenPair(ctx, s.db, user.ID)
}

func (s *UserService) generateTokenPair(ctx context.Context, db dbx.DBTX, userID string) (*TokenPair, error) {
	accessToken, err := s.generateAccessToken(userID)
	if err != nil {
		return nil, common.ErrorInternal
	}

	refreshToken, err := s.generateRefreshToken()
	if err != nil {
		return nil, common.ErrorInternal
	}

	expiresAt := s.now().Add(s.refreshTokenValidityDuration)
	if err := s.repomanager.RefreshTokens(db).Create(ctx, userID, refreshToken, expiresAt); err != nil {
		return nil, common.ErrorInternal
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}
