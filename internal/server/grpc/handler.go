package grpc

import (
	"context"
	"errors"
	"strings"

	"github.com/dmitrijs2005/totpgate/internal/api"
	"github.com/dmitrijs2005/totpgate/internal/common"
	"github.com/dmitrijs2005/totpgate/internal/server/models"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func (s *GRPCServer) Ping(ctx context.Context, req *api.PingRequest) (*api.PingResponse, error) {
	return &api.PingResponse{Status: "OK"}, nil
}

func (s *GRPCServer) RegisterUser(ctx context.Context, req *api.RegisterUserRequest) (*api.RegisterUserResponse, error) {

	s.logger.Info(ctx, "Registration request")

	user, err := s.users.Register(ctx, req.Username, req.DisplayName, req.Salt, req.Verifier)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrorValidation):
			return nil, status.Error(codes.InvalidArgument, err.Error())
		case errors.Is(err, common.ErrorAlreadyExists):
			return nil, status.Error(codes.AlreadyExists, "username is taken")
		}
		s.logger.Error(ctx, "registration failed", "error", err)
		return nil, status.Error(codes.Internal, "internal error")
	}

	s.logger.Info(ctx, "Registered", "username", user.UserName)
	return &api.RegisterUserResponse{UserID: user.ID}, nil
}

func (s *GRPCServer) GetSalt(ctx context.Context, req *api.GetSaltRequest) (*api.GetSaltResponse, error) {

	salt, err := s.users.GetSalt(ctx, req.Username)
	if err != nil {
		return nil, status.Error(codes.Internal, "internal error")
	}

	return &api.GetSaltResponse{Salt: salt}, nil
}

func (s *GRPCServer) Login(ctx context.Context, req *api.LoginRequest) (*api.LoginResponse, error) {

	tokens, err := s.users.Login(ctx, req.Username, req.VerifierCandidate)
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			return nil, status.Error(codes.Unauthenticated, "unauthorized")
		}
		return nil, status.Error(codes.Internal, "internal error")
	}

	return &api.LoginResponse{AccessToken: tokens.AccessToken, RefreshToken: tokens.RefreshToken}, nil
}

func (s *GRPCServer) RefreshToken(ctx context.Context, req *api.RefreshTokenRequest) (*api.RefreshTokenResponse, error) {

	tokens, err := s.users.RefreshToken(ctx, req.RefreshToken)
	if err != nil {
		if errors.Is(err, common.ErrRefreshTokenExpired) || errors.Is(err, common.ErrorNotFound) {
			return nil, status.Error(codes.Unauthenticated, common.ErrRefreshTokenExpired.Error())
		}
		s.logger.Error(ctx, "refresh failed", "error", err)
		return nil, status.Error(codes.Internal, "internal error")
	}

	return &api.RefreshTokenResponse{AccessToken: tokens.AccessToken, RefreshToken: tokens.RefreshToken}, nil
}

func (s *GRPCServer) GenerateCode(ctx context.Context, req *api.GenerateCodeRequest) (*api.GenerateCodeResponse, error) {

	username := strings.TrimSpace(req.Username)
	if username == "" {
		return nil, status.Error(codes.InvalidArgument, "username is required")
	}

	snap, err := s.access.GenerateCodeForTarget(ctx, username, s.now())
	if err != nil {
		return nil, s.targetError(ctx, err)
	}

	return &api.GenerateCodeResponse{
		Code:             snap.Code,
		RemainingSeconds: snap.RemainingSeconds,
		ExpiresAt:        snap.ExpiresAt,
	}, nil
}

func (s *GRPCServer) VerifyCode(ctx context.Context, req *api.VerifyCodeRequest) (*api.VerifyCodeResponse, error) {

	requesterID, ok := userIDFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Internal, "missing caller identity")
	}

	res, err := s.access.VerifyAndEstablishSession(ctx, requesterID, strings.TrimSpace(req.Username), strings.TrimSpace(req.Code), s.now())
	if err != nil {
		return nil, status.Error(codes.Internal, "internal error")
	}

	return &api.VerifyCodeResponse{
		Valid:            res.Valid,
		Message:          res.Message,
		ValiditySeconds:  res.ValiditySeconds,
		RemainingSeconds: res.RemainingSeconds,
		ExpiresAt:        res.ExpiresAt,
	}, nil
}

func (s *GRPCServer) ListSessions(ctx context.Context, req *api.ListSessionsRequest) (*api.ListSessionsResponse, error) {

	requesterID, ok := userIDFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Internal, "missing caller identity")
	}

	list, err := s.access.ListMySessions(ctx, requesterID, s.now())
	if err != nil {
		s.logger.Error(ctx, "listing sessions failed", "error", err)
		return nil, status.Error(codes.Internal, "internal error")
	}

	resp := &api.ListSessionsResponse{Sessions: make([]*api.Session, 0, len(list))}
	for _, d := range list {
		resp.Sessions = append(resp.Sessions, toAPISession(d))
	}
	return resp, nil
}

func (s *GRPCServer) GetSession(ctx context.Context, req *api.GetSessionRequest) (*api.GetSessionResponse, error) {

	requesterID, ok := userIDFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Internal, "missing caller identity")
	}

	details, err := s.access.DescribeSession(ctx, requesterID, strings.TrimSpace(req.Username), s.now())
	if err != nil {
		return nil, s.targetError(ctx, err)
	}
	if details == nil {
		return &api.GetSessionResponse{Found: false}, nil
	}

	return &api.GetSessionResponse{Found: true, Session: toAPISession(details)}, nil
}

func (s *GRPCServer) GetProfile(ctx context.Context, req *api.GetProfileRequest) (*api.GetProfileResponse, error) {

	requesterID, ok := userIDFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Internal, "missing caller identity")
	}

	view, err := s.profiles.GetProfile(ctx, requesterID, strings.TrimSpace(req.Username), s.now())
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			return nil, status.Error(codes.PermissionDenied, "no live verification session for this user")
		}
		return nil, s.targetError(ctx, err)
	}

	return &api.GetProfileResponse{
		Username:         view.Username,
		DisplayName:      view.DisplayName,
		RemainingMinutes: view.RemainingMinutes,
	}, nil
}

// targetError maps errors of calls that name a target user.
func (s *GRPCServer) targetError(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, common.ErrorNotFound):
		return status.Error(codes.NotFound, "target user not found")
	case errors.Is(err, common.ErrTOTPNotConfigured):
		return status.Error(codes.FailedPrecondition, common.ErrTOTPNotConfigured.Error())
	}
	s.logger.Error(ctx, "request failed", "error", err)
	return status.Error(codes.Internal, "internal error")
}

func toAPISession(d *models.SessionDetails) *api.Session {
	return &api.Session{
		TargetUsername:    d.TargetUsername,
		TargetDisplayName: d.TargetDisplayName,
		VerifiedAt:        d.VerifiedAt,
		ExpiresAt:         d.ExpiresAt,
		RemainingSeconds:  d.RemainingSeconds,
		RemainingMinutes:  d.RemainingMinutes,
	}
}
