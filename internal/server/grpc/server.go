// Package grpc exposes the access service over gRPC.
package grpc

import (
	"context"
	"net"
	"time"

	"github.com/dmitrijs2005/totpgate/internal/api"
	"github.com/dmitrijs2005/totpgate/internal/logging"
	"github.com/dmitrijs2005/totpgate/internal/server/models"
	"github.com/dmitrijs2005/totpgate/internal/server/services"
	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"
)

type userService interface {
	Register(ctx context.Context, username, displayName string, salt, verifier []byte) (*models.User, error)
	GetSalt(ctx context.Context, username string) ([]byte, error)
	Login(ctx context.Context, username string, verifierCandidate []byte) (*services.TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
}

type accessService interface {
	VerifyAndEstablishSession(ctx context.Context, requesterID, targetHandle, code string, now time.Time) (*services.VerificationResult, error)
	GenerateCodeForTarget(ctx context.Context, targetHandle string, now time.Time) (*services.CodeSnapshot, error)
	ListMySessions(ctx context.Context, requesterID string, now time.Time) ([]*models.SessionDetails, error)
	DescribeSession(ctx context.Context, requesterID, targetHandle string, now time.Time) (*models.SessionDetails, error)
}

type profileService interface {
	GetProfile(ctx context.Context, requesterID, targetHandle string, now time.Time) (*services.ProfileView, error)
}

type GRPCServer struct {
	api.UnimplementedAccessServiceServer
	address      string
	users        userService
	access       accessService
	profiles     profileService
	interceptors []grpc.UnaryServerInterceptor
	logger       logging.Logger
	jwtSecret    []byte
	now          func() time.Time
}

// NewGRPCServer builds the server. Extra interceptors run before the access
// token check, so they also see rejected calls.
func NewGRPCServer(a string, l logging.Logger, us userService, as accessService, ps profileService,
	secretKey string, interceptors ...grpc.UnaryServerInterceptor) *GRPCServer {
	return &GRPCServer{
		address:      a,
		logger:       l.With("module", "grpc_server"),
		users:        us,
		access:       as,
		profiles:     ps,
		interceptors: interceptors,
		jwtSecret:    []byte(secretKey),
		now:          time.Now,
	}
}

func (s *GRPCServer) newServer() *grpc.Server {
	chain := append(append([]grpc.UnaryServerInterceptor{}, s.interceptors...), s.accessTokenInterceptor)
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(chain...))
	api.RegisterAccessServiceServer(srv, s)
	reflection.Register(srv)
	return srv
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is cancelled, then stops
// gracefully.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	if err := srv.Serve(lis); err != nil {
		return err
	}

	return nil
}
