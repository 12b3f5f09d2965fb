package minichaingrpc

import (
	"context"
	"net"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"

	"github.com/blockberries/minichain"
	"github.com/blockberries/minichain/types"
)

// Compile-time interface check.
var _ RuntimeServiceServer = (*GRPCServer)(nil)

// GRPCServer exposes a minichain runtime as a gRPC service.
// No type conversion is needed; domain types are serialized
// directly via cramberry. Runtime errors are mapped to gRPC status
// codes.
type GRPCServer struct {
	rt  minichain.Runtime
	log zerolog.Logger
}

// NewGRPCServer creates a gRPC service backed by rt.
func NewGRPCServer(rt minichain.Runtime, log zerolog.Logger) *GRPCServer {
	return &GRPCServer{rt: rt, log: log}
}

// Register adds the runtime service to a gRPC server.
func (s *GRPCServer) Register(gs *grpc.Server) {
	RegisterRuntimeServiceServer(gs, s)
}

// Serve starts a gRPC server on the given listener.
func (s *GRPCServer) Serve(lis net.Listener, opts ...grpc.ServerOption) error {
	gs := grpc.NewServer(opts...)
	s.Register(gs)
	s.log.Info().Str("addr", lis.Addr().String()).Msg("grpc serving")
	return gs.Serve(lis)
}

// Runtime returns the underlying runtime for advanced use.
func (s *GRPCServer) Runtime() minichain.Runtime {
	return s.rt
}

// respond converts a runtime result into an RPC reply.
func respond[T any](s *GRPCServer, method string, v T, err error) (*T, error) {
	if err != nil {
		if minichain.CodeOf(err) == minichain.Internal {
			s.log.Error().Str("method", method).Err(err).Msg("rpc failed")
		}
		return nil, toStatus(err)
	}
	return &v, nil
}

func (s *GRPCServer) CreateChain(ctx context.Context, req *CreateChainRequest) (*types.Chain, error) {
	c, err := s.rt.CreateChain(ctx, req.Owner)
	return respond(s, "CreateChain", c, err)
}

func (s *GRPCServer) ListChains(ctx context.Context, _ *Empty) (*ListChainsResponse, error) {
	chains, err := s.rt.ListChains(ctx)
	return respond(s, "ListChains", ListChainsResponse{Chains: chains}, err)
}

func (s *GRPCServer) DeactivateChain(ctx context.Context, req *ChainIDRequest) (*types.Chain, error) {
	c, err := s.rt.DeactivateChain(ctx, req.ChainID)
	return respond(s, "DeactivateChain", c, err)
}

func (s *GRPCServer) DeployApp(ctx context.Context, req *types.DeployRequest) (*types.Application, error) {
	app, err := s.rt.DeployApp(ctx, *req)
	return respond(s, "DeployApp", app, err)
}

func (s *GRPCServer) ExecuteAction(ctx context.Context, req *types.ExecuteRequest) (*types.ExecuteResult, error) {
	res, err := s.rt.ExecuteAction(ctx, *req)
	return respond(s, "ExecuteAction", res, err)
}

func (s *GRPCServer) GetAppState(ctx context.Context, req *AppIDRequest) (*types.State, error) {
	st, err := s.rt.GetAppState(ctx, req.AppID)
	return respond(s, "GetAppState", st, err)
}

func (s *GRPCServer) ListApps(ctx context.Context, _ *Empty) (*ListAppsResponse, error) {
	apps, err := s.rt.ListApps(ctx)
	return respond(s, "ListApps", ListAppsResponse{Apps: apps}, err)
}

func (s *GRPCServer) ListMessages(ctx context.Context, _ *Empty) (*ListMessagesResponse, error) {
	msgs, err := s.rt.ListMessages(ctx)
	return respond(s, "ListMessages", ListMessagesResponse{Messages: msgs}, err)
}

func (s *GRPCServer) GetMessage(ctx context.Context, req *MessageIDRequest) (*types.CrossChainMessage, error) {
	m, err := s.rt.GetMessage(ctx, req.ID)
	return respond(s, "GetMessage", m, err)
}
