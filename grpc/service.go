package minichaingrpc

import (
	"context"
	"fmt"

	"google.golang.org/grpc"

	"github.com/blockberries/minichain/types"
)

const serviceName = "minichain.v1.Runtime"

// RuntimeServiceServer is the server-side interface for the minichain
// gRPC service.
type RuntimeServiceServer interface {
	CreateChain(context.Context, *CreateChainRequest) (*types.Chain, error)
	ListChains(context.Context, *Empty) (*ListChainsResponse, error)
	DeactivateChain(context.Context, *ChainIDRequest) (*types.Chain, error)
	DeployApp(context.Context, *types.DeployRequest) (*types.Application, error)
	ExecuteAction(context.Context, *types.ExecuteRequest) (*types.ExecuteResult, error)
	GetAppState(context.Context, *AppIDRequest) (*types.State, error)
	ListApps(context.Context, *Empty) (*ListAppsResponse, error)
	ListMessages(context.Context, *Empty) (*ListMessagesResponse, error)
	GetMessage(context.Context, *MessageIDRequest) (*types.CrossChainMessage, error)
}

// RegisterRuntimeServiceServer registers the RuntimeServiceServer on a gRPC server.
func RegisterRuntimeServiceServer(s *grpc.Server, srv RuntimeServiceServer) {
	s.RegisterService(&serviceDesc, srv)
}

// unary builds a method handler that decodes a *Req, runs the
// server interceptor chain if any, and dispatches to call.
func unary[Req any, Resp any](method string, call func(RuntimeServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			req := new(Req)
			if err := dec(req); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(RuntimeServiceServer), ctx, req)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(method)}
			handler := func(ctx context.Context, r any) (any, error) {
				return call(srv.(RuntimeServiceServer), ctx, r.(*Req))
			}
			return interceptor(ctx, req, info, handler)
		},
	}
}

// fullMethod builds the full gRPC method path.
func fullMethod(method string) string {
	return fmt.Sprintf("/%s/%s", serviceName, method)
}

// serviceDesc is the manual gRPC service descriptor for the runtime.
var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*RuntimeServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("CreateChain", RuntimeServiceServer.CreateChain),
		unary("ListChains", RuntimeServiceServer.ListChains),
		unary("DeactivateChain", RuntimeServiceServer.DeactivateChain),
		unary("DeployApp", RuntimeServiceServer.DeployApp),
		unary("ExecuteAction", RuntimeServiceServer.ExecuteAction),
		unary("GetAppState", RuntimeServiceServer.GetAppState),
		unary("ListApps", RuntimeServiceServer.ListApps),
		unary("ListMessages", RuntimeServiceServer.ListMessages),
		unary("GetMessage", RuntimeServiceServer.GetMessage),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "minichain/v1/runtime.cram",
}
