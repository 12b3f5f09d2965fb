// Package minichain defines the external surface of a minimal
// multi-chain application runtime: independent microchains, each
// hosting deployed application instances with mutable state, that
// talk to each other through asynchronous cross-chain messages.
//
// The core [Runtime] interface is what transports (in-process,
// gRPC) expose to their callers. Concrete behavior lives in the
// server package; the registry, executor and router packages are
// its building blocks.
package minichain

import (
	"context"

	"github.com/blockberries/minichain/types"
)

// Runtime is the request/response interface of the runtime.
//
// All methods MUST be safe for concurrent use. Errors are always
// of type *Error (see [CodeOf]) so callers can map them onto their
// own transport without inspecting messages.
type Runtime interface {
	// CreateChain allocates a fresh, active chain owned by owner.
	CreateChain(ctx context.Context, owner string) (types.Chain, error)

	// ListChains returns every chain in creation order.
	ListChains(ctx context.Context) ([]types.Chain, error)

	// DeactivateChain marks a chain inactive. Inactive chains accept
	// neither deployments nor message deliveries. Idempotent.
	DeactivateChain(ctx context.Context, chainID types.ChainID) (types.Chain, error)

	// DeployApp deploys an application on an existing, active chain
	// with the default state of its type.
	//
	// Fails with NotFound if the chain is unknown and InvalidArgument
	// if the type, name or poll options are not acceptable.
	DeployApp(ctx context.Context, req types.DeployRequest) (types.Application, error)

	// ExecuteAction runs an action against an application and returns
	// its new state. Actions with cross-chain effect enqueue a message
	// whose ID is reported in the result.
	//
	// Fails with NotFound if the application is unknown and
	// InvalidArgument if the action or its parameters are rejected.
	// A failed action leaves the state unchanged.
	ExecuteAction(ctx context.Context, req types.ExecuteRequest) (types.ExecuteResult, error)

	// GetAppState returns a snapshot of an application's state.
	GetAppState(ctx context.Context, appID types.AppID) (types.State, error)

	// ListApps returns every application in deployment order.
	ListApps(ctx context.Context) ([]types.Application, error)

	// ListMessages returns every cross-chain message in enqueue
	// order, whatever its status.
	ListMessages(ctx context.Context) ([]types.CrossChainMessage, error)

	// GetMessage returns a single cross-chain message.
	GetMessage(ctx context.Context, id types.MessageID) (types.CrossChainMessage, error)
}

// Connection represents a transport-agnostic connection to a
// runtime. Both gRPC clients and in-process adapters implement this.
type Connection interface {
	Runtime

	// Close terminates the connection.
	Close() error
}
