// Package local provides a zero-copy, in-process minichain
// connection.
//
// For callers compiled into the same binary as the runtime, this
// adapter forwards every operation to a server.Runtime with no
// serialization overhead.
package local

import (
	"context"

	"github.com/blockberries/minichain"
	"github.com/blockberries/minichain/server"
	"github.com/blockberries/minichain/types"
)

// Compile-time interface check.
var _ minichain.Connection = (*Connection)(nil)

// Connection forwards runtime operations to an in-process runtime.
type Connection struct {
	rt    *server.Runtime
	owned bool
}

// NewConnection creates and starts a runtime configured with opts
// and connects to it. Closing the connection stops the runtime.
func NewConnection(ctx context.Context, opts ...server.Option) (*Connection, error) {
	rt := server.New(opts...)
	if err := rt.Start(ctx); err != nil {
		return nil, err
	}
	return &Connection{rt: rt, owned: true}, nil
}

// Attach connects to an already running runtime. Closing the
// connection leaves the runtime running.
func Attach(rt *server.Runtime) *Connection {
	return &Connection{rt: rt}
}

func (c *Connection) CreateChain(ctx context.Context, owner string) (types.Chain, error) {
	return c.rt.CreateChain(ctx, owner)
}

func (c *Connection) ListChains(ctx context.Context) ([]types.Chain, error) {
	return c.rt.ListChains(ctx)
}

func (c *Connection) DeactivateChain(ctx context.Context, chainID types.ChainID) (types.Chain, error) {
	return c.rt.DeactivateChain(ctx, chainID)
}

func (c *Connection) DeployApp(ctx context.Context, req types.DeployRequest) (types.Application, error) {
	return c.rt.DeployApp(ctx, req)
}

func (c *Connection) ExecuteAction(ctx context.Context, req types.ExecuteRequest) (types.ExecuteResult, error) {
	return c.rt.ExecuteAction(ctx, req)
}

func (c *Connection) GetAppState(ctx context.Context, appID types.AppID) (types.State, error) {
	return c.rt.GetAppState(ctx, appID)
}

func (c *Connection) ListApps(ctx context.Context) ([]types.Application, error) {
	return c.rt.ListApps(ctx)
}

func (c *Connection) ListMessages(ctx context.Context) ([]types.CrossChainMessage, error) {
	return c.rt.ListMessages(ctx)
}

func (c *Connection) GetMessage(ctx context.Context, id types.MessageID) (types.CrossChainMessage, error) {
	return c.rt.GetMessage(ctx, id)
}

// Close stops the runtime if the connection created it.
func (c *Connection) Close() error {
	if c.owned {
		return c.rt.Close()
	}
	return nil
}

// Runtime returns the underlying runtime for advanced use cases.
func (c *Connection) Runtime() *server.Runtime {
	return c.rt
}
