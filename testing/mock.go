// Package minichaintest provides test utilities for minichain
// transports and callers, including a configurable mock runtime, a
// test harness, and a behavioral compliance suite.
package minichaintest

import (
	"context"
	"sync/atomic"

	"github.com/blockberries/minichain"
	"github.com/blockberries/minichain/types"
)

// Compile-time check that MockRuntime satisfies the interface.
var _ minichain.Connection = (*MockRuntime)(nil)

// MockRuntime is a configurable mock runtime for transport testing.
// All methods are configurable via function fields. Unconfigured
// methods return zero values, or NotFound for single-record lookups.
type MockRuntime struct {
	CreateChainFn     func(context.Context, string) (types.Chain, error)
	ListChainsFn      func(context.Context) ([]types.Chain, error)
	DeactivateChainFn func(context.Context, types.ChainID) (types.Chain, error)
	DeployAppFn       func(context.Context, types.DeployRequest) (types.Application, error)
	ExecuteActionFn   func(context.Context, types.ExecuteRequest) (types.ExecuteResult, error)
	GetAppStateFn     func(context.Context, types.AppID) (types.State, error)
	ListAppsFn        func(context.Context) ([]types.Application, error)
	ListMessagesFn    func(context.Context) ([]types.CrossChainMessage, error)
	GetMessageFn      func(context.Context, types.MessageID) (types.CrossChainMessage, error)

	// Call counters (atomic for concurrent access).
	CreateChainCalls   atomic.Int64
	DeployAppCalls     atomic.Int64
	ExecuteActionCalls atomic.Int64
	QueryCalls         atomic.Int64
	Closed             atomic.Bool
}

func (m *MockRuntime) CreateChain(ctx context.Context, owner string) (types.Chain, error) {
	m.CreateChainCalls.Add(1)
	if m.CreateChainFn != nil {
		return m.CreateChainFn(ctx, owner)
	}
	return types.Chain{ChainID: "chain:mock", Owner: owner}, nil
}

func (m *MockRuntime) ListChains(ctx context.Context) ([]types.Chain, error) {
	m.QueryCalls.Add(1)
	if m.ListChainsFn != nil {
		return m.ListChainsFn(ctx)
	}
	return nil, nil
}

func (m *MockRuntime) DeactivateChain(ctx context.Context, chainID types.ChainID) (types.Chain, error) {
	if m.DeactivateChainFn != nil {
		return m.DeactivateChainFn(ctx, chainID)
	}
	return types.Chain{}, minichain.NotFoundf("deactivate chain", "chain %q", chainID)
}

func (m *MockRuntime) DeployApp(ctx context.Context, req types.DeployRequest) (types.Application, error) {
	m.DeployAppCalls.Add(1)
	if m.DeployAppFn != nil {
		return m.DeployAppFn(ctx, req)
	}
	return types.Application{}, minichain.NotFoundf("deploy", "chain %q", req.ChainID)
}

func (m *MockRuntime) ExecuteAction(ctx context.Context, req types.ExecuteRequest) (types.ExecuteResult, error) {
	m.ExecuteActionCalls.Add(1)
	if m.ExecuteActionFn != nil {
		return m.ExecuteActionFn(ctx, req)
	}
	return types.ExecuteResult{}, minichain.NotFoundf("execute", "app %q", req.AppID)
}

func (m *MockRuntime) GetAppState(ctx context.Context, appID types.AppID) (types.State, error) {
	m.QueryCalls.Add(1)
	if m.GetAppStateFn != nil {
		return m.GetAppStateFn(ctx, appID)
	}
	return types.State{}, minichain.NotFoundf("get app state", "app %q", appID)
}

func (m *MockRuntime) ListApps(ctx context.Context) ([]types.Application, error) {
	m.QueryCalls.Add(1)
	if m.ListAppsFn != nil {
		return m.ListAppsFn(ctx)
	}
	return nil, nil
}

func (m *MockRuntime) ListMessages(ctx context.Context) ([]types.CrossChainMessage, error) {
	m.QueryCalls.Add(1)
	if m.ListMessagesFn != nil {
		return m.ListMessagesFn(ctx)
	}
	return nil, nil
}

func (m *MockRuntime) GetMessage(ctx context.Context, id types.MessageID) (types.CrossChainMessage, error) {
	m.QueryCalls.Add(1)
	if m.GetMessageFn != nil {
		return m.GetMessageFn(ctx, id)
	}
	return types.CrossChainMessage{}, minichain.NotFoundf("get message", "message %q", id)
}

func (m *MockRuntime) Close() error {
	m.Closed.Store(true)
	return nil
}
