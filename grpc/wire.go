package minichaingrpc

import "github.com/blockberries/minichain/types"

// Transport-specific wrapper types for RPC methods whose interface
// signatures don't map to a single request/response struct.
// These are used only for gRPC serialization boundaries.

// Empty is the request of the list RPCs.
type Empty struct{}

// CreateChainRequest wraps the parameters of Runtime.CreateChain.
type CreateChainRequest struct {
	Owner string `cramberry:"1"`
}

// ChainIDRequest addresses a single chain.
type ChainIDRequest struct {
	ChainID types.ChainID `cramberry:"1"`
}

// AppIDRequest addresses a single application.
type AppIDRequest struct {
	AppID types.AppID `cramberry:"1"`
}

// MessageIDRequest addresses a single cross-chain message.
type MessageIDRequest struct {
	ID types.MessageID `cramberry:"1"`
}

// ListChainsResponse wraps the return value of Runtime.ListChains.
type ListChainsResponse struct {
	Chains []types.Chain `cramberry:"1"`
}

// ListAppsResponse wraps the return value of Runtime.ListApps.
type ListAppsResponse struct {
	Apps []types.Application `cramberry:"1"`
}

// ListMessagesResponse wraps the return value of Runtime.ListMessages.
type ListMessagesResponse struct {
	Messages []types.CrossChainMessage `cramberry:"1"`
}
