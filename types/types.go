// Package types defines all core data types for the minichain
// runtime: chains, applications, their per-type state and the
// cross-chain messages exchanged between them.
//
// These are plain Go structs with cramberry struct tags for
// deterministic binary serialization. Transport concerns
// (gRPC codec registration) are handled in the transport packages.
package types

// ChainID identifies a microchain. Opaque to callers.
type ChainID = string

// AppID identifies a deployed application instance. Opaque to callers.
type AppID = string

// MessageID identifies a cross-chain message.
type MessageID = string

// StateHash is a deterministic fingerprint of an application's
// state, computed over its cramberry encoding.
type StateHash [32]byte
