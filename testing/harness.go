package minichaintest

import (
	"context"
	"testing"
	"time"

	"github.com/blockberries/minichain"
	"github.com/blockberries/minichain/types"
)

// Target is a connection under test plus a way to move the
// runtime's clock forward.
type Target struct {
	Conn minichain.Connection
	// Advance moves the runtime clock. Delivery of cross-chain
	// messages is driven by it.
	Advance func(d time.Duration)
	// Delay is the runtime's configured delivery delay.
	Delay time.Duration
}

// Harness provides a convenient test harness over any minichain
// connection. Every method fails the test on error.
type Harness struct {
	t      *testing.T
	target Target
}

// NewHarness creates a test harness for target.
func NewHarness(t *testing.T, target Target) *Harness {
	t.Helper()
	return &Harness{t: t, target: target}
}

// Conn returns the underlying connection for direct access.
func (h *Harness) Conn() minichain.Connection {
	return h.target.Conn
}

// CreateChain creates a chain owned by owner.
func (h *Harness) CreateChain(owner string) types.Chain {
	h.t.Helper()
	c, err := h.target.Conn.CreateChain(context.Background(), owner)
	if err != nil {
		h.t.Fatalf("CreateChain(%q) failed: %v", owner, err)
	}
	return c
}

// Deploy creates a fresh chain and deploys req on it.
func (h *Harness) Deploy(req types.DeployRequest) types.Application {
	h.t.Helper()
	if req.ChainID == "" {
		req.ChainID = h.CreateChain("harness").ChainID
	}
	if req.Name == "" {
		req.Name = req.AppType.String()
	}
	app, err := h.target.Conn.DeployApp(context.Background(), req)
	if err != nil {
		h.t.Fatalf("DeployApp(%s) failed: %v", req.AppType, err)
	}
	return app
}

// Execute runs an action and returns its result.
func (h *Harness) Execute(appID types.AppID, action string, params types.ActionParams) types.ExecuteResult {
	h.t.Helper()
	res, err := h.target.Conn.ExecuteAction(context.Background(), types.ExecuteRequest{
		AppID:  appID,
		Action: action,
		Params: params,
	})
	if err != nil {
		h.t.Fatalf("ExecuteAction(%s, %s) failed: %v", appID, action, err)
	}
	return res
}

// MustReject asserts that an action fails with the given code.
func (h *Harness) MustReject(code minichain.Code, appID types.AppID, action string, params types.ActionParams) {
	h.t.Helper()
	_, err := h.target.Conn.ExecuteAction(context.Background(), types.ExecuteRequest{
		AppID:  appID,
		Action: action,
		Params: params,
	})
	if err == nil {
		h.t.Fatalf("expected %s from %s, got success", code, action)
	}
	if got := minichain.CodeOf(err); got != code {
		h.t.Fatalf("expected %s from %s, got %s (%v)", code, action, got, err)
	}
}

// State returns an application's current state.
func (h *Harness) State(appID types.AppID) types.State {
	h.t.Helper()
	s, err := h.target.Conn.GetAppState(context.Background(), appID)
	if err != nil {
		h.t.Fatalf("GetAppState(%s) failed: %v", appID, err)
	}
	return s
}

// Message returns a cross-chain message.
func (h *Harness) Message(id types.MessageID) types.CrossChainMessage {
	h.t.Helper()
	m, err := h.target.Conn.GetMessage(context.Background(), id)
	if err != nil {
		h.t.Fatalf("GetMessage(%s) failed: %v", id, err)
	}
	return m
}

// Messages lists every cross-chain message.
func (h *Harness) Messages() []types.CrossChainMessage {
	h.t.Helper()
	msgs, err := h.target.Conn.ListMessages(context.Background())
	if err != nil {
		h.t.Fatalf("ListMessages failed: %v", err)
	}
	return msgs
}

// Deliver advances the clock past the delivery delay.
func (h *Harness) Deliver() {
	h.target.Advance(h.target.Delay)
}

// WaitStatus polls until message id reaches want.
func (h *Harness) WaitStatus(id types.MessageID, want types.MessageStatus) types.CrossChainMessage {
	h.t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		m := h.Message(id)
		if m.Status == want {
			return m
		}
		if time.Now().After(deadline) {
			h.t.Fatalf("message %s: status %s, want %s", id, m.Status, want)
		}
		time.Sleep(5 * time.Millisecond)
	}
}
