package minichaintest

import (
	"context"
	"sync"
	"testing"

	"github.com/blockberries/minichain"
	"github.com/blockberries/minichain/types"
)

// RunComplianceSuite runs the standard behavioral suite against a
// minichain connection.
//
// The factory function should return a fresh, running runtime for
// each test; the suite closes the connection.
func RunComplianceSuite(t *testing.T, factory func(t *testing.T) Target) {
	t.Helper()

	open := func(t *testing.T) *Harness {
		target := factory(t)
		t.Cleanup(func() { _ = target.Conn.Close() })
		return NewHarness(t, target)
	}

	t.Run("chain_lifecycle", func(t *testing.T) {
		h := open(t)
		a := h.CreateChain("alice")
		b := h.CreateChain("bob")
		if a.ChainID == b.ChainID {
			t.Fatalf("duplicate chain id %s", a.ChainID)
		}
		if !a.Active() {
			t.Errorf("new chain is %s", a.Status)
		}

		chains, err := h.Conn().ListChains(context.Background())
		if err != nil {
			t.Fatalf("ListChains: %v", err)
		}
		if len(chains) != 2 || chains[0].ChainID != a.ChainID || chains[1].ChainID != b.ChainID {
			t.Errorf("chains not in creation order: %+v", chains)
		}

		d, err := h.Conn().DeactivateChain(context.Background(), a.ChainID)
		if err != nil {
			t.Fatalf("DeactivateChain: %v", err)
		}
		if d.Status != types.ChainInactive {
			t.Errorf("expected inactive, got %s", d.Status)
		}
	})

	t.Run("deploy_defaults", func(t *testing.T) {
		h := open(t)
		counter := h.Deploy(types.DeployRequest{AppType: types.AppCounter})
		if counter.State.Counter == nil || counter.State.Counter.Value != 0 {
			t.Errorf("counter default state: %+v", counter.State)
		}
		poll := h.Deploy(types.DeployRequest{AppType: types.AppPoll})
		if len(poll.State.Poll.Options) != len(types.DefaultPollOptions) {
			t.Errorf("poll default options: %+v", poll.State.Poll.Options)
		}
		jar := h.Deploy(types.DeployRequest{AppType: types.AppTipJar})
		if jar.State.TipJar.Balance != 0 || len(jar.State.TipJar.Connections) != 0 {
			t.Errorf("tip jar default state: %+v", jar.State.TipJar)
		}

		apps, err := h.Conn().ListApps(context.Background())
		if err != nil {
			t.Fatalf("ListApps: %v", err)
		}
		if len(apps) != 3 || apps[0].AppID != counter.AppID || apps[2].AppID != jar.AppID {
			t.Errorf("apps not in deployment order")
		}
	})

	t.Run("deploy_errors", func(t *testing.T) {
		h := open(t)
		ctx := context.Background()
		_, err := h.Conn().DeployApp(ctx, types.DeployRequest{ChainID: "chain:missing", AppType: types.AppCounter, Name: "x"})
		if !minichain.IsNotFound(err) {
			t.Errorf("unknown chain: expected NotFound, got %v", err)
		}
		c := h.CreateChain("alice")
		_, err = h.Conn().DeployApp(ctx, types.DeployRequest{ChainID: c.ChainID, AppType: types.AppType(77), Name: "x"})
		if !minichain.IsInvalidArgument(err) {
			t.Errorf("unknown type: expected InvalidArgument, got %v", err)
		}
	})

	t.Run("counter_increments", func(t *testing.T) {
		h := open(t)
		app := h.Deploy(types.DeployRequest{AppType: types.AppCounter})
		for i := 0; i < 3; i++ {
			h.Execute(app.AppID, types.ActionIncrement, types.ActionParams{})
		}
		if v := h.State(app.AppID).Counter.Value; v != 3 {
			t.Errorf("expected 3, got %d", v)
		}
		h.Execute(app.AppID, types.ActionReset, types.ActionParams{})
		h.Execute(app.AppID, types.ActionDecrement, types.ActionParams{})
		if v := h.State(app.AppID).Counter.Value; v != 0 {
			t.Errorf("decrement below zero: got %d", v)
		}
	})

	t.Run("poll_conservation", func(t *testing.T) {
		h := open(t)
		app := h.Deploy(types.DeployRequest{AppType: types.AppPoll, PollOptions: []string{"A", "B"}})
		for _, opt := range []string{"A", "B", "A"} {
			h.Execute(app.AppID, types.ActionVote, types.ActionParams{Option: opt})
		}
		h.MustReject(minichain.InvalidArgument, app.AppID, types.ActionVote, types.ActionParams{Option: "Z"})

		poll := h.State(app.AppID).Poll
		if poll.Options[0].Votes != 2 || poll.Options[1].Votes != 1 || poll.TotalVotes != 3 {
			t.Errorf("unexpected tally: %+v", poll)
		}

		res := h.Execute(app.AppID, types.ActionCreate, types.ActionParams{Question: "again?", Options: []string{"yes", "no"}})
		if p := res.State.Poll; p.Question != "again?" || len(p.Options) != 2 || p.TotalVotes != 0 || !p.Active {
			t.Errorf("create did not reset the poll: %+v", p)
		}
	})

	t.Run("unknown_action_and_app", func(t *testing.T) {
		h := open(t)
		app := h.Deploy(types.DeployRequest{AppType: types.AppCounter})
		h.MustReject(minichain.InvalidArgument, app.AppID, "explode", types.ActionParams{})
		h.MustReject(minichain.NotFound, "app:missing", types.ActionIncrement, types.ActionParams{})
		if _, err := h.Conn().GetMessage(context.Background(), "missing"); !minichain.IsNotFound(err) {
			t.Errorf("GetMessage: expected NotFound, got %v", err)
		}
	})

	t.Run("tip_delivery", func(t *testing.T) {
		h := open(t)
		x := h.Deploy(types.DeployRequest{AppType: types.AppTipJar})
		y := h.Deploy(types.DeployRequest{AppType: types.AppTipJar})

		res := h.Execute(x.AppID, types.ActionSendTip, types.ActionParams{Receiver: y.ChainID, Amount: 5})
		if res.MessageID == "" {
			t.Fatal("send_tip returned no message id")
		}
		if got := h.Message(res.MessageID); got.Status != types.MessagePending {
			t.Fatalf("expected pending, got %s", got.Status)
		}

		h.Deliver()
		m := h.WaitStatus(res.MessageID, types.MessageDelivered)
		if m.ToAppID != y.AppID {
			t.Errorf("delivered to %s, want %s", m.ToAppID, y.AppID)
		}
		recv := h.State(y.AppID).TipJar
		if recv.Balance != 5 {
			t.Errorf("receiver balance %d, want 5", recv.Balance)
		}
		if len(recv.Transactions) != 1 || recv.Transactions[0].Kind != types.TxTipReceived ||
			recv.Transactions[0].MessageID != res.MessageID || recv.Transactions[0].Amount != 5 {
			t.Errorf("receiver ledger %+v, want one received tip of 5", recv.Transactions)
		}
		if b := h.State(x.AppID).TipJar.Balance; b != 0 {
			t.Errorf("sender balance %d, want 0", b)
		}
	})

	t.Run("tip_to_missing_target_fails", func(t *testing.T) {
		h := open(t)
		x := h.Deploy(types.DeployRequest{AppType: types.AppTipJar})
		res := h.Execute(x.AppID, types.ActionSendTip, types.ActionParams{Receiver: "chain:nowhere", Amount: 5})

		h.Deliver()
		h.WaitStatus(res.MessageID, types.MessageFailed)
		if b := h.State(x.AppID).TipJar.Balance; b != 0 {
			t.Errorf("balance changed on failed delivery: %d", b)
		}
		if n := len(h.Messages()); n != 1 {
			t.Errorf("expected failed message to stay listed, got %d messages", n)
		}
	})

	t.Run("concurrent_increments", func(t *testing.T) {
		h := open(t)
		app := h.Deploy(types.DeployRequest{AppType: types.AppCounter})

		const n = 64
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := h.Conn().ExecuteAction(context.Background(), types.ExecuteRequest{
					AppID:  app.AppID,
					Action: types.ActionIncrement,
				})
				if err != nil {
					t.Error(err)
				}
			}()
		}
		wg.Wait()
		if v := h.State(app.AppID).Counter.Value; v != n {
			t.Errorf("lost updates: got %d, want %d", v, n)
		}
	})
}
