package server

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/blockberries/minichain"
	"github.com/blockberries/minichain/ids"
	"github.com/blockberries/minichain/types"
)

func newTestRuntime(t *testing.T, opts ...Option) (*Runtime, *clock.Mock) {
	t.Helper()
	clk := clock.NewMock()
	opts = append([]Option{
		WithClock(clk),
		WithDeliveryDelay(time.Second),
		WithGenerator(ids.NewDeterministic(t.Name())),
	}, opts...)
	rt := New(opts...)
	require.NoError(t, rt.Start(context.Background()))
	t.Cleanup(rt.Stop)
	return rt, clk
}

func TestRuntime_EndToEndScenario(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	rt, clk := newTestRuntime(t, WithMetricsRegisterer(reg))

	counter, err := rt.Deploy(ctx, "alice", types.DeployRequest{AppType: types.AppCounter, Name: "hits"})
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err := rt.ExecuteAction(ctx, types.ExecuteRequest{AppID: counter.AppID, Action: types.ActionIncrement})
		require.NoError(t, err)
	}
	state, err := rt.GetAppState(ctx, counter.AppID)
	require.NoError(t, err)
	require.Equal(t, uint64(3), state.Counter.Value)

	poll, err := rt.Deploy(ctx, "alice", types.DeployRequest{AppType: types.AppPoll, Name: "ab", PollOptions: []string{"A", "B"}})
	require.NoError(t, err)
	for _, opt := range []string{"A", "B", "A"} {
		_, err := rt.ExecuteAction(ctx, types.ExecuteRequest{AppID: poll.AppID, Action: types.ActionVote, Params: types.ActionParams{Option: opt}})
		require.NoError(t, err)
	}
	state, err = rt.GetAppState(ctx, poll.AppID)
	require.NoError(t, err)
	require.Equal(t, uint64(2), state.Poll.Options[0].Votes)
	require.Equal(t, uint64(1), state.Poll.Options[1].Votes)
	require.Equal(t, uint64(3), state.Poll.TotalVotes)

	x, err := rt.Deploy(ctx, "alice", types.DeployRequest{AppType: types.AppTipJar, Name: "x"})
	require.NoError(t, err)
	y, err := rt.Deploy(ctx, "bob", types.DeployRequest{AppType: types.AppTipJar, Name: "y"})
	require.NoError(t, err)

	res, err := rt.ExecuteAction(ctx, types.ExecuteRequest{
		AppID: x.AppID, Action: types.ActionSendTip,
		Params: types.ActionParams{Receiver: y.ChainID, Amount: 5},
	})
	require.NoError(t, err)
	require.Zero(t, res.State.TipJar.Balance)

	msgs, err := rt.ListMessages(ctx)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	require.Equal(t, types.MessagePending, msgs[0].Status)

	clk.Add(time.Second)
	require.Eventually(t, func() bool {
		m, err := rt.GetMessage(ctx, res.MessageID)
		return err == nil && m.Status == types.MessageDelivered
	}, 2*time.Second, 5*time.Millisecond)

	state, err = rt.GetAppState(ctx, y.AppID)
	require.NoError(t, err)
	require.Equal(t, uint64(5), state.TipJar.Balance)
	state, err = rt.GetAppState(ctx, x.AppID)
	require.NoError(t, err)
	require.Zero(t, state.TipJar.Balance)

	require.Equal(t, 1.0, counterValue(t, reg, "minichain_messages_delivered_total"))
}

// counterValue reads a registered counter by fully qualified name.
func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() == name {
			return f.GetMetric()[0].GetCounter().GetValue()
		}
	}
	t.Fatalf("metric %s not registered", name)
	return 0
}

func TestRuntime_TipToUnknownChainFails(t *testing.T) {
	ctx := context.Background()
	rt, clk := newTestRuntime(t)

	x, err := rt.Deploy(ctx, "alice", types.DeployRequest{AppType: types.AppTipJar, Name: "x"})
	require.NoError(t, err)
	res, err := rt.ExecuteAction(ctx, types.ExecuteRequest{
		AppID: x.AppID, Action: types.ActionSendTip,
		Params: types.ActionParams{Receiver: "chain:nowhere", Amount: 5},
	})
	require.NoError(t, err)

	clk.Add(time.Second)
	require.Eventually(t, func() bool {
		m, err := rt.GetMessage(ctx, res.MessageID)
		return err == nil && m.Status == types.MessageFailed
	}, 2*time.Second, 5*time.Millisecond)

	apps, err := rt.ListApps(ctx)
	require.NoError(t, err)
	for _, app := range apps {
		require.Zero(t, app.State.TipJar.Balance)
	}
}

func TestRuntime_DeployValidatesBeforeCreatingChain(t *testing.T) {
	ctx := context.Background()
	rt, _ := newTestRuntime(t)

	_, err := rt.Deploy(ctx, "alice", types.DeployRequest{AppType: types.AppType(9), Name: "x"})
	require.True(t, minichain.IsInvalidArgument(err))
	_, err = rt.Deploy(ctx, "alice", types.DeployRequest{AppType: types.AppCounter})
	require.True(t, minichain.IsInvalidArgument(err))

	chains, err := rt.ListChains(ctx)
	require.NoError(t, err)
	require.Empty(t, chains)
}

func TestRuntime_ChainOperations(t *testing.T) {
	ctx := context.Background()
	rt, _ := newTestRuntime(t)

	anon, err := rt.CreateChain(ctx, "")
	require.NoError(t, err)
	require.Equal(t, DefaultOwner, anon.Owner)

	c, err := rt.CreateChain(ctx, "carol")
	require.NoError(t, err)
	app, err := rt.DeployApp(ctx, types.DeployRequest{ChainID: c.ChainID, AppType: types.AppCounter, Name: "n"})
	require.NoError(t, err)
	require.Equal(t, c.ChainID, app.ChainID)

	got, err := rt.GetApp(ctx, app.AppID)
	require.NoError(t, err)
	require.Equal(t, "n", got.Name)

	d, err := rt.DeactivateChain(ctx, c.ChainID)
	require.NoError(t, err)
	require.Equal(t, types.ChainInactive, d.Status)

	_, err = rt.DeployApp(ctx, types.DeployRequest{ChainID: c.ChainID, AppType: types.AppCounter, Name: "m"})
	require.True(t, minichain.IsInvalidArgument(err))

	_, err = rt.DeployApp(ctx, types.DeployRequest{ChainID: "chain:missing", AppType: types.AppCounter, Name: "m"})
	require.True(t, minichain.IsNotFound(err))

	_, err = rt.GetAppState(ctx, "app:missing")
	require.True(t, minichain.IsNotFound(err))
	_, err = rt.GetMessage(ctx, "missing")
	require.True(t, minichain.IsNotFound(err))
}

func TestRuntime_DemoChainSeeded(t *testing.T) {
	ctx := context.Background()
	rt, _ := newTestRuntime(t, WithDemoChain(""))

	chains, err := rt.ListChains(ctx)
	require.NoError(t, err)
	require.Len(t, chains, 1)
	require.Equal(t, DemoOwner, chains[0].Owner)

	apps, err := rt.ListApps(ctx)
	require.NoError(t, err)
	require.Len(t, apps, 1)
	require.Equal(t, types.AppCounter, apps[0].AppType)
}

func TestRuntime_UnavailableOutsideRunning(t *testing.T) {
	ctx := context.Background()
	rt := New(WithClock(clock.NewMock()))

	_, err := rt.CreateChain(ctx, "early")
	require.ErrorIs(t, err, minichain.ErrUnavailable)

	require.NoError(t, rt.Start(ctx))
	require.Equal(t, "Running", rt.State())
	require.NoError(t, rt.Close())

	_, err = rt.ListApps(ctx)
	require.ErrorIs(t, err, minichain.ErrUnavailable)
	_, err = rt.ExecuteAction(ctx, types.ExecuteRequest{AppID: "app:x", Action: types.ActionIncrement})
	require.ErrorIs(t, err, minichain.ErrUnavailable)
}

func TestRuntime_CancelledContext(t *testing.T) {
	rt, _ := newTestRuntime(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := rt.CreateChain(ctx, "alice")
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, minichain.Unavailable, minichain.CodeOf(err))
}

func TestRuntime_StopLeavesMessagesPending(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewMock()
	rt := New(WithClock(clk), WithDeliveryDelay(time.Second))
	require.NoError(t, rt.Start(ctx))

	x, err := rt.Deploy(ctx, "a", types.DeployRequest{AppType: types.AppTipJar, Name: "x"})
	require.NoError(t, err)
	y, err := rt.Deploy(ctx, "b", types.DeployRequest{AppType: types.AppTipJar, Name: "y"})
	require.NoError(t, err)
	_, err = rt.ExecuteAction(ctx, types.ExecuteRequest{
		AppID: x.AppID, Action: types.ActionSendTip,
		Params: types.ActionParams{Receiver: y.ChainID, Amount: 1},
	})
	require.NoError(t, err)

	rt.Stop()
	clk.Add(5 * time.Second)
	require.Equal(t, 1, rt.MessageCounts()[types.MessagePending])
	require.Len(t, rt.Actions(types.AppCounter), 4)
}
