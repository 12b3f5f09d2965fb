package executor

import (
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/blockberries/minichain"
	"github.com/blockberries/minichain/registry"
	"github.com/blockberries/minichain/router"
	"github.com/blockberries/minichain/types"
)

type executorTestDeps struct {
	clock  *clock.Mock
	chains *registry.Chains
	apps   *registry.Apps
	router *router.Router
	exec   *Executor
}

func setupExecutorTest(t *testing.T) *executorTestDeps {
	t.Helper()
	clk := clock.NewMock()
	clk.Set(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	chains := registry.NewChains(registry.WithClock(clk))
	apps := registry.NewApps(chains, registry.WithClock(clk))
	r := router.New(apps, chains, router.WithClock(clk), router.WithDelay(time.Second))
	t.Cleanup(r.Stop)
	return &executorTestDeps{
		clock:  clk,
		chains: chains,
		apps:   apps,
		router: r,
		exec:   New(apps, r, clk, zerolog.Nop()),
	}
}

func (d *executorTestDeps) deploy(t *testing.T, req types.DeployRequest) types.Application {
	t.Helper()
	c, err := d.chains.Create("tester")
	require.NoError(t, err)
	req.ChainID = c.ChainID
	if req.Name == "" {
		req.Name = req.AppType.String()
	}
	app, err := d.apps.Deploy(req)
	require.NoError(t, err)
	return app
}

func (d *executorTestDeps) run(t *testing.T, appID types.AppID, action string, p types.ActionParams) types.ExecuteResult {
	t.Helper()
	res, err := d.exec.Execute(types.ExecuteRequest{AppID: appID, Action: action, Params: p})
	require.NoError(t, err)
	return res
}

func TestCounter_IncrementScenario(t *testing.T) {
	d := setupExecutorTest(t)
	app := d.deploy(t, types.DeployRequest{AppType: types.AppCounter})
	require.Zero(t, app.State.Counter.Value)

	var res types.ExecuteResult
	for i := 0; i < 3; i++ {
		res = d.run(t, app.AppID, types.ActionIncrement, types.ActionParams{})
	}
	require.Equal(t, uint64(3), res.State.Counter.Value)
	require.Empty(t, res.MessageID)
	require.NotEqual(t, types.StateHash{}, res.StateHash)
}

func TestCounter_ExtraActionsClampAtZero(t *testing.T) {
	d := setupExecutorTest(t)
	app := d.deploy(t, types.DeployRequest{AppType: types.AppCounter})

	res := d.run(t, app.AppID, types.ActionDecrement, types.ActionParams{})
	require.Zero(t, res.State.Counter.Value)

	res = d.run(t, app.AppID, types.ActionIncrementBy, types.ActionParams{By: 10})
	require.Equal(t, uint64(10), res.State.Counter.Value)

	res = d.run(t, app.AppID, types.ActionDecrement, types.ActionParams{})
	require.Equal(t, uint64(9), res.State.Counter.Value)

	res = d.run(t, app.AppID, types.ActionReset, types.ActionParams{})
	require.Zero(t, res.State.Counter.Value)

	_, err := d.exec.Execute(types.ExecuteRequest{AppID: app.AppID, Action: types.ActionIncrementBy})
	require.True(t, minichain.IsInvalidArgument(err))
}

func TestCounter_ConcurrentIncrementsNoLostUpdates(t *testing.T) {
	d := setupExecutorTest(t)
	app := d.deploy(t, types.DeployRequest{AppType: types.AppCounter})

	const n = 200
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := d.exec.Execute(types.ExecuteRequest{AppID: app.AppID, Action: types.ActionIncrement}); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	got, err := d.apps.Get(app.AppID)
	require.NoError(t, err)
	require.Equal(t, uint64(n), got.State.Counter.Value)
}

func TestPoll_VoteScenario(t *testing.T) {
	d := setupExecutorTest(t)
	app := d.deploy(t, types.DeployRequest{AppType: types.AppPoll, PollOptions: []string{"A", "B"}})

	var res types.ExecuteResult
	for _, opt := range []string{"A", "B", "A"} {
		res = d.run(t, app.AppID, types.ActionVote, types.ActionParams{Option: opt})
		require.NoError(t, res.State.Validate())
	}
	poll := res.State.Poll
	require.Equal(t, []types.PollOption{{Label: "A", Votes: 2}, {Label: "B", Votes: 1}}, poll.Options)
	require.Equal(t, uint64(3), poll.TotalVotes)
}

func TestPoll_InvalidVoteLeavesStateUnchanged(t *testing.T) {
	d := setupExecutorTest(t)
	app := d.deploy(t, types.DeployRequest{AppType: types.AppPoll, PollOptions: []string{"A", "B"}})
	d.run(t, app.AppID, types.ActionVote, types.ActionParams{Option: "A"})
	before, err := d.apps.Get(app.AppID)
	require.NoError(t, err)

	_, err = d.exec.Execute(types.ExecuteRequest{AppID: app.AppID, Action: types.ActionVote, Params: types.ActionParams{Option: "C"}})
	require.True(t, minichain.IsInvalidArgument(err))

	_, err = d.exec.Execute(types.ExecuteRequest{AppID: app.AppID, Action: types.ActionVote})
	require.True(t, minichain.IsInvalidArgument(err))

	after, err := d.apps.Get(app.AppID)
	require.NoError(t, err)
	require.Equal(t, before.State, after.State)
}

func TestPoll_CloseAndReopen(t *testing.T) {
	d := setupExecutorTest(t)
	app := d.deploy(t, types.DeployRequest{AppType: types.AppPoll})

	res := d.run(t, app.AppID, types.ActionClose, types.ActionParams{})
	require.False(t, res.State.Poll.Active)

	_, err := d.exec.Execute(types.ExecuteRequest{AppID: app.AppID, Action: types.ActionVote, Params: types.ActionParams{Option: "Option A"}})
	require.True(t, minichain.IsInvalidArgument(err))

	res = d.run(t, app.AppID, types.ActionReopen, types.ActionParams{})
	require.True(t, res.State.Poll.Active)
	res = d.run(t, app.AppID, types.ActionVote, types.ActionParams{Option: "Option A"})
	require.Equal(t, uint64(1), res.State.Poll.TotalVotes)
}

func TestTipJar_SendTipEnqueuesWithoutTouchingSender(t *testing.T) {
	d := setupExecutorTest(t)
	sender := d.deploy(t, types.DeployRequest{AppType: types.AppTipJar})
	receiver := d.deploy(t, types.DeployRequest{AppType: types.AppTipJar})

	res := d.run(t, sender.AppID, types.ActionSendTip, types.ActionParams{Receiver: receiver.ChainID, Amount: 5})
	require.NotEmpty(t, res.MessageID)
	require.Equal(t, sender.State, res.State)

	msg, err := d.router.Get(res.MessageID)
	require.NoError(t, err)
	require.Equal(t, types.MessagePending, msg.Status)
	require.Equal(t, sender.ChainID, msg.FromChainID)
	require.Equal(t, sender.AppID, msg.FromAppID)
	require.Equal(t, receiver.ChainID, msg.ToChainID)
	require.Equal(t, uint64(5), msg.Payload.Tip.Amount)

	d.clock.Add(time.Second)
	require.Eventually(t, func() bool {
		m, err := d.router.Get(res.MessageID)
		return err == nil && m.Status == types.MessageDelivered
	}, 2*time.Second, 5*time.Millisecond)

	got, err := d.apps.Get(receiver.AppID)
	require.NoError(t, err)
	require.Equal(t, uint64(5), got.State.TipJar.Balance)
	self, err := d.apps.Get(sender.AppID)
	require.NoError(t, err)
	require.Zero(t, self.State.TipJar.Balance)
}

func TestTipJar_SendTipValidation(t *testing.T) {
	d := setupExecutorTest(t)
	jar := d.deploy(t, types.DeployRequest{AppType: types.AppTipJar})

	for _, p := range []types.ActionParams{
		{Amount: 5},
		{Receiver: "chain:x"},
	} {
		_, err := d.exec.Execute(types.ExecuteRequest{AppID: jar.AppID, Action: types.ActionSendTip, Params: p})
		require.True(t, minichain.IsInvalidArgument(err), "params %+v", p)
	}
	require.Empty(t, d.router.List())
}

type failingMessages struct{}

func (failingMessages) Enqueue(types.CrossChainMessage) (types.CrossChainMessage, error) {
	return types.CrossChainMessage{}, errors.New("queue closed")
}

func TestTipJar_EnqueueFailureRollsBack(t *testing.T) {
	d := setupExecutorTest(t)
	jar := d.deploy(t, types.DeployRequest{AppType: types.AppTipJar})
	exec := New(d.apps, failingMessages{}, d.clock, zerolog.Nop())

	_, err := exec.Execute(types.ExecuteRequest{
		AppID: jar.AppID, Action: types.ActionSendTip,
		Params: types.ActionParams{Receiver: "chain:x", Amount: 1},
	})
	require.EqualError(t, err, "queue closed")

	got, err := d.apps.Get(jar.AppID)
	require.NoError(t, err)
	require.Equal(t, jar.State, got.State)
}

func TestTipJar_DepositWithdrawConnect(t *testing.T) {
	d := setupExecutorTest(t)
	jar := d.deploy(t, types.DeployRequest{AppType: types.AppTipJar})

	res := d.run(t, jar.AppID, types.ActionDeposit, types.ActionParams{Amount: 10})
	require.Equal(t, uint64(10), res.State.TipJar.Balance)

	res = d.run(t, jar.AppID, types.ActionWithdraw, types.ActionParams{Amount: 4})
	require.Equal(t, uint64(6), res.State.TipJar.Balance)

	_, err := d.exec.Execute(types.ExecuteRequest{AppID: jar.AppID, Action: types.ActionWithdraw, Params: types.ActionParams{Amount: 7}})
	require.True(t, minichain.IsInvalidArgument(err))

	d.run(t, jar.AppID, types.ActionConnect, types.ActionParams{ChainID: "chain:b"})
	res = d.run(t, jar.AppID, types.ActionConnect, types.ActionParams{ChainID: "chain:a"})
	require.Equal(t, []types.ChainID{"chain:a", "chain:b"}, res.State.TipJar.Connections)

	_, err = d.exec.Execute(types.ExecuteRequest{AppID: jar.AppID, Action: types.ActionConnect, Params: types.ActionParams{ChainID: jar.ChainID}})
	require.True(t, minichain.IsInvalidArgument(err))

	res = d.run(t, jar.AppID, types.ActionDisconnect, types.ActionParams{ChainID: "chain:b"})
	require.Equal(t, []types.ChainID{"chain:a"}, res.State.TipJar.Connections)
}

func TestTipJar_LedgerRecordsBalanceChanges(t *testing.T) {
	d := setupExecutorTest(t)
	jar := d.deploy(t, types.DeployRequest{AppType: types.AppTipJar})
	require.Equal(t, "tester", jar.State.TipJar.Owner)
	require.Empty(t, jar.State.TipJar.Transactions)

	d.run(t, jar.AppID, types.ActionDeposit, types.ActionParams{Amount: 10})
	d.clock.Add(time.Minute)
	res := d.run(t, jar.AppID, types.ActionWithdraw, types.ActionParams{Amount: 3})

	start := types.TimeToTimestamp(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	later := types.TimeToTimestamp(time.Date(2024, 1, 1, 0, 1, 0, 0, time.UTC))
	require.Equal(t, []types.TipJarTransaction{
		{ID: "deposit_0", Kind: types.TxDeposit, Amount: 10, FromChainID: jar.ChainID, ToChainID: jar.ChainID, Timestamp: start},
		{ID: "withdrawal_1", Kind: types.TxWithdrawal, Amount: 3, FromChainID: jar.ChainID, ToChainID: jar.ChainID, Timestamp: later},
	}, res.State.TipJar.Transactions)

	// Rejected actions and sends leave the ledger alone.
	_, err := d.exec.Execute(types.ExecuteRequest{AppID: jar.AppID, Action: types.ActionWithdraw, Params: types.ActionParams{Amount: 100}})
	require.True(t, minichain.IsInvalidArgument(err))
	d.run(t, jar.AppID, types.ActionSendTip, types.ActionParams{Receiver: "chain:x", Amount: 1})
	d.run(t, jar.AppID, types.ActionConnect, types.ActionParams{ChainID: "chain:x"})

	got, err := d.apps.Get(jar.AppID)
	require.NoError(t, err)
	require.Len(t, got.State.TipJar.Transactions, 2)
	require.Equal(t, uint64(7), got.State.TipJar.Balance)
}

func TestPoll_CreateResetsPoll(t *testing.T) {
	d := setupExecutorTest(t)
	app := d.deploy(t, types.DeployRequest{AppType: types.AppPoll, Question: "old?", PollOptions: []string{"A", "B"}})
	d.run(t, app.AppID, types.ActionVote, types.ActionParams{Option: "A"})
	d.run(t, app.AppID, types.ActionClose, types.ActionParams{})

	res := d.run(t, app.AppID, types.ActionCreate, types.ActionParams{Question: "new?", Options: []string{"X", "Y", "Z"}})
	poll := res.State.Poll
	require.Equal(t, "new?", poll.Question)
	require.Equal(t, []types.PollOption{{Label: "X"}, {Label: "Y"}, {Label: "Z"}}, poll.Options)
	require.Zero(t, poll.TotalVotes)
	require.True(t, poll.Active)

	res = d.run(t, app.AppID, types.ActionVote, types.ActionParams{Option: "Y"})
	require.Equal(t, uint64(1), res.State.Poll.TotalVotes)

	res = d.run(t, app.AppID, types.ActionCreate, types.ActionParams{Question: "defaults"})
	require.Len(t, res.State.Poll.Options, len(types.DefaultPollOptions))

	_, err := d.exec.Execute(types.ExecuteRequest{
		AppID: app.AppID, Action: types.ActionCreate,
		Params: types.ActionParams{Question: "dup", Options: []string{"a", "a"}},
	})
	require.True(t, minichain.IsInvalidArgument(err))
	got, err := d.apps.Get(app.AppID)
	require.NoError(t, err)
	require.Equal(t, "defaults", got.State.Poll.Question)
}

func TestExecute_UnknownAppOrAction(t *testing.T) {
	d := setupExecutorTest(t)
	counter := d.deploy(t, types.DeployRequest{AppType: types.AppCounter})

	_, err := d.exec.Execute(types.ExecuteRequest{AppID: "app:missing", Action: types.ActionIncrement})
	require.True(t, minichain.IsNotFound(err))

	_, err = d.exec.Execute(types.ExecuteRequest{AppID: counter.AppID, Action: types.ActionVote})
	require.True(t, minichain.IsInvalidArgument(err))

	_, err = d.exec.Execute(types.ExecuteRequest{AppID: counter.AppID, Action: ""})
	require.True(t, minichain.IsInvalidArgument(err))
}

func TestActions_Tables(t *testing.T) {
	d := setupExecutorTest(t)
	got := d.exec.Actions(types.AppTipJar)
	sort.Strings(got)
	require.Equal(t, []string{"connect", "deposit", "disconnect", "send_tip", "withdraw"}, got)
	polls := d.exec.Actions(types.AppPoll)
	sort.Strings(polls)
	require.Equal(t, []string{"close", "create", "reopen", "vote"}, polls)
	require.Empty(t, d.exec.Actions(types.AppType(0)))
}
