// Package executor interprets actions against applications.
//
// Each application type has a fixed table of actions. An action
// computes the next state from a copy of the current one and may
// emit a cross-chain message. The new state and the message are
// committed under the application's lock: a concurrent reader sees
// both or neither.
package executor

import (
	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"

	"github.com/blockberries/minichain"
	"github.com/blockberries/minichain/registry"
	"github.com/blockberries/minichain/router"
	"github.com/blockberries/minichain/types"
)

// Applications is the state-mutation entry point of the registry.
type Applications interface {
	Mutate(id types.AppID, fn registry.MutateFunc) (types.Application, error)
}

// Messages accepts emitted cross-chain messages.
type Messages interface {
	Enqueue(msg types.CrossChainMessage) (types.CrossChainMessage, error)
}

var (
	_ Applications = (*registry.Apps)(nil)
	_ Messages     = (*router.Router)(nil)
)

// Effect is the outcome of an action: the next state and, for
// actions with cross-chain effect, the message to send.
type Effect struct {
	State   types.State
	Message *types.CrossChainMessage
}

// Call is the input of one action. App is a private copy; the action
// may modify and return its state. At is the execution time.
type Call struct {
	App    types.Application
	Params types.ActionParams
	At     types.Timestamp
}

// ActionFunc computes the effect of one action.
type ActionFunc func(c Call) (Effect, error)

// Executor runs actions.
type Executor struct {
	apps    Applications
	msgs    Messages
	clock   clock.Clock
	log     zerolog.Logger
	actions map[types.AppType]map[string]ActionFunc
}

// New creates an executor with the built-in action tables. clk
// stamps ledger entries written by actions.
func New(apps Applications, msgs Messages, clk clock.Clock, log zerolog.Logger) *Executor {
	return &Executor{
		apps:  apps,
		msgs:  msgs,
		clock: clk,
		log:   log,
		actions: map[types.AppType]map[string]ActionFunc{
			types.AppCounter: counterActions,
			types.AppPoll:    pollActions,
			types.AppTipJar:  tipJarActions,
		},
	}
}

// Actions returns the action names supported by an application type.
func (e *Executor) Actions(t types.AppType) []string {
	table := e.actions[t]
	out := make([]string, 0, len(table))
	for name := range table {
		out = append(out, name)
	}
	return out
}

// Execute runs req.Action on req.AppID.
func (e *Executor) Execute(req types.ExecuteRequest) (types.ExecuteResult, error) {
	const op = "execute"

	var msgID types.MessageID
	app, err := e.apps.Mutate(req.AppID, func(app types.Application) (types.State, error) {
		table, ok := e.actions[app.AppType]
		if !ok {
			return types.State{}, minichain.Internalf(op, "app %q has unsupported type %s", app.AppID, app.AppType)
		}
		fn, ok := table[req.Action]
		if !ok {
			return types.State{}, minichain.InvalidArgumentf(op, "action %q is not supported by %s apps", req.Action, app.AppType)
		}
		eff, err := fn(Call{App: app, Params: req.Params, At: types.TimeToTimestamp(e.clock.Now())})
		if err != nil {
			return types.State{}, err
		}
		if err := eff.State.Validate(); err != nil {
			return types.State{}, minichain.Wrap(minichain.Internal, op, err)
		}
		if eff.Message != nil {
			eff.Message.FromChainID = app.ChainID
			eff.Message.FromAppID = app.AppID
			sent, err := e.msgs.Enqueue(*eff.Message)
			if err != nil {
				return types.State{}, err
			}
			msgID = sent.ID
		}
		return eff.State, nil
	})
	if err != nil {
		e.log.Debug().Str("app", req.AppID).Str("action", req.Action).Err(err).Msg("action rejected")
		return types.ExecuteResult{}, err
	}

	hash, err := app.State.Hash()
	if err != nil {
		return types.ExecuteResult{}, minichain.Wrap(minichain.Internal, op, err)
	}

	ev := e.log.Debug().Str("app", app.AppID).Str("action", req.Action)
	if msgID != "" {
		ev = ev.Str("msg", msgID)
	}
	ev.Msg("action executed")

	return types.ExecuteResult{State: app.State, MessageID: msgID, StateHash: hash}, nil
}
