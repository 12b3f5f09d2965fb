package registry

import (
	"fmt"
	"strings"
	"sync"

	"github.com/blockberries/minichain"
	"github.com/blockberries/minichain/types"
)

// placeholderModule stands in for compiled application bytecode.
var placeholderModule = []byte("minichain-module-v1")

// MutateFunc computes an application's next state. It receives a
// deep copy of the current record and may return an error to leave
// the state unchanged.
type MutateFunc func(app types.Application) (types.State, error)

// appEntry is the single-writer cell of one application.
type appEntry struct {
	mu  sync.Mutex
	app types.Application
}

// Apps is the application registry.
type Apps struct {
	opts   options
	chains *Chains

	mu      sync.RWMutex
	byID    map[types.AppID]*appEntry
	byChain map[types.ChainID][]types.AppID
	order   []*appEntry
}

// NewApps creates an empty application registry backed by chains.
func NewApps(chains *Chains, opts ...Option) *Apps {
	return &Apps{
		opts:    buildOptions(opts),
		chains:  chains,
		byID:    make(map[types.AppID]*appEntry),
		byChain: make(map[types.ChainID][]types.AppID),
	}
}

// Deploy creates an application on an existing, active chain with
// the default state of its type. The chain cannot be deactivated
// while the application is being registered.
func (r *Apps) Deploy(req types.DeployRequest) (types.Application, error) {
	const op = "deploy"

	if !req.AppType.Valid() {
		return types.Application{}, minichain.InvalidArgumentf(op, "unsupported app type %s", req.AppType)
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return types.Application{}, minichain.InvalidArgumentf(op, "name is required")
	}

	var app types.Application
	err := r.chains.WithActive(op, req.ChainID, func(chain types.Chain) error {
		state, err := initialState(req, chain.Owner)
		if err != nil {
			return minichain.Wrap(minichain.InvalidArgument, op, err)
		}

		r.mu.Lock()
		defer r.mu.Unlock()

		id, err := freshID(r.opts.gen.AppID, func(id string) bool {
			_, taken := r.byID[id]
			return taken
		})
		if err != nil {
			return minichain.Wrap(minichain.Internal, op, err)
		}

		e := &appEntry{app: types.Application{
			AppID:       id,
			ChainID:     chain.ChainID,
			Name:        name,
			AppType:     req.AppType,
			State:       state,
			ModuleBytes: placeholderModule,
			CreatedAt:   types.TimeToTimestamp(r.opts.clock.Now()),
		}}
		r.byID[id] = e
		r.byChain[chain.ChainID] = append(r.byChain[chain.ChainID], id)
		r.order = append(r.order, e)
		app = e.app.Clone()
		return nil
	})
	if err != nil {
		return types.Application{}, err
	}

	r.opts.log.Info().
		Str("app", app.AppID).
		Str("chain", app.ChainID).
		Str("type", req.AppType.String()).
		Str("name", name).
		Msg("app deployed")
	return app, nil
}

func initialState(req types.DeployRequest, owner string) (types.State, error) {
	switch req.AppType {
	case types.AppCounter:
		return types.NewCounterState(), nil
	case types.AppPoll:
		return types.NewPollState(req.Question, req.PollOptions)
	case types.AppTipJar:
		return types.NewTipJarState(owner), nil
	default:
		return types.State{}, fmt.Errorf("unsupported app type %s", req.AppType)
	}
}

func (r *Apps) entry(op string, id types.AppID) (*appEntry, error) {
	r.mu.RLock()
	e, ok := r.byID[id]
	r.mu.RUnlock()
	if !ok {
		return nil, minichain.NotFoundf(op, "app %q", id)
	}
	return e, nil
}

// Get returns a snapshot of the application with the given id.
func (r *Apps) Get(id types.AppID) (types.Application, error) {
	e, err := r.entry("get app", id)
	if err != nil {
		return types.Application{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.app.Clone(), nil
}

// List returns snapshots of all applications in deployment order.
func (r *Apps) List() []types.Application {
	r.mu.RLock()
	entries := append([]*appEntry(nil), r.order...)
	r.mu.RUnlock()

	out := make([]types.Application, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		out = append(out, e.app.Clone())
		e.mu.Unlock()
	}
	return out
}

// HostedOn returns the first application deployed on chainID.
func (r *Apps) HostedOn(chainID types.ChainID) (types.AppID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	hosted := r.byChain[chainID]
	if len(hosted) == 0 {
		return "", false
	}
	return hosted[0], true
}

// Mutate runs fn under the application's lock and stores the state
// it returns. The new state must keep the application's type and
// satisfy its invariants, otherwise nothing is stored and an
// Internal error is returned.
func (r *Apps) Mutate(id types.AppID, fn MutateFunc) (types.Application, error) {
	const op = "replace state"

	e, err := r.entry(op, id)
	if err != nil {
		return types.Application{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	next, err := fn(e.app.Clone())
	if err != nil {
		return types.Application{}, err
	}
	if next.Type != e.app.AppType {
		return types.Application{}, minichain.Internalf(op, "app %q is %s, got %s state", id, e.app.AppType, next.Type)
	}
	if err := next.Validate(); err != nil {
		return types.Application{}, minichain.Wrap(minichain.Internal, op, err)
	}

	e.app.State = next.Clone()
	return e.app.Clone(), nil
}

// ReplaceState atomically replaces an application's whole state.
func (r *Apps) ReplaceState(id types.AppID, state types.State) (types.Application, error) {
	return r.Mutate(id, func(types.Application) (types.State, error) {
		return state, nil
	})
}

// Len returns the number of applications.
func (r *Apps) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}
