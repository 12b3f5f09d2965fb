package server

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/blockberries/minichain"
	"github.com/blockberries/minichain/executor"
	"github.com/blockberries/minichain/registry"
	"github.com/blockberries/minichain/router"
	"github.com/blockberries/minichain/types"
)

// Compile-time interface check.
var _ minichain.Runtime = (*Runtime)(nil)

// Runtime is the in-memory minichain runtime. Transports talk to it
// exclusively through the minichain.Runtime methods.
type Runtime struct {
	guard  *LifecycleGuard
	opts   options
	log    zerolog.Logger
	chains *registry.Chains
	apps   *registry.Apps
	router *router.Router
	exec   *executor.Executor
}

// New wires a runtime. It must be started before use.
func New(opts ...Option) *Runtime {
	o := buildOptions(opts)

	regOpts := []registry.Option{
		registry.WithClock(o.clock),
		registry.WithGenerator(o.gen),
		registry.WithLogger(o.log.With().Str("component", "registry").Logger()),
	}
	chains := registry.NewChains(regOpts...)
	apps := registry.NewApps(chains, regOpts...)

	r := router.New(apps, chains,
		router.WithClock(o.clock),
		router.WithDelay(o.delay),
		router.WithGenerator(o.gen),
		router.WithLogger(o.log.With().Str("component", "router").Logger()),
		router.WithMetrics(router.NewMetrics(o.registry)),
	)

	return &Runtime{
		guard:  NewLifecycleGuard(),
		opts:   o,
		log:    o.log.With().Str("component", "runtime").Logger(),
		chains: chains,
		apps:   apps,
		router: r,
		exec:   executor.New(apps, r, o.clock, o.log.With().Str("component", "executor").Logger()),
	}
}

// Start transitions the runtime to Running and seeds the demo chain
// if one was requested.
func (s *Runtime) Start(ctx context.Context) error {
	if err := s.guard.Start(); err != nil {
		return err
	}
	if s.opts.seedDemo {
		app, err := s.Deploy(ctx, s.opts.demoOwner, types.DeployRequest{
			AppType: types.AppCounter,
			Name:    "Demo Counter",
		})
		if err != nil {
			return err
		}
		s.log.Info().Str("chain", app.ChainID).Str("app", app.AppID).Msg("demo chain seeded")
	}
	s.log.Info().Dur("delivery_delay", s.router.Delay()).Msg("runtime started")
	return nil
}

// Stop rejects new operations, waits for in-flight ones and stops
// the message router. Undelivered messages stay pending. Safe to
// call more than once.
func (s *Runtime) Stop() {
	if !s.guard.Stop() {
		return
	}
	s.router.Stop()
	s.log.Info().Msg("runtime stopped")
}

// State returns the lifecycle state name.
func (s *Runtime) State() string { return s.guard.State() }

// Close stops the runtime.
func (s *Runtime) Close() error {
	s.Stop()
	return nil
}

func (s *Runtime) enter(ctx context.Context, op string) error {
	if err := ctx.Err(); err != nil {
		return minichain.Wrap(minichain.Unavailable, op, err)
	}
	return s.guard.Enter(op)
}

// CreateChain allocates a fresh active chain. An empty owner is
// replaced by the configured default owner.
func (s *Runtime) CreateChain(ctx context.Context, owner string) (types.Chain, error) {
	if err := s.enter(ctx, "create chain"); err != nil {
		return types.Chain{}, err
	}
	defer s.guard.Leave()
	return s.chains.Create(s.ownerOr(owner))
}

func (s *Runtime) ownerOr(owner string) string {
	if strings.TrimSpace(owner) == "" {
		return s.opts.owner
	}
	return owner
}

// ListChains returns every chain in creation order.
func (s *Runtime) ListChains(ctx context.Context) ([]types.Chain, error) {
	if err := s.enter(ctx, "list chains"); err != nil {
		return nil, err
	}
	defer s.guard.Leave()
	return s.chains.List(), nil
}

// DeactivateChain marks a chain inactive.
func (s *Runtime) DeactivateChain(ctx context.Context, chainID types.ChainID) (types.Chain, error) {
	if err := s.enter(ctx, "deactivate chain"); err != nil {
		return types.Chain{}, err
	}
	defer s.guard.Leave()
	return s.chains.Deactivate(chainID)
}

// DeployApp deploys an application on an existing chain.
func (s *Runtime) DeployApp(ctx context.Context, req types.DeployRequest) (types.Application, error) {
	if err := s.enter(ctx, "deploy"); err != nil {
		return types.Application{}, err
	}
	defer s.guard.Leave()
	return s.apps.Deploy(req)
}

// Deploy creates a chain owned by owner and deploys req on it;
// req.ChainID is ignored. Requests with an unsupported type or an
// empty name are rejected before any chain is created.
func (s *Runtime) Deploy(ctx context.Context, owner string, req types.DeployRequest) (types.Application, error) {
	const op = "deploy"
	if err := s.enter(ctx, op); err != nil {
		return types.Application{}, err
	}
	defer s.guard.Leave()

	if !req.AppType.Valid() {
		return types.Application{}, minichain.InvalidArgumentf(op, "unsupported app type %s", req.AppType)
	}
	if strings.TrimSpace(req.Name) == "" {
		return types.Application{}, minichain.InvalidArgumentf(op, "name is required")
	}

	chain, err := s.chains.Create(s.ownerOr(owner))
	if err != nil {
		return types.Application{}, err
	}
	req.ChainID = chain.ChainID
	return s.apps.Deploy(req)
}

// ExecuteAction runs an action against an application.
func (s *Runtime) ExecuteAction(ctx context.Context, req types.ExecuteRequest) (types.ExecuteResult, error) {
	if err := s.enter(ctx, "execute"); err != nil {
		return types.ExecuteResult{}, err
	}
	defer s.guard.Leave()
	return s.exec.Execute(req)
}

// GetAppState returns a snapshot of an application's state.
func (s *Runtime) GetAppState(ctx context.Context, appID types.AppID) (types.State, error) {
	if err := s.enter(ctx, "get app state"); err != nil {
		return types.State{}, err
	}
	defer s.guard.Leave()
	app, err := s.apps.Get(appID)
	if err != nil {
		return types.State{}, err
	}
	return app.State, nil
}

// GetApp returns a snapshot of an application record.
func (s *Runtime) GetApp(ctx context.Context, appID types.AppID) (types.Application, error) {
	if err := s.enter(ctx, "get app"); err != nil {
		return types.Application{}, err
	}
	defer s.guard.Leave()
	return s.apps.Get(appID)
}

// ListApps returns every application in deployment order.
func (s *Runtime) ListApps(ctx context.Context) ([]types.Application, error) {
	if err := s.enter(ctx, "list apps"); err != nil {
		return nil, err
	}
	defer s.guard.Leave()
	return s.apps.List(), nil
}

// ListMessages returns every cross-chain message in enqueue order.
func (s *Runtime) ListMessages(ctx context.Context) ([]types.CrossChainMessage, error) {
	if err := s.enter(ctx, "list messages"); err != nil {
		return nil, err
	}
	defer s.guard.Leave()
	return s.router.List(), nil
}

// GetMessage returns a single cross-chain message.
func (s *Runtime) GetMessage(ctx context.Context, id types.MessageID) (types.CrossChainMessage, error) {
	if err := s.enter(ctx, "get message"); err != nil {
		return types.CrossChainMessage{}, err
	}
	defer s.guard.Leave()
	return s.router.Get(id)
}

// Actions returns the action names an application type accepts.
func (s *Runtime) Actions(t types.AppType) []string {
	return s.exec.Actions(t)
}

// MessageCounts returns the number of messages per status.
func (s *Runtime) MessageCounts() map[types.MessageStatus]int {
	return s.router.Counts()
}
