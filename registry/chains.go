package registry

import (
	"sync"

	"github.com/blockberries/minichain"
	"github.com/blockberries/minichain/types"
)

// Chains is the chain registry. Chains are never removed; they can
// only be deactivated.
type Chains struct {
	opts options

	mu    sync.RWMutex
	byID  map[types.ChainID]*types.Chain
	order []types.ChainID
}

// NewChains creates an empty chain registry.
func NewChains(opts ...Option) *Chains {
	return &Chains{
		opts: buildOptions(opts),
		byID: make(map[types.ChainID]*types.Chain),
	}
}

// Create allocates a fresh active chain owned by owner.
func (r *Chains) Create(owner string) (types.Chain, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, err := freshID(r.opts.gen.ChainID, func(id string) bool {
		_, taken := r.byID[id]
		return taken
	})
	if err != nil {
		return types.Chain{}, minichain.Wrap(minichain.Internal, "create chain", err)
	}

	c := &types.Chain{
		ChainID:   id,
		Owner:     owner,
		Status:    types.ChainActive,
		CreatedAt: types.TimeToTimestamp(r.opts.clock.Now()),
	}
	r.byID[id] = c
	r.order = append(r.order, id)

	r.opts.log.Info().Str("chain", id).Str("owner", owner).Msg("chain created")
	return *c, nil
}

// Get returns the chain with the given id.
func (r *Chains) Get(id types.ChainID) (types.Chain, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byID[id]
	if !ok {
		return types.Chain{}, minichain.NotFoundf("get chain", "chain %q", id)
	}
	return *c, nil
}

// List returns all chains in creation order.
func (r *Chains) List() []types.Chain {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]types.Chain, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.byID[id])
	}
	return out
}

// WithActive runs fn with the chain's record while holding the
// registry's read lock. Deactivate cannot interleave, so the chain
// stays active until fn returns. It fails with NotFound for an
// unknown chain and InvalidArgument for an inactive one.
func (r *Chains) WithActive(op string, id types.ChainID, fn func(types.Chain) error) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byID[id]
	if !ok {
		return minichain.NotFoundf(op, "chain %q", id)
	}
	if !c.Active() {
		return minichain.InvalidArgumentf(op, "chain %q is %s", c.ChainID, c.Status)
	}
	return fn(*c)
}

// Deactivate marks a chain inactive. Deactivating an inactive chain
// is a no-op.
func (r *Chains) Deactivate(id types.ChainID) (types.Chain, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[id]
	if !ok {
		return types.Chain{}, minichain.NotFoundf("deactivate chain", "chain %q", id)
	}
	if c.Status != types.ChainInactive {
		c.Status = types.ChainInactive
		r.opts.log.Info().Str("chain", id).Msg("chain deactivated")
	}
	return *c, nil
}

// Len returns the number of chains.
func (r *Chains) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}
