// Package router owns cross-chain messages from enqueue until they
// reach a terminal status.
//
// Every message is scheduled exactly once, after a fixed delay, on
// the router's clock. Messages addressed to the same chain share a
// lane: a fired message is applied only after every earlier message
// of its lane has settled, so same-target effects land in enqueue
// order. Messages on different lanes are independent.
//
// Per message the status machine is pending → delivered | failed.
// There are no retries and no cancellation; delivery is claimed at
// most once.
package router

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/blockberries/minichain"
	"github.com/blockberries/minichain/registry"
	"github.com/blockberries/minichain/types"
)

// Applications is the slice of the application registry the router
// needs to resolve and mutate targets.
type Applications interface {
	HostedOn(chainID types.ChainID) (types.AppID, bool)
	Mutate(id types.AppID, fn registry.MutateFunc) (types.Application, error)
}

// Chains resolves chain records.
type Chains interface {
	Get(id types.ChainID) (types.Chain, error)
}

var (
	_ Applications = (*registry.Apps)(nil)
	_ Chains       = (*registry.Chains)(nil)
)

// envelope is the router-owned cell of one message. msg, due and
// timer are guarded by Router.mu.
type envelope struct {
	msg        types.CrossChainMessage
	due        bool
	timer      *clock.Timer
	enqueuedAt time.Time
	claimed    atomic.Bool
}

// lane serializes deliveries to one target chain.
type lane struct {
	queue    []*envelope
	draining bool
}

// Router is the cross-chain message queue and delivery scheduler.
type Router struct {
	apps   Applications
	chains Chains
	opts   options

	mu      sync.Mutex
	byID    map[types.MessageID]*envelope
	order   []*envelope
	lanes   map[types.ChainID]*lane
	stopped bool
}

// New creates a router delivering into apps.
func New(apps Applications, chains Chains, opts ...Option) *Router {
	return &Router{
		apps:   apps,
		chains: chains,
		opts:   buildOptions(opts),
		byID:   make(map[types.MessageID]*envelope),
		lanes:  make(map[types.ChainID]*lane),
	}
}

// Delay returns the configured delivery delay.
func (r *Router) Delay() time.Duration { return r.opts.delay }

// Enqueue stores msg as pending and schedules its delivery. The
// router assigns ID (if empty), Timestamp and Status. It returns
// the stored message.
//
// The message is visible to List before Enqueue returns, and its
// delivery cannot run before that point.
func (r *Router) Enqueue(msg types.CrossChainMessage) (types.CrossChainMessage, error) {
	const op = "enqueue"

	if err := validate(msg); err != nil {
		return types.CrossChainMessage{}, minichain.Wrap(minichain.InvalidArgument, op, err)
	}

	now := r.opts.clock.Now()
	if msg.ID == "" {
		msg.ID = r.opts.gen.MessageID()
	}
	msg.Timestamp = types.TimeToTimestamp(now)
	msg.Status = types.MessagePending
	msg.SettledAt = nil
	msg.ToAppID = ""
	msg.Error = ""

	env := &envelope{msg: msg.Clone(), enqueuedAt: now}

	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return types.CrossChainMessage{}, &minichain.Error{Code: minichain.Unavailable, Op: op, Msg: "router stopped"}
	}
	if _, dup := r.byID[msg.ID]; dup {
		r.mu.Unlock()
		return types.CrossChainMessage{}, minichain.Internalf(op, "duplicate message id %q", msg.ID)
	}
	r.byID[msg.ID] = env
	r.order = append(r.order, env)
	l, ok := r.lanes[msg.ToChainID]
	if !ok {
		l = &lane{}
		r.lanes[msg.ToChainID] = l
	}
	l.queue = append(l.queue, env)
	env.timer = r.opts.clock.AfterFunc(r.opts.delay, func() { r.fire(env) })
	r.mu.Unlock()

	r.opts.metrics.Enqueued.Inc()
	r.opts.log.Debug().
		Str("msg", msg.ID).
		Str("type", msg.Type.String()).
		Str("from", msg.FromChainID).
		Str("to", msg.ToChainID).
		Dur("delay", r.opts.delay).
		Msg("message enqueued")
	return msg, nil
}

func validate(msg types.CrossChainMessage) error {
	if msg.ToChainID == "" {
		return fmt.Errorf("message has no destination chain")
	}
	switch msg.Type {
	case types.MessageTip:
		if msg.Payload.Tip == nil {
			return fmt.Errorf("tip message without tip payload")
		}
		if msg.Payload.Tip.Amount == 0 {
			return fmt.Errorf("tip amount must be positive")
		}
	default:
		return fmt.Errorf("unsupported message type %s", msg.Type)
	}
	return nil
}

// fire runs when env's timer expires. It drains the head of env's
// lane for as long as the head is due.
func (r *Router) fire(env *envelope) {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	env.due = true
	key := env.msg.ToChainID
	l := r.lanes[key]
	if l == nil || l.draining {
		// Another goroutine is draining this lane and will reach env.
		r.mu.Unlock()
		return
	}
	l.draining = true
	for len(l.queue) > 0 && l.queue[0].due {
		head := l.queue[0]
		l.queue = l.queue[1:]
		r.mu.Unlock()
		r.deliver(head)
		r.mu.Lock()
	}
	l.draining = false
	if len(l.queue) == 0 {
		delete(r.lanes, key)
	}
	r.mu.Unlock()
}

// deliver applies env's effect and records its terminal status.
// Only the first call for an envelope has any effect.
func (r *Router) deliver(env *envelope) {
	if !env.claimed.CompareAndSwap(false, true) {
		return
	}

	r.mu.Lock()
	msg := env.msg.Clone()
	r.mu.Unlock()

	now := types.TimeToTimestamp(r.opts.clock.Now())
	appID, reason, err := r.apply(msg, now)

	// Counters move before the terminal status is published.
	r.opts.metrics.Latency.Observe(r.opts.clock.Since(env.enqueuedAt).Seconds())
	if err != nil {
		r.opts.metrics.Failed.WithLabelValues(reason).Inc()
	} else {
		r.opts.metrics.Delivered.Inc()
	}

	r.mu.Lock()
	env.msg.SettledAt = &now
	if err != nil {
		env.msg.Status = types.MessageFailed
		env.msg.Error = err.Error()
	} else {
		env.msg.Status = types.MessageDelivered
		env.msg.ToAppID = appID
	}
	r.mu.Unlock()

	if err != nil {
		r.opts.log.Warn().
			Str("msg", msg.ID).
			Str("to", msg.ToChainID).
			Str("reason", reason).
			Err(err).
			Msg("message failed")
		return
	}
	r.opts.log.Info().
		Str("msg", msg.ID).
		Str("to", msg.ToChainID).
		Str("app", appID).
		Msg("message delivered")
}

// apply resolves the target of msg and applies its effect at time
// at. A non-nil error means the message failed and nothing was
// mutated.
func (r *Router) apply(msg types.CrossChainMessage, at types.Timestamp) (types.AppID, string, error) {
	chain, err := r.chains.Get(msg.ToChainID)
	if err != nil {
		return "", reasonNoTarget, fmt.Errorf("unknown chain %q", msg.ToChainID)
	}
	if !chain.Active() {
		return "", reasonInactive, fmt.Errorf("chain %q is %s", chain.ChainID, chain.Status)
	}
	appID, ok := r.apps.HostedOn(msg.ToChainID)
	if !ok {
		return "", reasonNoTarget, fmt.Errorf("no application hosted on chain %q", msg.ToChainID)
	}

	_, err = r.apps.Mutate(appID, func(app types.Application) (types.State, error) {
		return effect(app, msg, at)
	})
	if err != nil {
		return "", reasonRejected, err
	}
	return appID, "", nil
}

// effect computes the target's next state for msg. A received tip
// is credited and entered in the target's ledger.
func effect(app types.Application, msg types.CrossChainMessage, at types.Timestamp) (types.State, error) {
	switch msg.Type {
	case types.MessageTip:
		if app.AppType != types.AppTipJar {
			return types.State{}, fmt.Errorf("target app %q is a %s, not a tip jar", app.AppID, app.AppType)
		}
		jar := app.State.TipJar
		amount := msg.Payload.Tip.Amount
		if jar.Balance > math.MaxUint64-amount {
			return types.State{}, fmt.Errorf("tip of %d overflows balance %d", amount, jar.Balance)
		}
		jar.Balance += amount
		jar.Record(types.TipJarTransaction{
			Kind:        types.TxTipReceived,
			Amount:      amount,
			FromChainID: msg.FromChainID,
			ToChainID:   msg.ToChainID,
			MessageID:   msg.ID,
			Timestamp:   at,
		})
		return app.State, nil
	default:
		return types.State{}, fmt.Errorf("unsupported message type %s", msg.Type)
	}
}

// Get returns a snapshot of the message with the given id.
func (r *Router) Get(id types.MessageID) (types.CrossChainMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	env, ok := r.byID[id]
	if !ok {
		return types.CrossChainMessage{}, minichain.NotFoundf("get message", "message %q", id)
	}
	return env.msg.Clone(), nil
}

// List returns snapshots of all messages in enqueue order.
func (r *Router) List() []types.CrossChainMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]types.CrossChainMessage, 0, len(r.order))
	for _, env := range r.order {
		out = append(out, env.msg.Clone())
	}
	return out
}

// Counts returns the number of messages per status.
func (r *Router) Counts() map[types.MessageStatus]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[types.MessageStatus]int, 3)
	for _, env := range r.order {
		out[env.msg.Status]++
	}
	return out
}

// Stop cancels every timer that has not fired. Messages that were
// not delivered stay pending. Enqueue fails afterwards.
func (r *Router) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return
	}
	r.stopped = true
	for _, env := range r.order {
		if env.timer != nil && !env.due {
			env.timer.Stop()
		}
	}
	r.opts.log.Info().Int("messages", len(r.order)).Msg("router stopped")
}
