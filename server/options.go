package server

import (
	"time"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/blockberries/minichain/ids"
	"github.com/blockberries/minichain/router"
)

const (
	// DemoOwner owns the chain seeded by WithDemoChain.
	DemoOwner = "demo-user"
	// DefaultOwner owns chains created without an explicit owner.
	DefaultOwner = "current-user"
)

type options struct {
	clock     clock.Clock
	delay     time.Duration
	gen       ids.Generator
	log       zerolog.Logger
	registry  prometheus.Registerer
	seedDemo  bool
	demoOwner string
	owner     string
}

// Option configures a Runtime.
type Option func(*options)

// WithClock sets the clock shared by the registries and the router.
func WithClock(c clock.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithDeliveryDelay sets the cross-chain delivery delay.
func WithDeliveryDelay(d time.Duration) Option {
	return func(o *options) { o.delay = d }
}

// WithGenerator sets the identifier generator.
func WithGenerator(g ids.Generator) Option {
	return func(o *options) { o.gen = g }
}

// WithLogger sets the root logger. Each component logs with its own
// "component" field.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithMetricsRegisterer registers the router metrics on reg.
func WithMetricsRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) { o.registry = reg }
}

// WithDefaultOwner sets the owner recorded for chains created with
// an empty owner.
func WithDefaultOwner(owner string) Option {
	return func(o *options) {
		if owner != "" {
			o.owner = owner
		}
	}
}

// WithDemoChain makes Start seed one chain owned by owner hosting a
// counter, so a fresh runtime has something to show. An empty owner
// means DemoOwner.
func WithDemoChain(owner string) Option {
	return func(o *options) {
		o.seedDemo = true
		o.demoOwner = owner
		if o.demoOwner == "" {
			o.demoOwner = DemoOwner
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{
		clock: clock.New(),
		delay: router.DefaultDelay,
		gen:   ids.UUID{},
		log:   zerolog.Nop(),
		owner: DefaultOwner,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
