package router

import (
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"

	"github.com/blockberries/minichain/ids"
)

// DefaultDelay is the simulated network latency between enqueue
// and delivery.
const DefaultDelay = time.Second

type options struct {
	clock   clock.Clock
	delay   time.Duration
	gen     ids.Generator
	log     zerolog.Logger
	metrics *Metrics
}

// Option configures a Router.
type Option func(*options)

// WithClock sets the clock that drives delivery timers. Tests pass
// clock.NewMock() and advance it explicitly.
func WithClock(c clock.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithDelay sets the delivery delay. Negative values are treated as zero.
func WithDelay(d time.Duration) Option {
	return func(o *options) {
		if d < 0 {
			d = 0
		}
		o.delay = d
	}
}

// WithGenerator sets the generator used for message identifiers.
func WithGenerator(g ids.Generator) Option {
	return func(o *options) { o.gen = g }
}

// WithLogger sets the logger. Default: disabled.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithMetrics sets the metrics sink. Default: unregistered collectors.
func WithMetrics(m *Metrics) Option {
	return func(o *options) { o.metrics = m }
}

func buildOptions(opts []Option) options {
	o := options{
		clock: clock.New(),
		delay: DefaultDelay,
		gen:   ids.UUID{},
		log:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.metrics == nil {
		o.metrics = NewMetrics(nil)
	}
	return o
}
