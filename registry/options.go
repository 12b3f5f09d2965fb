// Package registry owns the chains and deployed applications of the
// runtime.
//
// Application state is mutated through a single entry point,
// [Apps.Mutate] (and its shorthand [Apps.ReplaceState]), which holds
// a per-application lock for the whole read-modify-write. Reads hand
// out deep copies.
package registry

import (
	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"

	"github.com/blockberries/minichain/ids"
)

// maxIDAttempts bounds identifier regeneration on collision.
const maxIDAttempts = 8

type options struct {
	gen   ids.Generator
	clock clock.Clock
	log   zerolog.Logger
}

// Option configures a registry.
type Option func(*options)

// WithGenerator sets the identifier generator. Default: ids.UUID.
func WithGenerator(g ids.Generator) Option {
	return func(o *options) { o.gen = g }
}

// WithClock sets the clock used for creation timestamps.
func WithClock(c clock.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithLogger sets the logger. Default: disabled.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.log = l }
}

func buildOptions(opts []Option) options {
	o := options{
		gen:   ids.UUID{},
		clock: clock.New(),
		log:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
