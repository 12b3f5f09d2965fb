// Package ids generates chain, application and message identifiers.
package ids

import (
	"strings"

	"github.com/google/uuid"
)

const (
	ChainPrefix = "linera:"
	AppPrefix   = "app:"
)

// Generator produces identifiers. Implementations must be safe for
// concurrent use.
type Generator interface {
	ChainID() string
	AppID() string
	MessageID() string
}

// UUID is the default Generator: random (v4) UUIDs, rendered as
// 32 hex digits behind a kind prefix for chains and applications.
type UUID struct{}

var _ Generator = UUID{}

func (UUID) ChainID() string { return ChainPrefix + compact(uuid.New()) }

func (UUID) AppID() string { return AppPrefix + compact(uuid.New()) }

func (UUID) MessageID() string { return uuid.NewString() }

func compact(u uuid.UUID) string {
	return strings.ReplaceAll(u.String(), "-", "")
}

// Deterministic derives identifiers from a name-based (v5) UUID
// seeded with a namespace and a counter. Used by tests that need
// stable identifiers across runs.
type Deterministic struct {
	ns  uuid.UUID
	seq counter
}

// NewDeterministic returns a Deterministic generator for seed.
func NewDeterministic(seed string) *Deterministic {
	return &Deterministic{ns: uuid.NewSHA1(uuid.NameSpaceOID, []byte(seed))}
}

func (d *Deterministic) next(kind string) uuid.UUID {
	return uuid.NewSHA1(d.ns, []byte(kind+":"+d.seq.next()))
}

func (d *Deterministic) ChainID() string { return ChainPrefix + compact(d.next("chain")) }

func (d *Deterministic) AppID() string { return AppPrefix + compact(d.next("app")) }

func (d *Deterministic) MessageID() string { return d.next("msg").String() }
