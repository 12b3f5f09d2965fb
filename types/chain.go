package types

import "fmt"

// ChainStatus is the activation status of a chain.
type ChainStatus uint8

const (
	ChainActive ChainStatus = iota
	ChainInactive
)

func (s ChainStatus) String() string {
	switch s {
	case ChainActive:
		return "active"
	case ChainInactive:
		return "inactive"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(s))
	}
}

// Chain is a microchain record. Immutable except for Status.
type Chain struct {
	ChainID   ChainID     `cramberry:"1"`
	Owner     string      `cramberry:"2"`
	Status    ChainStatus `cramberry:"3"`
	CreatedAt Timestamp   `cramberry:"4"`
}

// Active reports whether the chain accepts deployments and deliveries.
func (c Chain) Active() bool { return c.Status == ChainActive }
