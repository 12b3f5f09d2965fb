package types

import (
	"fmt"
	"strings"
)

// AppType selects the built-in behavior template of an application.
type AppType uint8

const (
	AppCounter AppType = iota + 1
	AppPoll
	AppTipJar
)

// String returns the wire name used by the surrounding tooling.
func (t AppType) String() string {
	switch t {
	case AppCounter:
		return "counter"
	case AppPoll:
		return "poll"
	case AppTipJar:
		return "tip_jar"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(t))
	}
}

// Valid reports whether t is one of the supported application types.
func (t AppType) Valid() bool {
	return t >= AppCounter && t <= AppTipJar
}

// ParseAppType parses the wire name of an application type.
func ParseAppType(s string) (AppType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "counter":
		return AppCounter, true
	case "poll":
		return AppPoll, true
	case "tip_jar", "tipjar":
		return AppTipJar, true
	default:
		return 0, false
	}
}

// Application is a deployed application instance hosted on a chain.
// Records handed out by the registry are snapshots; mutating them
// has no effect on the runtime.
type Application struct {
	AppID   AppID   `cramberry:"1"`
	ChainID ChainID `cramberry:"2"`
	Name    string  `cramberry:"3"`
	AppType AppType `cramberry:"4"`
	State   State   `cramberry:"5"`
	// Placeholder for compiled application logic. Never executed.
	ModuleBytes []byte    `cramberry:"6"`
	CreatedAt   Timestamp `cramberry:"7"`
}

// Clone returns a deep copy of the application record.
func (a Application) Clone() Application {
	out := a
	out.State = a.State.Clone()
	if a.ModuleBytes != nil {
		out.ModuleBytes = append([]byte(nil), a.ModuleBytes...)
	}
	return out
}

// DeployRequest asks the runtime to deploy an application on a chain.
type DeployRequest struct {
	ChainID ChainID `cramberry:"1"`
	AppType AppType `cramberry:"2"`
	Name    string  `cramberry:"3"`
	// Poll only. Empty PollOptions selects the default option set.
	Question    string   `cramberry:"4"`
	PollOptions []string `cramberry:"5"`
}
