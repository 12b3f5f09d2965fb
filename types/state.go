package types

import (
	"crypto/sha256"
	"fmt"
	"slices"

	"github.com/blockberries/cramberry/pkg/cramberry"
)

// DefaultPollOptions is the option set of a poll deployed without
// caller-supplied options.
var DefaultPollOptions = []string{"Option A", "Option B", "Option C"}

// State is the tagged variant of per-type application state.
// Exactly one of Counter, Poll or TipJar is set, selected by Type.
type State struct {
	Type    AppType       `cramberry:"1"`
	Counter *CounterState `cramberry:"2"`
	Poll    *PollState    `cramberry:"3"`
	TipJar  *TipJarState  `cramberry:"4"`
}

// CounterState is the state of a Counter application.
type CounterState struct {
	Value uint64 `cramberry:"1"`
}

// PollOption is one labelled option of a poll and its vote count.
type PollOption struct {
	Label string `cramberry:"1"`
	Votes uint64 `cramberry:"2"`
}

// PollState is the state of a Poll application. TotalVotes always
// equals the sum of all option counts.
type PollState struct {
	Question   string       `cramberry:"1"`
	Options    []PollOption `cramberry:"2"`
	TotalVotes uint64       `cramberry:"3"`
	Active     bool         `cramberry:"4"`
}

// TipJarState is the state of a TipJar application. Connections is
// kept sorted and free of duplicates. Transactions is append-only and
// records every balance change in the order it was applied.
type TipJarState struct {
	Balance      uint64              `cramberry:"1"`
	Connections  []ChainID           `cramberry:"2"`
	Owner        string              `cramberry:"3"`
	Transactions []TipJarTransaction `cramberry:"4"`
}

// TipJarTxKind classifies a tip jar ledger entry.
type TipJarTxKind uint8

const (
	TxDeposit TipJarTxKind = iota + 1
	TxWithdrawal
	TxTipReceived
)

func (k TipJarTxKind) String() string {
	switch k {
	case TxDeposit:
		return "deposit"
	case TxWithdrawal:
		return "withdrawal"
	case TxTipReceived:
		return "tip_received"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(k))
	}
}

// TipJarTransaction is one entry of a tip jar's ledger. MessageID is
// set for received tips.
type TipJarTransaction struct {
	ID          string       `cramberry:"1"`
	Kind        TipJarTxKind `cramberry:"2"`
	Amount      uint64       `cramberry:"3"`
	FromChainID ChainID      `cramberry:"4"`
	ToChainID   ChainID      `cramberry:"5"`
	MessageID   MessageID    `cramberry:"6"`
	Timestamp   Timestamp    `cramberry:"7"`
}

// NewCounterState returns a counter at zero.
func NewCounterState() State {
	return State{Type: AppCounter, Counter: &CounterState{}}
}

// NewPollState returns an open poll with every option at zero votes.
// Labels must be non-empty and unique.
func NewPollState(question string, labels []string) (State, error) {
	if len(labels) == 0 {
		labels = DefaultPollOptions
	}
	seen := make(map[string]struct{}, len(labels))
	opts := make([]PollOption, 0, len(labels))
	for _, l := range labels {
		if l == "" {
			return State{}, fmt.Errorf("empty poll option label")
		}
		if _, dup := seen[l]; dup {
			return State{}, fmt.Errorf("duplicate poll option %q", l)
		}
		seen[l] = struct{}{}
		opts = append(opts, PollOption{Label: l})
	}
	return State{Type: AppPoll, Poll: &PollState{
		Question: question,
		Options:  opts,
		Active:   true,
	}}, nil
}

// NewTipJarState returns an empty tip jar owned by owner with no
// connections.
func NewTipJarState(owner string) State {
	return State{Type: AppTipJar, TipJar: &TipJarState{Owner: owner, Connections: []ChainID{}}}
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	out := State{Type: s.Type}
	if s.Counter != nil {
		c := *s.Counter
		out.Counter = &c
	}
	if s.Poll != nil {
		p := *s.Poll
		p.Options = slices.Clone(s.Poll.Options)
		out.Poll = &p
	}
	if s.TipJar != nil {
		t := *s.TipJar
		t.Connections = slices.Clone(s.TipJar.Connections)
		if t.Connections == nil {
			t.Connections = []ChainID{}
		}
		t.Transactions = slices.Clone(s.TipJar.Transactions)
		out.TipJar = &t
	}
	return out
}

// Normalize allocates the variant named by s.Type when it is
// missing. Decoders may drop an all-zero variant; its zero value is
// the valid default state of every type.
func (s *State) Normalize() {
	switch s.Type {
	case AppCounter:
		if s.Counter == nil {
			s.Counter = &CounterState{}
		}
	case AppPoll:
		if s.Poll == nil {
			s.Poll = &PollState{}
		}
	case AppTipJar:
		if s.TipJar == nil {
			s.TipJar = &TipJarState{}
		}
	}
	if s.TipJar != nil && s.TipJar.Connections == nil {
		s.TipJar.Connections = []ChainID{}
	}
}

// Validate checks the variant tag and the per-type invariants.
func (s State) Validate() error {
	set := 0
	for _, ok := range []bool{s.Counter != nil, s.Poll != nil, s.TipJar != nil} {
		if ok {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("state must carry exactly one variant, has %d", set)
	}
	switch s.Type {
	case AppCounter:
		if s.Counter == nil {
			return fmt.Errorf("counter state missing")
		}
	case AppPoll:
		if s.Poll == nil {
			return fmt.Errorf("poll state missing")
		}
		var sum uint64
		for _, o := range s.Poll.Options {
			sum += o.Votes
		}
		if sum != s.Poll.TotalVotes {
			return fmt.Errorf("poll total %d != sum of options %d", s.Poll.TotalVotes, sum)
		}
	case AppTipJar:
		if s.TipJar == nil {
			return fmt.Errorf("tip jar state missing")
		}
		if !slices.IsSorted(s.TipJar.Connections) {
			return fmt.Errorf("tip jar connections not sorted")
		}
	default:
		return fmt.Errorf("unsupported state type %s", s.Type)
	}
	return nil
}

// Hash returns the sha256 of the cramberry encoding of s.
func (s State) Hash() (StateHash, error) {
	data, err := cramberry.Marshal(s)
	if err != nil {
		return StateHash{}, fmt.Errorf("encode state: %w", err)
	}
	return StateHash(sha256.Sum256(data)), nil
}

// Option returns the index of the option with the given label.
func (p *PollState) Option(label string) (int, bool) {
	for i, o := range p.Options {
		if o.Label == label {
			return i, true
		}
	}
	return -1, false
}

// Record appends tx to the ledger, assigning it the next sequential
// id, and returns the stored entry.
func (t *TipJarState) Record(tx TipJarTransaction) TipJarTransaction {
	tx.ID = fmt.Sprintf("%s_%d", tx.Kind, len(t.Transactions))
	t.Transactions = append(t.Transactions, tx)
	return tx
}

// Connect adds chainID to the connection set. Reports whether it was added.
func (t *TipJarState) Connect(chainID ChainID) bool {
	i, ok := slices.BinarySearch(t.Connections, chainID)
	if ok {
		return false
	}
	t.Connections = slices.Insert(t.Connections, i, chainID)
	return true
}

// Disconnect removes chainID from the connection set. Reports whether it was present.
func (t *TipJarState) Disconnect(chainID ChainID) bool {
	i, ok := slices.BinarySearch(t.Connections, chainID)
	if !ok {
		return false
	}
	t.Connections = slices.Delete(t.Connections, i, i+1)
	return true
}
