package types

// Action names understood by the built-in application types.
const (
	ActionIncrement   = "increment"
	ActionIncrementBy = "increment_by"
	ActionDecrement   = "decrement"
	ActionReset       = "reset"

	ActionCreate = "create"
	ActionVote   = "vote"
	ActionClose  = "close"
	ActionReopen = "reopen"

	ActionSendTip    = "send_tip"
	ActionDeposit    = "deposit"
	ActionWithdraw   = "withdraw"
	ActionConnect    = "connect"
	ActionDisconnect = "disconnect"
)

// ActionParams carries the parameters of an action. Each action
// reads only the fields it needs; the rest are ignored.
type ActionParams struct {
	// Poll vote target.
	Option string `cramberry:"1"`
	// Tip destination chain.
	Receiver ChainID `cramberry:"2"`
	// Tip, deposit and withdraw amount.
	Amount uint64 `cramberry:"3"`
	// Counter increment_by step.
	By uint64 `cramberry:"4"`
	// Tip jar connect/disconnect peer.
	ChainID ChainID `cramberry:"5"`
	// Poll create: the new question and option labels. Empty
	// Options selects the default option set.
	Question string   `cramberry:"6"`
	Options  []string `cramberry:"7"`
}

// ExecuteRequest asks the runtime to run an action on an application.
type ExecuteRequest struct {
	AppID  AppID        `cramberry:"1"`
	Action string       `cramberry:"2"`
	Params ActionParams `cramberry:"3"`
}

// ExecuteResult is the outcome of a successful action.
type ExecuteResult struct {
	State State `cramberry:"1"`
	// Set when the action emitted a cross-chain message.
	MessageID MessageID `cramberry:"2"`
	StateHash StateHash `cramberry:"3"`
}
