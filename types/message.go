package types

import "fmt"

// MessageType selects how a cross-chain message affects its target.
type MessageType uint8

const (
	// MessageTip credits the target tip jar with TipPayload.Amount.
	MessageTip MessageType = iota + 1
)

func (t MessageType) String() string {
	switch t {
	case MessageTip:
		return "tip"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(t))
	}
}

// MessageStatus is the delivery status of a cross-chain message.
// Pending is the only non-terminal status.
type MessageStatus uint8

const (
	MessagePending MessageStatus = iota
	MessageDelivered
	MessageFailed
)

func (s MessageStatus) String() string {
	switch s {
	case MessagePending:
		return "pending"
	case MessageDelivered:
		return "delivered"
	case MessageFailed:
		return "failed"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(s))
	}
}

// Terminal reports whether no further transition is possible.
func (s MessageStatus) Terminal() bool {
	return s == MessageDelivered || s == MessageFailed
}

// TipPayload carries the amount of a tip.
type TipPayload struct {
	Amount uint64 `cramberry:"1"`
}

// MessagePayload is a tagged union over message types. Exactly
// the field matching the message's Type is set.
type MessagePayload struct {
	Tip *TipPayload `cramberry:"1"`
}

// CrossChainMessage is an asynchronous effect sent from an
// application on one chain to the application hosted on another.
type CrossChainMessage struct {
	ID          MessageID      `cramberry:"1"`
	FromChainID ChainID        `cramberry:"2"`
	ToChainID   ChainID        `cramberry:"3"`
	FromAppID   AppID          `cramberry:"4"`
	Type        MessageType    `cramberry:"5"`
	Payload     MessagePayload `cramberry:"6"`
	Timestamp   Timestamp      `cramberry:"7"`
	Status      MessageStatus  `cramberry:"8"`
	// Set once the message reaches a terminal status.
	SettledAt *Timestamp `cramberry:"9"`
	// Target application the message was applied to, if delivered.
	ToAppID AppID `cramberry:"10"`
	// Failure reason, if failed. Audit only.
	Error string `cramberry:"11"`
}

// Clone returns a deep copy of m.
func (m CrossChainMessage) Clone() CrossChainMessage {
	out := m
	if m.Payload.Tip != nil {
		tip := *m.Payload.Tip
		out.Payload.Tip = &tip
	}
	if m.SettledAt != nil {
		ts := *m.SettledAt
		out.SettledAt = &ts
	}
	return out
}
