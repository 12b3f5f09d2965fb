package executor

import (
	"math"

	"github.com/blockberries/minichain"
	"github.com/blockberries/minichain/types"
)

var tipJarActions = map[string]ActionFunc{
	types.ActionSendTip:    tipJarSendTip,
	types.ActionDeposit:    tipJarDeposit,
	types.ActionWithdraw:   tipJarWithdraw,
	types.ActionConnect:    tipJarConnect,
	types.ActionDisconnect: tipJarDisconnect,
}

// tipJarSendTip leaves the sender's state untouched and emits a tip
// message addressed to the receiver chain. The receiver records the
// tip in its ledger on delivery.
func tipJarSendTip(c Call) (Effect, error) {
	p := c.Params
	if p.Receiver == "" {
		return Effect{}, minichain.InvalidArgumentf("execute", "send_tip requires a receiver")
	}
	if p.Amount == 0 {
		return Effect{}, minichain.InvalidArgumentf("execute", "send_tip requires a positive amount")
	}
	return Effect{
		State: c.App.State,
		Message: &types.CrossChainMessage{
			ToChainID: p.Receiver,
			Type:      types.MessageTip,
			Payload:   types.MessagePayload{Tip: &types.TipPayload{Amount: p.Amount}},
		},
	}, nil
}

func tipJarDeposit(c Call) (Effect, error) {
	amount := c.Params.Amount
	if amount == 0 {
		return Effect{}, minichain.InvalidArgumentf("execute", "deposit requires a positive amount")
	}
	jar := c.App.State.TipJar
	if jar.Balance > math.MaxUint64-amount {
		return Effect{}, minichain.InvalidArgumentf("execute", "balance overflow")
	}
	jar.Balance += amount
	jar.Record(types.TipJarTransaction{
		Kind:        types.TxDeposit,
		Amount:      amount,
		FromChainID: c.App.ChainID,
		ToChainID:   c.App.ChainID,
		Timestamp:   c.At,
	})
	return Effect{State: c.App.State}, nil
}

func tipJarWithdraw(c Call) (Effect, error) {
	amount := c.Params.Amount
	if amount == 0 {
		return Effect{}, minichain.InvalidArgumentf("execute", "withdraw requires a positive amount")
	}
	jar := c.App.State.TipJar
	if amount > jar.Balance {
		return Effect{}, minichain.InvalidArgumentf("execute", "insufficient balance: have %d, want %d", jar.Balance, amount)
	}
	jar.Balance -= amount
	jar.Record(types.TipJarTransaction{
		Kind:        types.TxWithdrawal,
		Amount:      amount,
		FromChainID: c.App.ChainID,
		ToChainID:   c.App.ChainID,
		Timestamp:   c.At,
	})
	return Effect{State: c.App.State}, nil
}

// tipJarConnect is idempotent: connecting an already connected chain
// succeeds and leaves the set as is.
func tipJarConnect(c Call) (Effect, error) {
	id := c.Params.ChainID
	if id == "" {
		return Effect{}, minichain.InvalidArgumentf("execute", "connect requires a chain id")
	}
	if id == c.App.ChainID {
		return Effect{}, minichain.InvalidArgumentf("execute", "cannot connect a chain to itself")
	}
	c.App.State.TipJar.Connect(id)
	return Effect{State: c.App.State}, nil
}

func tipJarDisconnect(c Call) (Effect, error) {
	if c.Params.ChainID == "" {
		return Effect{}, minichain.InvalidArgumentf("execute", "disconnect requires a chain id")
	}
	c.App.State.TipJar.Disconnect(c.Params.ChainID)
	return Effect{State: c.App.State}, nil
}
