package executor

import (
	"math"

	"github.com/blockberries/minichain"
	"github.com/blockberries/minichain/types"
)

var counterActions = map[string]ActionFunc{
	types.ActionIncrement:   counterIncrement,
	types.ActionIncrementBy: counterIncrementBy,
	types.ActionDecrement:   counterDecrement,
	types.ActionReset:       counterReset,
}

func counterIncrement(c Call) (Effect, error) {
	return addToCounter(c.App, 1)
}

func counterIncrementBy(c Call) (Effect, error) {
	if c.Params.By == 0 {
		return Effect{}, minichain.InvalidArgumentf("execute", "increment_by requires a positive step")
	}
	return addToCounter(c.App, c.Params.By)
}

func addToCounter(app types.Application, n uint64) (Effect, error) {
	c := app.State.Counter
	if c.Value > math.MaxUint64-n {
		return Effect{}, minichain.InvalidArgumentf("execute", "counter overflow")
	}
	c.Value += n
	return Effect{State: app.State}, nil
}

// counterDecrement floors at zero.
func counterDecrement(c Call) (Effect, error) {
	if counter := c.App.State.Counter; counter.Value > 0 {
		counter.Value--
	}
	return Effect{State: c.App.State}, nil
}

func counterReset(c Call) (Effect, error) {
	c.App.State.Counter.Value = 0
	return Effect{State: c.App.State}, nil
}
