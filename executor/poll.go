package executor

import (
	"github.com/blockberries/minichain"
	"github.com/blockberries/minichain/types"
)

var pollActions = map[string]ActionFunc{
	types.ActionCreate: pollCreate,
	types.ActionVote:   pollVote,
	types.ActionClose:  pollSetActive(false),
	types.ActionReopen: pollSetActive(true),
}

// pollCreate replaces the question and options of an existing poll
// and reopens it with every count at zero.
func pollCreate(c Call) (Effect, error) {
	state, err := types.NewPollState(c.Params.Question, c.Params.Options)
	if err != nil {
		return Effect{}, minichain.Wrap(minichain.InvalidArgument, "execute", err)
	}
	return Effect{State: state}, nil
}

// pollVote counts one vote. Votes are not attributed to voters, so
// nothing prevents the same caller from voting repeatedly.
func pollVote(c Call) (Effect, error) {
	poll := c.App.State.Poll
	if c.Params.Option == "" {
		return Effect{}, minichain.InvalidArgumentf("execute", "vote requires an option")
	}
	if !poll.Active {
		return Effect{}, minichain.InvalidArgumentf("execute", "poll is closed")
	}
	i, ok := poll.Option(c.Params.Option)
	if !ok {
		return Effect{}, minichain.InvalidArgumentf("execute", "poll has no option %q", c.Params.Option)
	}
	poll.Options[i].Votes++
	poll.TotalVotes++
	return Effect{State: c.App.State}, nil
}

func pollSetActive(active bool) ActionFunc {
	return func(c Call) (Effect, error) {
		c.App.State.Poll.Active = active
		return Effect{State: c.App.State}, nil
	}
}
