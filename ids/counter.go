package ids

import (
	"strconv"
	"sync/atomic"
)

type counter struct{ n atomic.Uint64 }

func (c *counter) next() string {
	return strconv.FormatUint(c.n.Add(1), 10)
}
