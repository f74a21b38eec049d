package orders

import (
	"strconv"
	"sync"
	"time"
)

// paymentIDs hands out Unix-millisecond ids, bumped by one when two payments
// land in the same millisecond.
var paymentIDs idGen

type idGen struct {
	mu   sync.Mutex
	last int64
}

func (g *idGen) next(now time.Time) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	ms := now.UnixMilli()
	if ms <= g.last {
		ms = g.last + 1
	}
	g.last = ms
	return strconv.FormatInt(ms, 10)
}
