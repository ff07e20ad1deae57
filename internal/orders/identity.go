package orders

import (
	"fmt"
	"sync/atomic"
	"time"
)

// Identity generates order and tracking identifiers. Both namespaces carry a
// millisecond timestamp plus a process-wide monotonic suffix, so two
// checkouts landing in the same millisecond still get distinct ids. The
// store's primary key remains the backstop against collisions across
// processes.
type Identity struct {
	seq atomic.Uint64
	now func() time.Time
}

func NewIdentity() *Identity {
	return &Identity{now: time.Now}
}

// NewOrderID returns an identifier of the form ORD-<millis>-<seq>.
func (g *Identity) NewOrderID() string {
	return fmt.Sprintf("ORD-%d-%04d", g.now().UnixMilli(), g.seq.Add(1)%10000)
}

// NewTrackingNumber returns an identifier of the form TRK<numeric>. The
// namespace is independent from order ids; callers only rely on uniqueness.
func (g *Identity) NewTrackingNumber() string {
	return fmt.Sprintf("TRK%d%04d", g.now().UnixMilli(), g.seq.Add(1)%10000)
}
