// Package congestion is the throttling skeleton of the service framework.
// It exposes a rate gate with a hot-swappable limit; the policy loop that
// would drive the limit from load sensors lives outside this fragment.
package congestion

import (
	"go.uber.org/ratelimit"

	"github.com/vblazhnov/go-dumpcache/internal/confcell"
)

type gate struct {
	limiter ratelimit.Limiter
	rps     int
}

// Controller throttles a call path to a configured rate. SetLimit may be
// called at any moment; callers blocked in Acquire finish against the gate
// they entered with.
type Controller struct {
	cell *confcell.Cell[gate]
}

func New(rps int) *Controller {
	return &Controller{cell: confcell.New(newGate(rps))}
}

func newGate(rps int) *gate {
	if rps <= 0 {
		return &gate{limiter: ratelimit.NewUnlimited(), rps: 0}
	}
	return &gate{limiter: ratelimit.New(rps), rps: rps}
}

// Acquire blocks until the rate gate admits one call.
func (c *Controller) Acquire() {
	h := c.cell.Read()
	defer h.Close()
	h.Value().limiter.Take()
}

// Limit reports the current requests-per-second cap, 0 meaning unlimited.
func (c *Controller) Limit() int {
	h := c.cell.Read()
	defer h.Close()
	return h.Value().rps
}

// SetLimit installs a new cap and reclaims gates nobody holds anymore.
func (c *Controller) SetLimit(rps int) {
	c.cell.Assign(newGate(rps))
	c.cell.Cleanup()
}
