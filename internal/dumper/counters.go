package dumper

import "sync/atomic"

type counters struct {
	writes         atomic.Int64
	writeFailures  atomic.Int64
	reads          atomic.Int64
	readMisses     atomic.Int64
	bumps          atomic.Int64
	bumpFailures   atomic.Int64
	cleanups       atomic.Int64
	removedTmp     atomic.Int64
	removedExpired atomic.Int64
	removedExcess  atomic.Int64
}

func newCounters() *counters {
	return &counters{}
}

// Metrics is a point-in-time copy of the cumulative operation counters.
type Metrics struct {
	Writes         int64
	WriteFailures  int64
	Reads          int64
	ReadMisses     int64
	Bumps          int64
	BumpFailures   int64
	Cleanups       int64
	RemovedTmp     int64
	RemovedExpired int64
	RemovedExcess  int64
}

func (c *counters) snapshot() Metrics {
	return Metrics{
		Writes:         c.writes.Load(),
		WriteFailures:  c.writeFailures.Load(),
		Reads:          c.reads.Load(),
		ReadMisses:     c.readMisses.Load(),
		Bumps:          c.bumps.Load(),
		BumpFailures:   c.bumpFailures.Load(),
		Cleanups:       c.cleanups.Load(),
		RemovedTmp:     c.removedTmp.Load(),
		RemovedExpired: c.removedExpired.Load(),
		RemovedExcess:  c.removedExcess.Load(),
	}
}
