package telemetry

import "github.com/vblazhnov/go-dumpcache/internal/dumper"

type sampler struct {
	dumpers []*dumper.Dumper
}

func newSampler(dumpers []*dumper.Dumper) sampler {
	return sampler{dumpers: dumpers}
}

func (s sampler) snapshot() []dumper.Metrics {
	out := make([]dumper.Metrics, len(s.dumpers))
	for i, d := range s.dumpers {
		out[i] = d.Metrics()
	}
	return out
}

// deltaSnapshot converts cumulative snapshots to per-interval deltas.
// If counters reset (cur < prev), it treats cur as the delta.
func deltaSnapshot(prev, cur []dumper.Metrics) []dumper.Metrics {
	out := make([]dumper.Metrics, len(cur))
	for i := range cur {
		out[i] = dumper.Metrics{
			Writes:         delta(prev[i].Writes, cur[i].Writes),
			WriteFailures:  delta(prev[i].WriteFailures, cur[i].WriteFailures),
			Reads:          delta(prev[i].Reads, cur[i].Reads),
			ReadMisses:     delta(prev[i].ReadMisses, cur[i].ReadMisses),
			Bumps:          delta(prev[i].Bumps, cur[i].Bumps),
			BumpFailures:   delta(prev[i].BumpFailures, cur[i].BumpFailures),
			Cleanups:       delta(prev[i].Cleanups, cur[i].Cleanups),
			RemovedTmp:     delta(prev[i].RemovedTmp, cur[i].RemovedTmp),
			RemovedExpired: delta(prev[i].RemovedExpired, cur[i].RemovedExpired),
			RemovedExcess:  delta(prev[i].RemovedExcess, cur[i].RemovedExcess),
		}
	}
	return out
}

func delta(prev, cur int64) int64 {
	if cur >= prev {
		return cur - prev
	}
	return cur
}
