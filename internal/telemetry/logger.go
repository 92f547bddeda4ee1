package telemetry

import (
	"context"
	"log/slog"
	"time"

	"github.com/vblazhnov/go-dumpcache/internal/dumper"
)

type Logger interface {
	Interval() time.Duration
	Close() error
}

// Logs periodically reports per-interval deltas of every dumper's operation
// counters through the injected slog logger.
type Logs struct {
	ctx      context.Context
	cancel   context.CancelFunc
	logger   *slog.Logger
	dumpers  []*dumper.Dumper
	interval time.Duration
}

func New(ctx context.Context, logger *slog.Logger, dumpers []*dumper.Dumper, interval time.Duration) *Logs {
	ctx, cancel := context.WithCancel(ctx)
	return (&Logs{
		ctx:      ctx,
		cancel:   cancel,
		logger:   logger,
		dumpers:  dumpers,
		interval: interval,
	}).run()
}

func (l *Logs) Interval() time.Duration {
	return l.interval
}

func (l *Logs) Close() error {
	l.cancel()
	return nil
}

func (l *Logs) run() *Logs {
	if l.interval > 0 && len(l.dumpers) > 0 {
		go l.loop()
	}
	return l
}

func (l *Logs) loop() {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	s := newSampler(l.dumpers)
	prev := s.snapshot()

	for {
		select {
		case <-l.ctx.Done():
			return

		case <-ticker.C:
			cur := s.snapshot()
			d := deltaSnapshot(prev, cur)
			prev = cur

			common := []any{"interval", l.interval.String()}

			for i, dmp := range l.dumpers {
				l.logger.Info("dumper",
					append(common,
						"cache", dmp.Name(),
						"writes", d[i].Writes,
						"write_failures", d[i].WriteFailures,
						"reads", d[i].Reads,
						"read_misses", d[i].ReadMisses,
						"bumps", d[i].Bumps,
						"bump_failures", d[i].BumpFailures,
						"cleanups", d[i].Cleanups,
						"removed_tmp", d[i].RemovedTmp,
						"removed_expired", d[i].RemovedExpired,
						"removed_excess", d[i].RemovedExcess,
					)...,
				)
			}
		}
	}
}
