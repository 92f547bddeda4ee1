// Package dumper persists periodic snapshots of an in-memory cache to a flat
// directory, restores the latest usable one on startup and rotates the rest.
//
// The API is total: operations report failure through their return values
// only, so a cache update loop never aborts on disk trouble. Every blocking
// filesystem call goes through the dedicated fs executor; the caller's
// goroutine only awaits.
package dumper

import (
	"context"
	"path/filepath"
	"sort"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"

	"github.com/vblazhnov/go-dumpcache/config"
	"github.com/vblazhnov/go-dumpcache/internal/confcell"
	"github.com/vblazhnov/go-dumpcache/internal/executor"
	"github.com/vblazhnov/go-dumpcache/internal/fsadapt"
	"github.com/vblazhnov/go-dumpcache/internal/shared/bytes"
)

const dumpFileMode = 0o600

// DumpContents pairs a serialized cache snapshot with its logical update
// time. The bytes are opaque here; the owning cache picks the encoding.
type DumpContents struct {
	Contents   []byte
	UpdateTime time.Time
}

// Dumper owns the dump directory of a single cache. It is the directory's
// sole writer. ReadLatest may run concurrently with anything; the owning
// cache serializes WriteNew / BumpTime / Cleanup itself.
type Dumper struct {
	cfg       *confcell.Cell[config.Dump]
	fs        fsadapt.FS
	exec      *executor.Pool
	cacheName string
	log       zerolog.Logger
	clock     clock.Clock
	counters  *counters
}

func New(
	cfg *config.Dump,
	pool *executor.Pool,
	fs fsadapt.FS,
	cacheName string,
	logger zerolog.Logger,
	clk clock.Clock,
) *Dumper {
	return &Dumper{
		cfg:       confcell.New(cfg.Clone()),
		fs:        fs,
		exec:      pool,
		cacheName: cacheName,
		log:       logger,
		clock:     clk,
		counters:  newCounters(),
	}
}

// WriteNew persists dump as a fresh file. A pre-existing file at the target
// path means two distinct dumps collided on (update time, version); nothing
// is overwritten and false is returned.
func (d *Dumper) WriteNew(ctx context.Context, dump DumpContents) bool {
	cfg := d.cfg.Read()
	defer cfg.Close()

	dumpPath := d.dumpPath(dump.UpdateTime, cfg.Value())

	exists, err := executor.Run(ctx, d.exec, "dump-exists", func() (bool, error) {
		return d.fs.Exists(dumpPath)
	})
	if err != nil {
		d.counters.writeFailures.Add(1)
		d.log.Error().Str("cache", d.cacheName).Str("path", dumpPath).Err(err).
			Msg("could not dump cache")
		return false
	}
	if exists {
		d.counters.writeFailures.Add(1)
		d.log.Error().Str("cache", d.cacheName).Str("path", dumpPath).
			Msg("could not dump cache, file already exists")
		return false
	}

	err = executor.RunErr(ctx, d.exec, "dump-write", func() error {
		return d.fs.WriteAtomic(dumpPath, dump.Contents, dumpFileMode)
	})
	if err != nil {
		d.counters.writeFailures.Add(1)
		d.log.Error().Str("cache", d.cacheName).Str("path", dumpPath).Err(err).
			Msg("error while trying to dump cache")
		return false
	}

	d.counters.writes.Add(1)
	d.log.Info().Str("cache", d.cacheName).Str("path", dumpPath).
		Str("size", bytes.FmtMem(uint64(len(dump.Contents)))).
		Uint64("sum", bytes.Sum(dump.Contents)).
		Msg("successfully dumped cache")
	return true
}

// ReadLatest returns the newest dump that matches the current format version
// and (when configured) the age window, or nil when none is usable.
func (d *Dumper) ReadLatest(ctx context.Context) *DumpContents {
	cfg := d.cfg.Read()
	defer cfg.Close()

	best, err := executor.Run(ctx, d.exec, "dump-scan", func() (*parsedDumpName, error) {
		return d.latestDumpBlocking(cfg.Value()), nil
	})
	if err != nil {
		d.counters.readMisses.Add(1)
		d.log.Error().Str("cache", d.cacheName).Err(err).
			Msg("error while trying to find the latest cache dump")
		return nil
	}
	if best == nil {
		d.counters.readMisses.Add(1)
		d.log.Info().Str("cache", d.cacheName).Msg("no usable cache dumps found")
		return nil
	}

	dumpPath := filepath.Join(cfg.Value().Directory, best.filename)
	d.log.Debug().Str("cache", d.cacheName).Str("path", dumpPath).
		Msg("a usable cache dump found")

	contents, err := executor.Run(ctx, d.exec, "dump-read", func() ([]byte, error) {
		return d.fs.ReadAll(dumpPath)
	})
	if err != nil {
		d.counters.readMisses.Add(1)
		d.log.Error().Str("cache", d.cacheName).Str("path", dumpPath).Err(err).
			Msg("error while trying to read the contents of cache dump")
		return nil
	}

	d.counters.reads.Add(1)
	return &DumpContents{Contents: contents, UpdateTime: best.updateTime}
}

// BumpTime renames the dump written at oldUpdateTime so its name carries
// newUpdateTime, without rewriting the contents. Both names are formatted
// with the current config's version; callers only bump dumps they know match
// it. Returns false when the old dump is gone (write a fresh one instead).
func (d *Dumper) BumpTime(ctx context.Context, oldUpdateTime, newUpdateTime time.Time) bool {
	if oldUpdateTime.After(newUpdateTime) {
		d.log.Error().Str("cache", d.cacheName).
			Time("old", oldUpdateTime).Time("new", newUpdateTime).
			Msg("dump time bumped backwards")
	}

	cfg := d.cfg.Read()
	defer cfg.Close()

	oldPath := d.dumpPath(oldUpdateTime, cfg.Value())
	newPath := d.dumpPath(newUpdateTime, cfg.Value())

	exists, err := executor.Run(ctx, d.exec, "dump-exists", func() (bool, error) {
		return d.fs.Exists(oldPath)
	})
	if err == nil && !exists {
		d.counters.bumpFailures.Add(1)
		d.log.Warn().Str("cache", d.cacheName).Str("path", oldPath).
			Msg("the previous cache dump has suddenly disappeared, a new cache dump will be created")
		return false
	}
	if err == nil {
		err = executor.RunErr(ctx, d.exec, "dump-rename", func() error {
			return d.fs.Rename(oldPath, newPath)
		})
	}
	if err != nil {
		d.counters.bumpFailures.Add(1)
		d.log.Error().Str("cache", d.cacheName).
			Str("from", oldPath).Str("to", newPath).Err(err).
			Msg("error while trying to rename cache dump")
		return false
	}

	d.counters.bumps.Add(1)
	d.log.Info().Str("cache", d.cacheName).Str("from", oldPath).Str("to", newPath).
		Msg("renamed cache dump")
	return true
}

// Cleanup sweeps tmp leftovers, dumps of older format versions, dumps past
// the age window and everything beyond the newest MaxDumpCount, then lets
// the config cell reclaim retired snapshots. Errors are logged, never
// returned.
func (d *Dumper) Cleanup(ctx context.Context) {
	cfg := d.cfg.Read()

	_ = executor.RunErr(ctx, d.exec, "dump-cleanup", func() error {
		d.cleanupBlocking(cfg.Value())
		return nil
	})

	cfg.Close()
	d.cfg.Cleanup()
	d.counters.cleanups.Add(1)
}

// SetConfig atomically replaces the live config. Operations already in
// flight finish under the snapshot they started with.
func (d *Dumper) SetConfig(cfg *config.Dump) {
	d.cfg.Assign(cfg.Clone())
}

// Metrics returns the cumulative operation counters.
func (d *Dumper) Metrics() Metrics {
	return d.counters.snapshot()
}

// Name returns the owning cache's name.
func (d *Dumper) Name() string {
	return d.cacheName
}

func (d *Dumper) latestDumpBlocking(cfg *config.Dump) *parsedDumpName {
	minUpdateTime, hasMin := d.minAcceptableUpdateTime(cfg)
	var best *parsedDumpName

	files, err := d.fs.ListRegularFiles(cfg.Directory)
	if err != nil {
		d.log.Error().Str("cache", d.cacheName).Err(err).
			Msg("error while trying to fetch cache dumps")
		// Proceed with whatever was listed before the failure.
	}

	for _, filename := range files {
		curr := d.parseDumpName(filename)
		if curr == nil {
			continue
		}

		if curr.formatVersion != cfg.FormatVersion {
			d.log.Debug().Str("cache", d.cacheName).Str("filename", curr.filename).
				Uint64("version", curr.formatVersion).
				Uint64("current_version", cfg.FormatVersion).
				Msg("ignoring cache dump of a different format version")
			continue
		}

		if hasMin && curr.updateTime.Before(minUpdateTime) {
			d.log.Debug().Str("cache", d.cacheName).Str("filename", curr.filename).
				Dur("max_age", *cfg.MaxDumpAge).
				Msg("ignoring cache dump older than the maximum allowed age")
			continue
		}

		if best == nil || curr.updateTime.After(best.updateTime) {
			best = curr
		}
	}

	return best
}

func (d *Dumper) cleanupBlocking(cfg *config.Dump) {
	minUpdateTime, hasMin := d.minAcceptableUpdateTime(cfg)
	var dumps []*parsedDumpName

	files, err := d.fs.ListRegularFiles(cfg.Directory)
	if err != nil {
		d.log.Error().Str("cache", d.cacheName).Err(err).
			Msg("error while cleaning up old dumps")
		return
	}

	for _, filename := range files {
		path := filepath.Join(cfg.Directory, filename)

		if tmpDumpNameRe.MatchString(filename) {
			d.log.Debug().Str("cache", d.cacheName).Str("path", path).
				Msg("removing a leftover tmp file")
			d.removeDump(path, &d.counters.removedTmp)
			continue
		}

		dump := d.parseDumpName(filename)
		if dump == nil {
			continue
		}

		if dump.formatVersion < cfg.FormatVersion ||
			(hasMin && dump.updateTime.Before(minUpdateTime)) {
			d.log.Debug().Str("cache", d.cacheName).Str("path", path).
				Msg("removing an expired dump")
			d.removeDump(path, &d.counters.removedExpired)
			continue
		}

		// Dumps of a newer version may belong to a rolled-back process;
		// they are left alone.
		if dump.formatVersion == cfg.FormatVersion {
			dumps = append(dumps, dump)
		}
	}

	sort.Slice(dumps, func(i, j int) bool {
		return dumps[i].updateTime.After(dumps[j].updateTime)
	})

	for i := int(cfg.MaxDumpCount); i < len(dumps); i++ {
		path := filepath.Join(cfg.Directory, dumps[i].filename)
		d.log.Debug().Str("cache", d.cacheName).Str("path", path).
			Msg("removing an excessive dump")
		d.removeDump(path, &d.counters.removedExcess)
	}
}

func (d *Dumper) removeDump(path string, removed *atomic.Int64) {
	if err := d.fs.Remove(path); err != nil {
		d.log.Error().Str("cache", d.cacheName).Str("path", path).Err(err).
			Msg("failed to remove cache dump")
		return
	}
	removed.Add(1)
}

func (d *Dumper) dumpPath(updateTime time.Time, cfg *config.Dump) string {
	return filepath.Join(cfg.Directory, formatDumpName(updateTime, cfg.FormatVersion))
}

// minAcceptableUpdateTime returns the age cutoff; the bool is false when no
// MaxDumpAge is configured and every update time is acceptable.
func (d *Dumper) minAcceptableUpdateTime(cfg *config.Dump) (time.Time, bool) {
	if cfg.MaxDumpAge == nil {
		return time.Time{}, false
	}
	return roundToMicros(d.clock.Now()).Add(-*cfg.MaxDumpAge), true
}
