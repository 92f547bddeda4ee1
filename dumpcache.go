package dumpcache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/vblazhnov/go-dumpcache/config"
	"github.com/vblazhnov/go-dumpcache/internal/dumper"
	"github.com/vblazhnov/go-dumpcache/internal/executor"
	"github.com/vblazhnov/go-dumpcache/internal/fsadapt"
	"github.com/vblazhnov/go-dumpcache/internal/handlers/testsctl"
	"github.com/vblazhnov/go-dumpcache/internal/telemetry"
)

// DumpContents pairs serialized cache bytes with their logical update time.
type DumpContents = dumper.DumpContents

// Dumper is the per-cache dump surface.
type Dumper interface {
	WriteNew(ctx context.Context, dump DumpContents) bool
	ReadLatest(ctx context.Context) *DumpContents
	BumpTime(ctx context.Context, oldUpdateTime, newUpdateTime time.Time) bool
	Cleanup(ctx context.Context)
	SetConfig(cfg *config.Dump)
}

var _ Dumper = (*dumper.Dumper)(nil)

// Manager wires one dumper per configured cache over a shared filesystem
// executor and the host filesystem.
type Manager struct {
	pool      *executor.Pool
	dumpers   map[string]*dumper.Dumper
	handler   *testsctl.Handler
	telemetry telemetry.Logger
	cls       context.CancelFunc
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Manager, error) {
	if len(cfg.Caches) == 0 {
		return nil, fmt.Errorf("no caches configured")
	}
	ctx, cancel := context.WithCancel(ctx)

	pool := executor.NewPool(cfg.FSWorkers)
	fs := fsadapt.NewOS()
	clk := clock.New()
	handler := testsctl.New(log.Logger)

	dumpers := make(map[string]*dumper.Dumper, len(cfg.Caches))
	all := make([]*dumper.Dumper, 0, len(cfg.Caches))
	for name, dumpCfg := range cfg.Caches {
		d := NewDumper(dumpCfg, pool, fs, name, log.Logger, clk)
		dumpers[name] = d
		all = append(all, d)
		handler.Register(name, d)
	}

	return &Manager{
		pool:      pool,
		dumpers:   dumpers,
		handler:   handler,
		telemetry: telemetry.New(ctx, logger, all, cfg.TelemetryInterval),
		cls:       cancel,
	}, nil
}

// NewDumper builds a single dumper over an explicit executor and filesystem.
func NewDumper(
	cfg *config.Dump,
	pool *executor.Pool,
	fs fsadapt.FS,
	cacheName string,
	logger zerolog.Logger,
	clk clock.Clock,
) *dumper.Dumper {
	return dumper.New(cfg, pool, fs, cacheName, logger, clk)
}

// Dumper returns the dumper owning cacheName.
func (m *Manager) Dumper(cacheName string) (*dumper.Dumper, bool) {
	d, ok := m.dumpers[cacheName]
	return d, ok
}

// TestsControl returns the HTTP test-control handler with every configured
// cache registered.
func (m *Manager) TestsControl() *testsctl.Handler {
	return m.handler
}

func (m *Manager) Close() error {
	m.cls()
	_ = m.telemetry.Close()
	return m.pool.Close()
}
