package dumpcache

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vblazhnov/go-dumpcache/config"
)

func managerCfg(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{
		Caches: map[string]*config.Dump{
			"users": {
				Directory:     t.TempDir(),
				FormatVersion: 2,
				MaxDumpCount:  3,
			},
		},
	}
	cfg.Normalize()
	return cfg
}

func TestManagerEndToEnd(t *testing.T) {
	m, err := New(t.Context(), managerCfg(t), slog.Default())
	require.NoError(t, err)
	defer m.Close()

	d, ok := m.Dumper("users")
	require.True(t, ok)
	_, ok = m.Dumper("ghosts")
	require.False(t, ok)

	ts := time.Date(2024, 1, 2, 3, 4, 5, 123456000, time.UTC)
	require.True(t, d.WriteNew(t.Context(), DumpContents{Contents: []byte("state"), UpdateTime: ts}))

	dump := d.ReadLatest(t.Context())
	require.NotNil(t, dump)
	require.Equal(t, []byte("state"), dump.Contents)
	require.True(t, dump.UpdateTime.Equal(ts))

	d.Cleanup(t.Context())
	dump = d.ReadLatest(t.Context())
	require.NotNil(t, dump)
}

func TestManagerRequiresCaches(t *testing.T) {
	_, err := New(t.Context(), &config.Config{}, slog.Default())
	require.Error(t, err)
}

func TestManagerWritesWithOwnerOnlyMode(t *testing.T) {
	cfg := managerCfg(t)
	m, err := New(t.Context(), cfg, slog.Default())
	require.NoError(t, err)
	defer m.Close()

	d, _ := m.Dumper("users")
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	require.True(t, d.WriteNew(t.Context(), DumpContents{Contents: []byte("x"), UpdateTime: ts}))

	path := filepath.Join(cfg.Caches["users"].Directory, "2024-01-02T03:04:05.000000-v2")
	fi, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), fi.Mode().Perm())
}

func TestTestsControlIsWired(t *testing.T) {
	m, err := New(t.Context(), managerCfg(t), slog.Default())
	require.NoError(t, err)
	defer m.Close()

	require.NotNil(t, m.TestsControl())
}
