package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	yml := `
caches:
  users:
    directory: /var/cache/users
    format_version: 3
    max_age: 1h
    max_count: 5
  sessions:
    directory: /var/cache/sessions
    format_version: 1
    max_count: 0
fs_workers: 4
telemetry_interval: 5s
`
	path := filepath.Join(t.TempDir(), "dump.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, 4, cfg.FSWorkers)
	require.Equal(t, 5*time.Second, cfg.TelemetryInterval)

	users := cfg.Caches["users"]
	require.NotNil(t, users)
	require.Equal(t, "/var/cache/users", users.Directory)
	require.Equal(t, uint64(3), users.FormatVersion)
	require.NotNil(t, users.MaxDumpAge)
	require.Equal(t, time.Hour, *users.MaxDumpAge)
	require.Equal(t, uint64(5), users.MaxDumpCount)

	// Normalize clamps a zero retention count.
	sessions := cfg.Caches["sessions"]
	require.NotNil(t, sessions)
	require.Nil(t, sessions.MaxDumpAge)
	require.Equal(t, uint64(1), sessions.MaxDumpCount)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadMalformedYaml(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dump.yaml")
	require.NoError(t, os.WriteFile(path, []byte("caches: ["), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestNormalizeDropsNonPositiveAge(t *testing.T) {
	age := -time.Minute
	cfg := &Dump{Directory: "/d", MaxDumpAge: &age}
	cfg.Normalize()
	require.Nil(t, cfg.MaxDumpAge)
	require.Equal(t, uint64(1), cfg.MaxDumpCount)
}

func TestCloneIsDeep(t *testing.T) {
	age := time.Hour
	cfg := &Dump{Directory: "/d", FormatVersion: 2, MaxDumpAge: &age, MaxDumpCount: 3}

	cp := cfg.Clone()
	*cp.MaxDumpAge = 2 * time.Hour
	cp.Directory = "/other"

	require.Equal(t, time.Hour, *cfg.MaxDumpAge)
	require.Equal(t, "/d", cfg.Directory)
}
