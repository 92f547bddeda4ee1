package config

import "time"

// Dump describes how snapshots of a single cache are persisted on disk.
// A nil field means the corresponding limit is disabled.
type Dump struct {
	// Directory is the absolute path of the flat directory holding the
	// dump files of this cache. It is not created by the dumper.
	Directory string `yaml:"directory"`

	// FormatVersion is owned by the author of the cache serialization
	// schema and is bumped on every incompatible layout change. Only
	// dumps with exactly this version are loaded back.
	FormatVersion uint64 `yaml:"format_version"`

	// MaxDumpAge drops dumps older than now-MaxDumpAge from both reads
	// and the directory itself. If nil, dumps never expire by age.
	MaxDumpAge *time.Duration `yaml:"max_age"`

	// MaxDumpCount is the number of current-version dumps kept after a
	// cleanup pass, newest first.
	MaxDumpCount uint64 `yaml:"max_count"`
}

// Normalize clamps obviously broken values instead of rejecting the config.
func (cfg *Dump) Normalize() {
	if cfg.MaxDumpCount == 0 {
		cfg.MaxDumpCount = 1
	}
	if cfg.MaxDumpAge != nil && *cfg.MaxDumpAge <= 0 {
		cfg.MaxDumpAge = nil
	}
}

// Clone returns a deep copy, so a stored snapshot can never be mutated
// through the caller's pointer.
func (cfg *Dump) Clone() *Dump {
	out := *cfg
	if cfg.MaxDumpAge != nil {
		age := *cfg.MaxDumpAge
		out.MaxDumpAge = &age
	}
	return &out
}
