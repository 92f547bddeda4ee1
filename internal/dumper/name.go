package dumper

import (
	"regexp"
	"strconv"
	"time"
)

// Dump files are named "<update time, UTC, microseconds>-v<format version>",
// e.g. "2024-01-02T03:04:05.000000-v3". The atomic-write primitive leaves a
// ".tmp" sidefile with the same prefix while a write is in flight.
const dumpTimeLayout = "2006-01-02T15:04:05.000000"

var (
	dumpNameRe    = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d{6})-v(\d+)$`)
	tmpDumpNameRe = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d{6})-v(\d+)\.tmp$`)
)

// parsedDumpName is produced only by parseDumpName; the fields always agree
// with the filename.
type parsedDumpName struct {
	filename      string
	updateTime    time.Time
	formatVersion uint64
}

func formatDumpName(updateTime time.Time, formatVersion uint64) string {
	return updateTime.UTC().Format(dumpTimeLayout) + "-v" + strconv.FormatUint(formatVersion, 10)
}

// parseDumpName decodes filename as a dump name. Names that don't match the
// grammar at all yield nil silently; names that match but fail to decode are
// reported at warning level (they look like our files, but aren't).
func (d *Dumper) parseDumpName(filename string) *parsedDumpName {
	m := dumpNameRe.FindStringSubmatch(filename)
	if m == nil {
		return nil
	}

	updateTime, err := time.ParseInLocation(dumpTimeLayout, m[1], time.UTC)
	if err == nil {
		var version uint64
		version, err = strconv.ParseUint(m[2], 10, 64)
		if err == nil {
			return &parsedDumpName{
				filename:      filename,
				updateTime:    roundToMicros(updateTime),
				formatVersion: version,
			}
		}
	}

	d.log.Warn().
		Str("cache", d.cacheName).
		Str("filename", filename).
		Err(err).
		Msg("a filename looks like a cache dump, but it is not")
	return nil
}

func roundToMicros(t time.Time) time.Time {
	return t.Round(time.Microsecond)
}
