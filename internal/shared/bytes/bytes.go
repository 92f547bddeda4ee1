package bytes

import (
	"fmt"

	"github.com/zeebo/xxh3"
)

// Sum returns a cheap content fingerprint used to correlate a dump file
// across write and read log lines. Large buffers are sampled at the head,
// middle and tail instead of hashed in full.
func Sum(data []byte) uint64 {
	if len(data) == 0 {
		return 0
	}
	if len(data) < 32 {
		return xxh3.Hash(data)
	}

	mid := len(data) / 2
	return xxh3.Hash(data[:8]) ^ xxh3.Hash(data[mid:mid+8]) ^ xxh3.Hash(data[len(data)-8:])
}

func FmtMem(bytes uint64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
		TB = GB * 1024
	)

	switch {
	case bytes >= TB:
		t := bytes / TB
		rem := bytes % TB
		return fmt.Sprintf("%dTB %dGB", t, rem/GB)
	case bytes >= GB:
		g := bytes / GB
		rem := bytes % GB
		return fmt.Sprintf("%dGB %dMB", g, rem/MB)
	case bytes >= MB:
		m := bytes / MB
		rem := bytes % MB
		return fmt.Sprintf("%dMB %dKB", m, rem/KB)
	case bytes >= KB:
		k := bytes / KB
		return fmt.Sprintf("%dKB %dB", k, bytes%KB)
	default:
		return fmt.Sprintf("%dB", bytes)
	}
}
