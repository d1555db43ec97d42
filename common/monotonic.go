package common

import (
	"time"

	"github.com/dustin/go-humanize"
)

// Monotonic pairs a monotonic start instant with the wall-clock time it
// was taken at, matching the teacher's NewMonotonic()/HumanizeTime pattern:
// durations are measured off the monotonic clock, and reported to humans
// relative to wall-clock "now".
type Monotonic struct {
	start time.Time // carries the runtime's monotonic reading
	Time  time.Time // wall-clock snapshot taken alongside start
}

// NewMonotonic captures the current instant.
func NewMonotonic() *Monotonic {
	now := time.Now()
	return &Monotonic{start: now, Time: now}
}

// Elapsed returns the monotonic duration since creation.
func (m *Monotonic) Elapsed() time.Duration {
	return time.Since(m.start)
}

// HumanizeTime renders t relative to "now" in human terms ("3 seconds
// ago", "10 seconds from now").
func (m *Monotonic) HumanizeTime(t time.Time) string {
	return humanize.RelTime(t, time.Now(), "ago", "from now")
}

// HumanizeBytes renders a byte count for log lines (cache size, tile
// payload size).
func HumanizeBytes(n uint64) string { return humanize.Bytes(n) }
