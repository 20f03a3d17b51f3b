package protocol

import (
	"sync/atomic"
	"time"
)

// TimeSource is the ledger time the protocol depends on.
//
// Tick is a monotonically increasing counter; the anti-manipulation window of
// session finalization is measured in ticks. Unix supplies wall-clock
// timestamps for the created/submitted/finalized fields and carries no
// protocol meaning.
//
// The core depends only on this interface, never on a concrete ledger.
type TimeSource interface {
	// Tick returns the current ledger tick.
	Tick() uint64

	// Unix returns the current wall-clock time in seconds.
	Unix() int64
}

// LogicalClock is an in-memory TimeSource driven by explicit advancement.
//
// Used by tests, the scenario harness, and the CLI's standalone ledger, where
// ticks advance under the operator's control rather than from a host chain.
//
// Thread-safety: all methods are safe for concurrent use (atomic operations).
type LogicalClock struct {
	tick atomic.Uint64
	unix atomic.Int64
}

// NewLogicalClock creates a clock at tick 0 with the current wall time.
func NewLogicalClock() *LogicalClock {
	c := &LogicalClock{}
	c.unix.Store(time.Now().Unix())
	return c
}

// NewLogicalClockAt creates a clock positioned at a specific tick.
func NewLogicalClockAt(tick uint64) *LogicalClock {
	c := NewLogicalClock()
	c.tick.Store(tick)
	return c
}

// Tick returns the current tick without advancing.
func (c *LogicalClock) Tick() uint64 {
	return c.tick.Load()
}

// Unix returns the configured wall-clock time.
func (c *LogicalClock) Unix() int64 {
	return c.unix.Load()
}

// Advance moves the clock forward by n ticks and returns the new tick.
func (c *LogicalClock) Advance(n uint64) uint64 {
	return c.tick.Add(n)
}

// SetUnix pins the wall-clock time. Useful for deterministic timestamps.
func (c *LogicalClock) SetUnix(unix int64) {
	c.unix.Store(unix)
}
