package ledger

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"
)

// Clock is the ledger-backed time source.
//
// The tick is persisted in the clock table and advanced explicitly by the
// operator; wall-clock time comes from the host. The in-memory copy keeps
// Tick() cheap and error-free for the protocol core, which reads it on every
// operation.
type Clock struct {
	l    *Ledger
	tick atomic.Uint64
}

// Clock loads the persisted tick and returns the ledger's time source.
func (l *Ledger) Clock() (*Clock, error) {
	c := &Clock{l: l}

	var tick uint64
	err := l.db.QueryRow(`SELECT tick FROM clock WHERE id = 1`).Scan(&tick)
	if err != nil {
		return nil, fmt.Errorf("load clock: %w", err)
	}

	c.tick.Store(tick)
	return c, nil
}

// Tick returns the current ledger tick.
func (c *Clock) Tick() uint64 {
	return c.tick.Load()
}

// Unix returns the current wall-clock time in seconds.
func (c *Clock) Unix() int64 {
	return time.Now().Unix()
}

// Advance moves the ledger tick forward by n and returns the new value.
// The persisted row and the in-memory copy move together.
func (c *Clock) Advance(ctx context.Context, n uint64) (uint64, error) {
	var next uint64
	err := c.l.WithTx(ctx, func(tx *Tx) error {
		if _, err := tx.tx.ExecContext(ctx, `
			UPDATE clock SET tick = tick + ? WHERE id = 1
		`, n); err != nil {
			return fmt.Errorf("advance clock: %w", err)
		}
		return tx.tx.QueryRowContext(ctx, `
			SELECT tick FROM clock WHERE id = 1
		`).Scan(&next)
	})
	if err != nil {
		return 0, err
	}

	c.tick.Store(next)
	return next, nil
}
