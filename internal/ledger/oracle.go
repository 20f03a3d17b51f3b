package ledger

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/sortition/internal/protocol"
)

// Oracle is the ledger-backed entropy feed.
//
// Entropy is never generated here: values arrive from an external source via
// Import and are immutable once recorded - the first import for a tick wins.
// Implements protocol.EntropyOracle.
type Oracle struct {
	l *Ledger
}

// Oracle returns the ledger's entropy feed.
func (l *Ledger) Oracle() *Oracle {
	return &Oracle{l: l}
}

// Import records the entropy value for a tick.
// Returns false if the tick already had a value (the existing value stands).
func (o *Oracle) Import(ctx context.Context, tick uint64, value protocol.Entropy) (bool, error) {
	result, err := o.l.db.ExecContext(ctx, `
		INSERT INTO entropy (tick, value) VALUES (?, ?)
		ON CONFLICT(tick) DO NOTHING
	`, tick, value[:])
	if err != nil {
		return false, fmt.Errorf("import entropy: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("import entropy: rows affected: %w", err)
	}
	return affected > 0, nil
}

// EntropyAt returns the recorded entropy for a tick.
// ok is false when no value is known for that tick.
func (o *Oracle) EntropyAt(tick uint64) (protocol.Entropy, bool, error) {
	var e protocol.Entropy
	var raw []byte

	err := o.l.db.QueryRow(`
		SELECT value FROM entropy WHERE tick = ?
	`, tick).Scan(&raw)
	if err == sql.ErrNoRows {
		return e, false, nil
	}
	if err != nil {
		return e, false, fmt.Errorf("entropy at %d: %w", tick, err)
	}
	if len(raw) != protocol.EntropySize {
		return e, false, fmt.Errorf("entropy at %d: stored value is %d bytes", tick, len(raw))
	}

	copy(e[:], raw)
	return e, true, nil
}

// Prune drops entropy rows older than the given tick. The external source
// only retains recent values; the feed mirrors that retention.
func (o *Oracle) Prune(ctx context.Context, beforeTick uint64) (int64, error) {
	result, err := o.l.db.ExecContext(ctx, `
		DELETE FROM entropy WHERE tick < ?
	`, beforeTick)
	if err != nil {
		return 0, fmt.Errorf("prune entropy: %w", err)
	}
	return result.RowsAffected()
}
