package ledger

import (
	"context"
	"fmt"

	"github.com/roach88/sortition/internal/addr"
)

// OpEntry is one row of the op log.
type OpEntry struct {
	Seq       int64
	Token     string
	Op        string
	Address   addr.Address
	Tick      uint64
	AppliedAt string
}

// RecentOps returns the most recent op log entries, newest first.
// limit <= 0 returns everything.
func (l *Ledger) RecentOps(ctx context.Context, limit int) ([]OpEntry, error) {
	query := `
		SELECT seq, token, op, address, tick, applied_at
		FROM oplog ORDER BY seq DESC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("recent ops: %w", err)
	}
	defer rows.Close()

	var entries []OpEntry
	for rows.Next() {
		var e OpEntry
		var rawAddr []byte
		if err := rows.Scan(&e.Seq, &e.Token, &e.Op, &rawAddr, &e.Tick, &e.AppliedAt); err != nil {
			return nil, fmt.Errorf("recent ops: scan: %w", err)
		}
		a, ok := addr.FromBytes(rawAddr)
		if !ok {
			return nil, fmt.Errorf("recent ops: stored address is %d bytes", len(rawAddr))
		}
		e.Address = a
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
