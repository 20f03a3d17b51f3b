package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/sortition/internal/addr"
	"github.com/roach88/sortition/internal/protocol"
)

// ErrNotFound indicates no record exists at the requested address.
var ErrNotFound = errors.New("record not found")

// ErrInsufficientFunds indicates a debit larger than the identity's balance.
var ErrInsufficientFunds = errors.New("insufficient funds")

// Tx is the view of the ledger inside one atomic step.
//
// All reads observe the pre-step state plus this step's own writes; nothing
// becomes visible to other operations until WithTx commits.
type Tx struct {
	ctx context.Context
	tx  *sql.Tx
}

// RecordExists reports whether the address already holds data. This is the
// existence check create operations run against a derived address.
func (t *Tx) RecordExists(a addr.Address) (bool, error) {
	var one int
	err := t.tx.QueryRowContext(t.ctx, `
		SELECT 1 FROM records WHERE address = ?
	`, a.Bytes()).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("record exists: %w", err)
	}
	return true, nil
}

// GetRecord returns the stored body for an address.
// Returns ErrNotFound if the address holds no data.
func (t *Tx) GetRecord(a addr.Address) ([]byte, error) {
	var body []byte
	err := t.tx.QueryRowContext(t.ctx, `
		SELECT body FROM records WHERE address = ?
	`, a.Bytes()).Scan(&body)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get record: %w", err)
	}
	return body, nil
}

// PutRecord stores body at the address, creating or replacing the record.
// The size column is denormalized for allocation accounting queries.
func (t *Tx) PutRecord(a addr.Address, domain addr.Domain, body []byte) error {
	_, err := t.tx.ExecContext(t.ctx, `
		INSERT INTO records (address, domain, body, size)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(address) DO UPDATE SET body = excluded.body, size = excluded.size
	`, a.Bytes(), string(domain), body, len(body))
	if err != nil {
		return fmt.Errorf("put record: %w", err)
	}
	return nil
}

// RecordSize returns the stored body size for an address.
// Returns ErrNotFound if the address holds no data.
func (t *Tx) RecordSize(a addr.Address) (int, error) {
	var size int
	err := t.tx.QueryRowContext(t.ctx, `
		SELECT size FROM records WHERE address = ?
	`, a.Bytes()).Scan(&size)
	if err == sql.ErrNoRows {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("record size: %w", err)
	}
	return size, nil
}

// Balance returns the funds held by an identity. Unknown identities hold 0.
func (t *Tx) Balance(id protocol.Identity) (int64, error) {
	var funds int64
	err := t.tx.QueryRowContext(t.ctx, `
		SELECT funds FROM balances WHERE identity = ?
	`, id[:]).Scan(&funds)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("balance: %w", err)
	}
	return funds, nil
}

// Credit adds funds to an identity, creating the balance row if needed.
func (t *Tx) Credit(id protocol.Identity, amount int64) error {
	if amount < 0 {
		return fmt.Errorf("credit: negative amount %d", amount)
	}
	_, err := t.tx.ExecContext(t.ctx, `
		INSERT INTO balances (identity, funds) VALUES (?, ?)
		ON CONFLICT(identity) DO UPDATE SET funds = funds + excluded.funds
	`, id[:], amount)
	if err != nil {
		return fmt.Errorf("credit: %w", err)
	}
	return nil
}

// Debit removes funds from an identity.
// Returns ErrInsufficientFunds if the balance cannot cover the amount; the
// enclosing transaction then rolls back, leaving the balance untouched.
func (t *Tx) Debit(id protocol.Identity, amount int64) error {
	if amount < 0 {
		return fmt.Errorf("debit: negative amount %d", amount)
	}
	if amount == 0 {
		return nil
	}

	result, err := t.tx.ExecContext(t.ctx, `
		UPDATE balances SET funds = funds - ?
		WHERE identity = ? AND funds >= ?
	`, amount, id[:], amount)
	if err != nil {
		return fmt.Errorf("debit: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("debit: rows affected: %w", err)
	}
	if affected == 0 {
		return ErrInsufficientFunds
	}
	return nil
}

// AppendOp records an applied operation in the op log, within the same
// atomic step as the mutation it describes.
func (t *Tx) AppendOp(token, op string, a addr.Address, tick uint64) error {
	_, err := t.tx.ExecContext(t.ctx, `
		INSERT INTO oplog (token, op, address, tick, applied_at)
		VALUES (?, ?, ?, ?, ?)
	`, token, op, a.Bytes(), tick, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("append op: %w", err)
	}
	return nil
}
