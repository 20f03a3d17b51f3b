package engine

import (
	"github.com/roach88/sortition/internal/addr"
	"github.com/roach88/sortition/internal/ledger"
	"github.com/roach88/sortition/internal/protocol"
)

// Caller is the authenticated request envelope the transport hands us.
//
// Signature verification happens outside this core; by the time an operation
// arrives, Signed states whether the envelope carried a valid signature for
// Identity. Creator-restricted operations compare Identity against the
// stored creator field.
type Caller struct {
	Identity protocol.Identity
	Signed   bool
}

// Result describes a successfully applied operation.
type Result struct {
	// Op is the operation name, as recorded in the op log.
	Op string

	// Token is the unique token assigned to this application of the
	// operation.
	Token string

	// Address is the storage location of the mutated record.
	Address addr.Address

	// Tick is the ledger tick at which the operation applied.
	Tick uint64

	// PoolID / SessionID identify the affected records.
	PoolID    string
	SessionID string

	// TargetCount is the pool's target count after the operation, for pool
	// operations and session finalization.
	TargetCount uint16

	// AssignedTargetIndex is the assigned pool index. Only meaningful when
	// Assigned is true (session finalization).
	AssignedTargetIndex uint16
	Assigned            bool
}

// PoolRegistry owns target pool records.
type PoolRegistry struct {
	ledger *ledger.Ledger
	clock  protocol.TimeSource
	alloc  ledger.Allocator
}

// NewPoolRegistry creates a registry over the given substrate.
func NewPoolRegistry(l *ledger.Ledger, clock protocol.TimeSource, alloc ledger.Allocator) *PoolRegistry {
	return &PoolRegistry{ledger: l, clock: clock, alloc: alloc}
}

// SessionRegistry owns session records.
type SessionRegistry struct {
	ledger *ledger.Ledger
	clock  protocol.TimeSource
	alloc  ledger.Allocator
}

// NewSessionRegistry creates a registry over the given substrate.
func NewSessionRegistry(l *ledger.Ledger, clock protocol.TimeSource, alloc ledger.Allocator) *SessionRegistry {
	return &SessionRegistry{ledger: l, clock: clock, alloc: alloc}
}

// chargeAllocation debits an allocation cost, translating the ledger's
// sentinel into the protocol taxonomy.
func chargeAllocation(tx *ledger.Tx, funder protocol.Identity, cost int64, poolID, sessionID string) error {
	err := tx.Debit(funder, cost)
	if err == ledger.ErrInsufficientFunds {
		return &protocol.OpError{
			Code:      protocol.CodeInsufficientFunds,
			Message:   "funding identity cannot cover storage allocation",
			PoolID:    poolID,
			SessionID: sessionID,
		}
	}
	return err
}
