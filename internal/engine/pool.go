package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/roach88/sortition/internal/addr"
	"github.com/roach88/sortition/internal/codec"
	"github.com/roach88/sortition/internal/ledger"
	"github.com/roach88/sortition/internal/protocol"
)

// Create persists a new, unfinalized pool at the address derived from
// poolID. An empty target batch is permitted: such a pool is populated later
// via Append. The caller becomes the creator and funds the initial
// allocation.
func (r *PoolRegistry) Create(ctx context.Context, caller Caller, poolID string, targets []protocol.Hash32) (*Result, error) {
	if !caller.Signed {
		return nil, protocol.NewPoolError(protocol.CodeMissingAuthority, poolID, "create requires an authenticated creator")
	}
	if poolID == "" {
		return nil, protocol.NewPoolError(protocol.CodeInvalidPoolID, poolID, "pool id must not be empty")
	}
	if len(targets) > protocol.MaxPoolTargets {
		return nil, protocol.NewPoolError(protocol.CodeInvalidTargetCount, poolID,
			fmt.Sprintf("%d targets exceeds the %d limit", len(targets), protocol.MaxPoolTargets))
	}

	location := addr.Derive(addr.DomainPool, poolID)
	token := uuid.NewString()
	tick := r.clock.Tick()

	err := r.ledger.WithTx(ctx, func(tx *ledger.Tx) error {
		exists, err := tx.RecordExists(location)
		if err != nil {
			return err
		}
		if exists {
			return protocol.NewPoolError(protocol.CodePoolAlreadyExists, poolID, "derived address already holds data")
		}

		pool := protocol.TargetPool{
			PoolID:      poolID,
			Creator:     caller.Identity,
			TargetCount: uint16(len(targets)),
			Targets:     targets,
			CreatedAt:   r.clock.Unix(),
			Finalized:   false,
		}

		body, err := codec.MarshalPool(pool)
		if err != nil {
			return err
		}

		if err := chargeAllocation(tx, caller.Identity, r.alloc.Cost(len(body)), poolID, ""); err != nil {
			return err
		}
		if err := tx.PutRecord(location, addr.DomainPool, body); err != nil {
			return err
		}
		return tx.AppendOp(token, codec.CreateTargetPool{}.Name(), location, tick)
	})
	if err != nil {
		return nil, err
	}

	return &Result{
		Op:          codec.CreateTargetPool{}.Name(),
		Token:       token,
		Address:     location,
		Tick:        tick,
		PoolID:      poolID,
		TargetCount: uint16(len(targets)),
	}, nil
}

// Append grows an unfinalized pool. Only the original creator may append;
// existing indices keep their positions, and the creator funds the
// allocation growth within the same atomic step.
func (r *PoolRegistry) Append(ctx context.Context, caller Caller, poolID string, targets []protocol.Hash32) (*Result, error) {
	if !caller.Signed {
		return nil, protocol.NewPoolError(protocol.CodeMissingAuthority, poolID, "append requires an authenticated creator")
	}

	location := addr.Derive(addr.DomainPool, poolID)
	token := uuid.NewString()
	tick := r.clock.Tick()

	var total uint16
	err := r.ledger.WithTx(ctx, func(tx *ledger.Tx) error {
		pool, oldSize, err := loadPool(tx, location, poolID)
		if err != nil {
			return err
		}
		if pool.Creator != caller.Identity {
			return protocol.NewPoolError(protocol.CodeUnauthorized, poolID, "caller is not the pool creator")
		}
		if pool.Finalized {
			return protocol.NewPoolError(protocol.CodePoolAlreadyFinalized, poolID, "pool is closed to further additions")
		}
		if len(targets) == 0 {
			return protocol.NewPoolError(protocol.CodeInvalidTargetCount, poolID, "append batch must not be empty")
		}
		if len(pool.Targets)+len(targets) > protocol.MaxPoolTargets {
			return protocol.NewPoolError(protocol.CodeInvalidTargetCount, poolID,
				fmt.Sprintf("appending %d targets would exceed the %d limit", len(targets), protocol.MaxPoolTargets))
		}

		pool.Targets = append(pool.Targets, targets...)
		pool.TargetCount = uint16(len(pool.Targets))
		total = pool.TargetCount

		body, err := codec.MarshalPool(pool)
		if err != nil {
			return err
		}

		// The larger allocation is funded by the creator before the larger
		// record commits; a failed debit aborts the whole append.
		if err := chargeAllocation(tx, pool.Creator, r.alloc.GrowthCost(oldSize, len(body)), poolID, ""); err != nil {
			return err
		}
		if err := tx.PutRecord(location, addr.DomainPool, body); err != nil {
			return err
		}
		return tx.AppendOp(token, codec.AppendTargetsToPool{}.Name(), location, tick)
	})
	if err != nil {
		return nil, err
	}

	return &Result{
		Op:          codec.AppendTargetsToPool{}.Name(),
		Token:       token,
		Address:     location,
		Tick:        tick,
		PoolID:      poolID,
		TargetCount: total,
	}, nil
}

// Finalize closes a pool to further additions. One-way: no operation ever
// clears the flag. A pool must hold at least one target to finalize.
func (r *PoolRegistry) Finalize(ctx context.Context, caller Caller, poolID string) (*Result, error) {
	if !caller.Signed {
		return nil, protocol.NewPoolError(protocol.CodeMissingAuthority, poolID, "finalize requires an authenticated creator")
	}

	location := addr.Derive(addr.DomainPool, poolID)
	token := uuid.NewString()
	tick := r.clock.Tick()

	var total uint16
	err := r.ledger.WithTx(ctx, func(tx *ledger.Tx) error {
		pool, _, err := loadPool(tx, location, poolID)
		if err != nil {
			return err
		}
		if pool.Creator != caller.Identity {
			return protocol.NewPoolError(protocol.CodeUnauthorized, poolID, "caller is not the pool creator")
		}
		if pool.Finalized {
			return protocol.NewPoolError(protocol.CodePoolAlreadyFinalized, poolID, "pool is already finalized")
		}
		if len(pool.Targets) == 0 {
			return protocol.NewPoolError(protocol.CodeInvalidTargetCount, poolID, "a pool needs at least one target to finalize")
		}

		pool.Finalized = true
		total = pool.TargetCount

		body, err := codec.MarshalPool(pool)
		if err != nil {
			return err
		}
		if err := tx.PutRecord(location, addr.DomainPool, body); err != nil {
			return err
		}
		return tx.AppendOp(token, codec.FinalizePool{}.Name(), location, tick)
	})
	if err != nil {
		return nil, err
	}

	return &Result{
		Op:          codec.FinalizePool{}.Name(),
		Token:       token,
		Address:     location,
		Tick:        tick,
		PoolID:      poolID,
		TargetCount: total,
	}, nil
}

// Get reads a pool record. Read-only; used by CLI inspection.
func (r *PoolRegistry) Get(ctx context.Context, poolID string) (protocol.TargetPool, error) {
	var pool protocol.TargetPool
	location := addr.Derive(addr.DomainPool, poolID)

	err := r.ledger.WithTx(ctx, func(tx *ledger.Tx) error {
		var err error
		pool, _, err = loadPool(tx, location, poolID)
		return err
	})
	return pool, err
}

// loadPool fetches and decodes the pool at location, translating a missing
// or mismatched record into CodePoolNotFound.
func loadPool(tx *ledger.Tx, location addr.Address, poolID string) (protocol.TargetPool, int, error) {
	body, err := tx.GetRecord(location)
	if errors.Is(err, ledger.ErrNotFound) {
		return protocol.TargetPool{}, 0, protocol.NewPoolError(protocol.CodePoolNotFound, poolID, "no pool at derived address")
	}
	if err != nil {
		return protocol.TargetPool{}, 0, err
	}

	pool, err := codec.UnmarshalPool(body)
	if err != nil {
		return protocol.TargetPool{}, 0, err
	}
	if pool.PoolID != poolID {
		return protocol.TargetPool{}, 0, protocol.NewPoolError(protocol.CodePoolNotFound, poolID, "stored pool id does not match")
	}
	return pool, len(body), nil
}
