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

// Submit records a session claim against an existing pool. No target is
// assigned yet: the stored record carries zero entropy and the unassigned
// sentinel until Finalize. The submission tick anchors the finalization
// window, so it is captured from the time source here and never recomputed.
func (r *SessionRegistry) Submit(ctx context.Context, caller Caller, in codec.SubmitSession) (*Result, error) {
	if !caller.Signed {
		return nil, protocol.NewSessionError(protocol.CodeMissingAuthority, in.SessionID, "submit requires an authenticated submitter")
	}
	if in.SessionID == "" {
		return nil, protocol.NewSessionError(protocol.CodeInvalidSessionID, in.SessionID, "session id must not be empty")
	}
	if in.PoolID == "" {
		return nil, &protocol.OpError{
			Code:      protocol.CodeInvalidPoolID,
			Message:   "pool id must not be empty",
			SessionID: in.SessionID,
		}
	}

	location := addr.Derive(addr.DomainSession, in.SessionID)
	poolLocation := addr.Derive(addr.DomainPool, in.PoolID)
	token := uuid.NewString()
	tick := r.clock.Tick()

	err := r.ledger.WithTx(ctx, func(tx *ledger.Tx) error {
		exists, err := tx.RecordExists(location)
		if err != nil {
			return err
		}
		if exists {
			return protocol.NewSessionError(protocol.CodeSessionAlreadyExists, in.SessionID, "derived address already holds data")
		}

		// The pool must exist before a session can claim against it.
		if _, _, err := loadPool(tx, poolLocation, in.PoolID); err != nil {
			return err
		}

		session := protocol.Session{
			SessionID:              in.SessionID,
			PoolID:                 in.PoolID,
			MediaHash:              in.MediaHash,
			SubmissionSlot:         tick,
			AssignedTargetIndex:    protocol.UnassignedTargetIndex,
			SelectorProgram:        in.SelectorProgram,
			Submitter:              caller.Identity,
			SubmittedAt:            r.clock.Unix(),
			CompletedTargetIndices: in.CompletedTargetIndices,
		}

		body, err := codec.MarshalSession(session)
		if err != nil {
			return err
		}

		if err := chargeAllocation(tx, caller.Identity, r.alloc.Cost(len(body)), in.PoolID, in.SessionID); err != nil {
			return err
		}
		if err := tx.PutRecord(location, addr.DomainSession, body); err != nil {
			return err
		}
		return tx.AppendOp(token, in.Name(), location, tick)
	})
	if err != nil {
		return nil, err
	}

	return &Result{
		Op:        in.Name(),
		Token:     token,
		Address:   location,
		Tick:      tick,
		PoolID:    in.PoolID,
		SessionID: in.SessionID,
	}, nil
}

// Finalize assigns a target to a submitted session.
//
// Anyone signed may finalize: the assignment is fully determined by the
// stored session, the pool, the completed set, and the entropy value, so the
// caller's identity cannot steer the outcome. The window check runs before
// the entropy parse so that a late caller learns the session is dead rather
// than fishing for entropy errors.
func (r *SessionRegistry) Finalize(ctx context.Context, caller Caller, in codec.FinalizeSession) (*Result, error) {
	if !caller.Signed {
		return nil, protocol.NewSessionError(protocol.CodeMissingAuthority, in.SessionID, "finalize requires an authenticated caller")
	}

	location := addr.Derive(addr.DomainSession, in.SessionID)
	token := uuid.NewString()
	tick := r.clock.Tick()

	var (
		poolID   string
		assigned uint16
		count    uint16
	)
	err := r.ledger.WithTx(ctx, func(tx *ledger.Tx) error {
		session, oldSize, err := loadSession(tx, location, in.SessionID)
		if err != nil {
			return err
		}
		if session.Finalized {
			return protocol.NewSessionError(protocol.CodeSessionAlreadyFinalized, in.SessionID, "session already holds an assignment")
		}

		if tick < session.SubmissionSlot+protocol.FinalizeMinTicks {
			return protocol.NewSessionError(protocol.CodeTooEarlyToFinalize, in.SessionID,
				fmt.Sprintf("tick %d is inside the blackout ending at %d", tick, session.SubmissionSlot+protocol.FinalizeMinTicks))
		}
		if tick > session.SubmissionSlot+protocol.FinalizeMaxTicks {
			return protocol.NewSessionError(protocol.CodeInvalidSlotHash, in.SessionID,
				fmt.Sprintf("tick %d is past the window ending at %d", tick, session.SubmissionSlot+protocol.FinalizeMaxTicks))
		}

		entropy, err := protocol.ParseEntropy(in.Entropy)
		if err != nil {
			return err
		}

		pool, _, err := loadPool(tx, addr.Derive(addr.DomainPool, session.PoolID), session.PoolID)
		if err != nil {
			return err
		}

		available := protocol.AvailableIndices(pool.TargetCount, in.CompletedTargetIndices)
		if len(available) == 0 {
			return protocol.NewSessionError(protocol.CodeAllTargetsCompleted, in.SessionID, "exclusion set covers the whole pool")
		}

		position := protocol.Select(entropy, uint16(len(available)))

		session.Entropy = entropy
		session.AssignedTargetIndex = available[position]
		session.CompletedTargetIndices = in.CompletedTargetIndices
		session.Finalized = true
		session.FinalizedAt = r.clock.Unix()

		body, err := codec.MarshalSession(session)
		if err != nil {
			return err
		}

		// A larger completed set can grow the record; the finalizing caller
		// funds the delta.
		if err := chargeAllocation(tx, caller.Identity, r.alloc.GrowthCost(oldSize, len(body)), session.PoolID, in.SessionID); err != nil {
			return err
		}
		if err := tx.PutRecord(location, addr.DomainSession, body); err != nil {
			return err
		}

		poolID = session.PoolID
		assigned = session.AssignedTargetIndex
		count = pool.TargetCount
		return tx.AppendOp(token, in.Name(), location, tick)
	})
	if err != nil {
		return nil, err
	}

	return &Result{
		Op:                  in.Name(),
		Token:               token,
		Address:             location,
		Tick:                tick,
		PoolID:              poolID,
		SessionID:           in.SessionID,
		TargetCount:         count,
		AssignedTargetIndex: assigned,
		Assigned:            true,
	}, nil
}

// Get reads a session record. Read-only; used by CLI inspection.
func (r *SessionRegistry) Get(ctx context.Context, sessionID string) (protocol.Session, error) {
	var session protocol.Session
	location := addr.Derive(addr.DomainSession, sessionID)

	err := r.ledger.WithTx(ctx, func(tx *ledger.Tx) error {
		var err error
		session, _, err = loadSession(tx, location, sessionID)
		return err
	})
	return session, err
}

func loadSession(tx *ledger.Tx, location addr.Address, sessionID string) (protocol.Session, int, error) {
	body, err := tx.GetRecord(location)
	if errors.Is(err, ledger.ErrNotFound) {
		return protocol.Session{}, 0, protocol.NewSessionError(protocol.CodeSessionNotFound, sessionID, "no session at derived address")
	}
	if err != nil {
		return protocol.Session{}, 0, err
	}

	session, err := codec.UnmarshalSession(body)
	if err != nil {
		return protocol.Session{}, 0, err
	}
	if session.SessionID != sessionID {
		return protocol.Session{}, 0, protocol.NewSessionError(protocol.CodeSessionNotFound, sessionID, "stored session id does not match")
	}
	return session, len(body), nil
}
