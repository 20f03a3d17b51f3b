package codec

import (
	"fmt"

	"github.com/roach88/sortition/internal/protocol"
)

// MarshalPool serializes a pool record. Field order is the deployed layout:
// pool_id, creator, target_count, targets, created_at, finalized.
func MarshalPool(p protocol.TargetPool) ([]byte, error) {
	if len(p.Targets) > protocol.MaxPoolTargets {
		return nil, fmt.Errorf("pool %q has %d targets, limit is %d", p.PoolID, len(p.Targets), protocol.MaxPoolTargets)
	}
	if int(p.TargetCount) != len(p.Targets) {
		return nil, fmt.Errorf("pool %q target_count %d disagrees with %d targets", p.PoolID, p.TargetCount, len(p.Targets))
	}

	w := &writer{}
	w.string(p.PoolID)
	w.bytes32(p.Creator)
	w.u16(p.TargetCount)
	w.u32(uint32(len(p.Targets)))
	for _, h := range p.Targets {
		w.bytes32(h)
	}
	w.i64(p.CreatedAt)
	w.bool(p.Finalized)
	return w.buf, nil
}

// UnmarshalPool parses a pool record body.
func UnmarshalPool(data []byte) (protocol.TargetPool, error) {
	var p protocol.TargetPool
	r := newReader(data)

	var err error
	if p.PoolID, err = r.string(); err != nil {
		return p, fmt.Errorf("pool record: %w", err)
	}
	var raw [32]byte
	if raw, err = r.bytes32(); err != nil {
		return p, fmt.Errorf("pool record: %w", err)
	}
	p.Creator = raw
	if p.TargetCount, err = r.u16(); err != nil {
		return p, fmt.Errorf("pool record: %w", err)
	}
	hashes, err := decodeHashSeq(r)
	if err != nil {
		return p, fmt.Errorf("pool record: %w", err)
	}
	p.Targets = hashes
	if p.CreatedAt, err = r.i64(); err != nil {
		return p, fmt.Errorf("pool record: %w", err)
	}
	if p.Finalized, err = r.bool(); err != nil {
		return p, fmt.Errorf("pool record: %w", err)
	}

	if r.remaining() != 0 {
		return p, fmt.Errorf("pool record: %d trailing bytes", r.remaining())
	}
	if int(p.TargetCount) != len(p.Targets) {
		return p, fmt.Errorf("pool record: target_count %d disagrees with %d targets", p.TargetCount, len(p.Targets))
	}
	return p, nil
}

// MarshalSession serializes a session record. Field order is the deployed
// layout: session_id, pool_id, media_hash, submission_slot, entropy,
// assigned_target_index, selector_program, submitter, submitted_at,
// finalized, finalized_at, completed_target_indices.
func MarshalSession(s protocol.Session) ([]byte, error) {
	if len(s.CompletedTargetIndices) > protocol.MaxPoolTargets {
		return nil, fmt.Errorf("session %q excludes %d indices, limit is %d",
			s.SessionID, len(s.CompletedTargetIndices), protocol.MaxPoolTargets)
	}

	w := &writer{}
	w.string(s.SessionID)
	w.string(s.PoolID)
	w.bytes32(s.MediaHash)
	w.u64(s.SubmissionSlot)
	w.bytes32(s.Entropy)
	w.u16(s.AssignedTargetIndex)
	w.bytes32(s.SelectorProgram)
	w.bytes32(s.Submitter)
	w.i64(s.SubmittedAt)
	w.bool(s.Finalized)
	w.i64(s.FinalizedAt)
	w.u16Seq(s.CompletedTargetIndices)
	return w.buf, nil
}

// UnmarshalSession parses a session record body.
func UnmarshalSession(data []byte) (protocol.Session, error) {
	var s protocol.Session
	r := newReader(data)

	var err error
	if s.SessionID, err = r.string(); err != nil {
		return s, fmt.Errorf("session record: %w", err)
	}
	if s.PoolID, err = r.string(); err != nil {
		return s, fmt.Errorf("session record: %w", err)
	}
	var raw [32]byte
	if raw, err = r.bytes32(); err != nil {
		return s, fmt.Errorf("session record: %w", err)
	}
	s.MediaHash = raw
	if s.SubmissionSlot, err = r.u64(); err != nil {
		return s, fmt.Errorf("session record: %w", err)
	}
	if raw, err = r.bytes32(); err != nil {
		return s, fmt.Errorf("session record: %w", err)
	}
	s.Entropy = raw
	if s.AssignedTargetIndex, err = r.u16(); err != nil {
		return s, fmt.Errorf("session record: %w", err)
	}
	if raw, err = r.bytes32(); err != nil {
		return s, fmt.Errorf("session record: %w", err)
	}
	s.SelectorProgram = raw
	if raw, err = r.bytes32(); err != nil {
		return s, fmt.Errorf("session record: %w", err)
	}
	s.Submitter = raw
	if s.SubmittedAt, err = r.i64(); err != nil {
		return s, fmt.Errorf("session record: %w", err)
	}
	if s.Finalized, err = r.bool(); err != nil {
		return s, fmt.Errorf("session record: %w", err)
	}
	if s.FinalizedAt, err = r.i64(); err != nil {
		return s, fmt.Errorf("session record: %w", err)
	}
	if s.CompletedTargetIndices, err = r.u16Seq(); err != nil {
		return s, fmt.Errorf("session record: %w", err)
	}

	if r.remaining() != 0 {
		return s, fmt.Errorf("session record: %d trailing bytes", r.remaining())
	}
	return s, nil
}
