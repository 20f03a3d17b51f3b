package protocol

import (
	"encoding/hex"

	"github.com/mr-tron/base58"
)

// Protocol limits and sentinels.
const (
	// MaxPoolTargets caps the total number of targets a pool may hold.
	// Prevents unbounded storage growth from a single record.
	MaxPoolTargets = 10000

	// UnassignedTargetIndex is the sentinel stored in a session before
	// finalization assigns a real index.
	UnassignedTargetIndex uint16 = 0xFFFF

	// FinalizeMinTicks is the minimum number of ticks that must elapse
	// between submission and finalization. Entropy for the submission tick
	// and the tick immediately after is considered predictable by the
	// submitter, so finalizing against it would defeat the protocol.
	FinalizeMinTicks uint64 = 2

	// FinalizeMaxTicks is the width of the finalization window. The entropy
	// source only retains recent values; proofs for older ticks cannot be
	// trusted, and a session past this window is permanently unfinalizable.
	FinalizeMaxTicks uint64 = 150
)

// Identity is the 32-byte public identity of a caller.
type Identity [32]byte

// String returns the base58 encoding of the identity.
func (id Identity) String() string {
	return base58.Encode(id[:])
}

// ParseIdentity decodes a base58-encoded 32-byte identity.
func ParseIdentity(text string) (Identity, error) {
	var id Identity
	raw, err := base58.Decode(text)
	if err != nil {
		return id, err
	}
	if len(raw) != len(id) {
		return id, errIdentityLength(len(raw))
	}
	copy(id[:], raw)
	return id, nil
}

// Hash32 is an opaque 32-byte value: a target identifier, a media digest, or
// an external program reference. The protocol never interprets its contents.
type Hash32 [32]byte

// String returns the hex encoding of the hash.
func (h Hash32) String() string {
	return hex.EncodeToString(h[:])
}

// ParseHash32 decodes a 64-character hex string into a Hash32.
func ParseHash32(text string) (Hash32, error) {
	var h Hash32
	raw, err := hex.DecodeString(text)
	if err != nil {
		return h, err
	}
	if len(raw) != len(h) {
		return h, errHashLength(len(raw))
	}
	copy(h[:], raw)
	return h, nil
}

// TargetPool is an append-then-finalize collection of target identifiers.
//
// Targets is the index space: append preserves order and never renumbers
// existing entries. Once Finalized is set the slice never changes again.
type TargetPool struct {
	PoolID      string
	Creator     Identity
	TargetCount uint16
	Targets     []Hash32
	CreatedAt   int64
	Finalized   bool
}

// Session is a claim against a pool. It is submitted first and finalized
// later, once entropy for a tick after submission has become available.
//
// Entropy stays all-zero and AssignedTargetIndex stays at
// UnassignedTargetIndex until finalization. SubmissionSlot is the ledger tick
// captured at submit time; the finalization window is measured from it.
type Session struct {
	SessionID              string
	PoolID                 string
	MediaHash              Hash32
	SubmissionSlot         uint64
	Entropy                Entropy
	AssignedTargetIndex    uint16
	SelectorProgram        Hash32
	Submitter              Identity
	SubmittedAt            int64
	Finalized              bool
	FinalizedAt            int64
	CompletedTargetIndices []uint16
}

// AvailableIndices returns the pool indices eligible for assignment:
// [0, targetCount) minus every index in completed, in ascending order.
//
// The result preserves original pool indices. Selection picks a position in
// this slice, and the assigned index is the value at that position, so
// exclusions never shift what an index means.
func AvailableIndices(targetCount uint16, completed []uint16) []uint16 {
	excluded := make(map[uint16]struct{}, len(completed))
	for _, idx := range completed {
		excluded[idx] = struct{}{}
	}

	available := make([]uint16, 0, targetCount)
	for i := uint16(0); i < targetCount; i++ {
		if _, ok := excluded[i]; ok {
			continue
		}
		available = append(available, i)
	}
	return available
}
