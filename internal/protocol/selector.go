package protocol

import "encoding/binary"

// Select picks a position into a set of available indices from an entropy
// value: the first 8 of the 32 entropy bytes, read as a big-endian unsigned
// 64-bit integer, modulo availableCount.
//
// Only the leading 8 bytes are consumed. That is enough entropy for any index
// range the protocol allows (availableCount <= MaxPoolTargets); the remaining
// 24 bytes stay in the session record as an auditable proof of which entropy
// value produced the result. The modulo bias against the full 64-bit range is
// negligible for these counts and is deliberately not corrected: reselection
// must stay bit-exact with already-deployed state.
//
// Select is pure and deterministic. availableCount must be at least 1; the
// returned position satisfies 0 <= position < availableCount.
func Select(entropy Entropy, availableCount uint16) uint16 {
	value := binary.BigEndian.Uint64(entropy[:8])
	return uint16(value % uint64(availableCount))
}
