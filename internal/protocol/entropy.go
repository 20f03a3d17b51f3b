package protocol

import (
	"github.com/mr-tron/base58"
)

// EntropySize is the length of an entropy value in bytes.
const EntropySize = 32

// Entropy is a 32-byte value from an external, time-bounded source. A session
// stores the zero value as the explicit "unset" sentinel until finalization.
type Entropy [EntropySize]byte

// IsZero reports whether the entropy is the unset sentinel.
func (e Entropy) IsZero() bool {
	return e == Entropy{}
}

// String returns the base58 text encoding used on external surfaces.
// Internally entropy is always 32 raw bytes.
func (e Entropy) String() string {
	return base58.Encode(e[:])
}

// ParseEntropy decodes a base58-encoded entropy value.
//
// The text must decode to exactly 32 raw bytes; anything else is rejected
// with CodeInvalidSlotHash, the same code used for an expired finalization
// window, since both mean "this entropy cannot be trusted".
func ParseEntropy(text string) (Entropy, error) {
	var e Entropy
	if text == "" {
		return e, &OpError{Code: CodeInvalidSlotHash, Message: "entropy value is empty"}
	}

	raw, err := base58.Decode(text)
	if err != nil {
		return e, &OpError{Code: CodeInvalidSlotHash, Message: "entropy value is not valid base58"}
	}
	if len(raw) != EntropySize {
		return e, &OpError{Code: CodeInvalidSlotHash, Message: "entropy value must decode to 32 bytes"}
	}

	copy(e[:], raw)
	return e, nil
}

// EntropyOracle supplies entropy values for past ticks.
//
// Implementations only retain values for roughly FinalizeMaxTicks recent
// ticks; EntropyAt returns ok=false for ticks it no longer (or does not yet)
// know. The protocol core never generates entropy itself.
type EntropyOracle interface {
	EntropyAt(tick uint64) (value Entropy, ok bool, err error)
}
