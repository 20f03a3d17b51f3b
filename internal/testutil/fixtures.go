// Package testutil provides deterministic protocol fixtures for tests.
//
// Fixtures are pure functions of their arguments, so tests that share a
// fixture value agree on its bytes without a shared setup step.
package testutil

import "github.com/roach88/sortition/internal/protocol"

// Identity returns a 32-byte identity filled with b.
func Identity(b byte) protocol.Identity {
	var id protocol.Identity
	for i := range id {
		id[i] = b
	}
	return id
}

// Hash returns a 32-byte hash filled with b.
func Hash(b byte) protocol.Hash32 {
	var h protocol.Hash32
	for i := range h {
		h[i] = b
	}
	return h
}

// Hashes returns n distinct hashes, filled with 1..n.
func Hashes(n int) []protocol.Hash32 {
	out := make([]protocol.Hash32, n)
	for i := range out {
		out[i] = Hash(byte(i + 1))
	}
	return out
}

// Entropy returns a 32-byte entropy value carrying v big-endian in the first
// eight bytes. The selector reads exactly those bytes, so Entropy(7) against
// a five-target pool selects position 7 mod 5.
//
// The tail is filled with 0xEE so tests also prove the selector ignores it.
func Entropy(v uint64) protocol.Entropy {
	var e protocol.Entropy
	for i := 7; i >= 0; i-- {
		e[i] = byte(v)
		v >>= 8
	}
	for i := 8; i < len(e); i++ {
		e[i] = 0xEE
	}
	return e
}
