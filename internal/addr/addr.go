// Package addr derives deterministic storage addresses for ledger records.
//
// An address is a pure function of (domain, identifier). Any caller can
// compute the address before the record exists, which is what makes
// "does this address already hold data" a valid existence check for create
// operations.
//
// Identifiers are human-chosen strings of unbounded length, but address
// derivation seeds are fixed-size. The identifier is therefore digested to
// 32 bytes before it enters the seed, and the domain tag is mixed in so
// pools and sessions can never collide even with identical identifiers.
package addr

import (
	"crypto/sha256"
	"encoding/hex"

	"golang.org/x/text/unicode/norm"
)

// Domain separates the address spaces of the record types.
type Domain string

const (
	// DomainPool is the address space for target pool records.
	DomainPool Domain = "target_pool"

	// DomainSession is the address space for session records.
	DomainSession Domain = "session"
)

// Size is the length of a derived address in bytes.
const Size = 32

// Address locates exactly one record in the ledger.
type Address [Size]byte

// String returns the hex encoding of the address.
func (a Address) String() string {
	return hex.EncodeToString(a[:])
}

// Bytes returns the address as a byte slice.
func (a Address) Bytes() []byte {
	return a[:]
}

// FromBytes converts a 32-byte slice to an Address.
// Returns false if b is not exactly 32 bytes.
func FromBytes(b []byte) (Address, bool) {
	var a Address
	if len(b) != Size {
		return a, false
	}
	copy(a[:], b)
	return a, true
}

// Derive computes the storage address for an identifier within a domain.
//
// The identifier is NFC-normalized first, so Unicode-equivalent spellings of
// the same identifier resolve to the same record. The normalized identifier
// is digested to a fixed 32 bytes, then digested again together with the
// domain tag:
//
//	address = sha256(domain || sha256(NFC(identifier)))
//
// Derive is deterministic and collision resistant in both arguments.
func Derive(domain Domain, identifier string) Address {
	idDigest := sha256.Sum256([]byte(norm.NFC.String(identifier)))

	h := sha256.New()
	h.Write([]byte(domain))
	h.Write(idDigest[:])

	var a Address
	copy(a[:], h.Sum(nil))
	return a
}
