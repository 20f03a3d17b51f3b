// Package protocol defines the record types, error taxonomy, and pure
// functions of the target-assignment protocol.
//
// Two record types exist: target pools (append-then-finalize collections of
// opaque 32-byte target identifiers) and sessions (claims against a pool that
// are assigned exactly one target index upon finalization). The assignment
// uses externally supplied entropy that is unknown to the submitter at
// submission time, so the outcome cannot be biased by whoever submits or
// finalizes.
//
// This package holds no storage or I/O. Registries in internal/engine apply
// these rules against the ledger.
package protocol
