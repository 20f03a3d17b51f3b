package protocol

import (
	"errors"
	"fmt"
)

// Code is the closed numeric error taxonomy of the protocol.
//
// Values are stable wire constants: callers program against the number, not
// the message. Codes 0-13 keep the discriminant order of the originally
// deployed program; 14-16 cover authority and funding failures that the
// original surfaced as substrate-level errors.
type Code uint32

const (
	// CodeInvalidInstruction indicates the request bytes did not decode to
	// any known operation.
	CodeInvalidInstruction Code = 0

	// CodeInvalidPoolID indicates an empty pool identifier.
	CodeInvalidPoolID Code = 1

	// CodeInvalidSessionID indicates an empty session identifier.
	CodeInvalidSessionID Code = 2

	// CodePoolAlreadyExists indicates the derived pool address already holds
	// a record.
	CodePoolAlreadyExists Code = 3

	// CodeSessionAlreadyExists indicates the derived session address already
	// holds a record.
	CodeSessionAlreadyExists Code = 4

	// CodePoolNotFound indicates no pool record exists for the identifier,
	// or the stored identifier does not match the one presented.
	CodePoolNotFound Code = 5

	// CodeInvalidTargetCount indicates a target batch that is empty where it
	// must not be, or would grow a pool past MaxPoolTargets, or a finalize
	// of a pool with zero targets.
	CodeInvalidTargetCount Code = 6

	// CodeRecordTooSmall is reserved for wire compatibility with the
	// original taxonomy. The Go ledger sizes allocations exactly and never
	// produces it.
	CodeRecordTooSmall Code = 7

	// CodeSessionNotFound indicates no session record exists for the
	// identifier, or the stored identifier does not match.
	CodeSessionNotFound Code = 8

	// CodeSessionAlreadyFinalized indicates the session has already been
	// assigned a target. A session finalizes at most once.
	CodeSessionAlreadyFinalized Code = 9

	// CodeTooEarlyToFinalize indicates fewer than FinalizeMinTicks have
	// elapsed since submission. Retryable once the window opens.
	CodeTooEarlyToFinalize Code = 10

	// CodeInvalidSlotHash indicates the finalization window has expired, or
	// the supplied entropy text did not decode to exactly 32 bytes.
	CodeInvalidSlotHash Code = 11

	// CodeAllTargetsCompleted indicates the exclusion set covers every index
	// in the pool, leaving nothing to assign.
	CodeAllTargetsCompleted Code = 12

	// CodePoolAlreadyFinalized indicates a mutation attempt on a finalized
	// pool. Finalization is terminal.
	CodePoolAlreadyFinalized Code = 13

	// CodeMissingAuthority indicates the operation arrived without an
	// authenticated caller.
	CodeMissingAuthority Code = 14

	// CodeUnauthorized indicates the authenticated caller is not the record
	// creator on a creator-restricted operation.
	CodeUnauthorized Code = 15

	// CodeInsufficientFunds indicates the funding identity could not cover
	// the storage allocation cost.
	CodeInsufficientFunds Code = 16
)

// String returns the symbolic name for the code.
func (c Code) String() string {
	switch c {
	case CodeInvalidInstruction:
		return "INVALID_INSTRUCTION"
	case CodeInvalidPoolID:
		return "INVALID_POOL_ID"
	case CodeInvalidSessionID:
		return "INVALID_SESSION_ID"
	case CodePoolAlreadyExists:
		return "POOL_ALREADY_EXISTS"
	case CodeSessionAlreadyExists:
		return "SESSION_ALREADY_EXISTS"
	case CodePoolNotFound:
		return "POOL_NOT_FOUND"
	case CodeInvalidTargetCount:
		return "INVALID_TARGET_COUNT"
	case CodeRecordTooSmall:
		return "RECORD_TOO_SMALL"
	case CodeSessionNotFound:
		return "SESSION_NOT_FOUND"
	case CodeSessionAlreadyFinalized:
		return "SESSION_ALREADY_FINALIZED"
	case CodeTooEarlyToFinalize:
		return "TOO_EARLY_TO_FINALIZE"
	case CodeInvalidSlotHash:
		return "INVALID_SLOT_HASH"
	case CodeAllTargetsCompleted:
		return "ALL_TARGETS_COMPLETED"
	case CodePoolAlreadyFinalized:
		return "POOL_ALREADY_FINALIZED"
	case CodeMissingAuthority:
		return "MISSING_AUTHORITY"
	case CodeUnauthorized:
		return "UNAUTHORIZED"
	case CodeInsufficientFunds:
		return "INSUFFICIENT_FUNDS"
	default:
		return fmt.Sprintf("CODE_%d", uint32(c))
	}
}

// OpError is an error detected while applying a protocol operation.
//
// Every OpError aborts its operation atomically; no partial writes are ever
// observable. The structured fields identify the affected records for
// diagnostics.
type OpError struct {
	// Code identifies the failure category.
	Code Code

	// Message is a human-readable description.
	Message string

	// PoolID identifies the affected pool, when known.
	PoolID string

	// SessionID identifies the affected session, when known.
	SessionID string
}

// Error implements the error interface.
func (e *OpError) Error() string {
	switch {
	case e.PoolID != "" && e.SessionID != "":
		return fmt.Sprintf("%s: %s (pool=%s, session=%s)", e.Code, e.Message, e.PoolID, e.SessionID)
	case e.SessionID != "":
		return fmt.Sprintf("%s: %s (session=%s)", e.Code, e.Message, e.SessionID)
	case e.PoolID != "":
		return fmt.Sprintf("%s: %s (pool=%s)", e.Code, e.Message, e.PoolID)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

// ErrorCode extracts the protocol code from an error.
// Returns false if the error is not an OpError. Uses errors.As to handle
// wrapped errors.
func ErrorCode(err error) (Code, bool) {
	var oe *OpError
	if errors.As(err, &oe) {
		return oe.Code, true
	}
	return 0, false
}

// IsCode reports whether err carries the given protocol code.
func IsCode(err error, code Code) bool {
	got, ok := ErrorCode(err)
	return ok && got == code
}

// NewPoolError creates an OpError scoped to a pool.
func NewPoolError(code Code, poolID, message string) *OpError {
	return &OpError{Code: code, Message: message, PoolID: poolID}
}

// NewSessionError creates an OpError scoped to a session.
func NewSessionError(code Code, sessionID, message string) *OpError {
	return &OpError{Code: code, Message: message, SessionID: sessionID}
}

func errIdentityLength(got int) error {
	return fmt.Errorf("identity must be 32 bytes, got %d", got)
}

func errHashLength(got int) error {
	return fmt.Errorf("hash must be 32 bytes, got %d", got)
}
