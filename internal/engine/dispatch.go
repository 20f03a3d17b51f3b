package engine

import (
	"context"
	"fmt"

	"github.com/roach88/sortition/internal/codec"
	"github.com/roach88/sortition/internal/ledger"
	"github.com/roach88/sortition/internal/protocol"
)

// Envelope is one incoming request: the raw instruction bytes plus the
// transport's authentication verdict.
type Envelope struct {
	Instruction []byte
	Caller      protocol.Identity
	Signed      bool
}

// Dispatcher decodes envelopes and routes them to the registries.
type Dispatcher struct {
	pools    *PoolRegistry
	sessions *SessionRegistry
}

// NewDispatcher builds a dispatcher and both registries over one ledger.
func NewDispatcher(l *ledger.Ledger, clock protocol.TimeSource, alloc ledger.Allocator) *Dispatcher {
	return &Dispatcher{
		pools:    NewPoolRegistry(l, clock, alloc),
		sessions: NewSessionRegistry(l, clock, alloc),
	}
}

// Pools exposes the pool registry for direct (non-wire) callers.
func (d *Dispatcher) Pools() *PoolRegistry { return d.pools }

// Sessions exposes the session registry for direct (non-wire) callers.
func (d *Dispatcher) Sessions() *SessionRegistry { return d.sessions }

// Dispatch decodes the envelope's instruction bytes and applies the
// operation. Decode failures surface as CodeInvalidInstruction; everything
// past decoding is the registries' business.
func (d *Dispatcher) Dispatch(ctx context.Context, env Envelope) (*Result, error) {
	in, err := codec.DecodeInstruction(env.Instruction)
	if err != nil {
		return nil, err
	}
	return d.Apply(ctx, Caller{Identity: env.Caller, Signed: env.Signed}, in)
}

// Apply routes an already-decoded instruction.
func (d *Dispatcher) Apply(ctx context.Context, caller Caller, in codec.Instruction) (*Result, error) {
	switch op := in.(type) {
	case codec.CreateTargetPool:
		return d.pools.Create(ctx, caller, op.PoolID, op.TargetHashes)
	case codec.SubmitSession:
		return d.sessions.Submit(ctx, caller, op)
	case codec.FinalizeSession:
		return d.sessions.Finalize(ctx, caller, op)
	case codec.AppendTargetsToPool:
		return d.pools.Append(ctx, caller, op.PoolID, op.TargetHashes)
	case codec.FinalizePool:
		return d.pools.Finalize(ctx, caller, op.PoolID)
	default:
		return nil, fmt.Errorf("unroutable instruction %T", in)
	}
}
