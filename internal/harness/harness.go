package harness

import (
	"context"
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"

	"github.com/roach88/sortition/internal/codec"
	"github.com/roach88/sortition/internal/engine"
	"github.com/roach88/sortition/internal/ledger"
	"github.com/roach88/sortition/internal/protocol"
)

// DefaultStartTick positions the clock when a scenario does not say.
const DefaultStartTick uint64 = 100

// Result is the outcome of running a scenario: one trace line per step.
type Result struct {
	Trace []string
}

// Run executes a scenario against a fresh ledger.
//
// Returns an error when a step's outcome differs from the script: an
// operation that failed without expect_error, succeeded despite one, or
// failed with a different code.
func Run(scenario *Scenario) (*Result, error) {
	dir, err := os.MkdirTemp("", "sortition-harness-*")
	if err != nil {
		return nil, fmt.Errorf("create harness dir: %w", err)
	}
	defer os.RemoveAll(dir)

	l, err := ledger.Open(filepath.Join(dir, "ledger.db"))
	if err != nil {
		return nil, fmt.Errorf("open harness ledger: %w", err)
	}
	defer l.Close()

	start := scenario.StartTick
	if start == 0 {
		start = DefaultStartTick
	}
	clock := protocol.NewLogicalClockAt(start)
	clock.SetUnix(1700000000)

	r := &runner{
		ledger:   l,
		clock:    clock,
		dispatch: engine.NewDispatcher(l, clock, ledger.DefaultAllocator()),
		targets:  map[string]int{},
	}

	result := &Result{}
	for i, step := range scenario.Steps {
		line, err := r.apply(i+1, step)
		if err != nil {
			return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
		}
		result.Trace = append(result.Trace, line)
	}
	return result, nil
}

type runner struct {
	ledger   *ledger.Ledger
	clock    *protocol.LogicalClock
	dispatch *engine.Dispatcher

	// targets counts issued target hashes per pool so appended batches
	// continue the sequence instead of repeating it.
	targets map[string]int
}

func (r *runner) apply(n int, step Step) (string, error) {
	ctx := context.Background()

	switch {
	case step.Advance > 0:
		tick := r.clock.Advance(step.Advance)
		return fmt.Sprintf("%02d advance +%d tick=%d", n, step.Advance, tick), nil

	case step.Fund != nil:
		id := identityFor(step.Fund.Identity)
		err := r.ledger.WithTx(ctx, func(tx *ledger.Tx) error {
			return tx.Credit(id, step.Fund.Amount)
		})
		if err != nil {
			return "", fmt.Errorf("step %d: fund %s: %w", n, step.Fund.Identity, err)
		}
		return fmt.Sprintf("%02d fund %s amount=%d", n, step.Fund.Identity, step.Fund.Amount), nil

	case step.Entropy != nil:
		_, err := r.ledger.Oracle().Import(ctx, step.Entropy.Tick, entropyValue(step.Entropy.Value))
		if err != nil {
			return "", fmt.Errorf("step %d: import entropy: %w", n, err)
		}
		return fmt.Sprintf("%02d entropy tick=%d value=%d", n, step.Entropy.Tick, step.Entropy.Value), nil

	case step.Op != nil:
		return r.applyOp(ctx, n, step.Op)
	}
	return "", fmt.Errorf("step %d: empty step", n)
}

func (r *runner) applyOp(ctx context.Context, n int, op *OpStep) (string, error) {
	caller := engine.Caller{Identity: identityFor(op.As), Signed: !op.Unsigned}

	subject := fmt.Sprintf("pool=%s", op.Pool)
	if op.Session != "" {
		subject = fmt.Sprintf("session=%s", op.Session)
	}

	res, err := r.invoke(ctx, caller, op)

	if op.ExpectError != "" {
		if err == nil {
			return "", fmt.Errorf("step %d: %s expected %s, succeeded", n, op.Type, op.ExpectError)
		}
		code, ok := protocol.ErrorCode(err)
		if !ok {
			return "", fmt.Errorf("step %d: %s failed outside the protocol taxonomy: %w", n, op.Type, err)
		}
		if code.String() != op.ExpectError {
			return "", fmt.Errorf("step %d: %s expected %s, got %s", n, op.Type, op.ExpectError, code)
		}
		return fmt.Sprintf("%02d op %s %s error=%s", n, op.Type, subject, code), nil
	}

	if err != nil {
		return "", fmt.Errorf("step %d: %s: %w", n, op.Type, err)
	}

	switch op.Type {
	case OpSubmitSession:
		return fmt.Sprintf("%02d op %s %s ok tick=%d", n, op.Type, subject, res.Tick), nil
	case OpFinalizeSession:
		return fmt.Sprintf("%02d op %s %s ok assigned=%d", n, op.Type, subject, res.AssignedTargetIndex), nil
	default:
		return fmt.Sprintf("%02d op %s %s ok targets=%d", n, op.Type, subject, res.TargetCount), nil
	}
}

func (r *runner) invoke(ctx context.Context, caller engine.Caller, op *OpStep) (*engine.Result, error) {
	switch op.Type {
	case OpCreatePool:
		return r.dispatch.Pools().Create(ctx, caller, op.Pool, r.nextTargets(op.Pool, op.Targets))
	case OpAppendTargets:
		return r.dispatch.Pools().Append(ctx, caller, op.Pool, r.nextTargets(op.Pool, op.Targets))
	case OpFinalizePool:
		return r.dispatch.Pools().Finalize(ctx, caller, op.Pool)
	case OpSubmitSession:
		return r.dispatch.Sessions().Submit(ctx, caller, codec.SubmitSession{
			SessionID:       op.Session,
			PoolID:          op.Pool,
			MediaHash:       hashFor("media", op.Session),
			SelectorProgram: hashFor("selector", op.Session),
		})
	case OpFinalizeSession:
		text, err := r.entropyText(op)
		if err != nil {
			return nil, err
		}
		return r.dispatch.Sessions().Finalize(ctx, caller, codec.FinalizeSession{
			SessionID:              op.Session,
			Entropy:                text,
			CompletedTargetIndices: op.Completed,
		})
	}
	return nil, fmt.Errorf("unknown operation type %q", op.Type)
}

func (r *runner) entropyText(op *OpStep) (string, error) {
	if op.Entropy != nil {
		return entropyValue(*op.Entropy).String(), nil
	}
	value, ok, err := r.ledger.Oracle().EntropyAt(*op.EntropyTick)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("no entropy recorded for tick %d", *op.EntropyTick)
	}
	return value.String(), nil
}

// nextTargets issues count fresh target hashes for a pool, continuing from
// the last issued index.
func (r *runner) nextTargets(pool string, count int) []protocol.Hash32 {
	out := make([]protocol.Hash32, 0, count)
	for i := 0; i < count; i++ {
		out = append(out, hashFor("target", fmt.Sprintf("%s:%d", pool, r.targets[pool]+i)))
	}
	r.targets[pool] += count
	return out
}

// identityFor derives a stable 32-byte identity from a friendly name.
func identityFor(name string) protocol.Identity {
	return protocol.Identity(sha256.Sum256([]byte("identity:" + name)))
}

func hashFor(kind, name string) protocol.Hash32 {
	return protocol.Hash32(sha256.Sum256([]byte(kind + ":" + name)))
}

// entropyValue expands a scripted number into a 32-byte entropy value: the
// number sits big-endian in the first eight bytes, the rest is zero. The
// selector reads exactly those eight bytes, so scripted values map directly
// to selection arithmetic.
func entropyValue(v uint64) protocol.Entropy {
	var e protocol.Entropy
	for i := 7; i >= 0; i-- {
		e[i] = byte(v)
		v >>= 8
	}
	return e
}
