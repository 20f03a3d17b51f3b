package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/sortition/internal/codec"
	"github.com/roach88/sortition/internal/protocol"
)

// SessionOptions holds flags for the session subcommands.
type SessionOptions struct {
	*RootOptions
	As          string
	Pool        string
	MediaHash   string
	Selector    string
	Entropy     string
	EntropyTick int64
	Completed   []uint
}

// NewSessionCommand creates the session command group.
func NewSessionCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Manage sessions",
	}
	cmd.AddCommand(newSessionSubmitCommand(rootOpts))
	cmd.AddCommand(newSessionFinalizeCommand(rootOpts))
	return cmd
}

func newSessionSubmitCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SessionOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "submit <session-id>",
		Short: "Submit a session against a pool",
		Long: `Submit a session claim against an existing pool.

The session records the current tick; finalization becomes possible two
ticks later and stays possible for 150 ticks. No target is assigned yet.

Example:
  sortition session submit sess-1 --pool ads-2024 \
    --media-hash 6fd4...aa --selector 0000...00 --as 9xQeWvG8...`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSessionSubmit(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Pool, "pool", "", "pool to claim against (required)")
	_ = cmd.MarkFlagRequired("pool")
	cmd.Flags().StringVar(&opts.MediaHash, "media-hash", "", "hex digest of the session media (required)")
	_ = cmd.MarkFlagRequired("media-hash")
	cmd.Flags().StringVar(&opts.Selector, "selector", "", "hex reference of the selector program (required)")
	_ = cmd.MarkFlagRequired("selector")
	cmd.Flags().StringVar(&opts.As, "as", "", "base58 submitter identity (required)")
	_ = cmd.MarkFlagRequired("as")
	cmd.Flags().UintSliceVar(&opts.Completed, "completed", nil, "already-completed pool indices")

	return cmd
}

func runSessionSubmit(opts *SessionOptions, sessionID string, cmd *cobra.Command) error {
	f := formatter(opts.RootOptions, cmd)

	caller, err := parseCaller(opts.As)
	if err != nil {
		return f.Error(err)
	}
	mediaHash, err := protocol.ParseHash32(opts.MediaHash)
	if err != nil {
		return f.Error(fmt.Errorf("invalid media hash: %w", err))
	}
	selector, err := protocol.ParseHash32(opts.Selector)
	if err != nil {
		return f.Error(fmt.Errorf("invalid selector reference: %w", err))
	}

	completed, err := completedIndices(opts.Completed)
	if err != nil {
		return f.Error(err)
	}

	e, err := openEnv(opts.RootOptions)
	if err != nil {
		return err
	}
	defer e.Close()

	res, err := e.dispatch.Sessions().Submit(context.Background(), caller, codec.SubmitSession{
		SessionID:              sessionID,
		PoolID:                 opts.Pool,
		MediaHash:              mediaHash,
		SelectorProgram:        selector,
		CompletedTargetIndices: completed,
	})
	if err != nil {
		return f.Error(err)
	}
	return f.Success(resultSummary(res))
}

func newSessionFinalizeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SessionOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "finalize <session-id>",
		Short: "Finalize a session and assign a target",
		Long: `Finalize a submitted session, assigning one target index from its pool.

Entropy comes either from --entropy (a base58 value) or from the ledger's
entropy feed via --entropy-tick. The assignment is deterministic in the
entropy, the pool, and the --completed exclusions; the caller cannot steer
it.

Examples:
  sortition session finalize sess-1 --entropy 3yZe7d... --as 9xQeWvG8...
  sortition session finalize sess-1 --entropy-tick 102 --completed 2 --as 9xQeWvG8...`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSessionFinalize(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Entropy, "entropy", "", "base58 entropy value")
	cmd.Flags().Int64Var(&opts.EntropyTick, "entropy-tick", -1, "take entropy from the feed at this tick")
	cmd.Flags().UintSliceVar(&opts.Completed, "completed", nil, "pool indices to exclude from assignment")
	cmd.Flags().StringVar(&opts.As, "as", "", "base58 caller identity (required)")
	_ = cmd.MarkFlagRequired("as")

	return cmd
}

func runSessionFinalize(opts *SessionOptions, sessionID string, cmd *cobra.Command) error {
	f := formatter(opts.RootOptions, cmd)

	caller, err := parseCaller(opts.As)
	if err != nil {
		return f.Error(err)
	}
	if (opts.Entropy == "") == (opts.EntropyTick < 0) {
		return f.Error(fmt.Errorf("exactly one of --entropy and --entropy-tick is required"))
	}
	completed, err := completedIndices(opts.Completed)
	if err != nil {
		return f.Error(err)
	}

	e, err := openEnv(opts.RootOptions)
	if err != nil {
		return err
	}
	defer e.Close()

	entropyText := opts.Entropy
	if entropyText == "" {
		value, ok, err := e.ledger.Oracle().EntropyAt(uint64(opts.EntropyTick))
		if err != nil {
			return f.Error(err)
		}
		if !ok {
			return f.Error(fmt.Errorf("no entropy recorded for tick %d", opts.EntropyTick))
		}
		entropyText = value.String()
	}

	res, err := e.dispatch.Sessions().Finalize(context.Background(), caller, codec.FinalizeSession{
		SessionID:              sessionID,
		Entropy:                entropyText,
		CompletedTargetIndices: completed,
	})
	if err != nil {
		return f.Error(err)
	}
	return f.Success(resultSummary(res))
}

// completedIndices narrows the flag values to the protocol's u16 index space.
func completedIndices(values []uint) ([]uint16, error) {
	if len(values) == 0 {
		return nil, nil
	}
	out := make([]uint16, 0, len(values))
	for _, v := range values {
		if v >= uint(protocol.UnassignedTargetIndex) {
			return nil, fmt.Errorf("completed index %d is out of range", v)
		}
		out = append(out, uint16(v))
	}
	return out, nil
}
