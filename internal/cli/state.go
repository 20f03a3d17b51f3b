package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/sortition/internal/ledger"
	"github.com/roach88/sortition/internal/protocol"
)

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create an empty ledger",
		Long: `Create the SQLite ledger file and its schema.

Opening an existing ledger is harmless: the schema is applied once and later
opens verify it.

Example:
  sortition --db ./sortition.db init`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(rootOpts)
			if err != nil {
				return err
			}
			defer e.Close()

			f := formatter(rootOpts, cmd)
			return f.Success(fmt.Sprintf("ledger ready at %s (tick %d)", rootOpts.Database, e.clock.Tick()))
		},
	}
}

// FundOptions holds flags for the fund command.
type FundOptions struct {
	*RootOptions
	Amount int64
}

// NewFundCommand creates the fund command.
func NewFundCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FundOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "fund <identity>",
		Short: "Credit funds to an identity",
		Long: `Credit storage funds to a base58 identity.

Record creation and growth are paid from the funding identity's balance;
operations that cannot cover their allocation are rejected atomically.

Example:
  sortition fund 7oGmyrKZ... --amount 1000000`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFund(opts, args[0], cmd)
		},
	}

	cmd.Flags().Int64Var(&opts.Amount, "amount", 0, "amount to credit (required)")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func runFund(opts *FundOptions, identityText string, cmd *cobra.Command) error {
	f := formatter(opts.RootOptions, cmd)

	id, err := protocol.ParseIdentity(identityText)
	if err != nil {
		return f.Error(fmt.Errorf("invalid identity: %w", err))
	}

	e, err := openEnv(opts.RootOptions)
	if err != nil {
		return err
	}
	defer e.Close()

	var balance int64
	err = e.ledger.WithTx(context.Background(), func(tx *ledger.Tx) error {
		if err := tx.Credit(id, opts.Amount); err != nil {
			return err
		}
		balance, err = tx.Balance(id)
		return err
	})
	if err != nil {
		return f.Error(err)
	}

	return f.Success(fmt.Sprintf("credited %d to %s (balance %d)", opts.Amount, id, balance))
}

// TickOptions holds flags for the tick command.
type TickOptions struct {
	*RootOptions
	Advance uint64
}

// NewTickCommand creates the tick command.
func NewTickCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TickOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "tick",
		Short: "Show or advance the ledger tick",
		Long: `Show the current ledger tick, or advance it with --advance.

The tick is the protocol's logical time: session finalization windows are
measured in ticks from the submission tick.

Examples:
  sortition tick
  sortition tick --advance 2`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTick(opts, cmd)
		},
	}

	cmd.Flags().Uint64Var(&opts.Advance, "advance", 0, "number of ticks to advance")

	return cmd
}

func runTick(opts *TickOptions, cmd *cobra.Command) error {
	f := formatter(opts.RootOptions, cmd)

	e, err := openEnv(opts.RootOptions)
	if err != nil {
		return err
	}
	defer e.Close()

	tick := e.clock.Tick()
	if opts.Advance > 0 {
		tick, err = e.clock.Advance(context.Background(), opts.Advance)
		if err != nil {
			return f.Error(err)
		}
	}
	return f.Success(fmt.Sprintf("tick %d", tick))
}

// EntropyOptions holds flags for the entropy command.
type EntropyOptions struct {
	*RootOptions
	Value string
}

// NewEntropyCommand creates the entropy command group.
func NewEntropyCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entropy",
		Short: "Manage the entropy feed",
	}
	cmd.AddCommand(newEntropyImportCommand(rootOpts))
	cmd.AddCommand(newEntropyPruneCommand(rootOpts))
	return cmd
}

func newEntropyImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EntropyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "import <tick>",
		Short: "Record the entropy value for a tick",
		Long: `Record a base58 entropy value for a tick.

The first import for a tick wins; later imports for the same tick are
ignored. Values must decode to exactly 32 bytes.

Example:
  sortition entropy import 102 --value 3yZe7d...`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEntropyImport(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Value, "value", "", "base58 entropy value (required)")
	_ = cmd.MarkFlagRequired("value")

	return cmd
}

func runEntropyImport(opts *EntropyOptions, tickText string, cmd *cobra.Command) error {
	f := formatter(opts.RootOptions, cmd)

	tick, err := strconv.ParseUint(tickText, 10, 64)
	if err != nil {
		return f.Error(fmt.Errorf("invalid tick %q: %w", tickText, err))
	}
	value, err := protocol.ParseEntropy(opts.Value)
	if err != nil {
		return f.Error(err)
	}

	e, err := openEnv(opts.RootOptions)
	if err != nil {
		return err
	}
	defer e.Close()

	inserted, err := e.ledger.Oracle().Import(context.Background(), tick, value)
	if err != nil {
		return f.Error(err)
	}
	if !inserted {
		return f.Success(fmt.Sprintf("tick %d already has entropy; existing value stands", tick))
	}
	return f.Success(fmt.Sprintf("entropy recorded for tick %d", tick))
}

func newEntropyPruneCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "prune <before-tick>",
		Short:         "Drop entropy older than a tick",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := formatter(rootOpts, cmd)

			before, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return f.Error(fmt.Errorf("invalid tick %q: %w", args[0], err))
			}

			e, err := openEnv(rootOpts)
			if err != nil {
				return err
			}
			defer e.Close()

			dropped, err := e.ledger.Oracle().Prune(context.Background(), before)
			if err != nil {
				return f.Error(err)
			}
			return f.Success(fmt.Sprintf("dropped %d entropy rows", dropped))
		},
	}
}

func formatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}
