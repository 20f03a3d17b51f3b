package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/sortition/internal/engine"
	"github.com/roach88/sortition/internal/ledger"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Database string
	Verbose  bool
	Format   string // "json" | "text"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the sortition CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "sortition",
		Short: "sortition - entropy-driven target assignment",
		Long: `Manage target pools and sessions on a local ledger.

Pools hold opaque 32-byte targets; sessions claim one target each, assigned
from external entropy after an anti-manipulation delay. All state lives in a
single SQLite ledger file.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "sortition.db", "path to the SQLite ledger")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewInitCommand(opts))
	cmd.AddCommand(NewFundCommand(opts))
	cmd.AddCommand(NewTickCommand(opts))
	cmd.AddCommand(NewEntropyCommand(opts))
	cmd.AddCommand(NewPoolCommand(opts))
	cmd.AddCommand(NewSessionCommand(opts))
	cmd.AddCommand(NewShowCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// env bundles the open ledger with the engine wired over it. Every command
// that touches state opens one and closes it when done.
type env struct {
	ledger   *ledger.Ledger
	clock    *ledger.Clock
	dispatch *engine.Dispatcher
}

func openEnv(opts *RootOptions) (*env, error) {
	l, err := ledger.Open(opts.Database)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open ledger", err)
	}

	clock, err := l.Clock()
	if err != nil {
		l.Close()
		return nil, WrapExitError(ExitCommandError, "failed to load clock", err)
	}

	return &env{
		ledger:   l,
		clock:    clock,
		dispatch: engine.NewDispatcher(l, clock, ledger.DefaultAllocator()),
	}, nil
}

func (e *env) Close() error {
	return e.ledger.Close()
}
