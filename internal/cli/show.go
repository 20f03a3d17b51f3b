package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/sortition/internal/ledger"
	"github.com/roach88/sortition/internal/protocol"
)

// ShowOptions holds flags for the show subcommands.
type ShowOptions struct {
	*RootOptions
	Limit int
}

// NewShowCommand creates the show command group.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Inspect ledger state",
	}
	cmd.AddCommand(newShowPoolCommand(rootOpts))
	cmd.AddCommand(newShowSessionCommand(rootOpts))
	cmd.AddCommand(newShowBalanceCommand(rootOpts))
	cmd.AddCommand(newShowLogCommand(rootOpts))
	return cmd
}

// poolView is the JSON shape of a pool record.
type poolView struct {
	PoolID      string   `json:"pool_id"`
	Creator     string   `json:"creator"`
	TargetCount uint16   `json:"target_count"`
	Targets     []string `json:"targets"`
	CreatedAt   int64    `json:"created_at"`
	Finalized   bool     `json:"finalized"`
}

// sessionView is the JSON shape of a session record.
type sessionView struct {
	SessionID              string   `json:"session_id"`
	PoolID                 string   `json:"pool_id"`
	MediaHash              string   `json:"media_hash"`
	SubmissionSlot         uint64   `json:"submission_slot"`
	Entropy                string   `json:"entropy,omitempty"`
	AssignedTargetIndex    *uint16  `json:"assigned_target_index"`
	SelectorProgram        string   `json:"selector_program"`
	Submitter              string   `json:"submitter"`
	SubmittedAt            int64    `json:"submitted_at"`
	Finalized              bool     `json:"finalized"`
	FinalizedAt            int64    `json:"finalized_at,omitempty"`
	CompletedTargetIndices []uint16 `json:"completed_target_indices,omitempty"`
}

func newShowPoolCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "pool <pool-id>",
		Short:         "Show a pool record",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := formatter(rootOpts, cmd)

			e, err := openEnv(rootOpts)
			if err != nil {
				return err
			}
			defer e.Close()

			pool, err := e.dispatch.Pools().Get(context.Background(), args[0])
			if err != nil {
				return f.Error(err)
			}

			if f.Format == "json" {
				targets := make([]string, len(pool.Targets))
				for i, h := range pool.Targets {
					targets[i] = h.String()
				}
				return f.Success(poolView{
					PoolID:      pool.PoolID,
					Creator:     pool.Creator.String(),
					TargetCount: pool.TargetCount,
					Targets:     targets,
					CreatedAt:   pool.CreatedAt,
					Finalized:   pool.Finalized,
				})
			}
			return f.Success(formatPool(pool))
		},
	}
}

func newShowSessionCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "session <session-id>",
		Short:         "Show a session record",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := formatter(rootOpts, cmd)

			e, err := openEnv(rootOpts)
			if err != nil {
				return err
			}
			defer e.Close()

			sess, err := e.dispatch.Sessions().Get(context.Background(), args[0])
			if err != nil {
				return f.Error(err)
			}

			if f.Format == "json" {
				view := sessionView{
					SessionID:              sess.SessionID,
					PoolID:                 sess.PoolID,
					MediaHash:              sess.MediaHash.String(),
					SubmissionSlot:         sess.SubmissionSlot,
					SelectorProgram:        sess.SelectorProgram.String(),
					Submitter:              sess.Submitter.String(),
					SubmittedAt:            sess.SubmittedAt,
					Finalized:              sess.Finalized,
					FinalizedAt:            sess.FinalizedAt,
					CompletedTargetIndices: sess.CompletedTargetIndices,
				}
				if !sess.Entropy.IsZero() {
					view.Entropy = sess.Entropy.String()
				}
				if sess.AssignedTargetIndex != protocol.UnassignedTargetIndex {
					idx := sess.AssignedTargetIndex
					view.AssignedTargetIndex = &idx
				}
				return f.Success(view)
			}
			return f.Success(formatSession(sess))
		},
	}
}

func newShowBalanceCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "balance <identity>",
		Short:         "Show an identity's funds",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := formatter(rootOpts, cmd)

			id, err := protocol.ParseIdentity(args[0])
			if err != nil {
				return f.Error(fmt.Errorf("invalid identity: %w", err))
			}

			e, err := openEnv(rootOpts)
			if err != nil {
				return err
			}
			defer e.Close()

			var funds int64
			err = e.ledger.WithTx(context.Background(), func(tx *ledger.Tx) error {
				funds, err = tx.Balance(id)
				return err
			})
			if err != nil {
				return f.Error(err)
			}
			return f.Success(fmt.Sprintf("%s holds %d", id, funds))
		},
	}
}

func newShowLogCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "log",
		Short:         "Show recent operations",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := formatter(rootOpts, cmd)

			e, err := openEnv(rootOpts)
			if err != nil {
				return err
			}
			defer e.Close()

			entries, err := e.ledger.RecentOps(context.Background(), opts.Limit)
			if err != nil {
				return f.Error(err)
			}

			if f.Format == "json" {
				return f.Success(entries)
			}

			var b strings.Builder
			for _, entry := range entries {
				fmt.Fprintf(&b, "%6d  tick %-6d %-24s %s\n", entry.Seq, entry.Tick, entry.Op, entry.Token)
			}
			if b.Len() == 0 {
				b.WriteString("no operations recorded")
			}
			return f.Success(strings.TrimRight(b.String(), "\n"))
		},
	}

	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum entries to show")

	return cmd
}

func formatPool(pool protocol.TargetPool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "pool %s\n", pool.PoolID)
	fmt.Fprintf(&b, "  creator:   %s\n", pool.Creator)
	fmt.Fprintf(&b, "  targets:   %d\n", pool.TargetCount)
	fmt.Fprintf(&b, "  finalized: %t", pool.Finalized)
	return b.String()
}

func formatSession(sess protocol.Session) string {
	var b strings.Builder
	fmt.Fprintf(&b, "session %s\n", sess.SessionID)
	fmt.Fprintf(&b, "  pool:            %s\n", sess.PoolID)
	fmt.Fprintf(&b, "  submitted:       tick %d by %s\n", sess.SubmissionSlot, sess.Submitter)
	if sess.Finalized {
		fmt.Fprintf(&b, "  assigned index:  %d\n", sess.AssignedTargetIndex)
		fmt.Fprintf(&b, "  entropy:         %s\n", sess.Entropy)
	} else {
		fmt.Fprintf(&b, "  assigned index:  (unassigned)\n")
	}
	fmt.Fprintf(&b, "  finalized:       %t", sess.Finalized)
	return b.String()
}
