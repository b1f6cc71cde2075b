package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/lodestar/internal/engine"
	"github.com/roach88/lodestar/internal/ledger"
	"github.com/roach88/lodestar/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	All bool
}

// ReplaySlotResult is the replay verdict for one slot.
type ReplaySlotResult struct {
	Slot          string   `json:"slot"`
	SessionID     string   `json:"session_id"`
	Entries       int      `json:"entries"`
	LedgerHash    string   `json:"ledger_hash"`
	Deterministic bool     `json:"deterministic"`
	Diff          []string `json:"diff,omitempty"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Slots            []ReplaySlotResult `json:"slots"`
	TotalSlots       int                `json:"total_slots"`
	AllDeterministic bool               `json:"all_deterministic"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Rebuild the ledger from the event log and compare",
		Long: `Rebuild the world state ledger from a slot's event log and compare it
with the saved ledger. The log is replayed twice; both runs must agree
with each other and with the save.

Exit codes:
  0 - every replayed slot matches its save
  1 - a replay diverged
  2 - command error (database or slot not found, etc.)

Examples:
  lodestar replay --slot default
  lodestar replay --all --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.All, "all", false, "replay every slot in the database")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	formatter := newFormatter(cmd, opts.RootOptions)

	st, err := openStore(formatter, opts.RootOptions)
	if err != nil {
		return err
	}
	defer st.Close()

	names := []string{opts.Config.Slot}
	if opts.All {
		slots, err := st.ListSlots(ctx)
		if err != nil {
			return formatter.rejected(fmt.Errorf("list slots: %w", err))
		}
		names = names[:0]
		for _, s := range slots {
			names = append(names, s.Name)
		}
	}

	result := ReplayResult{Slots: []ReplaySlotResult{}, AllDeterministic: true}
	for _, name := range names {
		save, err := st.LoadSlot(ctx, name)
		if errors.Is(err, store.ErrSlotNotFound) {
			msg := fmt.Sprintf("no game in slot %q", name)
			_ = formatter.Error(ErrCodeCommand, msg, nil)
			return NewExitError(ExitCommandError, msg)
		}
		if err != nil {
			return formatter.rejected(fmt.Errorf("load slot %q: %w", name, err))
		}

		formatter.VerboseLog("Replaying slot %s (%d entries)", name, len(save.Snapshot.Log))
		slot, err := replaySlot(name, save)
		if err != nil {
			return formatter.rejected(err)
		}
		result.Slots = append(result.Slots, slot)
		if !slot.Deterministic {
			result.AllDeterministic = false
		}
	}
	result.TotalSlots = len(result.Slots)

	if err := formatter.Render(result, func(w io.Writer) { outputReplayText(w, result) }); err != nil {
		return err
	}
	if !result.AllDeterministic {
		return NewExitError(ExitFailure, "replay diverged from saved state")
	}
	return nil
}

// replaySlot replays the saved log twice and compares both runs with the
// saved ledger.
func replaySlot(name string, save store.Save) (ReplaySlotResult, error) {
	saved, err := ledger.FromState(save.Snapshot.Ledger)
	if err != nil {
		return ReplaySlotResult{}, fmt.Errorf("slot %q: %w", name, err)
	}
	first, err := engine.Replay(save.Snapshot.Log)
	if err != nil {
		return ReplaySlotResult{}, fmt.Errorf("slot %q: %w", name, err)
	}
	second, err := engine.Replay(save.Snapshot.Log)
	if err != nil {
		return ReplaySlotResult{}, fmt.Errorf("slot %q: %w", name, err)
	}
	hash, err := first.Fingerprint()
	if err != nil {
		return ReplaySlotResult{}, fmt.Errorf("slot %q: %w", name, err)
	}

	r := ReplaySlotResult{
		Slot:          name,
		SessionID:     save.Snapshot.SessionID,
		Entries:       len(save.Snapshot.Log),
		LedgerHash:    hash,
		Deterministic: first.Equal(second) && first.Equal(saved),
	}
	if !r.Deterministic {
		r.Diff = saved.Diff(first)
		if len(r.Diff) == 0 {
			r.Diff = first.Diff(second)
		}
	}
	return r, nil
}

func outputReplayText(w io.Writer, result ReplayResult) {
	if result.TotalSlots == 0 {
		fmt.Fprintln(w, "No slots to replay.")
		return
	}
	for _, s := range result.Slots {
		if s.Deterministic {
			fmt.Fprintf(w, "✓ %s: %d entries replayed, ledger matches\n", s.Slot, s.Entries)
			continue
		}
		fmt.Fprintf(w, "✗ %s: replay diverged\n", s.Slot)
		for _, d := range s.Diff {
			fmt.Fprintf(w, "    %s\n", d)
		}
	}
}
