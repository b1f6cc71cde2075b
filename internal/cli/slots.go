package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/lodestar/internal/store"
)

// SlotsResult is the output of the slots command.
type SlotsResult struct {
	Slots []store.Slot `json:"slots"`
}

// NewSlotsCommand creates the slots command and its delete subcommand.
func NewSlotsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "slots",
		Short: "List save slots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSlots(rootOpts, cmd)
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "delete <slot>",
		Short: "Delete a save slot and its event log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeleteSlot(rootOpts, args[0], cmd)
		},
	})
	return cmd
}

func runSlots(opts *RootOptions, cmd *cobra.Command) error {
	formatter := newFormatter(cmd, opts)

	st, err := openStore(formatter, opts)
	if err != nil {
		return err
	}
	defer st.Close()

	slots, err := st.ListSlots(cmd.Context())
	if err != nil {
		return formatter.rejected(fmt.Errorf("list slots: %w", err))
	}
	result := SlotsResult{Slots: slots}
	if result.Slots == nil {
		result.Slots = []store.Slot{}
	}

	return formatter.Render(result, func(w io.Writer) {
		if len(result.Slots) == 0 {
			fmt.Fprintln(w, "No saved games.")
			return
		}
		for _, s := range result.Slots {
			fmt.Fprintf(w, "  %-16s seq %-4d %d event(s)  session %s\n", s.Name, s.Seq, s.Entries, s.SessionID)
		}
	})
}

func runDeleteSlot(opts *RootOptions, name string, cmd *cobra.Command) error {
	formatter := newFormatter(cmd, opts)

	st, err := openStore(formatter, opts)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.DeleteSlot(cmd.Context(), name); err != nil {
		if errors.Is(err, store.ErrSlotNotFound) {
			msg := fmt.Sprintf("no game in slot %q", name)
			_ = formatter.Error(ErrCodeCommand, msg, nil)
			return NewExitError(ExitCommandError, msg)
		}
		return formatter.rejected(fmt.Errorf("delete slot %q: %w", name, err))
	}
	return formatter.Render(map[string]string{"deleted": name}, func(w io.Writer) {
		fmt.Fprintf(w, "Deleted slot %q\n", name)
	})
}
