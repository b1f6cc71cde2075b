package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/lodestar/internal/collab"
	"github.com/roach88/lodestar/internal/engine"
	"github.com/roach88/lodestar/internal/harness"
	"github.com/roach88/lodestar/internal/ir"
)

// NewGameOptions holds flags for the new command.
type NewGameOptions struct {
	*RootOptions
	Skills   map[string]int64
	Items    map[string]int64
	Location string
}

// NewGameResult is the output of the new command.
type NewGameResult struct {
	Slot        string               `json:"slot"`
	SessionID   string               `json:"session_id"`
	ContentHash string               `json:"content_hash"`
	Graphs      []engine.GraphStatus `json:"graphs"`
}

// StepResult is the output of start, choose and abandon.
type StepResult struct {
	Slot    string              `json:"slot"`
	Event   harness.TraceEvent  `json:"event"`
	GraphID string              `json:"graph_id,omitempty"`
	NodeID  string              `json:"node_id,omitempty"`
	Ending  *engine.Ending      `json:"ending,omitempty"`
	Signals []collab.Signal     `json:"signals,omitempty"`
	Node    *engine.Presentable `json:"node,omitempty"`
}

// ShowResult is the output of show without a graph argument.
type ShowResult struct {
	Slot      string               `json:"slot"`
	SessionID string               `json:"session_id"`
	Seq       int64                `json:"seq"`
	Ending    string               `json:"ending,omitempty"`
	Graphs    []engine.GraphStatus `json:"graphs"`
	World     collab.WorldState    `json:"world"`
}

// NewNewCommand creates the new command.
func NewNewCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &NewGameOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "new",
		Short: "Start a new game in the save slot",
		Long: `Start a new game in the configured save slot, replacing any game
already saved there. Host state such as skills and items can be seeded
with flags.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNew(cmd.Context(), opts, cmd)
		},
	}

	cmd.Flags().StringToInt64Var(&opts.Skills, "skill", nil, "starting skill levels (name=level)")
	cmd.Flags().StringToInt64Var(&opts.Items, "item", nil, "starting items (id=quantity)")
	cmd.Flags().StringVar(&opts.Location, "location", "", "starting location")

	return cmd
}

func runNew(ctx context.Context, opts *NewGameOptions, cmd *cobra.Command) (err error) {
	f := newFormatter(cmd, opts.RootOptions)

	world := collab.NewWorld()
	for skill, level := range opts.Skills {
		world.SetSkill(skill, level)
	}
	for item, qty := range opts.Items {
		world.GiveItem(item, qty)
	}
	if opts.Location != "" {
		world.Visit(opts.Location)
	}

	s, err := openSession(ctx, f, opts.RootOptions, true, world)
	if err != nil {
		return err
	}
	defer closeSession(s, &err)

	if err := s.save(ctx); err != nil {
		return f.rejected(fmt.Errorf("save slot %q: %w", opts.Config.Slot, err))
	}

	result := NewGameResult{
		Slot:        opts.Config.Slot,
		SessionID:   s.engine.SessionID(),
		ContentHash: s.engine.ContentHash(),
		Graphs:      s.engine.Statuses(),
	}
	return f.Render(result, func(w io.Writer) {
		fmt.Fprintf(w, "New game in slot %q (session %s)\n", result.Slot, result.SessionID)
		writeStatuses(w, result.Graphs)
	})
}

// NewStartCommand creates the start command.
func NewStartCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "start <graph>",
		Short: "Start an available quest or dialogue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStep(cmd, rootOpts, func(e *engine.Engine) (*engine.Step, error) {
				return e.Start(args[0])
			})
		},
	}
}

// NewChooseCommand creates the choose command.
func NewChooseCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "choose <graph> <choice>",
		Short: "Take a choice at a graph's active node",
		Long: `Take a choice at the active node of an in-progress graph.

The choice is rejected with ILLEGAL_CHOICE when its requirements do not
hold; rejected calls change nothing and write no event.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStep(cmd, rootOpts, func(e *engine.Engine) (*engine.Step, error) {
				return e.Choose(args[0], args[1])
			})
		},
	}
}

// NewAbandonCommand creates the abandon command.
func NewAbandonCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "abandon <graph>",
		Short: "Abandon an available or in-progress graph, failing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStep(cmd, rootOpts, func(e *engine.Engine) (*engine.Step, error) {
				return e.Abandon(args[0])
			})
		},
	}
}

// NewExternalCommand creates the external command.
func NewExternalCommand(rootOpts *RootOptions) *cobra.Command {
	var outcomes []string

	cmd := &cobra.Command{
		Use:   "external <source>",
		Short: "Apply outcomes reported by another subsystem",
		Long: `Apply outcomes reported by a subsystem outside the narrative engine,
such as the result of a combat encounter.

Each --outcome is Kind[:subject[:amount]], for example
GrantExperience::40, SetFlag:won_ambush or ReputationDelta:alliance:5.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outs, err := parseOutcomes(outcomes)
			if err != nil {
				f := newFormatter(cmd, rootOpts)
				_ = f.Error(ErrCodeCommand, err.Error(), nil)
				return WrapExitError(ExitCommandError, "invalid outcome", err)
			}
			return runStep(cmd, rootOpts, func(e *engine.Engine) (*engine.Step, error) {
				return e.ApplyExternal(args[0], outs)
			})
		},
	}

	cmd.Flags().StringArrayVar(&outcomes, "outcome", nil, "outcome as Kind[:subject[:amount]] (repeatable)")
	_ = cmd.MarkFlagRequired("outcome")

	return cmd
}

// parseOutcomes parses Kind[:subject[:amount]] outcome flags. Kinds are
// checked by the engine.
func parseOutcomes(specs []string) ([]ir.Outcome, error) {
	outs := make([]ir.Outcome, 0, len(specs))
	for _, spec := range specs {
		parts := strings.SplitN(spec, ":", 3)
		o := ir.Outcome{Kind: ir.OutcomeKind(parts[0])}
		if len(parts) > 1 {
			o.Subject = parts[1]
		}
		if len(parts) > 2 && parts[2] != "" {
			n, err := strconv.ParseInt(parts[2], 10, 64)
			if err != nil {
				return nil, fmt.Errorf("outcome %q: amount: %w", spec, err)
			}
			o.Amount = n
		}
		outs = append(outs, o)
	}
	return outs, nil
}

// runStep restores the slot, runs one engine call and saves the result.
// Signals raised by the call are drained and reported.
func runStep(cmd *cobra.Command, opts *RootOptions, call func(*engine.Engine) (*engine.Step, error)) (err error) {
	ctx := cmd.Context()
	f := newFormatter(cmd, opts)

	s, err := openSession(ctx, f, opts, false, nil)
	if err != nil {
		return err
	}
	defer closeSession(s, &err)

	step, err := call(s.engine)
	if err != nil {
		return f.rejected(err)
	}
	signals := s.world.Drain()
	if err := s.save(ctx); err != nil {
		return f.rejected(fmt.Errorf("save slot %q: %w", opts.Config.Slot, err))
	}

	result := StepResult{
		Slot:    opts.Config.Slot,
		Event:   harness.NewTraceEvent(step.Entry),
		GraphID: step.GraphID,
		NodeID:  step.NodeID,
		Ending:  step.Ending,
		Signals: signals,
	}
	if step.GraphID != "" && step.Ending == nil {
		if p, err := s.engine.Present(step.GraphID); err == nil {
			result.Node = p
		}
	}

	return f.Render(result, func(w io.Writer) {
		writeEvent(w, result.Event)
		for _, sig := range result.Signals {
			fmt.Fprintf(w, "  signal %s %s\n", sig.Kind, sig.ID)
		}
		if result.Ending != nil {
			fmt.Fprintf(w, "\nThe story ends: %s\n", result.Ending.ID)
			return
		}
		if result.Node != nil {
			fmt.Fprintln(w)
			writePresentable(w, result.Node)
		}
	})
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show [graph]",
		Short: "Show graph states, or the active node of one graph",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(cmd, rootOpts, args)
		},
	}
}

func runShow(cmd *cobra.Command, opts *RootOptions, args []string) (err error) {
	f := newFormatter(cmd, opts)

	s, err := openSession(cmd.Context(), f, opts, false, nil)
	if err != nil {
		return err
	}
	defer closeSession(s, &err)

	if len(args) == 1 {
		p, err := s.engine.Present(args[0])
		if err != nil {
			return f.rejected(err)
		}
		return f.Render(p, func(w io.Writer) { writePresentable(w, p) })
	}

	ending, _ := s.engine.Ending()
	result := ShowResult{
		Slot:      opts.Config.Slot,
		SessionID: s.engine.SessionID(),
		Seq:       s.engine.Serialize().Seq,
		Ending:    ending,
		Graphs:    s.engine.Statuses(),
		World:     s.world.State(),
	}
	return f.Render(result, func(w io.Writer) {
		fmt.Fprintf(w, "Slot %q, session %s, seq %d\n", result.Slot, result.SessionID, result.Seq)
		if result.Ending != "" {
			fmt.Fprintf(w, "Ended: %s\n", result.Ending)
		}
		writeStatuses(w, result.Graphs)
		fmt.Fprintf(w, "\nExperience: %d\n", result.World.Experience)
		if result.World.Location != "" {
			fmt.Fprintf(w, "Location: %s\n", result.World.Location)
		}
	})
}

func closeSession(s *session, err *error) {
	if cerr := s.close(); cerr != nil && *err == nil {
		*err = WrapExitError(ExitCommandError, "close session", cerr)
	}
}

func writeStatuses(w io.Writer, graphs []engine.GraphStatus) {
	for _, g := range graphs {
		line := fmt.Sprintf("  %-32s %-8s %s", g.ID, g.Kind, g.State)
		if g.ActiveNode != "" {
			line += " @ " + g.ActiveNode
		}
		fmt.Fprintln(w, line)
	}
}

func writeEvent(w io.Writer, ev harness.TraceEvent) {
	subject := ev.GraphID
	switch {
	case ev.ChoiceID != "":
		subject = ev.GraphID + "/" + ev.ChoiceID
	case ev.Source != "":
		subject = ev.Source
	}
	fmt.Fprintf(w, "[%d] %s %s\n", ev.Seq, ev.Kind, subject)
	if len(ev.Outcomes) > 0 {
		fmt.Fprintf(w, "  outcomes: %s\n", strings.Join(ev.Outcomes, ", "))
	}
	for _, tr := range ev.Transitions {
		fmt.Fprintf(w, "  %s\n", tr)
	}
	for _, d := range ev.Diagnostics {
		fmt.Fprintf(w, "  ! %s\n", d)
	}
}

func writePresentable(w io.Writer, p *engine.Presentable) {
	title := p.Title
	if title == "" {
		title = p.NodeID
	}
	fmt.Fprintf(w, "== %s ==\n", title)
	if p.Speaker != "" {
		fmt.Fprintf(w, "%s: %s\n", p.Speaker, p.Text)
	} else {
		fmt.Fprintln(w, p.Text)
	}
	for i, c := range p.Legal {
		fmt.Fprintf(w, "  %d) %s [%s]\n", i+1, c.Text, c.ID)
	}
	for _, c := range p.Blocked {
		fmt.Fprintf(w, "  x  %s [%s] (%s)\n", c.Text, c.ID, strings.Join(c.Reasons, "; "))
	}
}
