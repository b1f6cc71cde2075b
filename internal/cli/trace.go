package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/lodestar/internal/harness"
	"github.com/roach88/lodestar/internal/ir"
	"github.com/roach88/lodestar/internal/logquery"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Filter logquery.Options
	Kind   string
	Limit  int
}

// TraceResult is the output of the trace command.
type TraceResult struct {
	Slot     string               `json:"slot"`
	Graph    string               `json:"graph,omitempty"`
	Timeline []harness.TraceEvent `json:"timeline"`
	Stats    TraceStats           `json:"stats"`
}

// TraceStats summarizes a timeline.
type TraceStats struct {
	TotalEvents int `json:"total_events"`
	Starts      int `json:"starts"`
	Choices     int `json:"choices"`
	Externals   int `json:"externals"`
	Abandons    int `json:"abandons"`
	Transitions int `json:"transitions"`
	Diagnostics int `json:"diagnostics"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show the event log of a save slot",
		Long: `Show the event log stored for a save slot, oldest first.

Each entry lists the outcomes it applied, the graph transitions it caused
and any diagnostics recorded for outcomes that could not apply.

Examples:
  lodestar trace --slot default
  lodestar trace --graph quest_side_station --format json
  lodestar trace --kind choice --since 3
  lodestar trace --choice board_vessel --limit 1`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Filter.Graph, "graph", "", "only entries resolved against this graph")
	cmd.Flags().StringVar(&opts.Kind, "kind", "", "only entries of this kind (start|choice|external|abandon)")
	cmd.Flags().StringVar(&opts.Filter.Choice, "choice", "", "only entries for this choice id")
	cmd.Flags().Int64Var(&opts.Filter.Since, "since", 0, "only entries after this seq")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "at most this many entries")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	formatter := newFormatter(cmd, opts.RootOptions)

	st, err := openStore(formatter, opts.RootOptions)
	if err != nil {
		return err
	}
	defer st.Close()

	opts.Filter.Kind = ir.EntryKind(opts.Kind)
	entries, err := st.QueryLog(ctx, logquery.Query{
		Slot:   opts.Config.Slot,
		Filter: opts.Filter.Filter(),
		Limit:  opts.Limit,
	})
	if err != nil {
		return formatter.rejected(fmt.Errorf("read log: %w", err))
	}

	result := TraceResult{
		Slot:     opts.Config.Slot,
		Graph:    opts.Filter.Graph,
		Timeline: []harness.TraceEvent{},
	}
	for _, e := range entries {
		result.Timeline = append(result.Timeline, harness.NewTraceEvent(e))
		result.Stats.add(e)
	}

	return formatter.Render(result, func(w io.Writer) {
		if len(result.Timeline) == 0 {
			fmt.Fprintf(w, "No events found for slot: %s\n", result.Slot)
			return
		}
		for _, ev := range result.Timeline {
			writeEvent(w, ev)
		}
		s := result.Stats
		fmt.Fprintf(w, "\n%d event(s): %d start, %d choice, %d external, %d abandon\n",
			s.TotalEvents, s.Starts, s.Choices, s.Externals, s.Abandons)
		if opts.Verbose {
			fmt.Fprintf(w, "%d transition(s), %d diagnostic(s)\n", s.Transitions, s.Diagnostics)
		}
	})
}

func (s *TraceStats) add(e ir.EventLogEntry) {
	s.TotalEvents++
	switch e.Kind {
	case ir.EntryStart:
		s.Starts++
	case ir.EntryChoice:
		s.Choices++
	case ir.EntryExternal:
		s.Externals++
	case ir.EntryAbandon:
		s.Abandons++
	}
	s.Transitions += len(e.Transitions)
	s.Diagnostics += len(e.Diagnostics)
}
