package harness

import (
	"fmt"

	"github.com/roach88/lodestar/internal/collab"
	"github.com/roach88/lodestar/internal/ir"
	"github.com/roach88/lodestar/internal/ledger"
)

// TraceEvent is the stable, id-free view of one event log entry used for
// trace assertions and golden comparison.
type TraceEvent struct {
	Seq         int64    `json:"seq"`
	Kind        string   `json:"kind"`
	GraphID     string   `json:"graph_id,omitempty"`
	NodeID      string   `json:"node_id,omitempty"`
	ChoiceID    string   `json:"choice_id,omitempty"`
	Source      string   `json:"source,omitempty"`
	NextNodeID  string   `json:"next_node_id,omitempty"`
	Outcomes    []string `json:"outcomes,omitempty"`
	Transitions []string `json:"transitions,omitempty"`
	Diagnostics []string `json:"diagnostics,omitempty"`
}

// NewTraceEvent converts a log entry.
func NewTraceEvent(e ir.EventLogEntry) TraceEvent {
	ev := TraceEvent{
		Seq:         e.Seq,
		Kind:        string(e.Kind),
		GraphID:     e.GraphID,
		NodeID:      e.NodeID,
		ChoiceID:    e.ChoiceID,
		Source:      e.Source,
		NextNodeID:  e.NextNodeID,
		Outcomes:    e.OutcomeIDs,
		Diagnostics: e.Diagnostics,
	}
	for _, tr := range e.Transitions {
		ev.Transitions = append(ev.Transitions, fmt.Sprintf("%s: %s -> %s", tr.GraphID, tr.From, tr.To))
	}
	return ev
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every step expectation and assertion held.
	Pass bool `json:"pass"`

	// Trace holds every log entry of the final session, in seq order.
	Trace []TraceEvent `json:"trace"`

	// Errors lists failed expectations and assertions.
	Errors []string `json:"errors,omitempty"`

	SessionID string             `json:"session_id"`
	Ledger    ledger.State       `json:"ledger"`
	World     collab.WorldState  `json:"world"`
	Log       []ir.EventLogEntry `json:"-"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError records a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
