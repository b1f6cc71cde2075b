package ir

// EntryKind tags what caused an event log entry.
type EntryKind string

const (
	EntryStart    EntryKind = "start"
	EntryChoice   EntryKind = "choice"
	EntryExternal EntryKind = "external"
	EntryAbandon  EntryKind = "abandon"
)

// ValidEntryKinds defines allowed entry kinds.
var ValidEntryKinds = map[EntryKind]bool{
	EntryStart:    true,
	EntryChoice:   true,
	EntryExternal: true,
	EntryAbandon:  true,
}

// Transition records one graph lifecycle change caused by an entry.
type Transition struct {
	GraphID string         `json:"graph_id" yaml:"graph_id"`
	From    LifecycleState `json:"from" yaml:"from"`
	To      LifecycleState `json:"to" yaml:"to"`
}

// EventLogEntry is one append-only record of a resolved action.
//
// Seq is the logical timestamp. Outcomes holds the authored outcomes the
// resolution applied, in order: choice outcomes, then entry or completion
// outcomes. Derived effects such as reputation coupling are not logged;
// replay recomputes them. Transitions records every lifecycle change.
type EventLogEntry struct {
	ID          string       `json:"id" yaml:"id"`
	Seq         int64        `json:"seq" yaml:"seq"`
	SessionID   string       `json:"session_id" yaml:"session_id"`
	Kind        EntryKind    `json:"kind" yaml:"kind"`
	GraphID     string       `json:"graph_id,omitempty" yaml:"graph_id,omitempty"`
	NodeID      string       `json:"node_id,omitempty" yaml:"node_id,omitempty"`
	ChoiceID    string       `json:"choice_id,omitempty" yaml:"choice_id,omitempty"`
	Source      string       `json:"source,omitempty" yaml:"source,omitempty"`
	NextNodeID  string       `json:"next_node_id,omitempty" yaml:"next_node_id,omitempty"`
	OutcomeIDs  []string     `json:"outcome_ids" yaml:"outcome_ids"`
	Outcomes    []Outcome    `json:"outcomes" yaml:"outcomes"`
	Transitions []Transition `json:"transitions" yaml:"transitions"`
	Diagnostics []string     `json:"diagnostics" yaml:"diagnostics"`
	ContentHash string       `json:"content_hash" yaml:"content_hash"`
}
