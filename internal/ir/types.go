package ir

import (
	"fmt"
	"sort"
)

// Requirement is a declarative predicate gating a Choice or a Graph.
// Requirements are authored content and never built at runtime.
type Requirement struct {
	Kind       RequirementKind `json:"kind" yaml:"kind"`
	Subject    string          `json:"subject,omitempty" yaml:"subject,omitempty"`
	Comparator Comparator      `json:"comparator,omitempty" yaml:"comparator,omitempty"`
	Value      int64           `json:"value,omitempty" yaml:"value,omitempty"`
}

// Op returns the effective comparator (AtLeast when unset).
func (r Requirement) Op() Comparator {
	if r.Comparator == "" {
		return CompareAtLeast
	}
	return r.Comparator
}

// String renders the requirement for diagnostics and UI reasons.
func (r Requirement) String() string {
	if r.Kind.Numeric() {
		return fmt.Sprintf("%s %s %s %d", r.Kind, r.Subject, r.Op(), r.Value)
	}
	return fmt.Sprintf("%s %s", r.Kind, r.Subject)
}

// Outcome is a typed effect applied when a choice is taken.
//
// Amount carries the scalar payload: XP for GrantExperience, the delta for
// ReputationDelta and RelationshipDelta, the quantity for GiveItem and
// RemoveItem (zero means one). Failed is only meaningful on TriggerEnding.
type Outcome struct {
	Kind    OutcomeKind `json:"kind" yaml:"kind"`
	Subject string      `json:"subject,omitempty" yaml:"subject,omitempty"`
	Amount  int64       `json:"amount,omitempty" yaml:"amount,omitempty"`
	Failed  bool        `json:"failed,omitempty" yaml:"failed,omitempty"`
}

// Ref is the short identifier recorded on event log entries.
func (o Outcome) Ref() string {
	if o.Subject == "" {
		return string(o.Kind)
	}
	return string(o.Kind) + ":" + o.Subject
}

// Quantity returns the item quantity, defaulting to one.
func (o Outcome) Quantity() int64 {
	if o.Amount <= 0 {
		return 1
	}
	return o.Amount
}

// Choice is a player-selectable branch of a Node.
type Choice struct {
	ID           string        `json:"id" yaml:"id"`
	Text         string        `json:"text" yaml:"text"`
	Requirements []Requirement `json:"requirements,omitempty" yaml:"requirements,omitempty"`
	Outcomes     []Outcome     `json:"outcomes,omitempty" yaml:"outcomes,omitempty"`
	Next         NextRef       `json:"next,omitzero" yaml:"next,omitempty"`
}

// Node is a single narrative beat: a quest Stage or a DialogueNode.
type Node struct {
	ID                 string    `json:"id" yaml:"id"`
	Title              string    `json:"title,omitempty" yaml:"title,omitempty"`
	Speaker            string    `json:"speaker,omitempty" yaml:"speaker,omitempty"`
	Body               string    `json:"body" yaml:"body"`
	LocationConstraint string    `json:"location_constraint,omitempty" yaml:"location_constraint,omitempty"`
	Choices            []Choice  `json:"choices" yaml:"choices"`
	EntryOutcomes      []Outcome `json:"entry_outcomes,omitempty" yaml:"entry_outcomes,omitempty"`
}

// Choice returns the choice with the given id.
func (n *Node) Choice(id string) (Choice, bool) {
	for _, c := range n.Choices {
		if c.ID == id {
			return c, true
		}
	}
	return Choice{}, false
}

// Graph is an authored Quest or DialogueTree.
//
// Runtime lifecycle state and the active node are owned by the engine's
// graph store, not by this struct.
type Graph struct {
	ID                 string          `json:"id" yaml:"id"`
	Kind               GraphKind       `json:"kind" yaml:"kind"`
	Title              string          `json:"title,omitempty" yaml:"title,omitempty"`
	BranchTag          string          `json:"branch_tag,omitempty" yaml:"branch_tag,omitempty"`
	StartNodeID        string          `json:"start_node_id" yaml:"start_node_id"`
	Nodes              map[string]Node `json:"nodes" yaml:"nodes"`
	UnlockRequirements []Requirement   `json:"unlock_requirements,omitempty" yaml:"unlock_requirements,omitempty"`
	CompletionOutcomes []Outcome       `json:"completion_outcomes,omitempty" yaml:"completion_outcomes,omitempty"`

	// Locked graphs additionally need an UnlockQuest outcome before they
	// can become Available.
	Locked bool `json:"locked,omitempty" yaml:"locked,omitempty"`
}

// Node returns the node with the given id.
func (g *Graph) Node(id string) (Node, bool) {
	n, ok := g.Nodes[id]
	return n, ok
}

// NodeIDs returns node ids in sorted order for deterministic iteration.
func (g *Graph) NodeIDs() []string {
	ids := make([]string, 0, len(g.Nodes))
	for id := range g.Nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
