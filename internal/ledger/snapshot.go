package ledger

import (
	"fmt"
	"maps"
	"slices"

	"github.com/roach88/lodestar/internal/ir"
)

// State is the serializable form of a Ledger. Restoring a State always
// replaces the whole ledger.
type State struct {
	Flags          []string                     `json:"flags"`
	Reputation     map[string]int64             `json:"reputation"`
	QuestState     map[string]ir.LifecycleState `json:"quest_state"`
	Relationship   map[string]int64             `json:"relationship"`
	UnlockedGraphs []string                     `json:"unlocked_graphs"`
	Ending         string                       `json:"ending,omitempty"`
}

// Snapshot copies the ledger into a State.
func (l *Ledger) Snapshot() State {
	return State{
		Flags:          l.Flags(),
		Reputation:     maps.Clone(l.reputation),
		QuestState:     maps.Clone(l.questState),
		Relationship:   maps.Clone(l.relationship),
		UnlockedGraphs: slices.Sorted(maps.Keys(l.unlocked)),
		Ending:         l.ending,
	}
}

// FromState builds a ledger from a State, validating lifecycle values and
// clamp bounds.
func FromState(s State) (*Ledger, error) {
	l := New()
	for _, f := range s.Flags {
		l.flags[f] = struct{}{}
	}
	for k, v := range s.Reputation {
		if v < ReputationMin || v > ReputationMax {
			return nil, fmt.Errorf("reputation %q out of range: %d", k, v)
		}
		l.reputation[k] = v
	}
	for k, v := range s.QuestState {
		if !ir.ValidLifecycleStates[v] {
			return nil, fmt.Errorf("quest %q: invalid lifecycle state %q", k, v)
		}
		l.questState[k] = v
	}
	for k, v := range s.Relationship {
		if v < RelationshipMin || v > RelationshipMax {
			return nil, fmt.Errorf("relationship %q out of range: %d", k, v)
		}
		l.relationship[k] = v
	}
	for _, g := range s.UnlockedGraphs {
		l.unlocked[g] = struct{}{}
	}
	l.ending = s.Ending
	return l, nil
}

// Clone returns an independent copy.
func (l *Ledger) Clone() *Ledger {
	c, _ := FromState(l.Snapshot())
	return c
}

// IR renders the ledger as an IRObject for canonical hashing.
// Zero reputation entries are kept: a faction touched and returned to 0
// is still distinguishable from one never touched.
func (l *Ledger) IR() ir.IRObject {
	quests := make(ir.IRObject, len(l.questState))
	for k, v := range l.questState {
		quests[k] = ir.IRString(string(v))
	}
	return ir.IRObject{
		"flags":           ir.Strings(l.Flags()),
		"reputation":      ir.IntMap(l.reputation),
		"quest_state":     quests,
		"relationship":    ir.IntMap(l.relationship),
		"unlocked_graphs": ir.Strings(slices.Sorted(maps.Keys(l.unlocked))),
		"ending":          ir.IRString(l.ending),
	}
}

// Fingerprint returns the content hash of the ledger.
func (l *Ledger) Fingerprint() (string, error) {
	return ir.LedgerHash(l.IR())
}

// Equal reports per-field equality.
func (l *Ledger) Equal(other *Ledger) bool {
	if other == nil {
		return false
	}
	return maps.Equal(l.flags, other.flags) &&
		maps.Equal(l.reputation, other.reputation) &&
		maps.Equal(l.questState, other.questState) &&
		maps.Equal(l.relationship, other.relationship) &&
		maps.Equal(l.unlocked, other.unlocked) &&
		l.ending == other.ending
}

// Diff lists the fields that differ, for diagnostics when Equal fails.
func (l *Ledger) Diff(other *Ledger) []string {
	var diffs []string
	if !maps.Equal(l.flags, other.flags) {
		diffs = append(diffs, fmt.Sprintf("flags: %v != %v", l.Flags(), other.Flags()))
	}
	if !maps.Equal(l.reputation, other.reputation) {
		diffs = append(diffs, fmt.Sprintf("reputation: %v != %v", l.reputation, other.reputation))
	}
	if !maps.Equal(l.questState, other.questState) {
		diffs = append(diffs, fmt.Sprintf("quest_state: %v != %v", l.questState, other.questState))
	}
	if !maps.Equal(l.relationship, other.relationship) {
		diffs = append(diffs, fmt.Sprintf("relationship: %v != %v", l.relationship, other.relationship))
	}
	if !maps.Equal(l.unlocked, other.unlocked) {
		diffs = append(diffs, "unlocked_graphs differ")
	}
	if l.ending != other.ending {
		diffs = append(diffs, fmt.Sprintf("ending: %q != %q", l.ending, other.ending))
	}
	return diffs
}
