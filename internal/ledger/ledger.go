package ledger

import (
	"maps"
	"slices"

	"github.com/roach88/lodestar/internal/ir"
)

// Clamp bounds.
const (
	ReputationMin   int64 = -100
	ReputationMax   int64 = 100
	RelationshipMin int64 = 0
	RelationshipMax int64 = 100

	// RelationshipSeed is the starting relationship of a newly unlocked companion.
	RelationshipSeed int64 = 50
)

// Reader is the read-only view handed to the requirement evaluator and the UI.
type Reader interface {
	HasFlag(flag string) bool
	Reputation(factionID string) int64
	QuestState(graphID string) ir.LifecycleState
	Relationship(companionID string) (int64, bool)
	IsUnlocked(graphID string) bool
	Ending() (string, bool)
}

// Ledger is the engine-owned world state.
type Ledger struct {
	flags        map[string]struct{}
	reputation   map[string]int64
	questState   map[string]ir.LifecycleState
	relationship map[string]int64
	unlocked     map[string]struct{}
	ending       string
}

var _ Reader = (*Ledger)(nil)

// New returns an empty ledger, the state of a new game.
func New() *Ledger {
	return &Ledger{
		flags:        make(map[string]struct{}),
		reputation:   make(map[string]int64),
		questState:   make(map[string]ir.LifecycleState),
		relationship: make(map[string]int64),
		unlocked:     make(map[string]struct{}),
	}
}

// HasFlag reports whether flag is set.
func (l *Ledger) HasFlag(flag string) bool {
	_, ok := l.flags[flag]
	return ok
}

// SetFlag sets flag. Returns false if it was already set.
func (l *Ledger) SetFlag(flag string) bool {
	if l.HasFlag(flag) {
		return false
	}
	l.flags[flag] = struct{}{}
	return true
}

// ClearFlag removes flag. Returns false if it was absent.
func (l *Ledger) ClearFlag(flag string) bool {
	if !l.HasFlag(flag) {
		return false
	}
	delete(l.flags, flag)
	return true
}

// Flags returns the set flags in sorted order.
func (l *Ledger) Flags() []string {
	return slices.Sorted(maps.Keys(l.flags))
}

// Reputation returns the standing with a faction; unknown factions are 0.
func (l *Ledger) Reputation(factionID string) int64 {
	return l.reputation[factionID]
}

// AdjustReputation adds delta clamped to [ReputationMin, ReputationMax]
// and returns the change actually applied.
func (l *Ledger) AdjustReputation(factionID string, delta int64) int64 {
	old := l.reputation[factionID]
	next := clamp(old+delta, ReputationMin, ReputationMax)
	l.reputation[factionID] = next
	return next - old
}

// QuestState returns a graph's mirrored lifecycle state.
// Graphs never seen are Unavailable.
func (l *Ledger) QuestState(graphID string) ir.LifecycleState {
	if s, ok := l.questState[graphID]; ok {
		return s
	}
	return ir.StateUnavailable
}

// SetQuestState records a graph's lifecycle state.
func (l *Ledger) SetQuestState(graphID string, state ir.LifecycleState) {
	l.questState[graphID] = state
}

// Relationship returns the relationship with a companion and whether the
// companion is known.
func (l *Ledger) Relationship(companionID string) (int64, bool) {
	v, ok := l.relationship[companionID]
	return v, ok
}

// AdjustRelationship adds delta clamped to [RelationshipMin, RelationshipMax]
// and returns the change actually applied. Unknown companions start at 0.
func (l *Ledger) AdjustRelationship(companionID string, delta int64) int64 {
	old := l.relationship[companionID]
	next := clamp(old+delta, RelationshipMin, RelationshipMax)
	l.relationship[companionID] = next
	return next - old
}

// SeedRelationship sets a companion to RelationshipSeed if absent.
func (l *Ledger) SeedRelationship(companionID string) bool {
	if _, ok := l.relationship[companionID]; ok {
		return false
	}
	l.relationship[companionID] = RelationshipSeed
	return true
}

// IsUnlocked reports whether an UnlockQuest marker exists for graphID.
func (l *Ledger) IsUnlocked(graphID string) bool {
	_, ok := l.unlocked[graphID]
	return ok
}

// MarkUnlocked records an UnlockQuest marker. Returns false if present.
func (l *Ledger) MarkUnlocked(graphID string) bool {
	if l.IsUnlocked(graphID) {
		return false
	}
	l.unlocked[graphID] = struct{}{}
	return true
}

// Ending returns the ending that closed the session, if any.
func (l *Ledger) Ending() (string, bool) {
	return l.ending, l.ending != ""
}

// SetEnding closes the session. The first ending wins.
func (l *Ledger) SetEnding(endingID string) bool {
	if l.ending != "" || endingID == "" {
		return false
	}
	l.ending = endingID
	return true
}

func clamp(v, lo, hi int64) int64 {
	return max(lo, min(hi, v))
}
