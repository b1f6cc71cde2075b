package collab

import (
	"maps"
	"slices"
)

// World is an in-memory Host. It keeps just enough state to answer the
// engine's queries and is serializable as WorldState for save slots.
type World struct {
	items      map[string]int64
	skills     map[string]int64
	xp         int64
	unlocked   map[string]struct{}
	visited    map[string]struct{}
	location   string
	companions map[string]int64
	joined     map[string]struct{}

	*SignalQueue
}

var (
	_ Host    = (*World)(nil)
	_ Readers = (*World)(nil)
)

// NewWorld returns an empty world.
func NewWorld() *World {
	return &World{
		items:       make(map[string]int64),
		skills:      make(map[string]int64),
		unlocked:    make(map[string]struct{}),
		visited:     make(map[string]struct{}),
		companions:  make(map[string]int64),
		joined:      make(map[string]struct{}),
		SignalQueue: NewSignalQueue(),
	}
}

func (w *World) GiveItem(itemID string, qty int64) {
	w.items[itemID] += qty
}

func (w *World) RemoveItem(itemID string, qty int64) bool {
	have := w.items[itemID]
	if have <= 0 {
		return false
	}
	if qty >= have {
		delete(w.items, itemID)
	} else {
		w.items[itemID] = have - qty
	}
	return true
}

func (w *World) HasItem(itemID string) bool {
	return w.items[itemID] > 0
}

// ItemCount returns how many of an item are held.
func (w *World) ItemCount(itemID string) int64 {
	return w.items[itemID]
}

func (w *World) GrantExperience(n int64) {
	w.xp += n
}

// Experience returns total experience granted.
func (w *World) Experience() int64 {
	return w.xp
}

func (w *World) SkillLevel(skill string) int64 {
	return w.skills[skill]
}

// SetSkill sets a skill level. Skill math is owned by the host.
func (w *World) SetSkill(skill string, level int64) {
	w.skills[skill] = level
}

func (w *World) UnlockLocation(locationID string) bool {
	if _, ok := w.unlocked[locationID]; ok {
		return false
	}
	w.unlocked[locationID] = struct{}{}
	return true
}

// IsLocationUnlocked reports whether travel to a location is allowed.
func (w *World) IsLocationUnlocked(locationID string) bool {
	_, ok := w.unlocked[locationID]
	return ok
}

func (w *World) IsLocationVisited(locationID string) bool {
	_, ok := w.visited[locationID]
	return ok
}

func (w *World) CurrentLocation() string {
	return w.location
}

// Visit moves the player to a location and marks it visited.
func (w *World) Visit(locationID string) {
	w.location = locationID
	w.visited[locationID] = struct{}{}
}

// companionSeed matches the ledger's starting relationship.
const companionSeed = 50

func (w *World) UnlockCompanion(companionID string) bool {
	if _, ok := w.joined[companionID]; ok {
		return false
	}
	w.joined[companionID] = struct{}{}
	if _, ok := w.companions[companionID]; !ok {
		w.companions[companionID] = companionSeed
	}
	return true
}

func (w *World) Relationship(companionID string) int64 {
	return w.companions[companionID]
}

func (w *World) AdjustRelationship(companionID string, delta int64) {
	w.companions[companionID] += delta
}

// WorldState is the serializable form of a World.
type WorldState struct {
	Items              map[string]int64 `json:"items" yaml:"items"`
	Skills             map[string]int64 `json:"skills" yaml:"skills"`
	Experience         int64            `json:"experience" yaml:"experience"`
	UnlockedLocations  []string         `json:"unlocked_locations" yaml:"unlocked_locations"`
	VisitedLocations   []string         `json:"visited_locations" yaml:"visited_locations"`
	Location           string           `json:"location,omitempty" yaml:"location,omitempty"`
	Companions         map[string]int64 `json:"companions" yaml:"companions"`
	UnlockedCompanions []string         `json:"unlocked_companions" yaml:"unlocked_companions"`
	PendingSignals     []Signal         `json:"pending_signals,omitempty" yaml:"-"`
}

// State snapshots the world. Pending signals are copied, not drained.
func (w *World) State() WorldState {
	w.SignalQueue.mu.Lock()
	pending := slices.Clone(w.SignalQueue.signals)
	w.SignalQueue.mu.Unlock()

	return WorldState{
		Items:              maps.Clone(w.items),
		Skills:             maps.Clone(w.skills),
		Experience:         w.xp,
		UnlockedLocations:  slices.Sorted(maps.Keys(w.unlocked)),
		VisitedLocations:   slices.Sorted(maps.Keys(w.visited)),
		Location:           w.location,
		Companions:         maps.Clone(w.companions),
		UnlockedCompanions: slices.Sorted(maps.Keys(w.joined)),
		PendingSignals:     pending,
	}
}

// WorldFromState rebuilds a World from a snapshot.
func WorldFromState(s WorldState) *World {
	w := NewWorld()
	maps.Copy(w.items, s.Items)
	maps.Copy(w.skills, s.Skills)
	w.xp = s.Experience
	for _, id := range s.UnlockedLocations {
		w.unlocked[id] = struct{}{}
	}
	for _, id := range s.VisitedLocations {
		w.visited[id] = struct{}{}
	}
	w.location = s.Location
	maps.Copy(w.companions, s.Companions)
	for _, id := range s.UnlockedCompanions {
		w.joined[id] = struct{}{}
	}
	for _, sig := range s.PendingSignals {
		w.Emit(sig)
	}
	return w
}
