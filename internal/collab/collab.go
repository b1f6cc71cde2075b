package collab

// Inventory is the item collaborator.
type Inventory interface {
	GiveItem(itemID string, qty int64)
	// RemoveItem reports false when the item was not held.
	RemoveItem(itemID string, qty int64) bool
	HasItem(itemID string) bool
}

// Progression is the character progression collaborator.
type Progression interface {
	GrantExperience(n int64)
	SkillLevel(skill string) int64
}

// Locations is the travel collaborator.
type Locations interface {
	// UnlockLocation reports false when the location was already unlocked.
	UnlockLocation(locationID string) bool
	IsLocationVisited(locationID string) bool
	CurrentLocation() string
}

// Companions is the companion/relationship collaborator.
type Companions interface {
	// UnlockCompanion reports false when the companion had already joined.
	UnlockCompanion(companionID string) bool
	Relationship(companionID string) int64
	AdjustRelationship(companionID string, delta int64)
}

// Signals receives fire-and-forget signals for combat, puzzles and endings.
// The engine never waits on them.
type Signals interface {
	Emit(s Signal)
}

// Readers is the read-only surface used by the requirement evaluator.
type Readers interface {
	HasItem(itemID string) bool
	SkillLevel(skill string) int64
	IsLocationVisited(locationID string) bool
	CurrentLocation() string
}

// Host bundles every collaborator the engine talks to.
type Host interface {
	Inventory
	Progression
	Locations
	Companions
	Signals
}

// SignalKind names the subsystem a Signal targets.
type SignalKind string

const (
	SignalCombat SignalKind = "combat"
	SignalPuzzle SignalKind = "puzzle"
	SignalEnding SignalKind = "ending"
)

// Signal is an opaque request to an out-of-scope subsystem.
type Signal struct {
	Kind    SignalKind `json:"kind"`
	ID      string     `json:"id"`
	GraphID string     `json:"graph_id,omitempty"`
	Failed  bool       `json:"failed,omitempty"`
	Seq     int64      `json:"seq"`
}
