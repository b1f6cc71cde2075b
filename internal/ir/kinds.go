package ir

// RequirementKind tags a Requirement predicate.
type RequirementKind string

const (
	RequireItem            RequirementKind = "Item"
	RequireSkillLevel      RequirementKind = "SkillLevel"
	RequireFactionLevel    RequirementKind = "FactionLevel"
	RequireFlag            RequirementKind = "Flag"
	RequireLocationVisited RequirementKind = "LocationVisited"
	RequireAtLocation      RequirementKind = "AtLocation"
	RequireQuestCompleted  RequirementKind = "QuestCompleted"
	RequireRelationship    RequirementKind = "Relationship"
)

// ValidRequirementKinds lists every requirement kind the evaluator handles.
var ValidRequirementKinds = map[RequirementKind]bool{
	RequireItem:            true,
	RequireSkillLevel:      true,
	RequireFactionLevel:    true,
	RequireFlag:            true,
	RequireLocationVisited: true,
	RequireAtLocation:      true,
	RequireQuestCompleted:  true,
	RequireRelationship:    true,
}

// Numeric reports whether the kind compares a scalar against Value.
func (k RequirementKind) Numeric() bool {
	switch k {
	case RequireSkillLevel, RequireFactionLevel, RequireRelationship:
		return true
	default:
		return false
	}
}

// Comparator selects how numeric requirements compare.
// The empty comparator means AtLeast.
type Comparator string

const (
	CompareAtLeast Comparator = ">="
	CompareAtMost  Comparator = "<="
	CompareEqual   Comparator = "=="
)

// ValidComparators defines allowed comparator strings.
var ValidComparators = map[Comparator]bool{
	"":             true,
	CompareAtLeast: true,
	CompareAtMost:  true,
	CompareEqual:   true,
}

// OutcomeKind tags an Outcome effect.
type OutcomeKind string

const (
	OutcomeGrantExperience   OutcomeKind = "GrantExperience"
	OutcomeReputationDelta   OutcomeKind = "ReputationDelta"
	OutcomeRelationshipDelta OutcomeKind = "RelationshipDelta"
	OutcomeSetFlag           OutcomeKind = "SetFlag"
	OutcomeClearFlag         OutcomeKind = "ClearFlag"
	OutcomeGiveItem          OutcomeKind = "GiveItem"
	OutcomeRemoveItem        OutcomeKind = "RemoveItem"
	OutcomeUnlockLocation    OutcomeKind = "UnlockLocation"
	OutcomeUnlockQuest       OutcomeKind = "UnlockQuest"
	OutcomeUnlockCompanion   OutcomeKind = "UnlockCompanion"
	OutcomeStartCombat       OutcomeKind = "StartCombat"
	OutcomeStartPuzzle       OutcomeKind = "StartPuzzle"
	OutcomeFailQuest         OutcomeKind = "FailQuest"
	OutcomeTriggerEnding     OutcomeKind = "TriggerEnding"
)

// ValidOutcomeKinds lists every outcome kind the dispatcher handles.
var ValidOutcomeKinds = map[OutcomeKind]bool{
	OutcomeGrantExperience:   true,
	OutcomeReputationDelta:   true,
	OutcomeRelationshipDelta: true,
	OutcomeSetFlag:           true,
	OutcomeClearFlag:         true,
	OutcomeGiveItem:          true,
	OutcomeRemoveItem:        true,
	OutcomeUnlockLocation:    true,
	OutcomeUnlockQuest:       true,
	OutcomeUnlockCompanion:   true,
	OutcomeStartCombat:       true,
	OutcomeStartPuzzle:       true,
	OutcomeFailQuest:         true,
	OutcomeTriggerEnding:     true,
}

// NeedsSubject reports whether the outcome must name a subject id.
// GrantExperience is the only kind carrying just an amount.
func (k OutcomeKind) NeedsSubject() bool {
	return k != OutcomeGrantExperience
}

// LifecycleState is the per-graph state machine position.
type LifecycleState string

const (
	StateUnavailable LifecycleState = "Unavailable"
	StateAvailable   LifecycleState = "Available"
	StateInProgress  LifecycleState = "InProgress"
	StateCompleted   LifecycleState = "Completed"
	StateFailed      LifecycleState = "Failed"
)

// ValidLifecycleStates defines allowed lifecycle states.
var ValidLifecycleStates = map[LifecycleState]bool{
	StateUnavailable: true,
	StateAvailable:   true,
	StateInProgress:  true,
	StateCompleted:   true,
	StateFailed:      true,
}

// Terminal reports whether no further transitions leave this state.
func (s LifecycleState) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// GraphKind distinguishes quest content from dialogue content.
// Both run on the same state machine.
type GraphKind string

const (
	GraphQuest    GraphKind = "quest"
	GraphDialogue GraphKind = "dialogue"
)

// Well-known faction ids used by the reputation coupling rule.
const (
	FactionAlliance   = "alliance"
	FactionSyndicate  = "syndicate"
	FactionMystics    = "mystics"
	FactionVoidEntity = "void_entity"
)
