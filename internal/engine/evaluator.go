package engine

import (
	"fmt"

	"github.com/roach88/lodestar/internal/collab"
	"github.com/roach88/lodestar/internal/ir"
	"github.com/roach88/lodestar/internal/ledger"
)

// Evaluate reports whether a single requirement holds.
//
// Evaluate is pure: it only reads the ledger and the collaborator readers,
// so the UI may call it freely to grey out choices. Numeric kinds compare
// with the requirement's comparator (>= when unset); Flag and
// QuestCompleted are set-membership checks. An unknown kind never holds.
func Evaluate(r ir.Requirement, l ledger.Reader, readers collab.Readers) bool {
	holds, _ := check(r, l, readers)
	return holds
}

// EvaluateAll reports whether every requirement holds. An empty list always
// holds. Every requirement is checked so the returned reasons list all of
// the failures, in authored order.
func EvaluateAll(reqs []ir.Requirement, l ledger.Reader, readers collab.Readers) (bool, []string) {
	var reasons []string
	for _, r := range reqs {
		if ok, reason := check(r, l, readers); !ok {
			reasons = append(reasons, reason)
		}
	}
	return len(reasons) == 0, reasons
}

// check evaluates one requirement and explains a failure.
func check(r ir.Requirement, l ledger.Reader, readers collab.Readers) (bool, string) {
	switch r.Kind {
	case ir.RequireItem:
		if readers.HasItem(r.Subject) {
			return true, ""
		}
		return false, fmt.Sprintf("requires item %s", r.Subject)

	case ir.RequireSkillLevel:
		return compare(r, readers.SkillLevel(r.Subject), "skill")

	case ir.RequireFactionLevel:
		return compare(r, l.Reputation(r.Subject), "reputation with")

	case ir.RequireRelationship:
		v, _ := l.Relationship(r.Subject)
		return compare(r, v, "relationship with")

	case ir.RequireFlag:
		if l.HasFlag(r.Subject) {
			return true, ""
		}
		return false, fmt.Sprintf("requires %s", r.Subject)

	case ir.RequireLocationVisited:
		if readers.IsLocationVisited(r.Subject) {
			return true, ""
		}
		return false, fmt.Sprintf("requires having visited %s", r.Subject)

	case ir.RequireAtLocation:
		if readers.CurrentLocation() == r.Subject {
			return true, ""
		}
		return false, fmt.Sprintf("must be at %s", r.Subject)

	case ir.RequireQuestCompleted:
		if l.QuestState(r.Subject) == ir.StateCompleted {
			return true, ""
		}
		return false, fmt.Sprintf("requires completing %s", r.Subject)

	default:
		return false, fmt.Sprintf("unknown requirement kind %q", r.Kind)
	}
}

func compare(r ir.Requirement, have int64, label string) (bool, string) {
	var ok bool
	switch r.Op() {
	case ir.CompareAtLeast:
		ok = have >= r.Value
	case ir.CompareAtMost:
		ok = have <= r.Value
	case ir.CompareEqual:
		ok = have == r.Value
	default:
		return false, fmt.Sprintf("unknown comparator %q", r.Comparator)
	}
	if ok {
		return true, ""
	}
	return false, fmt.Sprintf("requires %s %s %s %d (have %d)", label, r.Subject, r.Op(), r.Value, have)
}

// choiceLegal applies a node's location constraint and then the choice's
// own requirements.
func choiceLegal(n ir.Node, c ir.Choice, l ledger.Reader, readers collab.Readers) (bool, []string) {
	ok, reasons := EvaluateAll(c.Requirements, l, readers)
	if n.LocationConstraint != "" && readers.CurrentLocation() != n.LocationConstraint {
		reasons = append([]string{fmt.Sprintf("must be at %s", n.LocationConstraint)}, reasons...)
		ok = false
	}
	return ok, reasons
}
