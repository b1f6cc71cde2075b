package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/lodestar/internal/collab"
	"github.com/roach88/lodestar/internal/engine"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Trace    []TraceEvent
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, ev := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s %s %s\n", ev.Seq, ev.Kind, ev.GraphID, ev.ChoiceID)
		}
	}
	return buf.String()
}

// AssertionContext gives assertions access to the final session.
type AssertionContext struct {
	Engine *engine.Engine
	World  *collab.World
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns one message per failed assertion.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errs []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertEventCount:
			err = assertEventCount(result.Trace, a)
		case AssertChoiceOrder:
			err = assertChoiceOrder(result.Trace, a)
		case AssertDiagnostic:
			err = assertDiagnostic(result.Trace, a)
		default:
			if actx == nil || actx.Engine == nil || actx.World == nil {
				err = fmt.Errorf("assertion[%d]: %s requires a session context", i, a.Type)
				break
			}
			err = assertState(actx, a)
		}
		if err != nil {
			errs = append(errs, err.Error())
		}
	}
	return errs
}

// assertState checks ledger, graph and host assertions.
func assertState(actx *AssertionContext, a Assertion) error {
	eng, world := actx.Engine, actx.World
	l := eng.Ledger()

	var expected, actual string
	switch a.Type {
	case AssertGraphState, AssertActiveNode:
		st, err := eng.Status(a.Graph)
		if err != nil {
			return &AssertionError{Type: a.Type, Expected: a.Graph, Actual: err.Error()}
		}
		if a.Type == AssertGraphState {
			expected, actual = a.State, string(st.State)
		} else {
			expected, actual = a.Node, st.ActiveNode
		}
	case AssertFlag:
		want := a.Set == nil || *a.Set
		expected = fmt.Sprintf("flag %s set=%t", a.Subject, want)
		actual = fmt.Sprintf("flag %s set=%t", a.Subject, l.HasFlag(a.Subject))
	case AssertReputation:
		expected, actual = numbers(a, l.Reputation(a.Subject))
	case AssertRelationship:
		v, ok := l.Relationship(a.Subject)
		if !ok {
			return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("%s = %d", a.Subject, *a.Value), Actual: "absent"}
		}
		expected, actual = numbers(a, v)
	case AssertExperience:
		expected, actual = numbers(a, world.Experience())
	case AssertItem:
		expected, actual = numbers(a, world.ItemCount(a.Subject))
	case AssertSkill:
		expected, actual = numbers(a, world.SkillLevel(a.Subject))
	case AssertEnding:
		id, _ := eng.Ending()
		expected, actual = a.Subject, id
	case AssertSignal:
		for _, s := range world.State().PendingSignals {
			if string(s.Kind) == a.Kind && s.ID == a.Subject {
				return nil
			}
		}
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%s signal %s", a.Kind, a.Subject),
			Actual:   "not emitted",
		}
	case AssertReplayEquivalent:
		if err := eng.VerifyReplay(); err != nil {
			return &AssertionError{Type: a.Type, Expected: "replay rebuilds the ledger", Actual: err.Error()}
		}
		return nil
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}

	if expected != actual {
		return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("%q", expected), Actual: fmt.Sprintf("%q", actual)}
	}
	return nil
}

func numbers(a Assertion, got int64) (string, string) {
	return fmt.Sprintf("%s = %d", a.Subject, *a.Value), fmt.Sprintf("%s = %d", a.Subject, got)
}

// assertEventCount checks the number of entries of one kind.
func assertEventCount(trace []TraceEvent, a Assertion) error {
	count := 0
	for _, ev := range trace {
		if ev.Kind == a.Kind {
			count++
		}
	}
	if count != *a.Count {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%d %s entries", *a.Count, a.Kind),
			Actual:   fmt.Sprintf("%d entries", count),
			Trace:    trace,
		}
	}
	return nil
}

// assertChoiceOrder checks that choices were resolved in the given order.
// Other choices may appear in between.
func assertChoiceOrder(trace []TraceEvent, a Assertion) error {
	positions := make(map[string]int)
	for i, ev := range trace {
		if ev.Kind != "choice" {
			continue
		}
		if _, seen := positions[ev.ChoiceID]; !seen {
			positions[ev.ChoiceID] = i + 1
		}
	}

	for _, c := range a.Choices {
		if positions[c] == 0 {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("all choices present: %v", a.Choices),
				Actual:   fmt.Sprintf("missing choice: %s", c),
				Trace:    trace,
			}
		}
	}
	for i := 1; i < len(a.Choices); i++ {
		prev, curr := a.Choices[i-1], a.Choices[i]
		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("choices in order: %v", a.Choices),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: trace,
			}
		}
	}
	return nil
}

// assertDiagnostic checks that some entry carries a matching diagnostic.
func assertDiagnostic(trace []TraceEvent, a Assertion) error {
	for _, ev := range trace {
		for _, d := range ev.Diagnostics {
			if strings.Contains(d, a.Subject) {
				return nil
			}
		}
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: fmt.Sprintf("a diagnostic containing %q", a.Subject),
		Actual:   "none found",
		Trace:    trace,
	}
}
