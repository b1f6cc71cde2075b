package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/lodestar/internal/ir"
)

// TraceSnapshot is the golden view of a scenario run.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	SessionID    string       `json:"session_id,omitempty"`
	Ending       string       `json:"ending,omitempty"`
	Trace        []TraceEvent `json:"trace"`
}

// NewTraceSnapshot builds the golden view of result.
func NewTraceSnapshot(scenarioName string, result *Result) TraceSnapshot {
	return TraceSnapshot{
		ScenarioName: scenarioName,
		SessionID:    result.SessionID,
		Ending:       result.Ledger.Ending,
		Trace:        result.Trace,
	}
}

// CanonicalJSON renders the snapshot as RFC 8785 canonical JSON so golden
// files are stable byte for byte.
func (s *TraceSnapshot) CanonicalJSON() ([]byte, error) {
	return ir.MarshalCanonical(s)
}

// RunWithGolden executes a scenario and compares its trace against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns an error if the scenario cannot run; a trace mismatch fails t.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result's trace against a golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	snapshot := NewTraceSnapshot(scenarioName, result)
	traceJSON, err := snapshot.CanonicalJSON()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, traceJSON)
	return nil
}
