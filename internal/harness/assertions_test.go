package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTrace() []TraceEvent {
	return []TraceEvent{
		{Seq: 1, Kind: "start", GraphID: "q"},
		{Seq: 2, Kind: "choice", GraphID: "q", ChoiceID: "a"},
		{Seq: 3, Kind: "external", Source: "combat", Diagnostics: []string{"RemoveItem derelict_core: not in inventory"}},
		{Seq: 4, Kind: "choice", GraphID: "q", ChoiceID: "b"},
		{Seq: 5, Kind: "choice", GraphID: "q", ChoiceID: "a"},
	}
}

func TestAssertEventCount(t *testing.T) {
	trace := sampleTrace()
	assert.NoError(t, assertEventCount(trace, Assertion{Type: AssertEventCount, Kind: "choice", Count: intp(3)}))
	assert.NoError(t, assertEventCount(trace, Assertion{Type: AssertEventCount, Kind: "abandon", Count: intp(0)}))

	err := assertEventCount(trace, Assertion{Type: AssertEventCount, Kind: "start", Count: intp(2)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 start entries")
	assert.Contains(t, err.Error(), "Full trace:")
}

func TestAssertChoiceOrder(t *testing.T) {
	trace := sampleTrace()
	tests := []struct {
		name    string
		choices []string
		wantErr string
	}{
		{"in order", []string{"a", "b"}, ""},
		{"single", []string{"b"}, ""},
		{"first occurrence counts", []string{"b", "a"}, "should be before"},
		{"missing", []string{"a", "c"}, "missing choice: c"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := assertChoiceOrder(trace, Assertion{Type: AssertChoiceOrder, Choices: tt.choices})
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestAssertDiagnostic(t *testing.T) {
	trace := sampleTrace()
	assert.NoError(t, assertDiagnostic(trace, Assertion{Type: AssertDiagnostic, Subject: "not in inventory"}))
	assert.Error(t, assertDiagnostic(trace, Assertion{Type: AssertDiagnostic, Subject: "aborted"}))
}

func TestEvaluateAssertions_StateNeedsContext(t *testing.T) {
	result := NewResult()
	errs := EvaluateAssertions(result, []Assertion{
		{Type: AssertFlag, Subject: "x"},
		{Type: AssertEventCount, Kind: "choice", Count: intp(0)},
	}, nil)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "requires a session context")
}

func TestAssertionError_Format(t *testing.T) {
	err := &AssertionError{Type: "reputation", Expected: "alliance = 10", Actual: "alliance = 0"}
	assert.Equal(t, "Assertion failed: reputation\n  Expected: alliance = 10\n  Actual: alliance = 0\n", err.Error())
}

func TestResult_AddError(t *testing.T) {
	r := NewResult()
	assert.True(t, r.Pass)
	r.AddError("boom")
	assert.False(t, r.Pass)
	assert.Equal(t, []string{"boom"}, r.Errors)
}
