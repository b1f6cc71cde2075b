package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gopkg.in/yaml.v3"
)

func TestRequirementOpDefaultsToAtLeast(t *testing.T) {
	assert.Equal(t, CompareAtLeast, Requirement{Kind: RequireSkillLevel}.Op())
	assert.Equal(t, CompareEqual, Requirement{Kind: RequireSkillLevel, Comparator: CompareEqual}.Op())
}

func TestRequirementString(t *testing.T) {
	assert.Equal(t, "SkillLevel technical >= 2",
		Requirement{Kind: RequireSkillLevel, Subject: "technical", Value: 2}.String())
	assert.Equal(t, "Flag investigatedDistressSignal",
		Requirement{Kind: RequireFlag, Subject: "investigatedDistressSignal"}.String())
}

func TestOutcomeRefAndQuantity(t *testing.T) {
	assert.Equal(t, "GrantExperience", Outcome{Kind: OutcomeGrantExperience, Amount: 50}.Ref())
	assert.Equal(t, "GiveItem:medkit", Outcome{Kind: OutcomeGiveItem, Subject: "medkit"}.Ref())
	assert.Equal(t, int64(1), Outcome{Kind: OutcomeGiveItem}.Quantity())
	assert.Equal(t, int64(3), Outcome{Kind: OutcomeGiveItem, Amount: 3}.Quantity())
}

func TestNextRef(t *testing.T) {
	assert.True(t, NextRef{}.IsEnd())
	assert.True(t, ToNode("n2").IsNode())
	assert.True(t, ToGraph("g2").IsGraph())
	assert.False(t, ToGraph("g2").IsEnd())
}

func TestLifecycleTerminal(t *testing.T) {
	for state := range ValidLifecycleStates {
		want := state == StateCompleted || state == StateFailed
		assert.Equal(t, want, state.Terminal(), string(state))
	}
}

func TestNodeIDsSorted(t *testing.T) {
	g := Graph{Nodes: map[string]Node{"c": {}, "a": {}, "b": {}}}
	assert.Equal(t, []string{"a", "b", "c"}, g.NodeIDs())
}

func TestOutcomeYAML(t *testing.T) {
	var o Outcome
	err := yaml.Unmarshal([]byte("kind: TriggerEnding\nsubject: void_collapse\nfailed: true\n"), &o)
	assert.NoError(t, err)
	assert.Equal(t, Outcome{Kind: OutcomeTriggerEnding, Subject: "void_collapse", Failed: true}, o)
}
