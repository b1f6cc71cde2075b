package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/lodestar/internal/collab"
	"github.com/roach88/lodestar/internal/ir"
	"github.com/roach88/lodestar/internal/ledger"
)

func TestEvaluate_Kinds(t *testing.T) {
	l := ledger.New()
	l.SetFlag("investigatedDistressSignal")
	l.AdjustReputation(ir.FactionAlliance, 20)
	l.SetQuestState("quest_main_prologue", ir.StateCompleted)
	l.SeedRelationship("nyx")

	w := collab.NewWorld()
	defer w.Close()
	w.GiveItem("derelict_core", 1)
	w.SetSkill("technical", 2)
	w.Visit("proxima_derelict")

	tests := []struct {
		name string
		req  ir.Requirement
		want bool
	}{
		{"item held", ir.Requirement{Kind: ir.RequireItem, Subject: "derelict_core"}, true},
		{"item missing", ir.Requirement{Kind: ir.RequireItem, Subject: "keycard"}, false},
		{"skill at least", ir.Requirement{Kind: ir.RequireSkillLevel, Subject: "technical", Value: 2}, true},
		{"skill too low", ir.Requirement{Kind: ir.RequireSkillLevel, Subject: "technical", Value: 3}, false},
		{"skill at most", ir.Requirement{Kind: ir.RequireSkillLevel, Subject: "technical", Comparator: ir.CompareAtMost, Value: 1}, false},
		{"faction equal", ir.Requirement{Kind: ir.RequireFactionLevel, Subject: ir.FactionAlliance, Comparator: ir.CompareEqual, Value: 20}, true},
		{"unknown faction is zero", ir.Requirement{Kind: ir.RequireFactionLevel, Subject: ir.FactionMystics, Comparator: ir.CompareAtMost, Value: 0}, true},
		{"flag set", ir.Requirement{Kind: ir.RequireFlag, Subject: "investigatedDistressSignal"}, true},
		{"flag unset", ir.Requirement{Kind: ir.RequireFlag, Subject: "metNyx"}, false},
		{"visited", ir.Requirement{Kind: ir.RequireLocationVisited, Subject: "proxima_derelict"}, true},
		{"not visited", ir.Requirement{Kind: ir.RequireLocationVisited, Subject: "kepler_station"}, false},
		{"at location", ir.Requirement{Kind: ir.RequireAtLocation, Subject: "proxima_derelict"}, true},
		{"elsewhere", ir.Requirement{Kind: ir.RequireAtLocation, Subject: "kepler_station"}, false},
		{"quest completed", ir.Requirement{Kind: ir.RequireQuestCompleted, Subject: "quest_main_prologue"}, true},
		{"quest not completed", ir.Requirement{Kind: ir.RequireQuestCompleted, Subject: "quest_main_station"}, false},
		{"relationship", ir.Requirement{Kind: ir.RequireRelationship, Subject: "nyx", Value: 50}, true},
		{"unknown kind", ir.Requirement{Kind: "Telepathy", Subject: "x"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(tt.req, l, w))
			// pure: a second evaluation agrees
			assert.Equal(t, tt.want, Evaluate(tt.req, l, w))
		})
	}
}

func TestEvaluateAll_Conjunction(t *testing.T) {
	l := ledger.New()
	w := collab.NewWorld()
	defer w.Close()
	w.SetSkill("technical", 1)

	ok, reasons := EvaluateAll(nil, l, w)
	assert.True(t, ok, "empty list is vacuously true")
	assert.Empty(t, reasons)

	ok, reasons = EvaluateAll([]ir.Requirement{
		{Kind: ir.RequireSkillLevel, Subject: "technical", Value: 2},
		{Kind: ir.RequireFlag, Subject: "investigatedDistressSignal"},
	}, l, w)
	assert.False(t, ok)
	assert.Equal(t, []string{
		"requires skill technical >= 2 (have 1)",
		"requires investigatedDistressSignal",
	}, reasons)
}

func TestChoiceLegal_LocationConstraint(t *testing.T) {
	l := ledger.New()
	w := collab.NewWorld()
	defer w.Close()

	node := ir.Node{ID: "dock", LocationConstraint: "kepler_station"}
	choice := ir.Choice{ID: "trade", Requirements: []ir.Requirement{{Kind: ir.RequireItem, Subject: "credits"}}}

	ok, reasons := choiceLegal(node, choice, l, w)
	assert.False(t, ok)
	assert.Equal(t, []string{"must be at kepler_station", "requires item credits"}, reasons)

	w.Visit("kepler_station")
	w.GiveItem("credits", 1)
	ok, reasons = choiceLegal(node, choice, l, w)
	assert.True(t, ok)
	assert.Empty(t, reasons)
}
