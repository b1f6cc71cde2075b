package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/lodestar/internal/ir"
)

// chainGraph builds a one-node graph whose choices chain into targets.
func chainGraph(id string, targets ...string) ir.Graph {
	var choices []ir.Choice
	for _, t := range targets {
		choices = append(choices, ir.Choice{ID: "to_" + t, Text: t, Next: ir.ToGraph(t)})
	}
	if len(choices) == 0 {
		choices = []ir.Choice{{ID: "end", Text: "End"}}
	}
	return ir.Graph{
		ID:          id,
		Kind:        ir.GraphQuest,
		StartNodeID: "n",
		Nodes:       map[string]ir.Node{"n": {ID: "n", Body: id, Choices: choices}},
	}
}

func TestAnalyzeChains_Empty(t *testing.T) {
	assert.Empty(t, AnalyzeChains(nil))
}

func TestAnalyzeChains_Acyclic(t *testing.T) {
	graphs := []ir.Graph{
		chainGraph("prologue", "act1"),
		chainGraph("act1", "act2", "epilogue"),
		chainGraph("act2", "epilogue"),
		chainGraph("epilogue"),
	}
	assert.Empty(t, AnalyzeChains(graphs))
}

func TestAnalyzeChains_SelfLoop(t *testing.T) {
	cycles := AnalyzeChains([]ir.Graph{chainGraph("patrol", "patrol")})
	require.Len(t, cycles, 1)
	assert.Equal(t, []string{"patrol", "patrol"}, cycles[0].Path)
	assert.Equal(t, "info", cycles[0].Level)
}

func TestAnalyzeChains_Loop(t *testing.T) {
	graphs := []ir.Graph{
		chainGraph("c", "a"),
		chainGraph("a", "b"),
		chainGraph("b", "c"),
		chainGraph("side"),
	}
	cycles := AnalyzeChains(graphs)
	require.Len(t, cycles, 1)
	assert.Equal(t, []string{"a", "b", "c", "a"}, cycles[0].Path)
	assert.Equal(t, "graph chain cycle: a → b → c → a", cycles[0].Message)
}

func TestAnalyzeChains_Deterministic(t *testing.T) {
	graphs := []ir.Graph{
		chainGraph("x", "y"),
		chainGraph("y", "x"),
		chainGraph("m", "n"),
		chainGraph("n", "m"),
	}
	first := AnalyzeChains(graphs)
	for range 10 {
		assert.Equal(t, first, AnalyzeChains(graphs))
	}
	require.Len(t, first, 2)
	assert.Equal(t, "m", first[0].Path[0])
	assert.Equal(t, "x", first[1].Path[0])
}
