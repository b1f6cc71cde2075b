package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/lodestar/internal/ir"
)

func TestFlagsIdempotent(t *testing.T) {
	l := New()

	assert.True(t, l.SetFlag("x"))
	assert.False(t, l.SetFlag("x"))
	assert.Equal(t, []string{"x"}, l.Flags())

	assert.True(t, l.ClearFlag("x"))
	assert.False(t, l.ClearFlag("x"))
	assert.Empty(t, l.Flags())
}

func TestReputationClamped(t *testing.T) {
	tests := []struct {
		name    string
		deltas  []int64
		want    int64
		applied int64
	}{
		{"single", []int64{10}, 10, 10},
		{"upper", []int64{90, 30}, 100, 10},
		{"lower", []int64{-150}, -100, -100},
		{"back from floor", []int64{-150, 20}, -80, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := New()
			var applied int64
			for _, d := range tt.deltas {
				applied = l.AdjustReputation(ir.FactionAlliance, d)
				v := l.Reputation(ir.FactionAlliance)
				require.GreaterOrEqual(t, v, ReputationMin)
				require.LessOrEqual(t, v, ReputationMax)
			}
			assert.Equal(t, tt.want, l.Reputation(ir.FactionAlliance))
			assert.Equal(t, tt.applied, applied)
		})
	}
}

func TestRelationshipClampedAndSeeded(t *testing.T) {
	l := New()

	_, ok := l.Relationship("nyx")
	assert.False(t, ok)

	assert.True(t, l.SeedRelationship("nyx"))
	assert.False(t, l.SeedRelationship("nyx"))
	v, ok := l.Relationship("nyx")
	require.True(t, ok)
	assert.Equal(t, RelationshipSeed, v)

	assert.Equal(t, int64(50), l.AdjustRelationship("nyx", 80))
	v, _ = l.Relationship("nyx")
	assert.Equal(t, RelationshipMax, v)

	l.AdjustRelationship("nyx", -500)
	v, _ = l.Relationship("nyx")
	assert.Equal(t, RelationshipMin, v)
}

func TestQuestStateDefaultsUnavailable(t *testing.T) {
	l := New()
	assert.Equal(t, ir.StateUnavailable, l.QuestState("quest_main_prologue"))

	l.SetQuestState("quest_main_prologue", ir.StateInProgress)
	assert.Equal(t, ir.StateInProgress, l.QuestState("quest_main_prologue"))
}

func TestEndingFirstWins(t *testing.T) {
	l := New()
	_, ended := l.Ending()
	assert.False(t, ended)

	assert.True(t, l.SetEnding("void_collapse"))
	assert.False(t, l.SetEnding("alliance_victory"))
	id, ended := l.Ending()
	assert.True(t, ended)
	assert.Equal(t, "void_collapse", id)
}

func populated() *Ledger {
	l := New()
	l.SetFlag("investigatedDistressSignal")
	l.AdjustReputation(ir.FactionAlliance, 10)
	l.AdjustReputation(ir.FactionSyndicate, -3)
	l.SetQuestState("quest_main_prologue", ir.StateInProgress)
	l.SeedRelationship("nyx")
	l.MarkUnlocked("quest_side_salvage")
	return l
}

func TestSnapshotRoundTrip(t *testing.T) {
	l := populated()

	restored, err := FromState(l.Snapshot())
	require.NoError(t, err)
	assert.True(t, l.Equal(restored))
	assert.Empty(t, l.Diff(restored))

	fp1, err := l.Fingerprint()
	require.NoError(t, err)
	fp2, err := restored.Fingerprint()
	require.NoError(t, err)
	assert.Equal(t, fp1, fp2)
}

func TestFromStateRejectsInvalid(t *testing.T) {
	_, err := FromState(State{Reputation: map[string]int64{"alliance": 101}})
	assert.Error(t, err)

	_, err = FromState(State{Relationship: map[string]int64{"nyx": -1}})
	assert.Error(t, err)

	_, err = FromState(State{QuestState: map[string]ir.LifecycleState{"q": "Paused"}})
	assert.Error(t, err)
}

func TestCloneIsIndependent(t *testing.T) {
	l := populated()
	c := l.Clone()
	c.SetFlag("other")

	assert.False(t, l.HasFlag("other"))
	assert.False(t, l.Equal(c))
	assert.NotEmpty(t, l.Diff(c))
}

func TestFingerprintDistinguishesZeroReputation(t *testing.T) {
	a := New()
	b := New()
	b.AdjustReputation(ir.FactionMystics, 5)
	b.AdjustReputation(ir.FactionMystics, -5)

	fa, err := a.Fingerprint()
	require.NoError(t, err)
	fb, err := b.Fingerprint()
	require.NoError(t, err)
	assert.NotEqual(t, fa, fb)
	assert.False(t, a.Equal(b))
}
