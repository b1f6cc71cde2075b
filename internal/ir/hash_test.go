package ir

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEntry() EventLogEntry {
	return EventLogEntry{
		Seq:        3,
		SessionID:  "session-1",
		Kind:       EntryChoice,
		GraphID:    "quest_main_prologue",
		NodeID:     "quest_main_prologue_stage_1",
		ChoiceID:   "investigate_signal",
		OutcomeIDs: []string{"SetFlag:investigatedDistressSignal", "GrantExperience"},
	}
}

func TestEntryIDDeterminism(t *testing.T) {
	e := sampleEntry()
	id1, err := EntryID(e)
	require.NoError(t, err)
	id2, err := EntryID(e)
	require.NoError(t, err)

	assert.Equal(t, id1, id2)
	assert.Len(t, id1, 64)
	_, err = hex.DecodeString(id1)
	assert.NoError(t, err)
}

func TestEntryIDChangesWithInput(t *testing.T) {
	base := MustEntryID(sampleEntry())

	mutations := map[string]func(*EventLogEntry){
		"seq":      func(e *EventLogEntry) { e.Seq = 4 },
		"session":  func(e *EventLogEntry) { e.SessionID = "session-2" },
		"choice":   func(e *EventLogEntry) { e.ChoiceID = "ignore_signal" },
		"outcomes": func(e *EventLogEntry) { e.OutcomeIDs = e.OutcomeIDs[:1] },
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			e := sampleEntry()
			mutate(&e)
			assert.NotEqual(t, base, MustEntryID(e))
		})
	}
}

func TestEntryIDIgnoresDiagnostics(t *testing.T) {
	e := sampleEntry()
	base := MustEntryID(e)
	e.Diagnostics = []string{"GiveItem: inventory full"}
	assert.Equal(t, base, MustEntryID(e))
}

func TestDomainSeparation(t *testing.T) {
	data := []byte(`{"a":1}`)
	assert.NotEqual(t, hashWithDomain(DomainLedger, data), hashWithDomain(DomainContent, data))
	// "ab" + 0x00 + "c" must not collide with "a" + 0x00 + "bc".
	assert.NotEqual(t, hashWithDomain("ab", []byte("c")), hashWithDomain("a", []byte("bc")))
}

func TestContentHashOrderIndependent(t *testing.T) {
	a := Graph{ID: "a", Kind: GraphQuest, StartNodeID: "s", Nodes: map[string]Node{"s": {ID: "s", Body: "x"}}}
	b := Graph{ID: "b", Kind: GraphDialogue, StartNodeID: "t", Nodes: map[string]Node{"t": {ID: "t", Body: "y"}}}

	h1, err := ContentHash([]Graph{a, b})
	require.NoError(t, err)
	h2, err := ContentHash([]Graph{b, a})
	require.NoError(t, err)
	assert.Equal(t, h1, h2)

	b.Title = "changed"
	h3, err := ContentHash([]Graph{a, b})
	require.NoError(t, err)
	assert.NotEqual(t, h1, h3)
}

func TestLedgerHashKeyOrdering(t *testing.T) {
	h1, err := LedgerHash(IRObject{"flags": Strings([]string{"a"}), "reputation": IntMap(map[string]int64{"alliance": 5})})
	require.NoError(t, err)
	h2, err := LedgerHash(IRObject{"reputation": IntMap(map[string]int64{"alliance": 5}), "flags": Strings([]string{"a"})})
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
}
