package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/lodestar/internal/ir"
)

func testEntry(seq int64) ir.EventLogEntry {
	e := ir.EventLogEntry{
		Seq:        seq,
		SessionID:  "session-test",
		Kind:       ir.EntryExternal,
		Source:     "test",
		OutcomeIDs: []string{"SetFlag:x"},
		Outcomes:   []ir.Outcome{{Kind: ir.OutcomeSetFlag, Subject: "x"}},
	}
	e.ID = ir.MustEntryID(e)
	return e
}

func TestEventLog_AppendAndQuery(t *testing.T) {
	log := NewEventLog()
	for _, seq := range []int64{1, 2, 5} {
		require.NoError(t, log.Append(testEntry(seq)))
	}

	assert.Equal(t, 3, log.Len())
	assert.Equal(t, int64(5), log.LastSeq())
	assert.Len(t, log.Query(0), 3)

	since := log.Query(2)
	require.Len(t, since, 1)
	assert.Equal(t, int64(5), since[0].Seq)
	assert.Empty(t, log.Query(5))
}

func TestEventLog_RejectsOutOfOrder(t *testing.T) {
	log := NewEventLog()
	require.NoError(t, log.Append(testEntry(2)))
	assert.Error(t, log.Append(testEntry(2)))
	assert.Error(t, log.Append(testEntry(1)))

	noID := testEntry(3)
	noID.ID = ""
	assert.Error(t, log.Append(noID))
}

func TestEventLog_QueryReturnsCopies(t *testing.T) {
	log := NewEventLog()
	require.NoError(t, log.Append(testEntry(1)))

	got := log.Query(0)
	got[0].OutcomeIDs[0] = "tampered"
	assert.Equal(t, "SetFlag:x", log.Query(0)[0].OutcomeIDs[0])
}

func TestRestoreEventLog_VerifiesIDs(t *testing.T) {
	entries := []ir.EventLogEntry{testEntry(1), testEntry(2)}
	log, err := restoreEventLog(entries)
	require.NoError(t, err)
	assert.Equal(t, 2, log.Len())

	entries[1].Source = "forged"
	_, err = restoreEventLog(entries)
	assert.ErrorContains(t, err, "id mismatch")
}
