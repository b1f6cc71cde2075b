package cli

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/lodestar/internal/testutil"
)

func TestReplay_MatchesSave(t *testing.T) {
	cfg := testConfig(t)
	boardDerelict(t, cfg)

	out := mustRun(t, cfg, "replay")
	assert.Contains(t, out, "✓ default: 3 entries replayed, ledger matches")
}

func TestReplay_AllSlotsJSON(t *testing.T) {
	cfg := testConfig(t)
	boardDerelict(t, cfg)
	mustRun(t, cfg, "new", "--slot", "second")
	mustRun(t, cfg, "start", testutil.PrologueID, "--slot", "second")

	var result ReplayResult
	resp := decode(t, mustRun(t, cfg, "replay", "--all", "--format", "json"), &result)
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, result.AllDeterministic)
	require.Equal(t, 2, result.TotalSlots)
	assert.Equal(t, "default", result.Slots[0].Slot)
	assert.Equal(t, 3, result.Slots[0].Entries)
	assert.Equal(t, "second", result.Slots[1].Slot)
	assert.Equal(t, 1, result.Slots[1].Entries)
	assert.NotEmpty(t, result.Slots[0].LedgerHash)
}

func TestReplay_DetectsTruncatedLog(t *testing.T) {
	cfg := testConfig(t)
	boardDerelict(t, cfg)

	db, err := sql.Open("sqlite3", cfg.DBPath)
	require.NoError(t, err)
	_, err = db.Exec(`DELETE FROM event_log WHERE slot = 'default' AND seq = 3`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	out, err := runCLI(t, cfg, "replay")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ default: replay diverged")
	assert.Contains(t, out, "quest_state")
}

func TestReplay_MissingSlot(t *testing.T) {
	_, err := runCLI(t, testConfig(t), "replay", "--slot", "ghost")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestReplay_NoSlots(t *testing.T) {
	out := mustRun(t, testConfig(t), "replay", "--all")
	assert.Contains(t, out, "No slots to replay.")
}
