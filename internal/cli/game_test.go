package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/lodestar/internal/config"
	"github.com/roach88/lodestar/internal/engine"
	"github.com/roach88/lodestar/internal/ir"
	"github.com/roach88/lodestar/internal/testutil"
)

// boardDerelict plays the prologue up to the station quest.
func boardDerelict(t *testing.T, cfg config.Config) {
	t.Helper()
	mustRun(t, cfg, "new", "--skill", "technical=2")
	mustRun(t, cfg, "start", testutil.PrologueID)
	mustRun(t, cfg, "choose", testutil.PrologueID, "investigate_signal")
	mustRun(t, cfg, "choose", testutil.PrologueID, "board_vessel")
}

func TestNew_ListsGraphs(t *testing.T) {
	cfg := testConfig(t)
	out := mustRun(t, cfg, "new", "--format", "json")

	var result NewGameResult
	resp := decode(t, out, &result)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "default", result.Slot)
	assert.NotEmpty(t, result.SessionID)
	assert.NotEmpty(t, result.ContentHash)

	states := map[string]ir.LifecycleState{}
	for _, g := range result.Graphs {
		states[g.ID] = g.State
	}
	assert.Equal(t, map[string]ir.LifecycleState{
		testutil.NyxDialogueID: ir.StateUnavailable,
		testutil.PrologueID:    ir.StateAvailable,
		testutil.StationID:     ir.StateUnavailable,
		testutil.SalvageID:     ir.StateUnavailable,
	}, states)
}

func TestStart_PresentsStartNode(t *testing.T) {
	cfg := testConfig(t)
	mustRun(t, cfg, "new")

	out := mustRun(t, cfg, "start", testutil.PrologueID, "--format", "json")
	var step StepResult
	decode(t, out, &step)

	assert.Equal(t, int64(1), step.Event.Seq)
	assert.Equal(t, "start", step.Event.Kind)
	assert.Equal(t, testutil.PrologueStage1, step.NodeID)
	require.NotNil(t, step.Node)
	assert.Equal(t, "Distress Signal", step.Node.Title)
	require.Len(t, step.Node.Legal, 2)
	assert.Equal(t, "investigate_signal", step.Node.Legal[0].ID)
	assert.Equal(t, "ignore_signal", step.Node.Legal[1].ID)
}

func TestChoose_ChainsIntoNextGraph(t *testing.T) {
	cfg := testConfig(t)
	mustRun(t, cfg, "new", "--skill", "technical=2")
	mustRun(t, cfg, "start", testutil.PrologueID)
	mustRun(t, cfg, "choose", testutil.PrologueID, "investigate_signal")

	out := mustRun(t, cfg, "choose", testutil.PrologueID, "board_vessel", "--format", "json")
	var step StepResult
	decode(t, out, &step)

	assert.Equal(t, int64(3), step.Event.Seq)
	assert.Equal(t, "board_vessel", step.Event.ChoiceID)
	assert.Equal(t, testutil.StationID, step.GraphID)
	assert.Equal(t, "station_arrival", step.NodeID)
	assert.Contains(t, step.Event.Transitions, "quest_main_prologue: InProgress -> Completed")
	require.NotNil(t, step.Node)
	assert.Equal(t, "Envoy Varga", step.Node.Speaker)
}

func TestChoose_TextOutput(t *testing.T) {
	cfg := testConfig(t)
	mustRun(t, cfg, "new")
	mustRun(t, cfg, "start", testutil.PrologueID)

	out := mustRun(t, cfg, "choose", testutil.PrologueID, "investigate_signal")
	assert.Contains(t, out, "[2] choice quest_main_prologue/investigate_signal")
	assert.Contains(t, out, "outcomes: SetFlag:investigatedDistressSignal, UnlockLocation:proxima_derelict, GrantExperience")
	assert.Contains(t, out, "== The Derelict Ship ==")
	assert.Contains(t, out, "1) Scan the hull from a safe distance [scan_hull]")
	assert.Contains(t, out, "x  Dock and board the vessel [board_vessel]")
}

func TestChoose_IllegalChoiceChangesNothing(t *testing.T) {
	cfg := testConfig(t)
	mustRun(t, cfg, "new", "--skill", "technical=1")
	mustRun(t, cfg, "start", testutil.PrologueID)
	mustRun(t, cfg, "choose", testutil.PrologueID, "investigate_signal")

	out, err := runCLI(t, cfg, "choose", testutil.PrologueID, "board_vessel", "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	resp := decode(t, out, nil)
	require.NotNil(t, resp.Error)
	assert.Equal(t, string(engine.ErrCodeIllegalChoice), resp.Error.Code)

	var trace TraceResult
	decode(t, mustRun(t, cfg, "trace", "--format", "json"), &trace)
	assert.Equal(t, 2, trace.Stats.TotalEvents)
}

func TestStart_WithoutGame(t *testing.T) {
	out, err := runCLI(t, testConfig(t), "start", testutil.PrologueID)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, `no game in slot "default"`)
}

func TestStart_UnknownGraph(t *testing.T) {
	cfg := testConfig(t)
	mustRun(t, cfg, "new")

	out, err := runCLI(t, cfg, "start", "quest_nowhere")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "UNKNOWN_GRAPH")
}

func TestShow_Statuses(t *testing.T) {
	cfg := testConfig(t)
	boardDerelict(t, cfg)

	var result ShowResult
	decode(t, mustRun(t, cfg, "show", "--format", "json"), &result)

	assert.Equal(t, int64(3), result.Seq)
	assert.Empty(t, result.Ending)
	assert.Equal(t, int64(150), result.World.Experience)
	assert.Equal(t, int64(1), result.World.Items["derelict_core"])

	byID := map[string]engine.GraphStatus{}
	for _, g := range result.Graphs {
		byID[g.ID] = g
	}
	assert.Equal(t, ir.StateCompleted, byID[testutil.PrologueID].State)
	assert.Equal(t, ir.StateInProgress, byID[testutil.StationID].State)
	assert.Equal(t, "station_arrival", byID[testutil.StationID].ActiveNode)
	assert.Equal(t, ir.StateAvailable, byID[testutil.SalvageID].State)
}

func TestShow_Graph(t *testing.T) {
	cfg := testConfig(t)
	boardDerelict(t, cfg)

	out := mustRun(t, cfg, "show", testutil.StationID, "--format", "json")
	var p engine.Presentable
	decode(t, out, &p)

	assert.Equal(t, "station_arrival", p.NodeID)
	var legal []string
	for _, c := range p.Legal {
		legal = append(legal, c.ID)
	}
	assert.Equal(t, []string{"report_alliance", "open_the_rift"}, legal)
	require.Len(t, p.Blocked, 1)
	assert.Equal(t, "deal_syndicate", p.Blocked[0].ID)
	assert.NotEmpty(t, p.Blocked[0].Reasons)
}

func TestShow_GraphNotInProgress(t *testing.T) {
	cfg := testConfig(t)
	mustRun(t, cfg, "new")

	out, err := runCLI(t, cfg, "show", testutil.StationID)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "NOT_IN_PROGRESS")
}

func TestEnding_EndsSession(t *testing.T) {
	cfg := testConfig(t)
	boardDerelict(t, cfg)

	out := mustRun(t, cfg, "choose", testutil.StationID, "open_the_rift", "--format", "json")
	var step StepResult
	decode(t, out, &step)
	require.NotNil(t, step.Ending)
	assert.Equal(t, "ending_void_consumes", step.Ending.ID)
	assert.True(t, step.Ending.Failed)
	assert.Nil(t, step.Node)

	var show ShowResult
	decode(t, mustRun(t, cfg, "show", "--format", "json"), &show)
	assert.Equal(t, "ending_void_consumes", show.Ending)

	out, err := runCLI(t, cfg, "start", testutil.SalvageID, "--format", "json")
	require.Error(t, err)
	resp := decode(t, out, nil)
	require.NotNil(t, resp.Error)
	assert.Equal(t, string(engine.ErrCodeSessionEnded), resp.Error.Code)
}

func TestAbandon_FailsGraph(t *testing.T) {
	cfg := testConfig(t)
	mustRun(t, cfg, "new")
	mustRun(t, cfg, "start", testutil.PrologueID)

	out := mustRun(t, cfg, "abandon", testutil.PrologueID, "--format", "json")
	var step StepResult
	decode(t, out, &step)
	assert.Equal(t, "abandon", step.Event.Kind)
	assert.Equal(t, []string{"quest_main_prologue: InProgress -> Failed"}, step.Event.Transitions)
	assert.Nil(t, step.Node)

	_, err := runCLI(t, cfg, "start", testutil.PrologueID)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestAbandon_AvailableGraph(t *testing.T) {
	cfg := testConfig(t)
	mustRun(t, cfg, "new")

	out := mustRun(t, cfg, "abandon", testutil.PrologueID, "--format", "json")
	var step StepResult
	decode(t, out, &step)
	assert.Contains(t, step.Event.Transitions, "quest_main_prologue: Available -> Failed")

	help := mustRun(t, cfg, "abandon", "--help")
	assert.Contains(t, help, "available or in-progress")
}

func TestExternal_AppliesOutcomes(t *testing.T) {
	cfg := testConfig(t)
	mustRun(t, cfg, "new")

	out := mustRun(t, cfg, "external", "combat",
		"--outcome", "GrantExperience::40",
		"--outcome", "SetFlag:wonAmbush",
		"--outcome", "ReputationDelta:alliance:5",
		"--format", "json")
	var step StepResult
	decode(t, out, &step)
	assert.Equal(t, "external", step.Event.Kind)
	assert.Equal(t, "combat", step.Event.Source)
	assert.Equal(t, []string{"GrantExperience", "SetFlag:wonAmbush", "ReputationDelta:alliance"}, step.Event.Outcomes)

	var show ShowResult
	decode(t, mustRun(t, cfg, "show", "--format", "json"), &show)
	assert.Equal(t, int64(40), show.World.Experience)
}

func TestExternal_BadOutcomes(t *testing.T) {
	cfg := testConfig(t)
	mustRun(t, cfg, "new")

	_, err := runCLI(t, cfg, "external", "combat", "--outcome", "GrantExperience::lots")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	out, err := runCLI(t, cfg, "external", "combat", "--outcome", "Teleport:mars")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, string(engine.ErrCodeContent))
}

func TestParseOutcomes(t *testing.T) {
	outs, err := parseOutcomes([]string{"GrantExperience::40", "SetFlag:x", "GiveItem:core:2", "ClearFlag:y:"})
	require.NoError(t, err)
	assert.Equal(t, []ir.Outcome{
		{Kind: ir.OutcomeGrantExperience, Amount: 40},
		{Kind: ir.OutcomeSetFlag, Subject: "x"},
		{Kind: ir.OutcomeGiveItem, Subject: "core", Amount: 2},
		{Kind: ir.OutcomeClearFlag, Subject: "y"},
	}, outs)
}

func TestNew_ReplacesSlotHistory(t *testing.T) {
	cfg := testConfig(t)
	boardDerelict(t, cfg)
	mustRun(t, cfg, "new")

	var trace TraceResult
	decode(t, mustRun(t, cfg, "trace", "--format", "json"), &trace)
	assert.Empty(t, trace.Timeline)
}

func TestSlots_SeparateGames(t *testing.T) {
	cfg := testConfig(t)
	mustRun(t, cfg, "new")
	mustRun(t, cfg, "start", testutil.PrologueID)
	mustRun(t, cfg, "new", "--slot", "alt")

	var result SlotsResult
	decode(t, mustRun(t, cfg, "slots", "--format", "json"), &result)
	require.Len(t, result.Slots, 2)
	assert.Equal(t, "alt", result.Slots[0].Name)
	assert.Equal(t, 0, result.Slots[0].Entries)
	assert.Equal(t, "default", result.Slots[1].Name)
	assert.Equal(t, 1, result.Slots[1].Entries)

	mustRun(t, cfg, "slots", "delete", "alt")
	decode(t, mustRun(t, cfg, "slots", "--format", "json"), &result)
	require.Len(t, result.Slots, 1)

	_, err := runCLI(t, cfg, "slots", "delete", "alt")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestMetricsFile(t *testing.T) {
	cfg := testConfig(t)
	cfg.MetricsFile = filepath.Join(t.TempDir(), "lodestar.prom")
	mustRun(t, cfg, "new")
	mustRun(t, cfg, "start", testutil.PrologueID)
	mustRun(t, cfg, "choose", testutil.PrologueID, "investigate_signal")

	data, err := os.ReadFile(cfg.MetricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "lodestar_choices_resolved_total 1")
	assert.Contains(t, string(data), `lodestar_events_appended_total{kind="choice"} 1`)
}
