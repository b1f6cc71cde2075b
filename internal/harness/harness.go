package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/lodestar/internal/collab"
	"github.com/roach88/lodestar/internal/compiler"
	"github.com/roach88/lodestar/internal/engine"
	"github.com/roach88/lodestar/internal/ir"
	"github.com/roach88/lodestar/internal/store"
	"github.com/roach88/lodestar/internal/testutil"
)

// saveSlot is the slot name save_restore steps write to.
const saveSlot = "harness"

// Harness runs one scenario against a real engine.
type Harness struct {
	store    *store.Store
	engine   *engine.Engine
	world    *collab.World
	graphs   []ir.Graph
	sessions *testutil.FixedSessionGenerator
	logger   *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each run gets a fresh in-memory save store and a fresh world. A
// non-nil error means the scenario could not run at all (bad content,
// a broken save round trip); failed expectations and assertions are
// reported on the Result instead.
func Run(scenario *Scenario) (*Result, error) {
	graphs, err := loadContent(scenario.Content)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		store:    st,
		graphs:   graphs,
		sessions: testutil.NewFixedSessionGenerator(scenario.Session),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	world := collab.NewWorld()
	applyHost(world, scenario.Setup)
	eng, err := h.newEngine(world)
	if err != nil {
		return nil, err
	}
	h.engine, h.world = eng, world
	defer func() { h.world.Close() }()

	ctx := context.Background()
	result := NewResult()
	for i, step := range scenario.Steps {
		if err := h.execute(ctx, i, step, result); err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i, step.action(), err)
		}
	}

	result.Log = h.engine.History(0)
	for _, e := range result.Log {
		result.Trace = append(result.Trace, NewTraceEvent(e))
	}
	result.SessionID = h.engine.SessionID()
	result.Ledger = h.engine.LedgerState()
	result.World = h.world.State()

	actx := &AssertionContext{Engine: h.engine, World: h.world}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}
	return result, nil
}

// loadContent compiles every content directory into one graph batch.
func loadContent(dirs []string) ([]ir.Graph, error) {
	var graphs []ir.Graph
	for _, dir := range dirs {
		content, errs := compiler.LoadDir(dir, compiler.LoadModeCollectAll)
		if len(errs) > 0 {
			return nil, fmt.Errorf("load content %s: %w", dir, errors.Join(errs...))
		}
		graphs = append(graphs, content.Graphs...)
	}
	return graphs, nil
}

func (h *Harness) newEngine(world *collab.World) (*engine.Engine, error) {
	eng := engine.New(world,
		engine.WithLogger(h.logger),
		engine.WithSessionGenerator(h.sessions))
	if err := eng.Register(h.graphs); err != nil {
		return nil, fmt.Errorf("register content: %w", err)
	}
	return eng, nil
}

func applyHost(w *collab.World, s *HostSetup) {
	if s == nil {
		return
	}
	for skill, level := range s.Skills {
		w.SetSkill(skill, level)
	}
	for item, qty := range s.Items {
		w.GiveItem(item, qty)
	}
	for _, loc := range s.Visited {
		w.Visit(loc)
	}
	if s.Location != "" {
		w.Visit(s.Location)
	}
	if s.Experience > 0 {
		w.GrantExperience(s.Experience)
	}
}

// execute runs one step and checks its expectation.
func (h *Harness) execute(ctx context.Context, i int, s Step, result *Result) error {
	var (
		step *engine.Step
		err  error
	)
	switch {
	case s.Start != "":
		step, err = h.engine.Start(s.Start)
	case s.Choose != nil:
		step, err = h.engine.Choose(s.Choose.Graph, s.Choose.Choice)
	case s.External != nil:
		step, err = h.engine.ApplyExternal(s.External.Source, s.External.Outcomes)
	case s.Abandon != "":
		step, err = h.engine.Abandon(s.Abandon)
	case s.SaveRestore:
		return h.saveRestore(ctx)
	case s.Host != nil:
		applyHost(h.world, s.Host)
		return nil
	}

	prefix := fmt.Sprintf("steps[%d] %s", i, s.action())
	if s.Expect != nil && s.Expect.Error != "" {
		switch code := engine.CodeOf(err); {
		case err == nil:
			result.AddError(fmt.Sprintf("%s: expected %s, got success", prefix, s.Expect.Error))
		case string(code) != s.Expect.Error:
			result.AddError(fmt.Sprintf("%s: expected %s, got %v", prefix, s.Expect.Error, err))
		}
		return nil
	}
	if err != nil {
		result.AddError(fmt.Sprintf("%s: %v", prefix, err))
		return nil
	}

	h.logger.Info("step resolved",
		"step", i,
		"action", s.action(),
		"seq", step.Entry.Seq,
		"graph_id", step.GraphID,
		"node_id", step.NodeID)

	if e := s.Expect; e != nil {
		if e.Graph != "" && e.Graph != step.GraphID {
			result.AddError(fmt.Sprintf("%s: expected graph %s, got %q", prefix, e.Graph, step.GraphID))
		}
		if e.Node != "" && e.Node != step.NodeID {
			result.AddError(fmt.Sprintf("%s: expected node %s, got %q", prefix, e.Node, step.NodeID))
		}
		if e.Ending != "" && (step.Ending == nil || step.Ending.ID != e.Ending) {
			result.AddError(fmt.Sprintf("%s: expected ending %s, got %v", prefix, e.Ending, step.Ending))
		}
	}
	return nil
}

// saveRestore writes the session to the store, reads it back and swaps in
// a fresh engine and world restored from the loaded save.
func (h *Harness) saveRestore(ctx context.Context) error {
	save := store.Save{Snapshot: h.engine.Serialize(), World: h.world.State()}
	if err := h.store.SaveSlot(ctx, saveSlot, save); err != nil {
		return err
	}
	loaded, err := h.store.LoadSlot(ctx, saveSlot)
	if err != nil {
		return err
	}

	world := collab.WorldFromState(loaded.World)
	eng, err := h.newEngine(world)
	if err != nil {
		world.Close()
		return err
	}
	if err := eng.Restore(loaded.Snapshot); err != nil {
		world.Close()
		return fmt.Errorf("restore: %w", err)
	}
	h.world.Close()
	h.engine, h.world = eng, world
	h.logger.Info("session restored", "seq", loaded.Snapshot.Seq)
	return nil
}
