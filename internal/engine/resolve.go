package engine

import (
	"fmt"

	"github.com/roach88/lodestar/internal/ir"
)

// resolution accumulates one accepted call: outcomes, transitions and
// diagnostics all land on a single entry that is appended by commit.
type resolution struct {
	e      *Engine
	entry  ir.EventLogEntry
	ending *Ending

	graphID string
	nodeID  string
}

func (e *Engine) begin(kind ir.EntryKind, graphID string) *resolution {
	return &resolution{
		e: e,
		entry: ir.EventLogEntry{
			Seq:       e.clock.Next(),
			SessionID: e.sessionID,
			Kind:      kind,
			GraphID:   graphID,
		},
	}
}

func (r *resolution) focus(graphID, nodeID string) {
	r.graphID, r.nodeID = graphID, nodeID
}

// apply dispatches outcomes owned by graphID. A failed ending also fails
// graphID if it is still in progress.
func (r *resolution) apply(graphID string, outs []ir.Outcome) {
	if len(outs) == 0 {
		return
	}
	end := r.e.dispatch.Apply(&r.entry, graphID, outs, r.e.ledger, r.e.host, r)
	if end == nil || r.ending != nil {
		return
	}
	r.ending = end
	if end.Failed && graphID != "" && r.e.instances[graphID].state == ir.StateInProgress {
		r.transition(graphID, ir.StateFailed)
	}
}

// halted reports whether graphID can no longer advance: an ending fired or
// an outcome failed the graph.
func (r *resolution) halted(graphID string) bool {
	if r.ending != nil {
		return true
	}
	if r.e.instances[graphID].state != ir.StateInProgress {
		r.focus("", "")
		return true
	}
	return false
}

func (r *resolution) transition(graphID string, to ir.LifecycleState) {
	inst := r.e.instances[graphID]
	from := inst.state
	if from == to {
		return
	}
	inst.state = to
	if to != ir.StateInProgress {
		inst.active = ""
		if r.graphID == graphID {
			r.focus("", "")
		}
	}
	r.e.ledger.SetQuestState(graphID, to)
	r.entry.Transitions = append(r.entry.Transitions, ir.Transition{GraphID: graphID, From: from, To: to})
	r.e.metrics.Transition(string(to))
	r.e.logger.Debug("graph transition",
		"seq", r.entry.Seq,
		"graph_id", graphID,
		"from", from,
		"to", to)
}

// refresh promotes every Unavailable graph whose gate now holds.
func (r *resolution) refresh() {
	for _, id := range r.e.order {
		if r.e.instances[id].state == ir.StateUnavailable && r.e.offerable(r.e.graphs[id]) {
			r.transition(id, ir.StateAvailable)
		}
	}
}

// enter starts an Available graph at its start node.
func (r *resolution) enter(graphID string) {
	g := r.e.graphs[graphID]
	r.transition(graphID, ir.StateInProgress)
	r.moveTo(graphID, g.StartNodeID)
}

// moveTo activates a node and fires its entry outcomes.
func (r *resolution) moveTo(graphID, nodeID string) {
	r.e.instances[graphID].active = nodeID
	r.focus(graphID, nodeID)
	r.entry.NextNodeID = nodeID
	r.apply(graphID, r.e.graphs[graphID].Nodes[nodeID].EntryOutcomes)
}

// complete finishes a graph and fires its completion outcomes.
func (r *resolution) complete(graphID string) {
	r.transition(graphID, ir.StateCompleted)
	r.apply(graphID, r.e.graphs[graphID].CompletionOutcomes)
}

// chain continues from a completed graph into target. If target is not
// Available the chain stops with a diagnostic; from stays Completed.
func (r *resolution) chain(from, target string) {
	r.refresh()
	if state := r.e.instances[target].state; state != ir.StateAvailable {
		msg := fmt.Sprintf("chain %s -> %s aborted: target is %s", from, target, state)
		r.entry.Diagnostics = append(r.entry.Diagnostics, msg)
		r.e.metrics.ChainError()
		r.e.logger.Error("graph chain aborted",
			"seq", r.entry.Seq,
			"from", from,
			"to", target,
			"state", state)
		return
	}
	r.enter(target)
}

// unlockGraph implements graphEffects. Unknown ids leave no marker.
func (r *resolution) unlockGraph(graphID string) string {
	g, ok := r.e.graphs[graphID]
	if !ok {
		return noteUnknownGraph
	}
	r.e.ledger.MarkUnlocked(graphID)
	if r.e.instances[graphID].state == ir.StateUnavailable && r.e.offerable(g) {
		r.transition(graphID, ir.StateAvailable)
	}
	return ""
}

// failGraph implements graphEffects. Any non-terminal graph can fail.
func (r *resolution) failGraph(graphID string) string {
	if _, ok := r.e.graphs[graphID]; !ok {
		return noteUnknownGraph
	}
	if state := r.e.instances[graphID].state; state.Terminal() {
		return fmt.Sprintf("graph already %s", state)
	}
	r.transition(graphID, ir.StateFailed)
	return ""
}

// commit appends the entry and reports the step.
func (r *resolution) commit() (*Step, error) {
	e := r.e
	r.refresh()

	r.entry.ContentHash = e.contentHash
	id, err := ir.EntryID(r.entry)
	if err != nil {
		return nil, fmt.Errorf("entry id: %w", err)
	}
	r.entry.ID = id
	if err := e.log.Append(r.entry); err != nil {
		return nil, fmt.Errorf("append entry: %w", err)
	}

	e.metrics.EventAppended(string(r.entry.Kind))
	if r.entry.Kind == ir.EntryChoice {
		e.metrics.ChoiceResolved()
	}
	e.logger.Info("event appended",
		"seq", r.entry.Seq,
		"kind", r.entry.Kind,
		"graph_id", r.entry.GraphID,
		"choice_id", r.entry.ChoiceID,
		"outcomes", len(r.entry.Outcomes),
		"transitions", len(r.entry.Transitions),
		"diagnostics", len(r.entry.Diagnostics))

	return &Step{
		Entry:   cloneEntry(r.entry),
		GraphID: r.graphID,
		NodeID:  r.nodeID,
		Ending:  r.ending,
	}, nil
}
