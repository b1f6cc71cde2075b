package engine

import (
	"github.com/roach88/lodestar/internal/ir"
	"github.com/roach88/lodestar/internal/ledger"
)

// Snapshot is the serializable engine state: ledger, active nodes and the
// full event log. Graph lifecycle states travel inside the ledger's quest
// state map.
type Snapshot struct {
	Version     string             `json:"version"`
	SessionID   string             `json:"session_id"`
	Seq         int64              `json:"seq"`
	ContentHash string             `json:"content_hash"`
	Ledger      ledger.State       `json:"ledger"`
	ActiveNodes map[string]string  `json:"active_nodes"`
	Log         []ir.EventLogEntry `json:"log"`
}

// Serialize captures the engine state.
func (e *Engine) Serialize() Snapshot {
	active := make(map[string]string)
	for id, inst := range e.instances {
		if inst.active != "" {
			active[id] = inst.active
		}
	}
	return Snapshot{
		Version:     ir.SchemaVersion,
		SessionID:   e.sessionID,
		Seq:         e.clock.Current(),
		ContentHash: e.contentHash,
		Ledger:      e.ledger.Snapshot(),
		ActiveNodes: active,
		Log:         e.log.Query(0),
	}
}

// Restore replaces the engine state with s. Content must already be
// registered. Nothing changes unless the whole snapshot is consistent:
// every graph it mentions is registered, every InProgress graph has an
// active node that exists, and no other graph has one.
//
// A content hash mismatch is logged, not rejected: saves survive content
// edits as long as the ids they reference still exist.
func (e *Engine) Restore(s Snapshot) error {
	if s.Version != ir.SchemaVersion {
		return newError(ErrCodeContent, "", "snapshot version %q, want %q", s.Version, ir.SchemaVersion)
	}
	l, err := ledger.FromState(s.Ledger)
	if err != nil {
		return &RuntimeError{Code: ErrCodeContent, Message: "invalid ledger", Err: err}
	}
	for id := range s.Ledger.QuestState {
		if _, ok := e.graphs[id]; !ok {
			return newError(ErrCodeContent, id, "snapshot references unknown graph")
		}
	}

	instances := make(map[string]*instance, len(e.order))
	for _, id := range e.order {
		inst := &instance{state: l.QuestState(id), active: s.ActiveNodes[id]}
		switch {
		case inst.state == ir.StateInProgress && inst.active == "":
			return newError(ErrCodeContent, id, "in progress without an active node")
		case inst.state != ir.StateInProgress && inst.active != "":
			return newError(ErrCodeContent, id, "active node set on %s graph", inst.state)
		case inst.active != "":
			if _, ok := e.graphs[id].Nodes[inst.active]; !ok {
				return newError(ErrCodeContent, id, "unknown active node %q", inst.active)
			}
		}
		instances[id] = inst
	}
	for id := range s.ActiveNodes {
		if _, ok := e.graphs[id]; !ok {
			return newError(ErrCodeContent, id, "snapshot references unknown graph")
		}
	}

	log, err := restoreEventLog(s.Log)
	if err != nil {
		return &RuntimeError{Code: ErrCodeContent, Message: "invalid event log", Err: err}
	}
	if s.Seq < log.LastSeq() {
		return newError(ErrCodeContent, "", "snapshot seq %d behind log seq %d", s.Seq, log.LastSeq())
	}

	if s.ContentHash != e.contentHash {
		e.logger.Warn("snapshot content hash differs from registered content",
			"snapshot", s.ContentHash,
			"registered", e.contentHash)
	}

	e.ledger = l
	e.instances = instances
	e.log = log
	e.clock = NewClockAt(s.Seq)
	e.sessionID = s.SessionID
	e.logger.Info("snapshot restored",
		"session_id", s.SessionID,
		"seq", s.Seq,
		"entries", log.Len(),
		"in_progress", len(s.ActiveNodes))
	return nil
}
