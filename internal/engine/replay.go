package engine

import (
	"fmt"
	"log/slog"

	"github.com/roach88/lodestar/internal/collab"
	"github.com/roach88/lodestar/internal/ir"
	"github.com/roach88/lodestar/internal/ledger"
)

// Replay rebuilds a ledger by re-applying logged entries, oldest first,
// to an empty ledger.
//
// Each entry's authored outcomes go back through the dispatcher, so
// derived effects such as reputation coupling and clamping are recomputed
// rather than read from the log. Lifecycle changes are taken from the
// recorded transitions; every transition's From must match the replayed
// state or the log is rejected.
//
// Collaborator calls land on a throwaway World. Only the ledger is
// reproduced: inventory and experience belong to the host.
func Replay(entries []ir.EventLogEntry) (*ledger.Ledger, error) {
	l := ledger.New()
	d := NewDispatcher(slog.New(slog.DiscardHandler), nil)
	scratch := collab.NewWorld()
	defer scratch.Close()

	var last int64
	for _, e := range entries {
		if e.Seq <= last {
			return nil, fmt.Errorf("replay: seq %d not after %d", e.Seq, last)
		}
		last = e.Seq

		tmp := ir.EventLogEntry{Seq: e.Seq, GraphID: e.GraphID}
		d.Apply(&tmp, e.GraphID, e.Outcomes, l, scratch, newLoggedEffects(l, e))

		for _, t := range e.Transitions {
			if got := l.QuestState(t.GraphID); got != t.From {
				return nil, fmt.Errorf("replay: seq %d: graph %s is %s, entry expects %s",
					e.Seq, t.GraphID, got, t.From)
			}
			l.SetQuestState(t.GraphID, t.To)
		}
	}
	return l, nil
}

// loggedEffects replays graph effects for one logged entry. Lifecycle
// changes come from the entry's transitions, so only the UnlockQuest
// marker is reapplied, and only if the live call did not report the
// graph as unknown.
type loggedEffects struct {
	l        *ledger.Ledger
	rejected map[string]bool
}

func newLoggedEffects(l *ledger.Ledger, e ir.EventLogEntry) loggedEffects {
	rejected := make(map[string]bool, len(e.Diagnostics))
	for _, d := range e.Diagnostics {
		rejected[d] = true
	}
	return loggedEffects{l: l, rejected: rejected}
}

func (x loggedEffects) unlockGraph(graphID string) string {
	o := ir.Outcome{Kind: ir.OutcomeUnlockQuest, Subject: graphID}
	if x.rejected[diagnosticFor(o, noteUnknownGraph)] {
		return noteUnknownGraph
	}
	x.l.MarkUnlocked(graphID)
	return ""
}

func (x loggedEffects) failGraph(string) string { return "" }

// VerifyReplay replays the whole log and compares the result with the live
// ledger. A mismatch error lists the differing keys.
func (e *Engine) VerifyReplay() error {
	replayed, err := Replay(e.log.Query(0))
	if err != nil {
		return err
	}
	if !replayed.Equal(e.ledger) {
		return fmt.Errorf("replay diverged: %v", e.ledger.Diff(replayed))
	}
	return nil
}
