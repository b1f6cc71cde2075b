package engine

import (
	"fmt"
	"log/slog"

	"github.com/roach88/lodestar/internal/collab"
	"github.com/roach88/lodestar/internal/ir"
	"github.com/roach88/lodestar/internal/ledger"
	"github.com/roach88/lodestar/internal/metrics"
)

// rivalry describes how a positive reputation change bleeds into the
// opposed faction.
type rivalry struct {
	rival   string
	divisor int64
}

// opposedFactions is the lateral coupling table. Induced deltas use Go
// integer division, which truncates toward zero: +10 to Alliance applies
// -3 to Syndicate.
var opposedFactions = map[string]rivalry{
	ir.FactionAlliance:   {rival: ir.FactionSyndicate, divisor: 3},
	ir.FactionSyndicate:  {rival: ir.FactionAlliance, divisor: 3},
	ir.FactionMystics:    {rival: ir.FactionVoidEntity, divisor: 2},
	ir.FactionVoidEntity: {rival: ir.FactionMystics, divisor: 2},
}

// CoupledDelta returns the faction and delta induced by a primary
// reputation change, or ok=false when no coupling fires.
func CoupledDelta(factionID string, delta int64) (rival string, induced int64, ok bool) {
	r, found := opposedFactions[factionID]
	if !found || delta <= 0 {
		return "", 0, false
	}
	induced = -delta / r.divisor
	if induced == 0 {
		return "", 0, false
	}
	return r.rival, induced, true
}

// graphEffects is the graph store surface the dispatcher needs for
// UnlockQuest and FailQuest. Both return a diagnostic, or "" on success,
// and leave the ledger untouched when they fail.
type graphEffects interface {
	unlockGraph(graphID string) string
	failGraph(graphID string) string
}

// Ending is the terminal signal raised by a TriggerEnding outcome.
type Ending struct {
	ID     string `json:"id"`
	Failed bool   `json:"failed,omitempty"`
}

// Dispatcher applies outcome lists to the ledger and the collaborators.
// It is the only writer of the ledger.
type Dispatcher struct {
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewDispatcher creates a Dispatcher. A nil logger uses slog.Default().
func NewDispatcher(logger *slog.Logger, m *metrics.Metrics) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{logger: logger, metrics: m}
}

// Apply applies outs strictly in order and records them on entry.
//
// Each outcome is applied independently: a soft failure such as removing
// an item that is not held is recorded as a diagnostic and the rest of the
// list still runs. graphID is the graph the outcomes belong to ("" for
// external outcomes). The returned Ending is non-nil if the list triggered
// an ending; outcomes after the ending still apply.
func (d *Dispatcher) Apply(entry *ir.EventLogEntry, graphID string, outs []ir.Outcome, l *ledger.Ledger, host collab.Host, effects graphEffects) *Ending {
	var ending *Ending
	for _, o := range outs {
		entry.OutcomeIDs = append(entry.OutcomeIDs, o.Ref())
		entry.Outcomes = append(entry.Outcomes, o)

		note, end := d.applyOne(o, entry.Seq, graphID, l, host, effects)
		if note != "" {
			d.softFailure(entry, o, note)
		}
		if end != nil && ending == nil {
			ending = end
		}
	}
	return ending
}

func (d *Dispatcher) applyOne(o ir.Outcome, seq int64, graphID string, l *ledger.Ledger, host collab.Host, effects graphEffects) (string, *Ending) {
	switch o.Kind {
	case ir.OutcomeGrantExperience:
		host.GrantExperience(o.Amount)

	case ir.OutcomeReputationDelta:
		l.AdjustReputation(o.Subject, o.Amount)
		if rival, induced, ok := CoupledDelta(o.Subject, o.Amount); ok {
			l.AdjustReputation(rival, induced)
		}

	case ir.OutcomeRelationshipDelta:
		applied := l.AdjustRelationship(o.Subject, o.Amount)
		host.AdjustRelationship(o.Subject, applied)

	case ir.OutcomeSetFlag:
		l.SetFlag(o.Subject)

	case ir.OutcomeClearFlag:
		l.ClearFlag(o.Subject)

	case ir.OutcomeGiveItem:
		host.GiveItem(o.Subject, o.Quantity())

	case ir.OutcomeRemoveItem:
		if !host.RemoveItem(o.Subject, o.Quantity()) {
			return "item not held", nil
		}

	case ir.OutcomeUnlockLocation:
		host.UnlockLocation(o.Subject)

	case ir.OutcomeUnlockQuest:
		if effects != nil {
			return effects.unlockGraph(o.Subject), nil
		}

	case ir.OutcomeUnlockCompanion:
		host.UnlockCompanion(o.Subject)
		l.SeedRelationship(o.Subject)

	case ir.OutcomeFailQuest:
		if effects != nil {
			return effects.failGraph(o.Subject), nil
		}

	case ir.OutcomeStartCombat:
		host.Emit(collab.Signal{Kind: collab.SignalCombat, ID: o.Subject, GraphID: graphID, Seq: seq})

	case ir.OutcomeStartPuzzle:
		host.Emit(collab.Signal{Kind: collab.SignalPuzzle, ID: o.Subject, GraphID: graphID, Seq: seq})

	case ir.OutcomeTriggerEnding:
		if !l.SetEnding(o.Subject) {
			return "session already ended", nil
		}
		host.Emit(collab.Signal{Kind: collab.SignalEnding, ID: o.Subject, GraphID: graphID, Failed: o.Failed, Seq: seq})
		return "", &Ending{ID: o.Subject, Failed: o.Failed}

	default:
		return fmt.Sprintf("unknown outcome kind %q", o.Kind), nil
	}
	return "", nil
}

// noteUnknownGraph is the soft failure for graph effects naming an id
// that is not registered.
const noteUnknownGraph = "unknown graph"

// diagnosticFor formats the soft-failure note recorded for o.
func diagnosticFor(o ir.Outcome, note string) string {
	return fmt.Sprintf("%s: %s", o.Ref(), note)
}

func (d *Dispatcher) softFailure(entry *ir.EventLogEntry, o ir.Outcome, note string) {
	msg := diagnosticFor(o, note)
	entry.Diagnostics = append(entry.Diagnostics, msg)
	d.metrics.SoftFailure(string(o.Kind))
	d.logger.Warn("outcome soft failure",
		"seq", entry.Seq,
		"graph_id", entry.GraphID,
		"outcome", o.Ref(),
		"reason", note)
}
