package engine

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/roach88/lodestar/internal/collab"
	"github.com/roach88/lodestar/internal/compiler"
	"github.com/roach88/lodestar/internal/ir"
	"github.com/roach88/lodestar/internal/ledger"
	"github.com/roach88/lodestar/internal/metrics"
)

// Engine is the graph store and walker. It owns the ledger, the authored
// graphs, the per-graph lifecycle state and the event log.
type Engine struct {
	graphs    map[string]*ir.Graph
	order     []string // graph ids, sorted
	instances map[string]*instance

	ledger   *ledger.Ledger
	host     collab.Host
	log      *EventLog
	clock    *Clock
	dispatch *Dispatcher

	logger   *slog.Logger
	metrics  *metrics.Metrics
	sessions SessionGenerator

	sessionID   string
	contentHash string
}

// instance is the mutable runtime state of one graph.
type instance struct {
	state  ir.LifecycleState
	active string
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the structured logger. Default: slog.Default().
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithMetrics enables Prometheus counters.
func WithMetrics(m *metrics.Metrics) EngineOption {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithClock sets the logical clock, e.g. to resume numbering.
func WithClock(c *Clock) EngineOption {
	return func(e *Engine) {
		e.clock = c
	}
}

// WithSessionGenerator sets how session ids are minted.
// Default: UUIDv7Generator.
func WithSessionGenerator(g SessionGenerator) EngineOption {
	return func(e *Engine) {
		e.sessions = g
	}
}

// New creates an Engine with no content and an empty ledger.
// host receives every collaborator call; it must not be nil.
func New(host collab.Host, opts ...EngineOption) *Engine {
	e := &Engine{
		graphs:    make(map[string]*ir.Graph),
		instances: make(map[string]*instance),
		ledger:    ledger.New(),
		host:      host,
		log:       NewEventLog(),
		clock:     NewClock(),
		logger:    slog.Default(),
		sessions:  UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(e)
	}
	e.dispatch = NewDispatcher(e.logger, e.metrics)
	e.sessionID = e.sessions.Generate()
	e.contentHash, _ = ir.ContentHash(nil)
	return e
}

// Register validates graphs against each other and the graphs already
// registered, then adds them all. If any graph fails validation nothing is
// registered and the returned CONTENT_ERROR wraps a *compiler.ContentError
// listing every problem in every offending graph.
func (e *Engine) Register(graphs []ir.Graph) error {
	if errs := compiler.ValidateGraphs(graphs, e.order); len(errs) > 0 {
		ce := &compiler.ContentError{Errors: errs}
		e.logger.Error("content rejected", "graphs", ce.Graphs(), "problems", len(errs))
		return &RuntimeError{
			Code:    ErrCodeContent,
			Message: fmt.Sprintf("%d graph(s) failed validation", len(ce.Graphs())),
			Err:     ce,
		}
	}

	for i := range graphs {
		g := graphs[i]
		g.Nodes = maps.Clone(g.Nodes)
		e.graphs[g.ID] = &g
		e.instances[g.ID] = &instance{state: ir.StateUnavailable}
		e.order = append(e.order, g.ID)
	}
	slices.Sort(e.order)

	all := make([]ir.Graph, 0, len(e.order))
	for _, id := range e.order {
		all = append(all, *e.graphs[id])
	}
	hash, err := ir.ContentHash(all)
	if err != nil {
		return fmt.Errorf("register: %w", err)
	}
	e.contentHash = hash

	e.logger.Info("content registered", "graphs", len(graphs), "total", len(e.order), "content_hash", hash)
	return nil
}

// Step is the result of an accepted call.
type Step struct {
	// Entry is the event log entry appended for the call.
	Entry ir.EventLogEntry

	// GraphID and NodeID locate the node the player now faces. Both are
	// empty when the call left no graph in progress (graph completed,
	// chain aborted, ending triggered before advancing).
	GraphID string
	NodeID  string

	// Ending is set when the call triggered an ending.
	Ending *Ending
}

// Start moves an Available graph to InProgress at its start node and fires
// the start node's entry outcomes.
func (e *Engine) Start(graphID string) (*Step, error) {
	if err := e.guard(graphID); err != nil {
		return nil, err
	}
	switch state := e.effectiveState(graphID); state {
	case ir.StateAvailable:
	case ir.StateCompleted:
		return nil, e.reject(newError(ErrCodeAlreadyCompleted, graphID, "graph is already completed"))
	case ir.StateUnavailable:
		_, reasons := e.offerReasons(e.graphs[graphID])
		err := newError(ErrCodeNotAvailable, graphID, "graph is not available")
		err.Reasons = reasons
		return nil, e.reject(err)
	default:
		return nil, e.reject(newError(ErrCodeNotAvailable, graphID, "graph is %s", state))
	}

	r := e.begin(ir.EntryStart, graphID)
	r.refresh()
	r.enter(graphID)
	return r.commit()
}

// Choose resolves a choice on the active node of an InProgress graph.
//
// The choice must exist on the active node and be legal: the node's
// location constraint and every requirement must hold. Otherwise the call
// is rejected with no mutation and no entry.
func (e *Engine) Choose(graphID, choiceID string) (*Step, error) {
	if err := e.guard(graphID); err != nil {
		return nil, err
	}
	inst := e.instances[graphID]
	if inst.state != ir.StateInProgress {
		return nil, e.reject(newError(ErrCodeNotInProgress, graphID, "graph is %s", e.effectiveState(graphID)))
	}
	node := e.graphs[graphID].Nodes[inst.active]
	choice, ok := node.Choice(choiceID)
	if !ok {
		err := newError(ErrCodeUnknownChoice, graphID, "node %s has no choice %q", node.ID, choiceID)
		err.ChoiceID = choiceID
		return nil, e.reject(err)
	}
	if legal, reasons := choiceLegal(node, choice, e.ledger, e.host); !legal {
		return nil, e.reject(NewIllegalChoiceError(graphID, choiceID, reasons))
	}

	r := e.begin(ir.EntryChoice, graphID)
	r.entry.NodeID = node.ID
	r.entry.ChoiceID = choiceID
	r.focus(graphID, node.ID)

	r.apply(graphID, choice.Outcomes)
	if !r.halted(graphID) {
		switch {
		case choice.Next.IsNode():
			r.moveTo(graphID, choice.Next.Node)
		case choice.Next.IsGraph():
			r.complete(graphID)
			if r.ending == nil {
				r.chain(graphID, choice.Next.Graph)
			}
		default:
			r.complete(graphID)
		}
	}
	return r.commit()
}

// ApplyExternal applies outcomes reported by a subsystem outside the
// engine, such as the result of a combat encounter started earlier.
// source names the reporting subsystem. Outcomes are checked for shape
// first; unknown kinds reject the whole call.
func (e *Engine) ApplyExternal(source string, outcomes []ir.Outcome) (*Step, error) {
	if err := e.ended(); err != nil {
		return nil, err
	}
	if errs := compiler.ValidateOutcomes(outcomes); len(errs) > 0 {
		return nil, e.reject(&RuntimeError{
			Code:    ErrCodeContent,
			Message: "invalid external outcomes",
			Err:     &compiler.ContentError{Errors: errs},
		})
	}

	r := e.begin(ir.EntryExternal, "")
	r.entry.Source = source
	r.apply("", outcomes)
	return r.commit()
}

// Abandon fails an Available or InProgress graph.
func (e *Engine) Abandon(graphID string) (*Step, error) {
	if err := e.guard(graphID); err != nil {
		return nil, err
	}
	switch state := e.effectiveState(graphID); state {
	case ir.StateAvailable, ir.StateInProgress:
	case ir.StateCompleted:
		return nil, e.reject(newError(ErrCodeAlreadyCompleted, graphID, "graph is already completed"))
	default:
		return nil, e.reject(newError(ErrCodeNotAvailable, graphID, "graph is %s", state))
	}

	r := e.begin(ir.EntryAbandon, graphID)
	r.entry.NodeID = e.instances[graphID].active
	r.refresh()
	r.transition(graphID, ir.StateFailed)
	return r.commit()
}

// NewGame discards all progress and starts a new session. Registered
// content is kept.
func (e *Engine) NewGame() {
	e.ledger = ledger.New()
	e.log = NewEventLog()
	e.clock = NewClock()
	for _, id := range e.order {
		e.instances[id] = &instance{state: ir.StateUnavailable}
	}
	e.sessionID = e.sessions.Generate()
	e.logger.Info("new game", "session_id", e.sessionID)
}

// GraphStatus is a read-only view of one graph's runtime state.
type GraphStatus struct {
	ID         string            `json:"id"`
	Kind       ir.GraphKind      `json:"kind"`
	Title      string            `json:"title,omitempty"`
	State      ir.LifecycleState `json:"state"`
	ActiveNode string            `json:"active_node,omitempty"`
}

// Status returns one graph's state. An Unavailable graph whose unlock
// requirements hold right now reports Available.
func (e *Engine) Status(graphID string) (GraphStatus, error) {
	g, ok := e.graphs[graphID]
	if !ok {
		return GraphStatus{}, newError(ErrCodeUnknownGraph, graphID, "no graph %q", graphID)
	}
	return GraphStatus{
		ID:         g.ID,
		Kind:       g.Kind,
		Title:      g.Title,
		State:      e.effectiveState(graphID),
		ActiveNode: e.instances[graphID].active,
	}, nil
}

// Statuses returns every registered graph's status in id order.
func (e *Engine) Statuses() []GraphStatus {
	out := make([]GraphStatus, 0, len(e.order))
	for _, id := range e.order {
		s, _ := e.Status(id)
		out = append(out, s)
	}
	return out
}

// Graph returns the authored graph.
func (e *Engine) Graph(graphID string) (*ir.Graph, bool) {
	g, ok := e.graphs[graphID]
	return g, ok
}

// Ledger returns a read-only view of the world state.
func (e *Engine) Ledger() ledger.Reader {
	return e.ledger
}

// LedgerState returns a copy of the world state.
func (e *Engine) LedgerState() ledger.State {
	return e.ledger.Snapshot()
}

// History returns log entries with seq greater than since.
func (e *Engine) History(since int64) []ir.EventLogEntry {
	return e.log.Query(since)
}

// SessionID returns the current play session id.
func (e *Engine) SessionID() string {
	return e.sessionID
}

// ContentHash returns the hash of all registered graphs.
func (e *Engine) ContentHash() string {
	return e.contentHash
}

// Ending returns the ending that closed the session, if any.
func (e *Engine) Ending() (string, bool) {
	return e.ledger.Ending()
}

func (e *Engine) ended() error {
	if id, done := e.ledger.Ending(); done {
		return e.reject(newError(ErrCodeSessionEnded, "", "session ended with %q", id))
	}
	return nil
}

func (e *Engine) guard(graphID string) error {
	if err := e.ended(); err != nil {
		return err
	}
	if _, ok := e.graphs[graphID]; !ok {
		return e.reject(newError(ErrCodeUnknownGraph, graphID, "no graph %q", graphID))
	}
	return nil
}

func (e *Engine) reject(err *RuntimeError) error {
	e.metrics.Rejected(string(err.Code))
	e.logger.Debug("call rejected", "code", err.Code, "graph_id", err.GraphID, "choice_id", err.ChoiceID)
	return err
}

// offerReasons evaluates a graph's unlock gate.
func (e *Engine) offerReasons(g *ir.Graph) (bool, []string) {
	ok, reasons := EvaluateAll(g.UnlockRequirements, e.ledger, e.host)
	if g.Locked && !e.ledger.IsUnlocked(g.ID) {
		reasons = append([]string{"graph is locked"}, reasons...)
		ok = false
	}
	return ok, reasons
}

func (e *Engine) offerable(g *ir.Graph) bool {
	ok, _ := e.offerReasons(g)
	return ok
}

// effectiveState is the stored state, except that an Unavailable graph
// whose gate holds reads as Available. The stored state catches up on the
// next accepted call.
func (e *Engine) effectiveState(graphID string) ir.LifecycleState {
	inst := e.instances[graphID]
	if inst.state == ir.StateUnavailable && e.offerable(e.graphs[graphID]) {
		return ir.StateAvailable
	}
	return inst.state
}
