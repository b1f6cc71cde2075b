package compiler

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/roach88/lodestar/internal/ir"
)

// Content validation error codes (E200-E299)
const (
	// Graph errors (E200-E209)
	ErrGraphIDEmpty      = "E200" // graph id is required
	ErrDuplicateGraph    = "E201" // graph id already defined or registered
	ErrInvalidGraphKind  = "E202" // kind must be quest or dialogue
	ErrStartNodeMissing  = "E203" // start node is required
	ErrStartNodeDangling = "E204" // start node not a member of nodes
	ErrGraphNoNodes      = "E205" // at least one node required
	ErrUnreachableNode   = "E206" // node not reachable from the start node
	ErrNodeIDMismatch    = "E207" // node id differs from its map key
	ErrNodeBodyEmpty     = "E208" // node body text is required
	ErrNodeNoChoices     = "E209" // node has no choices and would strand the graph

	// Choice errors (E210-E219)
	ErrChoiceIDEmpty    = "E210" // choice id is required
	ErrDuplicateChoice  = "E211" // duplicate choice id within a node
	ErrChoiceTextEmpty  = "E212" // choice display text is required
	ErrDanglingNodeRef  = "E213" // next.node does not resolve
	ErrDanglingGraphRef = "E214" // next.graph does not resolve
	ErrAmbiguousNext    = "E215" // next sets both node and graph

	// Requirement and outcome errors (E220-E229)
	ErrInvalidRequirement = "E220" // unknown requirement kind
	ErrInvalidComparator  = "E221" // comparator unknown or used on a set-membership kind
	ErrRequirementSubject = "E222" // requirement subject is required
	ErrInvalidOutcome     = "E223" // unknown outcome kind
	ErrOutcomeSubject     = "E224" // outcome subject is required
	ErrUnknownGraphTarget = "E225" // UnlockQuest/FailQuest/QuestCompleted names an unknown graph
)

// ValidationError is one content problem found at load time.
type ValidationError struct {
	Graph   string `json:"graph,omitempty"`
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	prefix := fmt.Sprintf("[%s]", e.Code)
	if e.Line > 0 {
		prefix += fmt.Sprintf(" line %d:", e.Line)
	}
	if e.Graph != "" {
		return fmt.Sprintf("%s %s: %s: %s", prefix, e.Graph, e.Field, e.Message)
	}
	return fmt.Sprintf("%s %s: %s", prefix, e.Field, e.Message)
}

// ContentError aggregates every validation error from a content load.
type ContentError struct {
	Errors []ValidationError
}

func (e *ContentError) Error() string {
	if len(e.Errors) == 1 {
		return "content error: " + e.Errors[0].Error()
	}
	return fmt.Sprintf("content error: %d problems in graphs [%s]; first: %s",
		len(e.Errors), strings.Join(e.Graphs(), ", "), e.Errors[0].Error())
}

// Graphs returns the sorted ids of every offending graph.
func (e *ContentError) Graphs() []string {
	seen := make(map[string]bool)
	var ids []string
	for _, v := range e.Errors {
		if v.Graph != "" && !seen[v.Graph] {
			seen[v.Graph] = true
			ids = append(ids, v.Graph)
		}
	}
	sort.Strings(ids)
	return ids
}

// AsContentError wraps errs into a *ContentError, or returns nil when empty.
func AsContentError(errs []ValidationError) error {
	if len(errs) == 0 {
		return nil
	}
	return &ContentError{Errors: errs}
}

// ValidateGraphs validates a batch of graphs against each other and against
// graph ids already registered elsewhere. Returns all errors found, in
// input order, without failing fast.
func ValidateGraphs(graphs []ir.Graph, registered []string) []ValidationError {
	known := make(map[string]bool, len(graphs)+len(registered))
	for _, id := range registered {
		known[id] = true
	}

	var errs []ValidationError
	batch := make(map[string]bool, len(graphs))
	for i := range graphs {
		g := &graphs[i]
		if g.ID == "" {
			continue
		}
		// E201: duplicate within the batch or against registered content
		if batch[g.ID] || known[g.ID] {
			errs = append(errs, ValidationError{
				Graph:   g.ID,
				Field:   "id",
				Message: fmt.Sprintf("graph %q is already defined", g.ID),
				Code:    ErrDuplicateGraph,
			})
		}
		batch[g.ID] = true
	}
	for id := range batch {
		known[id] = true
	}

	for i := range graphs {
		errs = append(errs, ValidateGraph(&graphs[i], known)...)
	}
	return errs
}

// ValidateGraph validates one graph. known holds every graph id that
// GraphRef, UnlockQuest, FailQuest and QuestCompleted may name.
func ValidateGraph(g *ir.Graph, known map[string]bool) []ValidationError {
	v := &graphValidator{graph: g, known: known}
	v.run()
	return v.errs
}

type graphValidator struct {
	graph *ir.Graph
	known map[string]bool
	errs  []ValidationError
}

func (v *graphValidator) add(field, code, format string, args ...any) {
	v.errs = append(v.errs, ValidationError{
		Graph:   v.graph.ID,
		Field:   field,
		Message: fmt.Sprintf(format, args...),
		Code:    code,
	})
}

func (v *graphValidator) run() {
	g := v.graph

	if strings.TrimSpace(g.ID) == "" {
		v.add("id", ErrGraphIDEmpty, "graph id is required")
	}
	if g.Kind != ir.GraphQuest && g.Kind != ir.GraphDialogue {
		v.add("kind", ErrInvalidGraphKind, "kind must be %q or %q, got %q", ir.GraphQuest, ir.GraphDialogue, g.Kind)
	}
	if len(g.Nodes) == 0 {
		v.add("nodes", ErrGraphNoNodes, "at least one node is required")
	}
	switch {
	case g.StartNodeID == "":
		v.add("start", ErrStartNodeMissing, "start node is required")
	case len(g.Nodes) > 0:
		if _, ok := g.Nodes[g.StartNodeID]; !ok {
			v.add("start", ErrStartNodeDangling, "start node %q is not a node of this graph", g.StartNodeID)
		}
	}

	v.requirements("unlock", g.UnlockRequirements)
	v.outcomes("completion", g.CompletionOutcomes)

	for _, id := range g.NodeIDs() {
		v.node(id, g.Nodes[id])
	}

	if _, ok := g.Nodes[g.StartNodeID]; ok {
		reachable := Reachable(g)
		for _, id := range g.NodeIDs() {
			if !reachable[id] {
				v.add("nodes."+id, ErrUnreachableNode, "node %q is unreachable from start node %q", id, g.StartNodeID)
			}
		}
	}
}

func (v *graphValidator) node(key string, n ir.Node) {
	field := "nodes." + key
	if n.ID != key {
		v.add(field+".id", ErrNodeIDMismatch, "node id %q does not match key %q", n.ID, key)
	}
	if strings.TrimSpace(n.Body) == "" {
		v.add(field+".body", ErrNodeBodyEmpty, "body text is required")
	}
	if len(n.Choices) == 0 {
		v.add(field+".choices", ErrNodeNoChoices, "node has no choices")
	}
	v.outcomes(field+".entry", n.EntryOutcomes)

	seen := make(map[string]bool)
	for i, c := range n.Choices {
		cf := fmt.Sprintf("%s.choices[%d]", field, i)
		switch {
		case c.ID == "":
			v.add(cf+".id", ErrChoiceIDEmpty, "choice id is required")
		case seen[c.ID]:
			v.add(cf+".id", ErrDuplicateChoice, "duplicate choice id %q", c.ID)
		}
		seen[c.ID] = true

		if strings.TrimSpace(c.Text) == "" {
			v.add(cf+".text", ErrChoiceTextEmpty, "choice text is required")
		}
		v.requirements(cf+".requires", c.Requirements)
		v.outcomes(cf+".outcomes", c.Outcomes)

		if c.Next.Node != "" && c.Next.Graph != "" {
			v.add(cf+".next", ErrAmbiguousNext, "next names both node %q and graph %q", c.Next.Node, c.Next.Graph)
		}
		if c.Next.Node != "" {
			if _, ok := v.graph.Nodes[c.Next.Node]; !ok {
				v.add(cf+".next.node", ErrDanglingNodeRef, "node %q does not exist", c.Next.Node)
			}
		}
		if c.Next.Graph != "" && !v.known[c.Next.Graph] {
			v.add(cf+".next.graph", ErrDanglingGraphRef, "graph %q does not exist", c.Next.Graph)
		}
	}
}

func (v *graphValidator) requirements(field string, reqs []ir.Requirement) {
	for i, r := range reqs {
		rf := fmt.Sprintf("%s[%d]", field, i)
		if !ir.ValidRequirementKinds[r.Kind] {
			v.add(rf+".kind", ErrInvalidRequirement, "unknown requirement kind %q", r.Kind)
			continue
		}
		if r.Subject == "" {
			v.add(rf+".subject", ErrRequirementSubject, "%s requirement needs a subject", r.Kind)
		}
		if !ir.ValidComparators[r.Comparator] || (!r.Kind.Numeric() && r.Comparator != "") {
			v.add(rf+".comparator", ErrInvalidComparator, "comparator %q not allowed on %s", r.Comparator, r.Kind)
		}
		if r.Kind == ir.RequireQuestCompleted && r.Subject != "" && !v.known[r.Subject] {
			v.add(rf+".subject", ErrUnknownGraphTarget, "graph %q does not exist", r.Subject)
		}
	}
}

func (v *graphValidator) outcomes(field string, outs []ir.Outcome) {
	for i, o := range outs {
		of := fmt.Sprintf("%s[%d]", field, i)
		if !ir.ValidOutcomeKinds[o.Kind] {
			v.add(of+".kind", ErrInvalidOutcome, "unknown outcome kind %q", o.Kind)
			continue
		}
		if o.Kind.NeedsSubject() && o.Subject == "" {
			v.add(of+".subject", ErrOutcomeSubject, "%s outcome needs a subject", o.Kind)
		}
		if (o.Kind == ir.OutcomeUnlockQuest || o.Kind == ir.OutcomeFailQuest) && o.Subject != "" && !v.known[o.Subject] {
			v.add(of+".subject", ErrUnknownGraphTarget, "graph %q does not exist", o.Subject)
		}
	}
}

// ValidateOutcomes checks outcomes that arrive at runtime from an external
// subsystem. Graph targets are not checked.
func ValidateOutcomes(outs []ir.Outcome) []ValidationError {
	v := &graphValidator{graph: &ir.Graph{}, known: nil}
	for i, o := range outs {
		of := fmt.Sprintf("outcomes[%d]", i)
		if !ir.ValidOutcomeKinds[o.Kind] {
			v.add(of+".kind", ErrInvalidOutcome, "unknown outcome kind %q", o.Kind)
			continue
		}
		if o.Kind.NeedsSubject() && o.Subject == "" {
			v.add(of+".subject", ErrOutcomeSubject, "%s outcome needs a subject", o.Kind)
		}
	}
	return v.errs
}

// Reachable returns the set of node ids reachable from the start node
// through NodeRef edges.
func Reachable(g *ir.Graph) map[string]bool {
	seen := make(map[string]bool, len(g.Nodes))
	if _, ok := g.Nodes[g.StartNodeID]; !ok {
		return seen
	}
	queue := []string{g.StartNodeID}
	seen[g.StartNodeID] = true
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, c := range g.Nodes[id].Choices {
			next := c.Next.Node
			if next == "" || seen[next] {
				continue
			}
			if _, ok := g.Nodes[next]; ok {
				seen[next] = true
				queue = append(queue, next)
			}
		}
	}
	return seen
}

// GraphIDs returns the ids of graphs in sorted order.
func GraphIDs(graphs []ir.Graph) []string {
	ids := make([]string, 0, len(graphs))
	for _, g := range graphs {
		ids = append(ids, g.ID)
	}
	slices.Sort(ids)
	return ids
}
