package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/lodestar/internal/ir"
)

// CompileGraph parses a CUE value into a Graph.
// Uses the CUE SDK's Go API directly.
//
// The value should be the graph struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`graph: quest_main_prologue: { ... }`)
//	g, err := CompileGraph(v.LookupPath(cue.ParsePath("graph.quest_main_prologue")))
//
// CompileGraph only checks shape and types. Referential checks (dangling
// next, unreachable nodes) belong to ValidateGraphs.
func CompileGraph(v cue.Value) (*ir.Graph, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	if err := allowFields(v, "graph", "kind", "title", "branch", "start", "locked", "unlock", "completion", "nodes"); err != nil {
		return nil, err
	}

	g := &ir.Graph{Nodes: make(map[string]ir.Node)}
	if labels := v.Path().Selectors(); len(labels) > 0 {
		g.ID = labels[len(labels)-1].Unquoted()
	}

	kind, err := requiredString(v, "kind")
	if err != nil {
		return nil, err
	}
	g.Kind = ir.GraphKind(kind)

	if g.StartNodeID, err = requiredString(v, "start"); err != nil {
		return nil, err
	}
	if g.Title, err = optionalString(v, "title"); err != nil {
		return nil, err
	}
	if g.BranchTag, err = optionalString(v, "branch"); err != nil {
		return nil, err
	}
	if g.Locked, err = optionalBool(v, "locked"); err != nil {
		return nil, err
	}
	if g.UnlockRequirements, err = parseRequirements(v.LookupPath(cue.ParsePath("unlock")), "unlock"); err != nil {
		return nil, err
	}
	if g.CompletionOutcomes, err = parseOutcomes(v.LookupPath(cue.ParsePath("completion")), "completion"); err != nil {
		return nil, err
	}

	nodesVal := v.LookupPath(cue.ParsePath("nodes"))
	if !nodesVal.Exists() {
		return nil, &CompileError{Field: "nodes", Message: "nodes are required", Pos: v.Pos()}
	}
	iter, err := nodesVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		id := iter.Selector().Unquoted()
		node, err := parseNode(id, iter.Value())
		if err != nil {
			return nil, err
		}
		g.Nodes[id] = node
	}

	return g, nil
}

func parseNode(id string, v cue.Value) (ir.Node, error) {
	field := "nodes." + id
	node := ir.Node{ID: id}
	if err := allowFields(v, field, "title", "speaker", "body", "location", "entry", "choices"); err != nil {
		return node, err
	}

	var err error
	if node.Body, err = requiredString(v, "body"); err != nil {
		return node, prefixField(err, field)
	}
	if node.Title, err = optionalString(v, "title"); err != nil {
		return node, prefixField(err, field)
	}
	if node.Speaker, err = optionalString(v, "speaker"); err != nil {
		return node, prefixField(err, field)
	}
	if node.LocationConstraint, err = optionalString(v, "location"); err != nil {
		return node, prefixField(err, field)
	}
	if node.EntryOutcomes, err = parseOutcomes(v.LookupPath(cue.ParsePath("entry")), field+".entry"); err != nil {
		return node, err
	}

	choicesVal := v.LookupPath(cue.ParsePath("choices"))
	if !choicesVal.Exists() {
		return node, nil
	}
	list, err := choicesVal.List()
	if err != nil {
		return node, formatCUEError(err)
	}
	for i := 0; list.Next(); i++ {
		c, err := parseChoice(list.Value(), fmt.Sprintf("%s.choices[%d]", field, i))
		if err != nil {
			return node, err
		}
		node.Choices = append(node.Choices, c)
	}
	return node, nil
}

func parseChoice(v cue.Value, field string) (ir.Choice, error) {
	var c ir.Choice
	if err := allowFields(v, field, "id", "text", "requires", "outcomes", "next"); err != nil {
		return c, err
	}

	var err error
	if c.ID, err = requiredString(v, "id"); err != nil {
		return c, prefixField(err, field)
	}
	if c.Text, err = requiredString(v, "text"); err != nil {
		return c, prefixField(err, field)
	}
	if c.Requirements, err = parseRequirements(v.LookupPath(cue.ParsePath("requires")), field+".requires"); err != nil {
		return c, err
	}
	if c.Outcomes, err = parseOutcomes(v.LookupPath(cue.ParsePath("outcomes")), field+".outcomes"); err != nil {
		return c, err
	}

	next := v.LookupPath(cue.ParsePath("next"))
	if next.Exists() {
		if err := allowFields(next, field+".next", "node", "graph"); err != nil {
			return c, err
		}
		if c.Next.Node, err = optionalString(next, "node"); err != nil {
			return c, prefixField(err, field+".next")
		}
		if c.Next.Graph, err = optionalString(next, "graph"); err != nil {
			return c, prefixField(err, field+".next")
		}
	}
	return c, nil
}

func parseRequirements(v cue.Value, field string) ([]ir.Requirement, error) {
	if !v.Exists() {
		return nil, nil
	}
	list, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var reqs []ir.Requirement
	for i := 0; list.Next(); i++ {
		item := list.Value()
		f := fmt.Sprintf("%s[%d]", field, i)
		if err := allowFields(item, f, "kind", "subject", "comparator", "value"); err != nil {
			return nil, err
		}
		var r ir.Requirement
		kind, err := requiredString(item, "kind")
		if err != nil {
			return nil, prefixField(err, f)
		}
		r.Kind = ir.RequirementKind(kind)
		if r.Subject, err = optionalString(item, "subject"); err != nil {
			return nil, prefixField(err, f)
		}
		cmp, err := optionalString(item, "comparator")
		if err != nil {
			return nil, prefixField(err, f)
		}
		r.Comparator = ir.Comparator(cmp)
		if r.Value, err = optionalInt(item, "value"); err != nil {
			return nil, prefixField(err, f)
		}
		reqs = append(reqs, r)
	}
	return reqs, nil
}

func parseOutcomes(v cue.Value, field string) ([]ir.Outcome, error) {
	if !v.Exists() {
		return nil, nil
	}
	list, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var outs []ir.Outcome
	for i := 0; list.Next(); i++ {
		item := list.Value()
		f := fmt.Sprintf("%s[%d]", field, i)
		if err := allowFields(item, f, "kind", "subject", "amount", "failed"); err != nil {
			return nil, err
		}
		var o ir.Outcome
		kind, err := requiredString(item, "kind")
		if err != nil {
			return nil, prefixField(err, f)
		}
		o.Kind = ir.OutcomeKind(kind)
		if o.Subject, err = optionalString(item, "subject"); err != nil {
			return nil, prefixField(err, f)
		}
		if o.Amount, err = optionalInt(item, "amount"); err != nil {
			return nil, prefixField(err, f)
		}
		if o.Failed, err = optionalBool(item, "failed"); err != nil {
			return nil, prefixField(err, f)
		}
		outs = append(outs, o)
	}
	return outs, nil
}

// allowFields rejects labels outside the allowed set so typos in authored
// content fail at load time instead of being silently ignored.
func allowFields(v cue.Value, field string, allowed ...string) error {
	iter, err := v.Fields()
	if err != nil {
		return &CompileError{Field: field, Message: "expected a struct", Pos: v.Pos()}
	}
	set := make(map[string]bool, len(allowed))
	for _, a := range allowed {
		set[a] = true
	}
	for iter.Next() {
		label := iter.Selector().Unquoted()
		if !set[label] {
			return &CompileError{
				Field:   field + "." + label,
				Message: "unknown field",
				Pos:     iter.Value().Pos(),
			}
		}
	}
	return nil
}

func requiredString(v cue.Value, name string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(name))
	if !fv.Exists() {
		return "", &CompileError{Field: name, Message: name + " is required", Pos: v.Pos()}
	}
	s, err := fv.String()
	if err != nil {
		return "", &CompileError{Field: name, Message: "must be a string", Pos: fv.Pos()}
	}
	return s, nil
}

func optionalString(v cue.Value, name string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(name))
	if !fv.Exists() {
		return "", nil
	}
	s, err := fv.String()
	if err != nil {
		return "", &CompileError{Field: name, Message: "must be a string", Pos: fv.Pos()}
	}
	return s, nil
}

// optionalInt reads an integer field. Floats are forbidden.
func optionalInt(v cue.Value, name string) (int64, error) {
	fv := v.LookupPath(cue.ParsePath(name))
	if !fv.Exists() {
		return 0, nil
	}
	if fv.IncompleteKind() != cue.IntKind {
		return 0, &CompileError{Field: name, Message: "must be an integer (floats are forbidden)", Pos: fv.Pos()}
	}
	n, err := fv.Int64()
	if err != nil {
		return 0, formatCUEError(err)
	}
	return n, nil
}

func optionalBool(v cue.Value, name string) (bool, error) {
	fv := v.LookupPath(cue.ParsePath(name))
	if !fv.Exists() {
		return false, nil
	}
	b, err := fv.Bool()
	if err != nil {
		return false, &CompileError{Field: name, Message: "must be a bool", Pos: fv.Pos()}
	}
	return b, nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func prefixField(err error, prefix string) error {
	if ce, ok := err.(*CompileError); ok {
		return &CompileError{Field: prefix + "." + ce.Field, Message: ce.Message, Pos: ce.Pos}
	}
	return err
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
