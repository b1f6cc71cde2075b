package logquery

import "github.com/roach88/lodestar/internal/ir"

// Field is a filterable event_log column.
type Field string

const (
	FieldGraph   Field = "graph_id"
	FieldKind    Field = "kind"
	FieldChoice  Field = "choice_id"
	FieldSession Field = "session_id"
)

// ValidFields lists the columns a predicate may name.
var ValidFields = map[Field]bool{
	FieldGraph:   true,
	FieldKind:    true,
	FieldChoice:  true,
	FieldSession: true,
}

// Query selects the entries of one slot, oldest first.
type Query struct {
	Slot   string
	Filter Predicate // nil matches every entry
	Limit  int       // zero means no limit
}

// Predicate is a filter node.
type Predicate interface {
	predicateNode()
}

// Equals matches entries whose Field equals Value. Value must be an
// IRString, IRInt or IRBool.
type Equals struct {
	Field Field
	Value ir.IRValue
}

func (Equals) predicateNode() {}

// After matches entries with seq greater than Seq.
type After struct {
	Seq int64
}

func (After) predicateNode() {}

// And is a conjunction. An empty And matches everything.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// Options is the flag-shaped form of a filter, as the CLI collects it.
type Options struct {
	Graph  string
	Kind   ir.EntryKind
	Choice string
	Since  int64
}

// Filter builds the predicate for o. Unset options add no condition.
func (o Options) Filter() Predicate {
	var preds []Predicate
	if o.Graph != "" {
		preds = append(preds, Equals{Field: FieldGraph, Value: ir.IRString(o.Graph)})
	}
	if o.Kind != "" {
		preds = append(preds, Equals{Field: FieldKind, Value: ir.IRString(o.Kind)})
	}
	if o.Choice != "" {
		preds = append(preds, Equals{Field: FieldChoice, Value: ir.IRString(o.Choice)})
	}
	if o.Since > 0 {
		preds = append(preds, After{Seq: o.Since})
	}
	switch len(preds) {
	case 0:
		return nil
	case 1:
		return preds[0]
	default:
		return And{Predicates: preds}
	}
}
