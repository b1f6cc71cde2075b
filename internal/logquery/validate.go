package logquery

import (
	"errors"
	"fmt"

	"github.com/roach88/lodestar/internal/ir"
)

// Validate checks q before compilation and reports every problem found.
func Validate(q Query) error {
	v := &validator{}
	if q.Slot == "" {
		v.add("slot is required")
	}
	if q.Limit < 0 {
		v.add("limit must be non-negative, got %d", q.Limit)
	}
	v.predicate(q.Filter)
	return errors.Join(v.errs...)
}

type validator struct {
	errs []error
}

func (v *validator) add(format string, args ...any) {
	v.errs = append(v.errs, fmt.Errorf(format, args...))
}

func (v *validator) predicate(p Predicate) {
	switch pred := p.(type) {
	case nil:
	case Equals:
		v.equals(pred)
	case After:
		if pred.Seq < 0 {
			v.add("after: seq must be non-negative, got %d", pred.Seq)
		}
	case And:
		for _, sub := range pred.Predicates {
			v.predicate(sub)
		}
	default:
		v.add("unsupported predicate type %T", p)
	}
}

func (v *validator) equals(eq Equals) {
	if !ValidFields[eq.Field] {
		v.add("unknown field %q", eq.Field)
		return
	}
	if eq.Value == nil {
		v.add("field %q compared to nil", eq.Field)
		return
	}
	if eq.Field == FieldKind {
		s, ok := eq.Value.(ir.IRString)
		if !ok || !ir.ValidEntryKinds[ir.EntryKind(s)] {
			v.add("unknown entry kind %v", eq.Value)
		}
	}
}
