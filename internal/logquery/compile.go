package logquery

import (
	"fmt"
	"strings"

	"github.com/roach88/lodestar/internal/ir"
)

// Compile validates q and converts it to parameterized SQL returning the
// entry column of matching rows in seq order.
func Compile(q Query) (string, []any, error) {
	if err := Validate(q); err != nil {
		return "", nil, fmt.Errorf("invalid log query: %w", err)
	}

	where := "slot = ?"
	params := []any{q.Slot}
	if q.Filter != nil {
		sql, p, err := compilePredicate(q.Filter)
		if err != nil {
			return "", nil, err
		}
		where += " AND " + sql
		params = append(params, p...)
	}

	sql := "SELECT entry FROM event_log WHERE " + where + " ORDER BY seq ASC"
	if q.Limit > 0 {
		sql += " LIMIT ?"
		params = append(params, q.Limit)
	}
	return sql, params, nil
}

func compilePredicate(p Predicate) (string, []any, error) {
	switch pred := p.(type) {
	case Equals:
		param, err := irValueToParam(pred.Value)
		if err != nil {
			return "", nil, fmt.Errorf("field %s: %w", pred.Field, err)
		}
		return string(pred.Field) + " = ?", []any{param}, nil
	case After:
		return "seq > ?", []any{pred.Seq}, nil
	case And:
		if len(pred.Predicates) == 0 {
			return "1 = 1", nil, nil
		}
		parts := make([]string, 0, len(pred.Predicates))
		var params []any
		for _, sub := range pred.Predicates {
			sql, p, err := compilePredicate(sub)
			if err != nil {
				return "", nil, err
			}
			parts = append(parts, sql)
			params = append(params, p...)
		}
		return "(" + strings.Join(parts, " AND ") + ")", params, nil
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

// irValueToParam converts a scalar IRValue to a SQL parameter.
func irValueToParam(v ir.IRValue) (any, error) {
	switch val := v.(type) {
	case ir.IRString:
		return string(val), nil
	case ir.IRInt:
		return int64(val), nil
	case ir.IRBool:
		return bool(val), nil
	default:
		return nil, fmt.Errorf("%T cannot be used as a SQL parameter", v)
	}
}
