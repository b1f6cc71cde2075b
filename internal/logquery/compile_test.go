package logquery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/lodestar/internal/ir"
)

func TestCompile_SlotOnly(t *testing.T) {
	sql, params, err := Compile(Query{Slot: "default"})
	require.NoError(t, err)

	assert.Equal(t, "SELECT entry FROM event_log WHERE slot = ? ORDER BY seq ASC", sql)
	assert.Equal(t, []any{"default"}, params)
}

func TestCompile_Equals(t *testing.T) {
	sql, params, err := Compile(Query{
		Slot:   "default",
		Filter: Equals{Field: FieldGraph, Value: ir.IRString("quest_main_station")},
	})
	require.NoError(t, err)

	assert.Equal(t, "SELECT entry FROM event_log WHERE slot = ? AND graph_id = ? ORDER BY seq ASC", sql)
	assert.NotContains(t, sql, "quest_main_station")
	assert.Equal(t, []any{"default", "quest_main_station"}, params)
}

func TestCompile_AndWithLimit(t *testing.T) {
	sql, params, err := Compile(Query{
		Slot: "s",
		Filter: And{Predicates: []Predicate{
			Equals{Field: FieldKind, Value: ir.IRString("choice")},
			After{Seq: 3},
		}},
		Limit: 10,
	})
	require.NoError(t, err)

	assert.Equal(t, "SELECT entry FROM event_log WHERE slot = ? AND (kind = ? AND seq > ?) ORDER BY seq ASC LIMIT ?", sql)
	assert.Equal(t, []any{"s", "choice", int64(3), 10}, params)
}

func TestCompile_EmptyAnd(t *testing.T) {
	sql, params, err := Compile(Query{Slot: "s", Filter: And{}})
	require.NoError(t, err)
	assert.Contains(t, sql, "AND 1 = 1")
	assert.Equal(t, []any{"s"}, params)
}

func TestCompile_ValueTypes(t *testing.T) {
	tests := []struct {
		value ir.IRValue
		want  any
	}{
		{ir.IRString("x"), "x"},
		{ir.IRInt(7), int64(7)},
		{ir.IRBool(true), true},
	}
	for _, tt := range tests {
		got, err := irValueToParam(tt.value)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := irValueToParam(ir.IRArray{ir.IRInt(1)})
	assert.Error(t, err)
}

func TestCompile_RejectsArrayValue(t *testing.T) {
	_, _, err := Compile(Query{
		Slot:   "s",
		Filter: Equals{Field: FieldSession, Value: ir.IRArray{}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot be used as a SQL parameter")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		query Query
		want  []string
	}{
		{"valid", Query{Slot: "s", Filter: After{Seq: 1}}, nil},
		{"missing slot", Query{}, []string{"slot is required"}},
		{"negative limit", Query{Slot: "s", Limit: -1}, []string{"limit must be non-negative"}},
		{"unknown field", Query{Slot: "s", Filter: Equals{Field: "entry", Value: ir.IRString("x")}}, []string{`unknown field "entry"`}},
		{"nil value", Query{Slot: "s", Filter: Equals{Field: FieldGraph}}, []string{"compared to nil"}},
		{"bad kind", Query{Slot: "s", Filter: Equals{Field: FieldKind, Value: ir.IRString("teleport")}}, []string{"unknown entry kind"}},
		{"negative seq", Query{Slot: "s", Filter: And{Predicates: []Predicate{After{Seq: -2}}}}, []string{"seq must be non-negative"}},
		{
			"collects all",
			Query{Limit: -1, Filter: Equals{Field: "x", Value: ir.IRString("y")}},
			[]string{"slot is required", "limit must be non-negative", `unknown field "x"`},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.query)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			for _, w := range tt.want {
				assert.Contains(t, err.Error(), w)
			}
		})
	}
}

func TestOptions_Filter(t *testing.T) {
	assert.Nil(t, Options{}.Filter())
	assert.Equal(t, After{Seq: 2}, Options{Since: 2}.Filter())
	assert.Equal(t, And{Predicates: []Predicate{
		Equals{Field: FieldGraph, Value: ir.IRString("g")},
		Equals{Field: FieldKind, Value: ir.IRString("choice")},
		Equals{Field: FieldChoice, Value: ir.IRString("c")},
		After{Seq: 1},
	}}, Options{Graph: "g", Kind: ir.EntryChoice, Choice: "c", Since: 1}.Filter())
}
