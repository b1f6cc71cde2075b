// Package logquery is the filter language for stored event log entries.
//
// A Query names a save slot and an optional predicate tree over the
// indexed columns of the event_log table:
//
//	Query{
//	  Slot: "default",
//	  Filter: And{Predicates: []Predicate{
//	    Equals{Field: FieldGraph, Value: ir.IRString("quest_main_station")},
//	    After{Seq: 3},
//	  }},
//	}
//
// Compile turns a Query into parameterized SQLite. Values are always bound
// as parameters, never interpolated, and every query orders by seq so
// results come back in log order.
//
// Predicate is a sealed interface: only Equals, After and And implement it.
package logquery
