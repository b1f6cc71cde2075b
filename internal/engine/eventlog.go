package engine

import (
	"fmt"
	"slices"

	"github.com/roach88/lodestar/internal/ir"
)

// EventLog is the append-only, seq-ordered record of resolved actions.
// Entries are never mutated or reordered after Append.
type EventLog struct {
	entries []ir.EventLogEntry
}

// NewEventLog returns an empty log.
func NewEventLog() *EventLog {
	return &EventLog{}
}

// Append adds an entry. Its seq must be greater than every logged seq and
// its id must be set.
func (l *EventLog) Append(e ir.EventLogEntry) error {
	if e.ID == "" {
		return fmt.Errorf("append: entry at seq %d has no id", e.Seq)
	}
	if !ir.ValidEntryKinds[e.Kind] {
		return fmt.Errorf("append: invalid entry kind %q", e.Kind)
	}
	if n := len(l.entries); n > 0 && e.Seq <= l.entries[n-1].Seq {
		return fmt.Errorf("append: seq %d not after %d", e.Seq, l.entries[n-1].Seq)
	}
	l.entries = append(l.entries, cloneEntry(e))
	return nil
}

// Query returns the entries with seq greater than since, oldest first.
// Query(0) returns the whole log. The result is a copy.
func (l *EventLog) Query(since int64) []ir.EventLogEntry {
	i, _ := slices.BinarySearchFunc(l.entries, since+1, func(e ir.EventLogEntry, seq int64) int {
		switch {
		case e.Seq < seq:
			return -1
		case e.Seq > seq:
			return 1
		}
		return 0
	})
	out := make([]ir.EventLogEntry, 0, len(l.entries)-i)
	for _, e := range l.entries[i:] {
		out = append(out, cloneEntry(e))
	}
	return out
}

// Len returns the number of entries.
func (l *EventLog) Len() int {
	return len(l.entries)
}

// LastSeq returns the seq of the newest entry, or 0 when empty.
func (l *EventLog) LastSeq() int64 {
	if len(l.entries) == 0 {
		return 0
	}
	return l.entries[len(l.entries)-1].Seq
}

// restoreEventLog rebuilds a log from serialized entries, re-checking
// ordering and ids.
func restoreEventLog(entries []ir.EventLogEntry) (*EventLog, error) {
	log := NewEventLog()
	for _, e := range entries {
		want, err := ir.EntryID(e)
		if err != nil {
			return nil, err
		}
		if e.ID != want {
			return nil, fmt.Errorf("entry at seq %d: id mismatch", e.Seq)
		}
		if err := log.Append(e); err != nil {
			return nil, err
		}
	}
	return log, nil
}

func cloneEntry(e ir.EventLogEntry) ir.EventLogEntry {
	e.OutcomeIDs = nonNil(slices.Clone(e.OutcomeIDs))
	e.Outcomes = nonNil(slices.Clone(e.Outcomes))
	e.Transitions = nonNil(slices.Clone(e.Transitions))
	e.Diagnostics = nonNil(slices.Clone(e.Diagnostics))
	return e
}

// nonNil keeps empty lists serializing as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
