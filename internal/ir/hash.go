package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
)

// Domain prefixes for content-addressed identity.
// The version suffix allows a future algorithm migration.
const (
	DomainEvent   = "lodestar/event/v1"
	DomainLedger  = "lodestar/ledger/v1"
	DomainContent = "lodestar/content/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null separator keeps the domain/data boundary unambiguous.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// EntryID computes the content-addressed id of an event log entry.
// It covers what happened and when (seq), but not diagnostics, so two
// sessions resolving the same action at the same seq share an id only
// if they also share the session id.
func EntryID(e EventLogEntry) (string, error) {
	obj := IRObject{
		"session_id":  IRString(e.SessionID),
		"seq":         IRInt(e.Seq),
		"kind":        IRString(string(e.Kind)),
		"graph_id":    IRString(e.GraphID),
		"node_id":     IRString(e.NodeID),
		"choice_id":   IRString(e.ChoiceID),
		"source":      IRString(e.Source),
		"outcome_ids": Strings(e.OutcomeIDs),
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("EntryID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainEvent, canonical), nil
}

// LedgerHash fingerprints a canonical ledger snapshot.
func LedgerHash(snapshot IRObject) (string, error) {
	canonical, err := MarshalCanonical(snapshot)
	if err != nil {
		return "", fmt.Errorf("LedgerHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainLedger, canonical), nil
}

// ContentHash fingerprints a set of authored graphs independent of the
// order they were loaded in.
func ContentHash(graphs []Graph) (string, error) {
	sorted := make([]Graph, len(graphs))
	copy(sorted, graphs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	canonical, err := MarshalCanonical(sorted)
	if err != nil {
		return "", fmt.Errorf("ContentHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainContent, canonical), nil
}

// MustEntryID is like EntryID but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustEntryID(e EventLogEntry) string {
	id, err := EntryID(e)
	if err != nil {
		panic(err)
	}
	return id
}
