package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/lodestar/internal/collab"
	"github.com/roach88/lodestar/internal/engine"
	"github.com/roach88/lodestar/internal/ir"
	"github.com/roach88/lodestar/internal/ledger"
)

// ErrSlotNotFound is returned when loading or deleting a missing slot.
var ErrSlotNotFound = errors.New("save slot not found")

// Slot summarizes a save slot.
type Slot struct {
	Name        string `json:"name"`
	SessionID   string `json:"session_id"`
	Seq         int64  `json:"seq"`
	ContentHash string `json:"content_hash"`
	LedgerHash  string `json:"ledger_hash"`
	Entries     int    `json:"entries"`
}

// Save is everything a slot restores: the engine snapshot (log included)
// and the host's world state.
type Save struct {
	Snapshot engine.Snapshot
	World    collab.WorldState
}

// SaveSlot writes a save into slot name in one transaction.
//
// Log rows already stored for the slot are kept as long as they match the
// snapshot's log; from the first mismatch on, stored rows are replaced.
// Saving the same state twice writes no log rows.
func (s *Store) SaveSlot(ctx context.Context, name string, save Save) error {
	snap := save.Snapshot
	l, err := ledger.FromState(snap.Ledger)
	if err != nil {
		return fmt.Errorf("save slot %s: %w", name, err)
	}
	ledgerHash, err := l.Fingerprint()
	if err != nil {
		return fmt.Errorf("save slot %s: %w", name, err)
	}

	log := snap.Log
	snap.Log = nil
	snapJSON, err := marshalCanonical(snap, "snapshot")
	if err != nil {
		return fmt.Errorf("save slot %s: %w", name, err)
	}
	worldJSON, err := marshalCanonical(save.World, "world")
	if err != nil {
		return fmt.Errorf("save slot %s: %w", name, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save slot %s: begin: %w", name, err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO slots
		(name, session_id, seq, content_hash, ledger_hash, snapshot, world, engine_version, ir_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			session_id = excluded.session_id,
			seq = excluded.seq,
			content_hash = excluded.content_hash,
			ledger_hash = excluded.ledger_hash,
			snapshot = excluded.snapshot,
			world = excluded.world,
			engine_version = excluded.engine_version,
			ir_version = excluded.ir_version
	`,
		name,
		snap.SessionID,
		snap.Seq,
		snap.ContentHash,
		ledgerHash,
		snapJSON,
		worldJSON,
		ir.EngineVersion,
		ir.SchemaVersion,
	)
	if err != nil {
		return fmt.Errorf("save slot %s: %w", name, err)
	}

	keep, err := commonPrefix(ctx, tx, name, log)
	if err != nil {
		return fmt.Errorf("save slot %s: %w", name, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM event_log WHERE slot = ? AND seq > ?`, name, keep); err != nil {
		return fmt.Errorf("save slot %s: truncate log: %w", name, err)
	}
	for _, e := range log {
		if e.Seq <= keep {
			continue
		}
		if err := insertEntry(ctx, tx, name, e); err != nil {
			return fmt.Errorf("save slot %s: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save slot %s: commit: %w", name, err)
	}
	return nil
}

// commonPrefix returns the highest seq up to which the stored log for slot
// and entries agree entry by entry.
func commonPrefix(ctx context.Context, tx *sql.Tx, slot string, entries []ir.EventLogEntry) (int64, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT seq, id FROM event_log
		WHERE slot = ?
		ORDER BY seq ASC
	`, slot)
	if err != nil {
		return 0, fmt.Errorf("query log ids: %w", err)
	}
	defer rows.Close()

	var keep int64
	i := 0
	for rows.Next() {
		var seq int64
		var id string
		if err := rows.Scan(&seq, &id); err != nil {
			return 0, fmt.Errorf("scan log id: %w", err)
		}
		if i >= len(entries) || entries[i].Seq != seq || entries[i].ID != id {
			break
		}
		keep = seq
		i++
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("iterate log ids: %w", err)
	}
	return keep, nil
}

func insertEntry(ctx context.Context, tx *sql.Tx, slot string, e ir.EventLogEntry) error {
	entryJSON, err := marshalCanonical(e, "entry")
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO event_log
		(slot, seq, id, session_id, kind, graph_id, choice_id, entry)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		slot,
		e.Seq,
		e.ID,
		e.SessionID,
		string(e.Kind),
		e.GraphID,
		e.ChoiceID,
		entryJSON,
	)
	if err != nil {
		return fmt.Errorf("insert entry seq %d: %w", e.Seq, err)
	}
	return nil
}

// LoadSlot reads a save. The stored ledger hash is re-checked so a
// tampered or corrupted snapshot is refused.
func (s *Store) LoadSlot(ctx context.Context, name string) (Save, error) {
	var (
		save                       Save
		snapJSON, worldJSON, lHash string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT snapshot, world, ledger_hash FROM slots WHERE name = ?
	`, name).Scan(&snapJSON, &worldJSON, &lHash)
	if errors.Is(err, sql.ErrNoRows) {
		return save, fmt.Errorf("load slot %s: %w", name, ErrSlotNotFound)
	}
	if err != nil {
		return save, fmt.Errorf("load slot %s: %w", name, err)
	}

	if err := unmarshalText(snapJSON, "snapshot", &save.Snapshot); err != nil {
		return save, fmt.Errorf("load slot %s: %w", name, err)
	}
	if err := unmarshalText(worldJSON, "world", &save.World); err != nil {
		return save, fmt.Errorf("load slot %s: %w", name, err)
	}

	l, err := ledger.FromState(save.Snapshot.Ledger)
	if err != nil {
		return save, fmt.Errorf("load slot %s: %w", name, err)
	}
	if got, err := l.Fingerprint(); err != nil || got != lHash {
		return save, fmt.Errorf("load slot %s: ledger hash mismatch", name)
	}

	save.Snapshot.Log, err = s.ReadLog(ctx, name, 0)
	if err != nil {
		return save, fmt.Errorf("load slot %s: %w", name, err)
	}
	return save, nil
}

// ListSlots returns every slot ordered by name.
func (s *Store) ListSlots(ctx context.Context) ([]Slot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.name, s.session_id, s.seq, s.content_hash, s.ledger_hash,
		       (SELECT COUNT(*) FROM event_log e WHERE e.slot = s.name)
		FROM slots s
		ORDER BY s.name COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	defer rows.Close()

	slots := []Slot{}
	for rows.Next() {
		var sl Slot
		if err := rows.Scan(&sl.Name, &sl.SessionID, &sl.Seq, &sl.ContentHash, &sl.LedgerHash, &sl.Entries); err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		slots = append(slots, sl)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate slots: %w", err)
	}
	return slots, nil
}

// DeleteSlot removes a slot and its log rows.
func (s *Store) DeleteSlot(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM slots WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete slot %s: %w", name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("delete slot %s: %w", name, ErrSlotNotFound)
	}
	return nil
}
