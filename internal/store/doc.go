// Package store persists save slots in SQLite.
//
// A slot holds one engine snapshot, the host's world state and the event
// log rows that produced it:
//   - slots: snapshot (without its log), world state, content hash,
//     ledger hash
//   - event_log: one row per entry, keyed by (slot, seq)
//
// Log rows are canonical JSON (RFC 8785) so a stored entry hashes to the
// same content-addressed id it was written with. Reads order by seq.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Log rows are deleted with their slot
package store
