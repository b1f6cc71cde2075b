// Package ledger implements the World State Ledger: flags, faction
// reputation, per-graph lifecycle state, companion relationships, explicit
// graph unlock markers and the session ending.
//
// The ledger is pure data plus accessors. Clamping is the only rule it
// enforces; every other rule (reputation coupling, lifecycle transitions)
// lives in the engine. It is not safe for concurrent use: the engine is
// single-threaded and the only writer.
package ledger
