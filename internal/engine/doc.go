// Package engine implements the Lodestar narrative decision engine.
//
// The engine walks authored graphs (quests and dialogue trees share one
// machine), gates choices through the requirement evaluator, applies
// outcomes through the dispatcher and records every resolved action in an
// append-only event log.
//
// ARCHITECTURE:
//
// Single-Writer, Synchronous:
// Every public call is one atomic step from the caller's point of view.
// Legality checks run first and a rejected call mutates nothing. Once
// accepted, outcome application, lifecycle transitions, the log append and
// next-node computation all finish before the call returns. There is no
// background work and no locking; callers must drive an Engine from one
// goroutine.
//
// Resolution Flow:
//  1. guard: session not ended, graph known, graph InProgress
//  2. evaluate: location constraint and every requirement of the choice
//  3. dispatch: choice outcomes, in authored order, soft failures recorded
//  4. advance: next node, graph completion, or chaining into another graph
//  5. refresh: Unavailable graphs whose unlock requirements now hold
//     become Available
//  6. append: one entry summarizing the whole resolution
//
// Lifecycle:
//
//	Unavailable → Available → InProgress → Completed
//	                    ↘           ↘
//	                     Failed ← ← Failed (FailQuest, abandon, failed ending)
//
// Completed and Failed are terminal. A graph's active node is set iff it is
// InProgress.
//
// Determinism:
// Entries are stamped with seq from a logical Clock, never wall-clock
// time. Graphs are refreshed in sorted id order. Replaying the log from an
// empty ledger reproduces the live ledger (see Replay).
package engine
