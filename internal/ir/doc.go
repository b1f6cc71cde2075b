// Package ir provides the canonical content and state types for Lodestar.
//
// This package contains the authored content model (graphs, nodes, choices,
// requirements, outcomes) and the event log record. All other internal
// packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - No float types anywhere - use int64 for every scalar
//   - Authored content is immutable at runtime; lifecycle state lives in the engine
//   - All JSON and YAML tags use snake_case
//   - Logical clocks (seq) only, never wall-clock timestamps
package ir
