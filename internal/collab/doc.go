// Package collab defines the narrow interfaces the narrative engine uses to
// reach systems it does not own (inventory, character progression, travel,
// companions, combat, puzzles and the presentation layer) and provides
// World, an in-memory implementation used by the CLI, the scenario harness
// and tests.
//
// The engine never inspects collaborator internals. Readers are consulted
// by the requirement evaluator; the remaining methods are only called by
// the outcome dispatcher.
package collab
