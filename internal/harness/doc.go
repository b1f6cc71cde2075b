// Package harness plays scripted scenarios against the narrative engine.
//
// A scenario loads authored content, seeds the host world, runs a list of
// steps through a real engine, checks each step's expectation and then
// evaluates assertions against the final state and the event log.
//
// # Scenario Format
//
//	name: board_the_derelict
//	description: "Boarding the derelict chains into the station quest"
//	content:
//	  - ../../content
//	session: test-session-board
//	setup:
//	  skills: { technical: 2 }
//	steps:
//	  - start: quest_main_prologue
//	  - choose: { graph: quest_main_prologue, choice: investigate_signal }
//	    expect: { node: quest_main_prologue_stage_2 }
//	  - choose: { graph: quest_main_prologue, choice: board_vessel }
//	    expect: { graph: quest_main_station, node: station_arrival }
//	  - save_restore: true
//	  - external:
//	      source: combat
//	      outcomes: [{ kind: GrantExperience, amount: 40 }]
//	assertions:
//	  - type: graph_state
//	    graph: quest_main_prologue
//	    state: Completed
//	  - type: reputation
//	    subject: syndicate
//	    value: -3
//	  - type: replay_equivalent
//
// A step may instead expect a rejection: expect: { error: ILLEGAL_CHOICE }.
//
// # Assertion Types
//
//   - graph_state: a graph's lifecycle state
//   - active_node: a graph's active node
//   - flag: a ledger flag is set (or cleared with set: false)
//   - reputation, relationship: a ledger value
//   - experience, item, skill: host world values
//   - ending: the session ending id
//   - event_count: number of log entries of a kind
//   - choice_order: choices appear in the log in this order
//   - diagnostic: some entry carries a diagnostic containing subject
//   - signal: the host received a signal of kind for subject
//   - replay_equivalent: replaying the log rebuilds the live ledger
//
// # Determinism
//
// Sessions use a fixed id (scenario.session or "test-session-default"),
// timestamps are logical clock ticks and save_restore goes through an
// in-memory SQLite store, so the trace of a scenario is byte-identical
// across runs and can be compared against golden files.
package harness
