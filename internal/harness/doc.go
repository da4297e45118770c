// Package harness replays canvas interaction scenarios against a session.
//
// A scenario is a YAML file listing input events and commands in order.
// Each step is enqueued on a fresh engine.Session and drained before the
// next one runs, so every step observes the state left by the previous.
//
// # Scenario Format
//
//	name: drag_and_undo
//	description: "Dragging a node moves it; undo puts it back"
//	config:
//	  drag_threshold: 4
//	steps:
//	  - command: { kind: add_node, node: { id: a, x: 0, y: 0 } }
//	  - pointer: { kind: down, x: 10, y: 10, target: { kind: node, node: a } }
//	  - pointer: { kind: move, x: 40, y: 30, target: { kind: node, node: a } }
//	    expect: { state: dragging-node, selection: [a] }
//	  - pointer: { kind: up, x: 40, y: 30, target: { kind: node, node: a } }
//	  - command: { kind: undo }
//	assertions:
//	  - type: node_position
//	    node: a
//	    x: 0
//	    y: 0
//
// Exactly one of pointer, key, wheel, blur or command is set per step.
// advance moves the scenario clock before the step runs, which is how
// double clicks and history coalescing windows are exercised.
//
// # Assertion Types
//
//   - node_position: a node sits at (x, y)
//   - node_deleted: a node's deleted flag equals deleted
//   - node_count: the number of live nodes
//   - connection_count: the number of live connections
//   - selection: the selection equals ids
//   - gesture_state: the controller is in state
//   - viewport: the viewport offset and scale
//   - can_undo / can_redo: the history stacks are non-empty or empty
//
// # Deterministic Testing
//
// Scenarios run on a fake wall clock starting at testutil.Epoch and a
// sequential ID generator, with saves written immediately. Traces are
// therefore byte-for-byte reproducible and are compared against golden
// files in testdata/golden.
package harness
