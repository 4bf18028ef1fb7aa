// Package harness runs conformance scenarios against mounted apps.
//
// A scenario loads an app from a CUE specs directory, mounts it on a
// manual scheduler, drives it through events and state updates, and
// checks the final state and markup.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: counter_clicks
//	description: "Clicking + twice adds 4"
//	specs: ../specs
//	app: counter
//	steps:
//	  - fire: { tag: button, index: 0, event: click }
//	  - update: { count: 10 }
//	assertions:
//	  - type: state
//	    path: count
//	    equals: 10
//	  - type: html_contains
//	    text: "<span>10</span>"
//	  - type: render_count
//	    count: 3
//
// specs is resolved relative to the scenario file.
//
// # Assertion Types
//
//   - state: the value at a dotted path of the final store state
//   - html_contains: a substring of the final live document
//   - render_count: the number of completed renders
//
// # Deterministic Testing
//
// Every run uses a fixed mount id and a fresh
// testutil.DeterministicClock for property record ids, so the final
// markup is byte-identical across runs. RunWithGolden compares it to
// testdata/golden/<name>.golden.
package harness
