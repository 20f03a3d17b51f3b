// Package harness runs YAML-defined protocol scenarios.
//
// A scenario is a linear script of steps: fund identities, advance the tick,
// import entropy, and apply protocol operations with their expected outcomes.
//
// # Scenario Format
//
//	name: scenario_name
//	description: "What this scenario validates"
//	start_tick: 100
//	steps:
//	  - fund: { identity: creator, amount: 1000000 }
//	  - op:
//	      type: create_pool
//	      as: creator
//	      pool: ads-2024
//	      targets: 5
//	  - advance: 2
//	  - entropy: { tick: 102, value: 7 }
//	  - op:
//	      type: finalize_session
//	      as: viewer
//	      session: sess-1
//	      entropy_tick: 102
//	      expect_error: SESSION_NOT_FOUND
//
// Identities are friendly names; the harness derives a stable 32-byte
// identity from each name. Target hashes are likewise derived from the pool
// name and index, so scenarios never spell out raw digests.
//
// # Deterministic Testing
//
// Scenarios run against a fresh ledger with a pinned logical clock and
// scripted entropy, so a scenario's trace is identical across runs. Each step
// appends one trace line; the trace is compared against a golden file in
// testdata/golden via goldie. A step whose outcome differs from the script
// (an unexpected failure, or an expected failure that did not happen) aborts
// the run with an error rather than producing a divergent trace.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/assignment.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	harness.RunWithGolden(t, scenario)
package harness
