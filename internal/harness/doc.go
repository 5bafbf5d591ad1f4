// Package harness runs YAML scenarios against a GraphStore.
//
// A scenario inserts some facts, runs a flow of store operations with
// optional expectations, and finishes with assertions over the trace and
// the final store state. The same scenario can run on every backend; the
// trace is backend-independent, so one golden file covers all of them.
//
// # Scenario Format
//
//	name: people
//	description: "What this scenario validates"
//	setup:
//	  - subject: "<ex:alice>"
//	    predicate: ex:has_name
//	    object: { string: Alice }
//	flow:
//	  - op: find
//	    pattern: { subject: "<ex:alice>" }
//	    expect:
//	      count: 1
//	  - op: insert
//	    triple: { subject: "<ex:alice>", predicate: ex:has_name, object: { string: Alice } }
//	    expect:
//	      error: duplicate
//	assertions:
//	  - type: trace_count
//	    op: insert
//	    count: 1
//	  - type: final_stats
//	    stats: { subjects: 1 }
//
// Objects are maps with exactly one kind key (node, string, integer, float,
// boolean, datetime, bytes, json, null); string may be combined with lang
// or datatype.
//
// # Assertion Types
//
//   - trace_contains: an op (optionally with a given input) appears in the trace
//   - trace_order: ops appear in the given order
//   - trace_count: an op appears exactly N times
//   - final_count: the store holds exactly N triples
//   - final_contains / final_absent: a triple is / is not stored
//   - final_stats: subject, predicate, object and triple counts
//
// # Deterministic Testing
//
// created_at comes from testutil.DeterministicClock and traces never
// include IDs or timestamps, so traces are identical across runs and
// backends.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/people.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(ctx, scenario, harness.BackendFor(backend.KindSQLite, ""))
//	if !result.Pass {
//	    for _, e := range result.Errors {
//	        log.Println(e)
//	    }
//	}
package harness
