package harness

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tristore/internal/backend"
	"github.com/roach88/tristore/internal/store"
	"github.com/roach88/tristore/internal/telemetry"
	"github.com/roach88/tristore/internal/testutil"
)

func sampleTrace() []TraceEvent {
	return []TraceEvent{
		{Step: 0, Op: "setup", Outcome: OutcomeOK, Result: 2},
		{Step: 1, Op: OpFind, Input: "<ex:alice> ?p ?o", Outcome: OutcomeOK},
		{Step: 2, Op: OpInsert, Input: `<ex:alice> <ex:has_name> "Alice" .`, Outcome: OutcomeDuplicate},
		{Step: 3, Op: OpDelete, Input: `<ex:bob> <ex:has_name> "Bob" .`, Outcome: OutcomeOK},
	}
}

func TestAssertTraceContains_Found(t *testing.T) {
	err := assertTraceContains(sampleTrace(), Assertion{Type: AssertTraceContains, Op: OpFind})
	assert.NoError(t, err)

	err = assertTraceContains(sampleTrace(), Assertion{Type: AssertTraceContains, Op: OpFind, Input: "<ex:alice> ?p ?o"})
	assert.NoError(t, err)
}

func TestAssertTraceContains_NotFound(t *testing.T) {
	err := assertTraceContains(sampleTrace(), Assertion{Type: AssertTraceContains, Op: OpTraverse})
	require.Error(t, err)

	assertErr, ok := err.(*AssertionError)
	require.True(t, ok)
	assert.Equal(t, "trace_contains", assertErr.Type)
	assert.Contains(t, assertErr.Expected, "traverse")
	assert.Equal(t, "not found in trace", assertErr.Actual)
}

func TestAssertTraceContains_IgnoresFailedEvents(t *testing.T) {
	// The only insert in the trace was a duplicate.
	err := assertTraceContains(sampleTrace(), Assertion{Type: AssertTraceContains, Op: OpInsert})
	require.Error(t, err)
}

func TestAssertTraceContains_WrongInput(t *testing.T) {
	err := assertTraceContains(sampleTrace(), Assertion{Type: AssertTraceContains, Op: OpFind, Input: "?s ?p ?o"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "with input ?s ?p ?o")
}

func TestAssertTraceOrder_Correct(t *testing.T) {
	err := assertTraceOrder(sampleTrace(), Assertion{Type: AssertTraceOrder, Ops: []string{"setup", OpFind, OpDelete}})
	assert.NoError(t, err)
}

func TestAssertTraceOrder_WrongOrder(t *testing.T) {
	err := assertTraceOrder(sampleTrace(), Assertion{Type: AssertTraceOrder, Ops: []string{OpDelete, OpFind}})
	require.Error(t, err)

	assertErr, ok := err.(*AssertionError)
	require.True(t, ok)
	assert.Equal(t, "matched only [delete]", assertErr.Actual)
}

func TestAssertTraceCount(t *testing.T) {
	tests := []struct {
		name    string
		op      string
		count   int
		wantErr bool
	}{
		{"exact", OpFind, 1, false},
		{"failed events count", OpInsert, 1, false},
		{"too few", OpFind, 2, true},
		{"too many", OpDelete, 0, true},
		{"zero", OpTraverse, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := assertTraceCount(sampleTrace(), Assertion{Type: AssertTraceCount, Op: tt.op, Count: tt.count})
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestEvaluateAssertions_FinalState(t *testing.T) {
	ctx := context.Background()
	st, err := store.Open(ctx, backend.NewMemory(telemetry.Discard()))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close(ctx) })

	_, err = st.InsertBatch(ctx, append(testutil.People(), testutil.Edge(testutil.Alice, testutil.Knows, testutil.Bob)))
	require.NoError(t, err)

	alice := "<ex:alice>"
	present := &TripleSpec{Subject: alice, Predicate: "foaf:knows", Object: ValueSpec{Node: strPtr("<ex:bob>")}}
	absent := &TripleSpec{Subject: alice, Predicate: "foaf:knows", Object: ValueSpec{Node: strPtr("<ex:nobody>")}}

	n, err := st.Count(ctx)
	require.NoError(t, err)

	actx := &AssertionContext{Store: st, Ctx: ctx}
	errs := EvaluateAssertions(NewResult("memory"), []Assertion{
		{Type: AssertFinalCount, Count: n},
		{Type: AssertFinalContains, Triple: present},
		{Type: AssertFinalAbsent, Triple: absent},
		{Type: AssertFinalContains, Triple: absent},
		{Type: AssertFinalStats, Stats: map[string]int{"triples": n + 1}},
	}, actx)

	require.Len(t, errs, 2)
	assert.Contains(t, errs[0], "assertions[3]")
	assert.Contains(t, errs[0], "<ex:nobody> . stored")
	assert.Contains(t, errs[1], "assertions[4]")
	assert.Contains(t, errs[1], "expected triples")
}

func TestEvaluateAssertions_UnknownType(t *testing.T) {
	errs := EvaluateAssertions(NewResult("memory"), []Assertion{{Type: "eventually"}}, nil)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], `unknown assertion type "eventually"`)
}

func TestAssertionError_ErrorFormat(t *testing.T) {
	err := &AssertionError{
		Type:     AssertTraceCount,
		Expected: "op find exactly 2 times",
		Actual:   "1 times",
		Trace:    sampleTrace()[:2],
	}

	want := "Assertion failed: trace_count\n" +
		"  Expected: op find exactly 2 times\n" +
		"  Actual: 1 times\n" +
		"\nFull trace:\n" +
		"  [0] setup  -> ok\n" +
		"  [1] find <ex:alice> ?p ?o -> ok\n"
	assert.Equal(t, want, err.Error())
}

func strPtr(s string) *string { return &s }
