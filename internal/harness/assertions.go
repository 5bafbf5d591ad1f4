package harness

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/tristore/internal/store"
)

// AssertionContext gives final-state assertions access to the store.
type AssertionContext struct {
	Store *store.GraphStore
	Ctx   context.Context
}

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, ev := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s %s -> %s\n", ev.Step, ev.Op, ev.Input, ev.Outcome)
		}
	}
	return buf.String()
}

// EvaluateAssertions checks every assertion and returns failure messages.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluateAssertion(result.Trace, a, actx); err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func evaluateAssertion(trace []TraceEvent, a Assertion, actx *AssertionContext) error {
	switch a.Type {
	case AssertTraceContains:
		return assertTraceContains(trace, a)
	case AssertTraceOrder:
		return assertTraceOrder(trace, a)
	case AssertTraceCount:
		return assertTraceCount(trace, a)
	case AssertFinalCount:
		return assertFinalCount(actx, a)
	case AssertFinalContains:
		return assertFinalPresence(actx, a, true)
	case AssertFinalAbsent:
		return assertFinalPresence(actx, a, false)
	case AssertFinalStats:
		return assertFinalStats(actx, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

// assertTraceContains checks for a successful event with the op and, if
// given, the exact input.
func assertTraceContains(trace []TraceEvent, a Assertion) error {
	for _, ev := range trace {
		if ev.Op == a.Op && ev.Outcome == OutcomeOK && (a.Input == "" || ev.Input == a.Input) {
			return nil
		}
	}
	expected := "op " + a.Op
	if a.Input != "" {
		expected += " with input " + a.Input
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: expected,
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks that ops appear in order. Intervening events are
// allowed.
func assertTraceOrder(trace []TraceEvent, a Assertion) error {
	next := 0
	for _, ev := range trace {
		if next < len(a.Ops) && ev.Op == a.Ops[next] {
			next++
		}
	}
	if next == len(a.Ops) {
		return nil
	}
	return &AssertionError{
		Type:     AssertTraceOrder,
		Expected: fmt.Sprintf("ops in order %v", a.Ops),
		Actual:   fmt.Sprintf("matched only %v", a.Ops[:next]),
		Trace:    trace,
	}
}

func assertTraceCount(trace []TraceEvent, a Assertion) error {
	n := 0
	for _, ev := range trace {
		if ev.Op == a.Op {
			n++
		}
	}
	if n == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertTraceCount,
		Expected: fmt.Sprintf("op %s exactly %d times", a.Op, a.Count),
		Actual:   fmt.Sprintf("%d times", n),
		Trace:    trace,
	}
}

func assertFinalCount(actx *AssertionContext, a Assertion) error {
	n, err := actx.Store.Count(actx.Ctx)
	if err != nil {
		return fmt.Errorf("count: %w", err)
	}
	if n == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertFinalCount,
		Expected: fmt.Sprintf("%d triples", a.Count),
		Actual:   fmt.Sprintf("%d triples", n),
	}
}

func assertFinalPresence(actx *AssertionContext, a Assertion, want bool) error {
	t, err := a.Triple.Triple()
	if err != nil {
		return err
	}
	ok, err := actx.Store.Contains(actx.Ctx, t)
	if err != nil {
		return fmt.Errorf("contains: %w", err)
	}
	if ok == want {
		return nil
	}
	state := map[bool]string{true: "stored", false: "absent"}
	return &AssertionError{
		Type:     a.Type,
		Expected: fmt.Sprintf("%s %s", t, state[want]),
		Actual:   state[ok],
	}
}

func assertFinalStats(actx *AssertionContext, a Assertion) error {
	s, err := actx.Store.Stats(actx.Ctx)
	if err != nil {
		return fmt.Errorf("stats: %w", err)
	}
	if diffs := compareStats(a.Stats, statsMap(s)); len(diffs) > 0 {
		return &AssertionError{
			Type:     AssertFinalStats,
			Expected: fmt.Sprintf("%v", a.Stats),
			Actual:   strings.Join(diffs, "; "),
		}
	}
	return nil
}
