package harness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strings"

	"github.com/roach88/tristore/internal/backend"
	"github.com/roach88/tristore/internal/store"
	"github.com/roach88/tristore/internal/telemetry"
	"github.com/roach88/tristore/internal/testutil"
	"github.com/roach88/tristore/internal/triple"
)

// Harness executes one scenario against one store.
type Harness struct {
	store  *store.GraphStore
	logger *slog.Logger
}

// BackendFor returns options for an isolated backend of the given kind.
// SQLite and Badger run in memory; RocksDB needs dir, which should be a
// fresh temporary directory.
func BackendFor(kind backend.Kind, dir string) backend.Options {
	opts := backend.Options{Kind: kind, Logger: telemetry.Discard()}
	switch kind {
	case backend.KindSQLite:
		opts.Path = ":memory:"
	case backend.KindBadger:
		opts.Badger.InMemory = true
	case backend.KindRocksDB:
		opts.Path = dir
	}
	return opts
}

// Runs reports whether s should run on kind.
func (s *Scenario) Runs(kind backend.Kind) bool {
	return len(s.Backends) == 0 || slices.Contains(s.Backends, string(kind))
}

// Run executes a scenario on a fresh backend built from opts.
//
// Execution flow:
// 1. Open the backend and a store with a deterministic clock
// 2. Insert setup facts in one batch
// 3. Execute flow steps, checking expect clauses
// 4. Evaluate assertions over the trace and final state
func Run(ctx context.Context, scenario *Scenario, opts backend.Options) (*Result, error) {
	b, err := backend.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open backend: %w", err)
	}

	clock := testutil.NewDeterministicClock()
	logger := telemetry.Discard()
	st, err := store.Open(ctx, b, store.WithLogger(logger), store.WithClock(clock.Now))
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close(ctx)

	h := &Harness{store: st, logger: logger}
	result := NewResult(b.Name())

	if err := h.executeSetup(ctx, scenario.Setup, result); err != nil {
		return nil, fmt.Errorf("failed to execute setup: %w", err)
	}
	h.executeFlow(ctx, scenario.Flow, result)

	actx := &AssertionContext{Store: st, Ctx: ctx}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}
	return result, nil
}

func (h *Harness) executeSetup(ctx context.Context, setup []TripleSpec, result *Result) error {
	if len(setup) == 0 {
		return nil
	}
	ts, err := convertTriples(setup)
	if err != nil {
		return err
	}
	ids, err := h.store.InsertBatch(ctx, ts)
	if err != nil {
		return err
	}
	result.AddTrace(TraceEvent{
		Step:    0,
		Op:      "setup",
		Outcome: OutcomeOK,
		Result:  distinct(ids),
	})
	h.logger.Info("setup inserted", "triples", len(ts))
	return nil
}

// executeFlow runs every step. Step failures are recorded on result; they
// never stop the flow.
func (h *Harness) executeFlow(ctx context.Context, flow []Step, result *Result) {
	for i, step := range flow {
		ev, got := h.executeStep(ctx, step)
		ev.Step = i + 1
		result.AddTrace(ev)

		for _, msg := range checkExpect(step, ev, got) {
			result.AddError(fmt.Sprintf("flow[%d] %s: %s", i, step.Op, msg))
		}
		h.logger.Info("flow step completed", "step", i, "op", step.Op, "outcome", ev.Outcome)
	}
}

// observed carries raw step outputs for expect checking.
type observed struct {
	count   *int
	found   *bool
	triples []string
	nodes   []string
	stats   map[string]int
}

func (h *Harness) executeStep(ctx context.Context, step Step) (TraceEvent, observed) {
	ev := TraceEvent{Op: step.Op, Outcome: OutcomeOK}
	var got observed
	var err error

	switch step.Op {
	case OpInsert:
		t, _ := step.Triple.Triple()
		ev.Input = t.String()
		_, err = h.store.Insert(ctx, t)

	case OpInsertBatch:
		ts, _ := convertTriples(step.Triples)
		ev.Input = fmt.Sprintf("%d triples", len(ts))
		var ids []triple.ID
		if ids, err = h.store.InsertBatch(ctx, ts); err == nil {
			n := distinct(ids)
			got.count = &n
			ev.Result = n
		}

	case OpGet:
		t, _ := step.Triple.Triple()
		ev.Input = t.String()
		var stored *triple.Triple
		if stored, err = h.store.Get(ctx, t.ID()); err == nil {
			found := stored != nil
			got.found = &found
			ev.Result = found
		}

	case OpDelete:
		t, _ := step.Triple.Triple()
		ev.Input = t.String()
		var existed bool
		if existed, err = h.store.Delete(ctx, t.ID()); err == nil {
			got.found = &existed
			ev.Result = existed
		}

	case OpContains:
		t, _ := step.Triple.Triple()
		ev.Input = t.String()
		var ok bool
		if ok, err = h.store.Contains(ctx, t); err == nil {
			got.found = &ok
			ev.Result = ok
		}

	case OpFind:
		pat, _ := step.Pattern.Pattern()
		ev.Input = pat.String()
		var ts []triple.Triple
		if ts, err = h.store.Find(ctx, pat); err == nil {
			lines := make([]string, len(ts))
			for i, t := range ts {
				lines[i] = t.String()
			}
			sort.Strings(lines)
			n := len(lines)
			got.count = &n
			got.triples = lines
			ev.Result = lines
		}

	case OpTraverse:
		start, _ := triple.ParseNode(step.Start)
		preds := make([]triple.Predicate, len(step.Predicates))
		for i, p := range step.Predicates {
			preds[i] = triple.Predicate(p)
		}
		ev.Input = strings.TrimSpace(start.String() + " " + strings.Join(step.Predicates, " "))
		var nodes []triple.NodeID
		if nodes, err = h.store.Traverse(ctx, start, preds...); err == nil {
			names := make([]string, len(nodes))
			for i, n := range nodes {
				names[i] = n.String()
			}
			got.nodes = names
			ev.Result = names
		}

	case OpCount:
		var n int
		if n, err = h.store.Count(ctx); err == nil {
			got.count = &n
			ev.Result = n
		}

	case OpStats:
		var s store.Stats
		if s, err = h.store.Stats(ctx); err == nil {
			got.stats = statsMap(s)
			ev.Result = got.stats
		}
	}

	if err != nil {
		ev.Outcome = classify(err)
		ev.Result = nil
	}
	return ev, got
}

func checkExpect(step Step, ev TraceEvent, got observed) []string {
	var errs []string
	want := OutcomeOK
	if step.Expect != nil && step.Expect.Error != "" {
		want = step.Expect.Error
	}
	if ev.Outcome != want {
		errs = append(errs, fmt.Sprintf("expected outcome %s, got %s", want, ev.Outcome))
		return errs
	}
	if step.Expect == nil || ev.Outcome != OutcomeOK {
		return errs
	}

	exp := step.Expect
	if exp.Count != nil {
		if got.count == nil {
			errs = append(errs, "count not produced by this op")
		} else if *got.count != *exp.Count {
			errs = append(errs, fmt.Sprintf("expected count %d, got %d", *exp.Count, *got.count))
		}
	}
	if exp.Found != nil {
		if got.found == nil {
			errs = append(errs, "found not produced by this op")
		} else if *got.found != *exp.Found {
			errs = append(errs, fmt.Sprintf("expected found %t, got %t", *exp.Found, *got.found))
		}
	}
	if exp.Triples != nil {
		want := slices.Clone(exp.Triples)
		sort.Strings(want)
		if !slices.Equal(want, got.triples) {
			errs = append(errs, fmt.Sprintf("expected triples %q, got %q", want, got.triples))
		}
	}
	if exp.Nodes != nil && !slices.Equal(exp.Nodes, got.nodes) {
		errs = append(errs, fmt.Sprintf("expected nodes %q, got %q", exp.Nodes, got.nodes))
	}
	errs = append(errs, compareStats(exp.Stats, got.stats)...)
	return errs
}

func compareStats(want, got map[string]int) []string {
	keys := make([]string, 0, len(want))
	for k := range want {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var errs []string
	for _, k := range keys {
		if got[k] != want[k] {
			errs = append(errs, fmt.Sprintf("expected %s %d, got %d", k, want[k], got[k]))
		}
	}
	return errs
}

// classify maps store errors onto outcome classes.
func classify(err error) string {
	switch {
	case errors.Is(err, store.ErrDuplicate):
		return OutcomeDuplicate
	case errors.Is(err, store.ErrInvalidTriple):
		return OutcomeInvalid
	case errors.Is(err, store.ErrIndexPoisoned):
		return OutcomePoisoned
	default:
		return OutcomeStorage
	}
}

func statsMap(s store.Stats) map[string]int {
	return map[string]int{
		"triples":    s.Triples,
		"subjects":   s.Subjects,
		"predicates": s.Predicates,
		"objects":    s.Objects,
	}
}

func convertTriples(specs []TripleSpec) ([]triple.Triple, error) {
	out := make([]triple.Triple, len(specs))
	for i, ts := range specs {
		t, err := ts.Triple()
		if err != nil {
			return nil, fmt.Errorf("triple %d: %w", i, err)
		}
		out[i] = t
	}
	return out, nil
}

func distinct(ids []triple.ID) int {
	seen := make(map[triple.ID]struct{}, len(ids))
	for _, id := range ids {
		seen[id] = struct{}{}
	}
	return len(seen)
}
