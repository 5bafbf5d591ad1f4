package store

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/roach88/tristore/internal/index"
	"github.com/roach88/tristore/internal/triple"
)

// Stats summarizes a store.
type Stats struct {
	Backend    string `json:"backend"`
	Triples    int    `json:"triples"`
	Subjects   int    `json:"subjects"`
	Predicates int    `json:"predicates"`
	Objects    int    `json:"objects"`
	SizeBytes  int64  `json:"size_bytes"`
}

// Get returns the triple stored under id, or nil if there is none.
func (g *GraphStore) Get(ctx context.Context, id triple.ID) (*triple.Triple, error) {
	if err := g.checkPoisoned(); err != nil {
		return nil, err
	}
	t, err := g.backend.Get(ctx, id)
	if err != nil {
		return nil, g.storageErr("get", err)
	}
	return t, nil
}

// Contains reports whether content identical to t is stored.
func (g *GraphStore) Contains(ctx context.Context, t triple.Triple) (bool, error) {
	got, err := g.Get(ctx, t.ID())
	if err != nil {
		return false, err
	}
	return got != nil, nil
}

// Find returns every stored triple matching pat.
//
// The index lock is held only while resolving candidate IDs. A candidate
// deleted before its body is fetched is left out of the result.
func (g *GraphStore) Find(ctx context.Context, pat triple.Pattern) ([]triple.Triple, error) {
	ctx, span := g.tracer.Start(ctx, "tristore.find",
		trace.WithAttributes(attribute.String("pattern", pat.String())))
	defer span.End()

	out, route, err := g.find(ctx, pat)
	span.SetAttributes(
		attribute.String("route", route.String()),
		attribute.Int("results", len(out)),
	)
	recordErr(span, err)
	return out, err
}

// Explain reports which index ordering would answer pat.
func (g *GraphStore) Explain(pat triple.Pattern) index.Route {
	return index.Plan(pat)
}

func (g *GraphStore) find(ctx context.Context, pat triple.Pattern) ([]triple.Triple, index.Route, error) {
	if pat.IsWildcard() {
		if err := g.checkPoisoned(); err != nil {
			return nil, index.RouteScan, err
		}
		all, err := g.backend.All(ctx)
		if err != nil {
			return nil, index.RouteScan, g.storageErr("find", err)
		}
		return all, index.RouteScan, nil
	}

	var (
		ids   []triple.ID
		route index.Route
	)
	if err := g.withRead(func() { ids, route = g.idx.Candidates(pat) }); err != nil {
		return nil, route, err
	}

	out := make([]triple.Triple, 0, len(ids))
	for _, id := range ids {
		t, err := g.backend.Get(ctx, id)
		if err != nil {
			return nil, route, g.storageErr("find", err)
		}
		// Absent or no longer matching: changed after the index was read.
		if t == nil || !pat.Matches(*t) {
			continue
		}
		out = append(out, *t)
	}
	return out, route, nil
}

// Traverse walks outgoing edges depth first from start and returns every
// node reached, excluding start, in discovery order. With no predicates
// every edge is followed; otherwise only edges labelled with one of them.
// Only node-valued objects extend the walk. Cycles terminate.
func (g *GraphStore) Traverse(ctx context.Context, start triple.NodeID, predicates ...triple.Predicate) ([]triple.NodeID, error) {
	ctx, span := g.tracer.Start(ctx, "tristore.traverse",
		trace.WithAttributes(
			attribute.String("start", start.String()),
			attribute.Int("predicates", len(predicates)),
		))
	defer span.End()

	// Keyed by canonical bytes so differently normalized spellings of a
	// name are one node.
	visited := map[string]struct{}{string(start.Bytes()): {}}
	stack := []triple.NodeID{start}
	var reached []triple.NodeID

	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		edges, err := g.outgoing(ctx, current, predicates)
		if err != nil {
			recordErr(span, err)
			return nil, err
		}
		for _, t := range edges {
			node, ok := t.Object.(triple.Node)
			if !ok {
				continue
			}
			key := string(node.ID.Bytes())
			if _, seen := visited[key]; seen {
				continue
			}
			visited[key] = struct{}{}
			reached = append(reached, node.ID)
			stack = append(stack, node.ID)
		}
	}

	span.SetAttributes(attribute.Int("results", len(reached)))
	return reached, nil
}

func (g *GraphStore) outgoing(ctx context.Context, from triple.NodeID, predicates []triple.Predicate) ([]triple.Triple, error) {
	if len(predicates) == 0 {
		out, _, err := g.find(ctx, triple.SubjectPattern(from))
		return out, err
	}
	var out []triple.Triple
	for _, p := range predicates {
		edges, _, err := g.find(ctx, triple.SubjectPredicatePattern(from, p))
		if err != nil {
			return nil, err
		}
		out = append(out, edges...)
	}
	return out, nil
}

// Count returns the number of triples held by the backend.
func (g *GraphStore) Count(ctx context.Context) (int, error) {
	if err := g.checkPoisoned(); err != nil {
		return 0, err
	}
	n, err := g.backend.Count(ctx)
	if err != nil {
		return 0, g.storageErr("count", err)
	}
	return n, nil
}

// Stats combines backend totals with distinct key counts from the index.
func (g *GraphStore) Stats(ctx context.Context) (Stats, error) {
	ctx, span := g.tracer.Start(ctx, "tristore.stats")
	defer span.End()

	st := Stats{Backend: g.backend.Name()}
	err := g.withRead(func() {
		st.Subjects = g.idx.SubjectCount()
		st.Predicates = g.idx.PredicateCount()
		st.Objects = g.idx.ObjectCount()
	})
	if err != nil {
		recordErr(span, err)
		return Stats{}, err
	}

	if st.Triples, err = g.Count(ctx); err != nil {
		recordErr(span, err)
		return Stats{}, err
	}
	if st.SizeBytes, err = g.backend.SizeBytes(ctx); err != nil {
		err = g.storageErr("stats", err)
		recordErr(span, err)
		return Stats{}, err
	}
	return st, nil
}
