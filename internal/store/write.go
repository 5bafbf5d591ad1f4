package store

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/roach88/tristore/internal/triple"
)

// Insert stores t and returns its content ID. Storing content that is
// already present fails with a *DuplicateError.
//
// A zero CreatedAt is filled from the store clock. It does not affect the ID.
func (g *GraphStore) Insert(ctx context.Context, t triple.Triple) (triple.ID, error) {
	ctx, span := g.tracer.Start(ctx, "tristore.insert")
	defer span.End()

	t, err := g.prepare(t)
	if err != nil {
		recordErr(span, err)
		return triple.ID{}, err
	}
	id := t.ID()
	span.SetAttributes(attribute.String("triple.id", id.Hex()))

	err = g.withWrite("insert", func() error {
		inserted, err := g.insertLocked(ctx, id, t)
		if err != nil {
			return err
		}
		if !inserted {
			return &DuplicateError{ID: id}
		}
		return nil
	})
	recordErr(span, err)
	return id, err
}

// InsertBatch stores every triple in ts under one lock acquisition and
// returns their IDs in input order. Content already present, including
// repeats within ts, is skipped rather than reported: its existing ID is
// returned.
//
// On a storage error the triples before the failing one stay stored.
func (g *GraphStore) InsertBatch(ctx context.Context, ts []triple.Triple) ([]triple.ID, error) {
	ctx, span := g.tracer.Start(ctx, "tristore.insert_batch",
		trace.WithAttributes(attribute.Int("batch.size", len(ts))))
	defer span.End()

	prepared := make([]triple.Triple, len(ts))
	for i, t := range ts {
		p, err := g.prepare(t)
		if err != nil {
			err = fmt.Errorf("batch item %d: %w", i, err)
			recordErr(span, err)
			return nil, err
		}
		prepared[i] = p
	}

	ids := make([]triple.ID, 0, len(prepared))
	skipped := 0
	err := g.withWrite("insert_batch", func() error {
		for _, t := range prepared {
			id := t.ID()
			inserted, err := g.insertLocked(ctx, id, t)
			if err != nil {
				return err
			}
			if !inserted {
				skipped++
				g.logger.Debug("batch skipped duplicate", "id", id.Hex())
			}
			ids = append(ids, id)
		}
		return nil
	})
	span.SetAttributes(attribute.Int("batch.skipped", skipped))
	if err != nil {
		recordErr(span, err)
		return nil, err
	}
	return ids, nil
}

// insertLocked reports false when id is already stored. The backend is
// written before the index; see the package doc for the failure window.
func (g *GraphStore) insertLocked(ctx context.Context, id triple.ID, t triple.Triple) (bool, error) {
	existing, err := g.backend.Get(ctx, id)
	if err != nil {
		return false, g.storageErr("insert", err)
	}
	if existing != nil {
		return false, nil
	}
	if err := g.backend.Put(ctx, id, t); err != nil {
		return false, g.storageErr("insert", err)
	}
	g.idx.Insert(t, id)
	return true, nil
}

// Delete removes the triple stored under id and reports whether it existed.
func (g *GraphStore) Delete(ctx context.Context, id triple.ID) (bool, error) {
	ctx, span := g.tracer.Start(ctx, "tristore.delete",
		trace.WithAttributes(attribute.String("triple.id", id.Hex())))
	defer span.End()

	var existed bool
	err := g.withWrite("delete", func() error {
		// The stored triple says which index entries to remove.
		t, err := g.backend.Get(ctx, id)
		if err != nil {
			return g.storageErr("delete", err)
		}
		if t == nil {
			return nil
		}
		existed, err = g.backend.Delete(ctx, id)
		if err != nil {
			return g.storageErr("delete", err)
		}
		g.idx.Remove(*t, id)
		return nil
	})
	span.SetAttributes(attribute.Bool("existed", existed))
	recordErr(span, err)
	return existed, err
}

func (g *GraphStore) prepare(t triple.Triple) (triple.Triple, error) {
	if t.Subject.IsZero() {
		return t, fmt.Errorf("%w: missing subject", ErrInvalidTriple)
	}
	if t.Predicate == "" {
		return t, fmt.Errorf("%w: empty predicate", ErrInvalidTriple)
	}
	if t.Object == nil {
		t.Object = triple.Null{}
	}
	if n, ok := t.Object.(triple.Node); ok && n.ID.IsZero() {
		return t, fmt.Errorf("%w: missing object node", ErrInvalidTriple)
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = g.now()
	}
	return t, nil
}
