package store

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/roach88/tristore/internal/backend"
	"github.com/roach88/tristore/internal/index"
)

const tracerName = "github.com/roach88/tristore/internal/store"

// GraphStore answers triple queries over one backend.
// Safe for concurrent use.
type GraphStore struct {
	mu       sync.RWMutex
	idx      *index.Index
	backend  backend.Backend
	poisoned atomic.Bool

	logger *slog.Logger
	tracer trace.Tracer
	now    func() time.Time
}

// Option configures a GraphStore.
type Option func(*GraphStore)

// WithLogger sets the logger. Default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(g *GraphStore) { g.logger = l }
}

// WithTracerProvider sets where spans go. Default is the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(g *GraphStore) { g.tracer = tp.Tracer(tracerName) }
}

// WithClock sets the source of created_at for triples inserted without one.
func WithClock(now func() time.Time) Option {
	return func(g *GraphStore) { g.now = now }
}

// Open wraps b and rebuilds the index from every triple it holds.
// The store takes ownership of b; Close closes it.
func Open(ctx context.Context, b backend.Backend, opts ...Option) (*GraphStore, error) {
	g := &GraphStore{
		idx:     index.New(),
		backend: b,
		logger:  slog.Default(),
		tracer:  otel.GetTracerProvider().Tracer(tracerName),
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(g)
	}

	if err := g.rebuild(ctx); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *GraphStore) rebuild(ctx context.Context) error {
	ctx, span := g.tracer.Start(ctx, "tristore.rebuild",
		trace.WithAttributes(attribute.String("backend", g.backend.Name())))
	defer span.End()

	start := time.Now()
	all, err := g.backend.All(ctx)
	if err != nil {
		err = g.storageErr("rebuild", err)
		recordErr(span, err)
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.idx.Clear()
	for _, t := range all {
		g.idx.Insert(t, t.ID())
	}

	span.SetAttributes(attribute.Int("triples", g.idx.Len()))
	g.logger.Info("index rebuilt",
		"backend", g.backend.Name(),
		"triples", g.idx.Len(),
		"duration", time.Since(start),
	)
	return nil
}

// Flush pushes buffered backend writes to durable storage.
func (g *GraphStore) Flush(ctx context.Context) error {
	if err := g.checkPoisoned(); err != nil {
		return err
	}
	if err := g.backend.Flush(ctx); err != nil {
		return g.storageErr("flush", err)
	}
	return nil
}

// Close flushes and closes the backend. A poisoned store is closed
// without flushing.
func (g *GraphStore) Close(ctx context.Context) error {
	var flushErr error
	if !g.poisoned.Load() {
		flushErr = g.Flush(ctx)
	}
	if err := g.backend.Close(); err != nil {
		return g.storageErr("close", err)
	}
	return flushErr
}

// BackendName reports which backend is active.
func (g *GraphStore) BackendName() string { return g.backend.Name() }

func (g *GraphStore) storageErr(op string, err error) error {
	return &StorageError{Op: op, Backend: g.backend.Name(), Err: err}
}

func (g *GraphStore) checkPoisoned() error {
	if g.poisoned.Load() {
		return ErrIndexPoisoned
	}
	return nil
}

// withWrite runs fn under the exclusive lock. If fn does not return
// normally the store is poisoned before the lock is released; the panic
// keeps unwinding to the caller.
func (g *GraphStore) withWrite(op string, fn func() error) error {
	if err := g.checkPoisoned(); err != nil {
		return err
	}
	g.mu.Lock()
	if g.poisoned.Load() {
		g.mu.Unlock()
		return ErrIndexPoisoned
	}

	returned := false
	defer func() {
		if !returned {
			g.poisoned.Store(true)
			g.logger.Error("writer aborted while holding index lock; store poisoned", "op", op)
		}
		g.mu.Unlock()
	}()

	err := fn()
	returned = true
	return err
}

// withRead runs fn under the shared lock.
func (g *GraphStore) withRead(fn func()) error {
	if err := g.checkPoisoned(); err != nil {
		return err
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.poisoned.Load() {
		return ErrIndexPoisoned
	}
	fn()
	return nil
}

func recordErr(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
