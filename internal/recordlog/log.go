// Package recordlog is the durable, ordered row store behind both record
// lifecycles. A Log is read in full, mutated in memory and written back in
// full; it keeps no index or cache between calls.
package recordlog

import (
	"context"
	"sync"
	"time"

	"github.com/your-org/tcmreview/internal/apperr"
	"github.com/your-org/tcmreview/internal/observability"
)

// Schema describes the fixed column layout of one kind of row.
type Schema[T any] interface {
	Name() string
	Header() []string
	Encode(row T) []string
	Decode(cols []string) (T, error)
}

// Backend is the storage primitive under a Log. ReadAll returns rows in
// append order. RewriteAll replaces the entire content atomically: a reader
// sees either the old row set or the new one, never a partial write.
type Backend[T any] interface {
	Append(ctx context.Context, row T) error
	ReadAll(ctx context.Context) ([]T, error)
	RewriteAll(ctx context.Context, rows []T) error
}

// Log serializes every read-modify-write on one backend behind a single
// mutex. Each log has its own lock; logs never wait on each other.
type Log[T any] struct {
	name    string
	mu      sync.Mutex
	backend Backend[T]
}

func New[T any](name string, backend Backend[T]) *Log[T] {
	return &Log[T]{name: name, backend: backend}
}

func (l *Log[T]) Name() string { return l.name }

// Scan returns a snapshot of every row in log order.
func (l *Log[T]) Scan(ctx context.Context) ([]T, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rows, err := l.backend.ReadAll(ctx)
	if err != nil {
		return nil, apperr.E(apperr.KindInternal, l.name+" log read", err)
	}
	return rows, nil
}

// AppendWith builds a new row from the current row set and appends it,
// holding the lock across both steps so that values derived from the set
// (such as the next id) cannot be computed twice.
func (l *Log[T]) AppendWith(ctx context.Context, build func(rows []T) (T, error)) (T, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var zero T
	rows, err := l.backend.ReadAll(ctx)
	if err != nil {
		return zero, apperr.E(apperr.KindInternal, l.name+" log read", err)
	}
	row, err := build(rows)
	if err != nil {
		return zero, err
	}
	if err := l.backend.Append(ctx, row); err != nil {
		return zero, apperr.E(apperr.KindInternal, l.name+" log append", err)
	}
	observability.RecordsCreated.WithLabelValues(l.name).Inc()
	return row, nil
}

// Mutate loads every row, lets fn modify the slice in place and writes the
// complete slice back. fn reports whether anything changed; an unchanged set
// is not rewritten. fn must not drop rows: whatever it leaves in the slice is
// the entire log afterwards.
func (l *Log[T]) Mutate(ctx context.Context, fn func(rows []T) (bool, error)) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	rows, err := l.backend.ReadAll(ctx)
	if err != nil {
		return apperr.E(apperr.KindInternal, l.name+" log read", err)
	}
	changed, err := fn(rows)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}

	start := time.Now()
	if err := l.backend.RewriteAll(ctx, rows); err != nil {
		return apperr.E(apperr.KindInternal, l.name+" log rewrite", err)
	}
	observability.LogRewriteDuration.WithLabelValues(l.name).Observe(time.Since(start).Seconds())
	return nil
}

// NextID returns one more than the largest id in rows, or 1 for an empty set.
func NextID[T any](rows []T, idOf func(T) int) int {
	maxID := 0
	for _, r := range rows {
		if id := idOf(r); id > maxID {
			maxID = id
		}
	}
	return maxID + 1
}
