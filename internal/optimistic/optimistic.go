// Package optimistic implements the apply/commit/revert discipline used for
// remote writes: mutate local state immediately, attempt the remote commit,
// and restore the pre-image if the commit is rejected.
package optimistic

import (
	"context"
	"fmt"
)

// Store holds a local slice of entities kept optimistically in sync with a
// remote system. It is not safe for concurrent use; callers serialize access.
type Store[T any] struct {
	items []T
}

// NewStore creates a store seeded with the given items.
func NewStore[T any](items []T) *Store[T] {
	return &Store[T]{items: append([]T(nil), items...)}
}

// Items returns the current local state. The returned slice is shared;
// callers must not mutate it.
func (s *Store[T]) Items() []T {
	return s.items
}

// Replace swaps in authoritative state from the remote, discarding local
// guesses.
func (s *Store[T]) Replace(items []T) {
	s.items = append([]T(nil), items...)
}

// Commit applies a local mutation, then runs the remote commit. If the
// commit fails the pre-image is restored exactly and the commit error is
// returned. apply receives a copy of the current items and returns the new
// local state; commit performs the remote write.
func (s *Store[T]) Commit(ctx context.Context, apply func(items []T) []T, commit func(ctx context.Context) error) error {
	preImage := append([]T(nil), s.items...)

	s.items = apply(append([]T(nil), s.items...))

	if err := commit(ctx); err != nil {
		s.items = preImage
		return fmt.Errorf("remote commit failed, local change reverted: %w", err)
	}
	return nil
}
