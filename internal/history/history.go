// Package history implements a bounded linear undo/redo stack.
//
// The stack holds committed entries oldest first and a cursor counting how
// many of them are applied. Entries after the cursor are redo candidates and
// are dropped by the next Commit. Once the bound is exceeded the oldest entry
// is evicted and becomes the base: the state Undo returns when it reaches
// the start of the stack.
//
// A Stack is not safe for concurrent use.
package history

import (
	"errors"
	"fmt"
)

// ErrInvalidBound is returned by New for a non-positive bound.
var ErrInvalidBound = errors.New("history: max entries must be positive")

// Stack is a bounded linear history of entries of type T.
type Stack[T any] struct {
	entries []T
	cursor  int
	max     int
	base    T
}

// New returns an empty stack holding at most max entries, with base as the
// state before the first entry.
func New[T any](max int, base T) (*Stack[T], error) {
	if max <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBound, max)
	}
	return &Stack[T]{entries: make([]T, 0, max), max: max, base: base}, nil
}

// Commit drops any redo candidates, appends e and moves the cursor onto it,
// evicting the oldest entry if the stack is over its bound.
func (s *Stack[T]) Commit(e T) {
	clear(s.entries[s.cursor:])
	s.entries = append(s.entries[:s.cursor], e)
	s.cursor++
	if len(s.entries) > s.max {
		s.base = s.entries[0]
		var zero T
		s.entries[0] = zero
		s.entries = s.entries[1:]
		s.cursor--
	}
}

// Undo steps back one entry and returns the state to restore: the entry now
// current, or the base when the cursor reaches the start. It reports false,
// and changes nothing, when there is nothing to undo.
func (s *Stack[T]) Undo() (T, bool) {
	if s.cursor == 0 {
		var zero T
		return zero, false
	}
	s.cursor--
	return s.Current(), true
}

// Redo steps forward one entry and returns it. It reports false, and
// changes nothing, at the newest entry.
func (s *Stack[T]) Redo() (T, bool) {
	if s.cursor == len(s.entries) {
		var zero T
		return zero, false
	}
	s.cursor++
	return s.Current(), true
}

// Current returns the entry at the cursor, or the base before the first one.
func (s *Stack[T]) Current() T {
	if s.cursor == 0 {
		return s.base
	}
	return s.entries[s.cursor-1]
}

// Clear empties the stack. The base is kept.
func (s *Stack[T]) Clear() {
	clear(s.entries)
	s.entries = s.entries[:0]
	s.cursor = 0
}

// Reset empties the stack and replaces the base.
func (s *Stack[T]) Reset(base T) {
	s.Clear()
	s.base = base
}

// Len returns the number of retained entries.
func (s *Stack[T]) Len() int { return len(s.entries) }

// Cursor returns the number of applied entries, 0 ≤ Cursor ≤ Len.
func (s *Stack[T]) Cursor() int { return s.cursor }

// Max returns the bound.
func (s *Stack[T]) Max() int { return s.max }

// CanUndo reports whether Undo would do anything.
func (s *Stack[T]) CanUndo() bool { return s.cursor > 0 }

// CanRedo reports whether Redo would do anything.
func (s *Stack[T]) CanRedo() bool { return s.cursor < len(s.entries) }

// Entries returns a copy of the retained entries, oldest first.
func (s *Stack[T]) Entries() []T {
	out := make([]T, len(s.entries))
	copy(out, s.entries)
	return out
}

// Applied returns a copy of the entries up to the cursor, oldest first.
func (s *Stack[T]) Applied() []T {
	out := make([]T, s.cursor)
	copy(out, s.entries[:s.cursor])
	return out
}
