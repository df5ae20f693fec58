// Package history keeps a linear undo/redo list of immutable snapshots.
package history

// History stores snapshots and a cursor. Entry 0 is the baseline and is
// never undone past. Committing after an undo drops the redo tail.
type History[T any] struct {
	entries []T
	cursor  int
}

// New returns a history holding only baseline.
func New[T any](baseline T) *History[T] {
	return &History[T]{entries: []T{baseline}}
}

// Commit records s as the newest snapshot and moves the cursor to it.
func (h *History[T]) Commit(s T) {
	h.entries = append(h.entries[:h.cursor+1], s)
	h.cursor++
}

// Undo moves back one snapshot. It reports false at the baseline.
func (h *History[T]) Undo() (T, bool) {
	if !h.CanUndo() {
		return h.Current(), false
	}
	h.cursor--
	return h.Current(), true
}

// Redo moves forward one snapshot. It reports false at the newest entry.
func (h *History[T]) Redo() (T, bool) {
	if !h.CanRedo() {
		return h.Current(), false
	}
	h.cursor++
	return h.Current(), true
}

func (h *History[T]) Current() T { return h.entries[h.cursor] }

// Index returns the cursor position; 0 is the baseline.
func (h *History[T]) Index() int { return h.cursor }

// Len returns the number of stored snapshots including the baseline.
func (h *History[T]) Len() int { return len(h.entries) }

func (h *History[T]) CanUndo() bool { return h.cursor > 0 }

func (h *History[T]) CanRedo() bool { return h.cursor < len(h.entries)-1 }
