package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBaselineCannotBeUndone(t *testing.T) {
	h := New("empty")
	got, ok := h.Undo()
	assert.False(t, ok)
	assert.Equal(t, "empty", got)
	assert.Equal(t, 0, h.Index())
	_, ok = h.Redo()
	assert.False(t, ok)
}

func TestUndoRedoRoundTrip(t *testing.T) {
	h := New(0)
	for i := 1; i <= 3; i++ {
		h.Commit(i)
	}
	assert.Equal(t, 3, h.Current())
	for want := 2; want >= 0; want-- {
		got, ok := h.Undo()
		assert.True(t, ok)
		assert.Equal(t, want, got)
	}
	for want := 1; want <= 3; want++ {
		got, ok := h.Redo()
		assert.True(t, ok)
		assert.Equal(t, want, got)
	}
	assert.False(t, h.CanRedo())
	assert.Equal(t, 4, h.Len())
}

func TestCommitAfterUndoDropsRedoTail(t *testing.T) {
	h := New("a")
	h.Commit("b")
	h.Commit("c")
	h.Undo()
	h.Undo()
	h.Commit("d")
	assert.Equal(t, 2, h.Len())
	assert.Equal(t, 1, h.Index())
	assert.False(t, h.CanRedo())
	got, _ := h.Undo()
	assert.Equal(t, "a", got)
	got, _ = h.Redo()
	assert.Equal(t, "d", got)
}

func TestCursorStaysInBounds(t *testing.T) {
	h := New(0)
	h.Commit(1)
	for range 5 {
		h.Undo()
	}
	assert.Equal(t, 0, h.Index())
	for range 5 {
		h.Redo()
	}
	assert.Equal(t, 1, h.Index())
	assert.True(t, h.Index() >= 0 && h.Index() < h.Len())
}
