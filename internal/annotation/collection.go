package annotation

import (
	"iter"
	"slices"
)

// Collection is an immutable ordered list of committed annotations sorted by
// ZIndex. Every edit returns a new Collection; older values stay valid and
// share the annotations they have in common.
type Collection struct {
	items []Annotation
}

// NewCollection builds a collection from items, ordered by ZIndex.
func NewCollection(items ...Annotation) Collection {
	out := slices.Clone(items)
	slices.SortStableFunc(out, func(a, b Annotation) int { return a.ZIndex - b.ZIndex })
	return Collection{items: out}
}

func (c Collection) Len() int { return len(c.items) }

// At returns the i'th annotation in paint order.
func (c Collection) At(i int) Annotation { return c.items[i] }

// Items returns a copy of the annotations in paint order.
func (c Collection) Items() []Annotation { return slices.Clone(c.items) }

// All iterates the annotations in paint order.
func (c Collection) All() iter.Seq2[int, Annotation] {
	return func(yield func(int, Annotation) bool) {
		for i, a := range c.items {
			if !yield(i, a) {
				return
			}
		}
	}
}

// Append returns a collection with a added on top.
func (c Collection) Append(a Annotation) Collection {
	return Collection{items: append(slices.Clip(c.items), a)}
}

// Without returns a collection lacking the annotation with id. The second
// result is false, and c is returned unchanged, when no annotation matched.
func (c Collection) Without(id string) (Collection, bool) {
	i := slices.IndexFunc(c.items, func(a Annotation) bool { return a.ID == id })
	if i < 0 {
		return c, false
	}
	return Collection{items: slices.Delete(slices.Clone(c.items), i, i+1)}, true
}

// ByID looks up an annotation.
func (c Collection) ByID(id string) (Annotation, bool) {
	for _, a := range c.items {
		if a.ID == id {
			return a, true
		}
	}
	return Annotation{}, false
}

// MaxZ returns the highest ZIndex present, or -1 for an empty collection.
func (c Collection) MaxZ() int {
	if len(c.items) == 0 {
		return -1
	}
	return c.items[len(c.items)-1].ZIndex
}

// Equal reports whether both collections hold the same annotations in the
// same order.
func (c Collection) Equal(o Collection) bool {
	return slices.EqualFunc(c.items, o.items, Annotation.Equal)
}
