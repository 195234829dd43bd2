// Package maxheap provides a generic array-backed binary max-heap ordered by
// an integer priority.
package maxheap

// Item pairs a payload with the priority it is ordered by.
type Item[T any] struct {
	Pri   int
	Value T
}

// Heap is a max-heap of Items. The zero value is an empty heap. Equal
// priorities carry no ordering guarantee beyond the deterministic sift rules
// below. A Heap must not be used concurrently.
type Heap[T any] struct {
	items []Item[T]
}

// New returns an empty heap with room for capacity items.
func New[T any](capacity int) *Heap[T] {
	return &Heap[T]{items: make([]Item[T], 0, capacity)}
}

// Len returns the number of items in the heap.
func (h *Heap[T]) Len() int {
	return len(h.items)
}

// Insert adds item and restores the heap property.
func (h *Heap[T]) Insert(item Item[T]) {
	h.items = append(h.items, item)
	h.siftUp(len(h.items) - 1)
}

// PeekMax returns the highest-priority item without removing it. ok is false
// when the heap is empty.
func (h *Heap[T]) PeekMax() (item Item[T], ok bool) {
	if len(h.items) == 0 {
		return item, false
	}
	return h.items[0], true
}

// ExtractMax removes and returns the highest-priority item. ok is false, and
// the heap is left untouched, when the heap is empty.
func (h *Heap[T]) ExtractMax() (item Item[T], ok bool) {
	n := len(h.items)
	if n == 0 {
		return item, false
	}
	top := h.items[0]
	last := n - 1
	h.items[0] = h.items[last]
	h.items[last] = Item[T]{}
	h.items = h.items[:last]
	if last > 1 {
		h.siftDown(0)
	}
	return top, true
}

func (h *Heap[T]) siftUp(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if h.items[i].Pri <= h.items[parent].Pri {
			return
		}
		h.swap(i, parent)
		i = parent
	}
}

// siftDown moves the item at i towards the leaves. The left child is chosen
// unless the right child's priority is strictly greater, and an item only
// moves below a child with a strictly greater priority.
func (h *Heap[T]) siftDown(i int) {
	n := len(h.items)
	for {
		child := 2*i + 1
		if child >= n {
			return
		}
		if right := child + 1; right < n && h.items[child].Pri < h.items[right].Pri {
			child = right
		}
		if h.items[i].Pri >= h.items[child].Pri {
			return
		}
		h.swap(i, child)
		i = child
	}
}

func (h *Heap[T]) swap(i, j int) {
	h.items[i], h.items[j] = h.items[j], h.items[i]
}
