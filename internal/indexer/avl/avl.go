// Package avl implements a generic ordered map backed by a height-balanced
// (AVL) binary search tree. Inserts and lookups are O(log n) in the worst
// case. Deletion is not supported; the tree only grows.
package avl

import (
	"cmp"
	"fmt"
	"io"
	"strings"
)

type node[K cmp.Ordered, V any] struct {
	key    K
	value  V
	left   *node[K, V]
	right  *node[K, V]
	height int
}

// Tree is an ordered map from K to V. The zero value is an empty tree ready
// for use. A Tree must not be mutated concurrently.
type Tree[K cmp.Ordered, V any] struct {
	root *node[K, V]
	size int
}

// New returns an empty Tree.
func New[K cmp.Ordered, V any]() *Tree[K, V] {
	return &Tree[K, V]{}
}

// Put inserts key with value, or replaces the value stored under key without
// changing the shape of the tree.
func (t *Tree[K, V]) Put(key K, value V) {
	t.root = t.put(t.root, key, value)
}

func (t *Tree[K, V]) put(n *node[K, V], key K, value V) *node[K, V] {
	if n == nil {
		t.size++
		return &node[K, V]{key: key, value: value, height: 1}
	}
	switch {
	case key < n.key:
		n.left = t.put(n.left, key, value)
	case key > n.key:
		n.right = t.put(n.right, key, value)
	default:
		n.value = value
		return n
	}
	n.height = 1 + max(height(n.left), height(n.right))

	balance := balanceFactor(n)
	switch {
	case balance > 1 && key < n.left.key:
		return rotateRight(n)
	case balance < -1 && key > n.right.key:
		return rotateLeft(n)
	case balance > 1 && key > n.left.key:
		n.left = rotateLeft(n.left)
		return rotateRight(n)
	case balance < -1 && key < n.right.key:
		n.right = rotateRight(n.right)
		return rotateLeft(n)
	}
	return n
}

// Get returns the value stored under key. ok is false when the key is absent,
// which is distinct from a present key holding a zero or empty value.
func (t *Tree[K, V]) Get(key K) (value V, ok bool) {
	n := t.root
	for n != nil {
		switch {
		case key < n.key:
			n = n.left
		case key > n.key:
			n = n.right
		default:
			return n.value, true
		}
	}
	return value, false
}

// SearchPath returns the keys visited while searching for key, in traversal
// order. found reports whether the last visited key is key itself; when it is
// false the search fell off the tree after the returned path.
func (t *Tree[K, V]) SearchPath(key K) (path []K, found bool) {
	path = make([]K, 0, t.Height())
	n := t.root
	for n != nil {
		path = append(path, n.key)
		switch {
		case key < n.key:
			n = n.left
		case key > n.key:
			n = n.right
		default:
			return path, true
		}
	}
	return path, false
}

// Len returns the number of distinct keys.
func (t *Tree[K, V]) Len() int {
	return t.size
}

// Height returns the height of the root, 0 for an empty tree.
func (t *Tree[K, V]) Height() int {
	return height(t.root)
}

// Ascend calls fn for every entry in ascending key order until fn returns
// false.
func (t *Tree[K, V]) Ascend(fn func(key K, value V) bool) {
	ascend(t.root, fn)
}

func ascend[K cmp.Ordered, V any](n *node[K, V], fn func(K, V) bool) bool {
	if n == nil {
		return true
	}
	if !ascend(n.left, fn) {
		return false
	}
	if !fn(n.key, n.value) {
		return false
	}
	return ascend(n.right, fn)
}

// Dump writes the tree sideways, right subtree first, one entry per line and
// two spaces of indentation per level. With withValues set the stored values
// are printed instead of the keys.
func (t *Tree[K, V]) Dump(w io.Writer, withValues bool) error {
	return dump(w, t.root, "", withValues)
}

func dump[K cmp.Ordered, V any](w io.Writer, n *node[K, V], indent string, withValues bool) error {
	if n == nil {
		return nil
	}
	if err := dump(w, n.right, indent+"  ", withValues); err != nil {
		return err
	}
	var err error
	if withValues {
		_, err = fmt.Fprintf(w, "%s%v\n", indent, n.value)
	} else {
		_, err = fmt.Fprintf(w, "%s%v\n", indent, n.key)
	}
	if err != nil {
		return fmt.Errorf("writing tree dump: %w", err)
	}
	return dump(w, n.left, indent+"  ", withValues)
}

// String renders the keys with Dump.
func (t *Tree[K, V]) String() string {
	var sb strings.Builder
	_ = t.Dump(&sb, false)
	return sb.String()
}

func height[K cmp.Ordered, V any](n *node[K, V]) int {
	if n == nil {
		return 0
	}
	return n.height
}

func balanceFactor[K cmp.Ordered, V any](n *node[K, V]) int {
	if n == nil {
		return 0
	}
	return height(n.left) - height(n.right)
}

// rotateLeft lifts n.right into n's position and returns it.
func rotateLeft[K cmp.Ordered, V any](n *node[K, V]) *node[K, V] {
	r := n.right
	n.right = r.left
	r.left = n
	n.height = 1 + max(height(n.left), height(n.right))
	r.height = 1 + max(height(r.left), height(r.right))
	return r
}

// rotateRight lifts n.left into n's position and returns it.
func rotateRight[K cmp.Ordered, V any](n *node[K, V]) *node[K, V] {
	l := n.left
	n.left = l.right
	l.right = n
	n.height = 1 + max(height(n.left), height(n.right))
	l.height = 1 + max(height(l.left), height(l.right))
	return l
}
