// Package timetree is a time-ordered container of owned values: a left-leaning
// red-black tree in which every node owns its children. Values with equal keys
// come out in the order they went in.
package timetree

import (
	"errors"
	"math"
)

var ErrInvalidKey = errors.New("time key is NaN")

type node[T any] struct {
	key         float64
	value       T
	left, right *node[T]
	red         bool
}

// Tree is not safe for concurrent use.
type Tree[T any] struct {
	root *node[T]
	size int
}

func New[T any]() *Tree[T] {
	return &Tree[T]{}
}

func (t *Tree[T]) Len() int {
	return t.size
}

// Insert takes ownership of v under key.
func (t *Tree[T]) Insert(key float64, v T) error {
	if math.IsNaN(key) {
		return ErrInvalidKey
	}
	t.root = insert(t.root, key, v)
	t.root.red = false
	t.size++
	return nil
}

// PeekMin returns the smallest key without removing it.
func (t *Tree[T]) PeekMin() (float64, bool) {
	if t.root == nil {
		return 0, false
	}
	n := t.root
	for n.left != nil {
		n = n.left
	}
	return n.key, true
}

// ExtractMin removes the value with the smallest key and hands it to the caller.
func (t *Tree[T]) ExtractMin() (key float64, v T, ok bool) {
	if t.root == nil {
		return key, v, false
	}
	if !isRed(t.root.left) && !isRed(t.root.right) {
		t.root.red = true
	}
	var minimum *node[T]
	t.root, minimum = deleteMin(t.root)
	if t.root != nil {
		t.root.red = false
	}
	t.size--
	return minimum.key, minimum.value, true
}

// Clear passes every held value to release in key order and empties the tree.
func (t *Tree[T]) Clear(release func(key float64, v T)) {
	if release != nil {
		walk(t.root, release)
	}
	t.root = nil
	t.size = 0
}

func walk[T any](n *node[T], visit func(float64, T)) {
	for n != nil {
		walk(n.left, visit)
		visit(n.key, n.value)
		n = n.right
	}
}

func isRed[T any](n *node[T]) bool {
	return n != nil && n.red
}

// equal keys descend right, so in-order position follows insertion order
func insert[T any](h *node[T], key float64, v T) *node[T] {
	if h == nil {
		return &node[T]{key: key, value: v, red: true}
	}
	if key < h.key {
		h.left = insert(h.left, key, v)
	} else {
		h.right = insert(h.right, key, v)
	}
	return fixUp(h)
}

func deleteMin[T any](h *node[T]) (*node[T], *node[T]) {
	if h.left == nil {
		// in a left-leaning tree the minimum has no right child
		return nil, h
	}
	if !isRed(h.left) && !isRed(h.left.left) {
		h = moveRedLeft(h)
	}
	var minimum *node[T]
	h.left, minimum = deleteMin(h.left)
	return fixUp(h), minimum
}

func rotateLeft[T any](h *node[T]) *node[T] {
	x := h.right
	h.right = x.left
	x.left = h
	x.red = h.red
	h.red = true
	return x
}

func rotateRight[T any](h *node[T]) *node[T] {
	x := h.left
	h.left = x.right
	x.right = h
	x.red = h.red
	h.red = true
	return x
}

func flipColors[T any](h *node[T]) {
	h.red = !h.red
	h.left.red = !h.left.red
	h.right.red = !h.right.red
}

func moveRedLeft[T any](h *node[T]) *node[T] {
	flipColors(h)
	if isRed(h.right.left) {
		h.right = rotateRight(h.right)
		h = rotateLeft(h)
		flipColors(h)
	}
	return h
}

func fixUp[T any](h *node[T]) *node[T] {
	if isRed(h.right) && !isRed(h.left) {
		h = rotateLeft(h)
	}
	if isRed(h.left) && isRed(h.left.left) {
		h = rotateRight(h)
	}
	if isRed(h.left) && isRed(h.right) {
		flipColors(h)
	}
	return h
}
