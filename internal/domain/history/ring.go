// Package history holds the bounded capture history the relay keeps.
package history

import (
	"errors"
	"fmt"
	"sync"
)

var ErrIndexOutOfRange = errors.New("history index out of range")

const DefaultCapacity = 10

type Entry[T any] struct {
	Seq   uint64
	Value T
}

// Ring keeps the last Cap values pushed, newest first. One entry is the
// current one: the newest after a push, or whatever Select picked.
type Ring[T any] struct {
	mu      sync.Mutex
	cap     int
	items   []Entry[T] // oldest first
	seq     uint64
	current uint64 // 0 when nothing is current
}

func NewRing[T any](capacity int) *Ring[T] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Ring[T]{cap: capacity}
}

func (r *Ring[T]) Cap() int {
	return r.cap
}

func (r *Ring[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

// Push stores v as the newest entry and evicts the oldest when full.
func (r *Ring[T]) Push(v T) Entry[T] {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	e := Entry[T]{Seq: r.seq, Value: v}
	r.items = append(r.items, e)
	if over := len(r.items) - r.cap; over > 0 {
		r.items = append(r.items[:0:0], r.items[over:]...)
	}
	r.current = e.Seq
	return e
}

func (r *Ring[T]) Current() (Entry[T], bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == 0 {
		return Entry[T]{}, false
	}
	for _, e := range r.items {
		if e.Seq == r.current {
			return e, true
		}
	}
	return Entry[T]{}, false
}

// ClearCurrent forgets the current entry; the list is left alone.
func (r *Ring[T]) ClearCurrent() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current = 0
}

// List returns the entries newest first.
func (r *Ring[T]) List() []Entry[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry[T], 0, len(r.items))
	for i := len(r.items) - 1; i >= 0; i-- {
		out = append(out, r.items[i])
	}
	return out
}

// Select makes the entry at index (0 is newest) current.
func (r *Ring[T]) Select(index int) (Entry[T], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	pos, err := r.position(index)
	if err != nil {
		return Entry[T]{}, err
	}
	r.current = r.items[pos].Seq
	return r.items[pos], nil
}

// Remove drops the entry at index (0 is newest).
func (r *Ring[T]) Remove(index int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	pos, err := r.position(index)
	if err != nil {
		return err
	}
	if r.items[pos].Seq == r.current {
		r.current = 0
	}
	r.items = append(r.items[:pos], r.items[pos+1:]...)
	return nil
}

func (r *Ring[T]) position(index int) (int, error) {
	if index < 0 || index >= len(r.items) {
		return 0, fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, index, len(r.items))
	}
	return len(r.items) - 1 - index, nil
}
