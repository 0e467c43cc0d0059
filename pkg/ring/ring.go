// Package ring implements the bounded, overwrite-on-full circular buffer used
// to hand data between pipeline stages.
//
// Push never blocks and never fails: when the ring is full the oldest unread
// element is discarded. Every operation runs inside an irq critical section,
// so a producer in interrupt context can share a ring with a consumer in
// task context.
package ring

import "github.com/herlein/rfalarm/pkg/irq"

// Writer is the producer half of a ring.
type Writer[T any] interface {
	Push(v T)
}

// Reader is the consumer half of a ring.
type Reader[T any] interface {
	Pop() (T, bool)
	Len() int
}

// Ring is a fixed-capacity FIFO that overwrites its oldest element on overflow.
type Ring[T any] struct {
	buf     []T // capacity+1 slots; head == tail means empty
	head    int // next element to pop
	tail    int // next slot to write
	dropped uint64
	mask    irq.Masker
}

// New creates a ring holding up to capacity elements. mask guards every
// operation; pass irq.None{} for a ring touched from one context only.
func New[T any](capacity int, mask irq.Masker) *Ring[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring[T]{
		buf:  make([]T, capacity+1),
		mask: mask,
	}
}

// Push appends v, discarding the oldest element if the ring is full.
func (r *Ring[T]) Push(v T) {
	g := irq.Enter(r.mask)
	r.buf[r.tail] = v
	r.tail = r.next(r.tail)
	if r.tail == r.head {
		r.head = r.next(r.head)
		r.dropped++
	}
	g.Exit()
}

// Pop removes and returns the oldest element.
func (r *Ring[T]) Pop() (T, bool) {
	g := irq.Enter(r.mask)
	defer g.Exit()

	var v T
	if r.head == r.tail {
		return v, false
	}
	v = r.buf[r.head]
	r.head = r.next(r.head)
	return v, true
}

// Len returns the number of unread elements.
func (r *Ring[T]) Len() int {
	g := irq.Enter(r.mask)
	defer g.Exit()
	return r.len()
}

// Cap returns the ring capacity.
func (r *Ring[T]) Cap() int {
	return len(r.buf) - 1
}

// Clear discards all unread elements.
func (r *Ring[T]) Clear() {
	g := irq.Enter(r.mask)
	r.head = r.tail
	g.Exit()
}

// Dropped returns how many elements have been overwritten before being read.
func (r *Ring[T]) Dropped() uint64 {
	g := irq.Enter(r.mask)
	defer g.Exit()
	return r.dropped
}

func (r *Ring[T]) len() int {
	n := r.tail - r.head
	if n < 0 {
		n += len(r.buf)
	}
	return n
}

func (r *Ring[T]) next(i int) int {
	i++
	if i == len(r.buf) {
		return 0
	}
	return i
}
