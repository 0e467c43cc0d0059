package ring

import (
	"fmt"
	"sync"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/herlein/rfalarm/pkg/irq"
)

func drain[T any](r *Ring[T]) []T {
	var out []T
	for {
		v, ok := r.Pop()
		if !ok {
			return out
		}
		out = append(out, v)
	}
}

func TestPushPopOrder(t *testing.T) {
	c := qt.New(t)
	r := New[byte](4, irq.None{})

	_, ok := r.Pop()
	c.Assert(ok, qt.IsFalse)

	r.Push(1)
	r.Push(2)
	r.Push(3)
	c.Assert(r.Len(), qt.Equals, 3)
	c.Assert(drain(r), qt.DeepEquals, []byte{1, 2, 3})
	c.Assert(r.Len(), qt.Equals, 0)
}

func TestOverwriteKeepsNewest(t *testing.T) {
	c := qt.New(t)
	const capacity = 8

	for _, extra := range []int{1, 3, 8, 21} {
		c.Run(fmt.Sprintf("extra=%d", extra), func(c *qt.C) {
			r := New[int](capacity, irq.None{})
			total := capacity + extra
			for i := 0; i < total; i++ {
				r.Push(i)
			}
			c.Assert(r.Len(), qt.Equals, capacity)
			c.Assert(r.Dropped(), qt.Equals, uint64(extra))

			want := make([]int, 0, capacity)
			for i := total - capacity; i < total; i++ {
				want = append(want, i)
			}
			c.Assert(drain(r), qt.DeepEquals, want)
		})
	}
}

func TestClear(t *testing.T) {
	c := qt.New(t)
	r := New[byte](3, irq.None{})
	r.Push(7)
	r.Push(8)
	r.Clear()
	c.Assert(r.Len(), qt.Equals, 0)

	r.Push(9)
	c.Assert(drain(r), qt.DeepEquals, []byte{9})
}

func TestWrapAround(t *testing.T) {
	c := qt.New(t)
	r := New[int](3, irq.None{})
	for round := 0; round < 10; round++ {
		r.Push(round)
		r.Push(round + 100)
		v, ok := r.Pop()
		c.Assert(ok, qt.IsTrue)
		c.Assert(v, qt.Equals, round)
		v, ok = r.Pop()
		c.Assert(ok, qt.IsTrue)
		c.Assert(v, qt.Equals, round+100)
	}
	c.Assert(r.Cap(), qt.Equals, 3)
}

func TestOperationsRestoreInterrupts(t *testing.T) {
	c := qt.New(t)
	var f irq.Flag
	r := New[byte](2, &f)

	r.Push(1)
	c.Assert(f.Enabled(), qt.IsTrue)
	r.Len()
	c.Assert(f.Enabled(), qt.IsTrue)
	r.Pop()
	c.Assert(f.Enabled(), qt.IsTrue)
	r.Clear()
	c.Assert(f.Enabled(), qt.IsTrue)

	// called from inside an outer critical section, interrupts stay masked
	g := irq.Enter(&f)
	r.Push(2)
	c.Assert(f.Enabled(), qt.IsFalse)
	g.Exit()
	c.Assert(f.Enabled(), qt.IsTrue)
}

func TestConcurrentProducer(t *testing.T) {
	c := qt.New(t)
	const n = 20000
	r := New[int](n, &irq.Lock{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			r.Push(i)
		}
	}()

	var got []int
	for len(got) < n {
		if v, ok := r.Pop(); ok {
			got = append(got, v)
		}
	}
	wg.Wait()

	for i, v := range got {
		if v != i {
			c.Fatalf("element %d out of order: got %d", i, v)
		}
	}
}
