// Package irq provides scoped critical sections over an injected
// interrupt-masking primitive.
//
// A Guard captures whether interrupts were enabled when it was entered and
// re-enables them on Exit only in that case, so guards nest:
//
//	g := irq.Enter(mask)
//	defer g.Exit()
package irq

import (
	"sync"
	"sync/atomic"
)

// Masker is the host's interrupt-masking capability.
type Masker interface {
	// Disable masks interrupts and reports whether they were enabled before the call.
	Disable() bool
	// Enable unmasks interrupts.
	Enable()
}

// Guard is an entered critical section.
type Guard struct {
	mask    Masker
	restore bool
}

// Enter masks interrupts through m. A nil Masker yields a no-op guard.
func Enter(m Masker) Guard {
	if m == nil {
		return Guard{}
	}
	return Guard{mask: m, restore: m.Disable()}
}

// Exit restores the interrupt state captured by Enter.
func (g Guard) Exit() {
	if g.restore {
		g.mask.Enable()
	}
}

// None is a Masker for state touched from a single context only.
type None struct{}

func (None) Disable() bool { return false }
func (None) Enable()       {}

// Flag models a CPU global interrupt-enable bit. The zero value starts
// with interrupts enabled.
type Flag struct {
	masked atomic.Bool
}

func (f *Flag) Disable() bool {
	return !f.masked.Swap(true)
}

func (f *Flag) Enable() {
	f.masked.Store(false)
}

// Enabled reports whether interrupts are currently unmasked.
func (f *Flag) Enabled() bool {
	return !f.masked.Load()
}

// Lock is the hosted-Go stand-in for interrupt masking: the "interrupt" is
// a producer goroutine, and masking is mutual exclusion against it.
// Lock does not nest: a second Enter from the same goroutine deadlocks.
// Code that nests critical sections uses Flag, whose guards restore the
// saved state on the inner Exit.
type Lock struct {
	mu sync.Mutex
}

func (l *Lock) Disable() bool {
	l.mu.Lock()
	return true
}

func (l *Lock) Enable() {
	l.mu.Unlock()
}
