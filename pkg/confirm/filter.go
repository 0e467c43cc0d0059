// Package confirm turns decoded frames into delivered events.
//
// A sensor repeats its frame many times per activation. A code is confirmed
// when two consecutive frames carry it, and once delivered, further
// confirmations are ignored until a refractory window of scheduler ticks has
// passed.
package confirm

import "github.com/herlein/rfalarm/pkg/ev1527"

// Stats counts filter outcomes.
type Stats struct {
	Offered     uint64 // frames seen
	Unconfirmed uint64 // frames that replaced the candidate
	Confirmed   uint64 // frames equal to the candidate
	Suppressed  uint64 // confirmations dropped inside the refractory window
	Delivered   uint64 // callback invocations
}

// Filter holds the confirmation state. It lives for the whole process and is
// driven from task context only.
type Filter struct {
	window uint32

	candidate     ev1527.Code
	haveCandidate bool

	// refractory window, in ticks of the owning scheduler
	active   bool
	now      uint32
	deadline uint32

	onCode func(ev1527.Code)
	stats  Stats
}

// New returns a filter whose refractory window lasts windowTicks calls to
// Tick. A zero window never suppresses.
func New(windowTicks uint32) *Filter {
	return &Filter{window: windowTicks}
}

// Register installs the delivery callback. It may be set only once.
func (f *Filter) Register(fn func(ev1527.Code)) error {
	if fn == nil {
		return ErrNilCallback
	}
	if f.onCode != nil {
		return ErrAlreadyRegistered
	}
	f.onCode = fn
	return nil
}

// Offer processes one decoded frame and reports whether the callback was
// invoked for it.
func (f *Filter) Offer(code ev1527.Code) bool {
	f.stats.Offered++

	if !f.haveCandidate || code != f.candidate {
		f.candidate = code
		f.haveCandidate = true
		f.stats.Unconfirmed++
		return false
	}

	f.stats.Confirmed++
	if f.active {
		f.stats.Suppressed++
		return false
	}

	if f.window > 0 {
		f.active = true
		f.deadline = f.now + f.window
	}
	if f.onCode == nil {
		return false
	}
	f.stats.Delivered++
	f.onCode(code)
	return true
}

// Tick advances the filter clock by one scheduler tick and closes the
// refractory window once it has elapsed.
func (f *Filter) Tick() {
	f.now++
	if f.active && int32(f.now-f.deadline) >= 0 {
		f.active = false
	}
}

// Refractory reports whether confirmations are currently suppressed.
func (f *Filter) Refractory() bool {
	return f.active
}

// Stats returns a copy of the counters.
func (f *Filter) Stats() Stats {
	return f.stats
}
