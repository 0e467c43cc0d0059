package source

import (
	"time"

	"github.com/herlein/rfalarm/pkg/sampler"
)

// maxGapSamples caps the samples replayed for one gap. A longer silence has
// long since overwritten the raw ring anyway.
const maxGapSamples = 1 << 20

// EdgeSampler turns timestamped level changes into fixed-tick samples.
// Between edges the previous level is replayed once per whole tick; the
// remainder carries into the next gap so rounding never accumulates.
type EdgeSampler struct {
	s     *sampler.Sampler
	tick  time.Duration
	level bool
	last  time.Duration
	carry time.Duration
	armed bool
}

// NewEdgeSampler returns an edge sampler feeding s every tick.
func NewEdgeSampler(s *sampler.Sampler, tick time.Duration) *EdgeSampler {
	if tick <= 0 {
		tick = sampler.DefaultTick
	}
	return &EdgeSampler{s: s, tick: tick}
}

// Start sets the reference time and the line level. It is ignored once an
// edge has been seen.
func (e *EdgeSampler) Start(ts time.Duration, level bool) {
	if e.armed {
		return
	}
	e.last, e.level, e.armed = ts, level, true
}

// Edge records a change to level high at ts.
func (e *EdgeSampler) Edge(ts time.Duration, high bool) {
	if !e.armed {
		e.Start(ts, high)
		return
	}
	e.Advance(ts)
	e.level = high
}

// Advance replays the current level up to ts without changing it.
func (e *EdgeSampler) Advance(ts time.Duration) {
	if !e.armed || ts <= e.last {
		return
	}
	elapsed := ts - e.last + e.carry
	n := elapsed / e.tick
	e.carry = elapsed % e.tick
	e.last = ts
	if n > maxGapSamples {
		n, e.carry = maxGapSamples, 0
	}
	e.s.Repeat(e.level, int(n))
}

// Level returns the current line level.
func (e *EdgeSampler) Level() bool {
	return e.level
}
