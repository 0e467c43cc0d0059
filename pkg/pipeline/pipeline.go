// Package pipeline wires the receive chain together:
//
//	source -> Sampler -> raw ring -> Encoder -> pulse ring -> Decoder -> Filter -> callback
//
// The sampler side runs in "interrupt" context (a source goroutine or an
// edge-event handler). Everything after the raw ring runs in task context,
// driven by Poll and Tick or by Run.
package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/herlein/rfalarm/pkg/confirm"
	"github.com/herlein/rfalarm/pkg/decoder"
	"github.com/herlein/rfalarm/pkg/ev1527"
	"github.com/herlein/rfalarm/pkg/irq"
	"github.com/herlein/rfalarm/pkg/ring"
	"github.com/herlein/rfalarm/pkg/rle"
	"github.com/herlein/rfalarm/pkg/sampler"
)

// Pipeline owns every stage and buffer of the receive chain.
type Pipeline struct {
	config *Config

	raw    *ring.Ring[byte]
	pulses *ring.Ring[rle.Pulse]

	sampler *sampler.Sampler
	encoder *rle.Encoder
	decoder *decoder.Decoder
	filter  *confirm.Filter

	// serializes task context
	mu sync.Mutex
}

// New builds a pipeline. gate masks the sampler's context while task context
// touches the raw ring; irq.Lock is the hosted choice. A nil config uses
// DefaultConfig.
func New(config *Config, gate irq.Masker) (*Pipeline, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	p := &Pipeline{
		config: config,
		raw:    ring.New[byte](config.RawCapacity, gate),
		pulses: ring.New[rle.Pulse](config.PulseCapacity, irq.None{}),
		filter: confirm.New(config.RefractoryTicks),
	}
	p.sampler = sampler.New(p.raw)
	p.encoder = rle.NewEncoder(p.raw, p.pulses)

	dcfg := config.Decoder
	if dcfg.DebugLog == nil {
		dcfg.DebugLog = config.DebugLog
	}
	d, err := decoder.New(p.pulses, dcfg, p.frame)
	if err != nil {
		return nil, err
	}
	p.decoder = d

	return p, nil
}

func (p *Pipeline) debug(format string, args ...interface{}) {
	if p.config.DebugLog != nil {
		p.config.DebugLog(format, args...)
	}
}

func (p *Pipeline) frame(code ev1527.Code) {
	if p.filter.Offer(code) {
		p.debug("pipeline: delivered %s", code)
	}
}

// Sampler returns the producer end of the pipeline. Only one goroutine may
// feed it.
func (p *Pipeline) Sampler() *sampler.Sampler {
	return p.sampler
}

// Register sets the callback that receives confirmed codes. It is invoked
// from task context, with the pipeline locked, so it must not call back into
// the pipeline.
func (p *Pipeline) Register(fn func(ev1527.Code)) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.filter.Register(fn)
}

// Poll runs one scheduler pass: encode every available sample byte, then
// decode every available pulse.
func (p *Pipeline) Poll() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.encoder.Poll()
	p.decoder.Poll()
}

// Tick advances the refractory clock by one scheduler tick.
func (p *Pipeline) Tick() {
	p.mu.Lock()
	p.filter.Tick()
	p.mu.Unlock()
}

// Flush drains the pipeline at the end of a finite input, emitting the run in
// progress.
func (p *Pipeline) Flush() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.encoder.Poll()
	p.encoder.Flush()
	p.decoder.Poll()
}

// Run polls and ticks every PollInterval until ctx is cancelled.
func (p *Pipeline) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.Poll()
			return ctx.Err()
		case <-ticker.C:
			p.Poll()
			p.Tick()
		}
	}
}

// Refractory reports whether deliveries are currently suppressed.
func (p *Pipeline) Refractory() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.filter.Refractory()
}

// Stats returns a snapshot of all counters.
func (p *Pipeline) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Stats{
		RawDropped:   p.raw.Dropped(),
		PulseDropped: p.pulses.Dropped(),
		Decoder:      p.decoder.Stats(),
		Filter:       p.filter.Stats(),
	}
}

// Config returns the pipeline configuration.
func (p *Pipeline) Config() *Config {
	return p.config
}
