package pipeline

import (
	"fmt"
	"time"

	"github.com/herlein/rfalarm/pkg/decoder"
	"github.com/herlein/rfalarm/pkg/sampler"
)

// Default pipeline parameters
const (
	DefaultRawCapacity   = 64
	DefaultPulseCapacity = 256
	DefaultPollInterval  = 10 * time.Millisecond
	DefaultRefractory    = time.Second
)

// Config defines the receive pipeline parameters
type Config struct {
	SampleTick time.Duration // sampler period; informational for sources

	RawCapacity   int // bytes of packed samples buffered between contexts
	PulseCapacity int // pulse records buffered between encoder and decoder

	Decoder decoder.Config

	// Refractory window, in calls to Tick
	RefractoryTicks uint32

	// Period of Run's scheduler loop; one Tick per period
	PollInterval time.Duration

	// Debug callback (optional)
	DebugLog func(format string, args ...interface{})
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		SampleTick:      sampler.DefaultTick,
		RawCapacity:     DefaultRawCapacity,
		PulseCapacity:   DefaultPulseCapacity,
		Decoder:         decoder.DefaultConfig(),
		RefractoryTicks: TicksFor(DefaultRefractory, DefaultPollInterval),
		PollInterval:    DefaultPollInterval,
	}
}

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	if c.SampleTick <= 0 {
		return fmt.Errorf("%w: sample tick %v", ErrInvalidConfig, c.SampleTick)
	}
	if c.RawCapacity < 1 || c.PulseCapacity < 1 {
		return fmt.Errorf("%w: buffer capacities must be positive", ErrInvalidConfig)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("%w: poll interval %v", ErrInvalidConfig, c.PollInterval)
	}
	if err := c.Decoder.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// TicksFor converts a duration into scheduler ticks of the given period,
// rounding up so a non-zero duration is never shortened to nothing.
func TicksFor(d, period time.Duration) uint32 {
	if d <= 0 || period <= 0 {
		return 0
	}
	return uint32((d + period - 1) / period)
}
