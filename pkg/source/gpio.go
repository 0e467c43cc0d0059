package source

import (
	"time"

	"github.com/herlein/rfalarm/pkg/sampler"
)

// GPIO samples a receiver module's data pin through the Linux GPIO
// character device.
type GPIO struct {
	Chip      string // e.g. gpiochip0
	Line      int
	PullUp    bool
	ActiveLow bool
	Tick      time.Duration

	// Lag behind the clock when replaying idle time, so that edge events
	// still queued in the kernel are not overtaken (default: 20ms)
	Settle time.Duration

	DebugLog func(format string, args ...interface{})
}

const (
	defaultSettle = 20 * time.Millisecond
	idleFlush     = 10 * time.Millisecond
)

func (g *GPIO) tick() time.Duration {
	if g.Tick <= 0 {
		return sampler.DefaultTick
	}
	return g.Tick
}

func (g *GPIO) settle() time.Duration {
	if g.Settle <= 0 {
		return defaultSettle
	}
	return g.Settle
}

func (g *GPIO) debug(format string, args ...interface{}) {
	if g.DebugLog != nil {
		g.DebugLog(format, args...)
	}
}
