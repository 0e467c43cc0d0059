//go:build linux

package source

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/warthog618/go-gpiocdev"
	"golang.org/x/sys/unix"

	"github.com/herlein/rfalarm/pkg/sampler"
)

// monotonic reads CLOCK_MONOTONIC, the clock gpiocdev stamps events with.
func monotonic() time.Duration {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts); err != nil {
		return 0
	}
	return time.Duration(ts.Nano())
}

// Run requests the line with both-edge events and re-samples them onto the
// tick until ctx is cancelled.
func (g *GPIO) Run(ctx context.Context, s *sampler.Sampler) error {
	var mu sync.Mutex
	es := NewEdgeSampler(s, g.tick())

	opts := []gpiocdev.LineReqOption{
		gpiocdev.AsInput,
		gpiocdev.WithBothEdges,
		gpiocdev.WithEventHandler(func(evt gpiocdev.LineEvent) {
			mu.Lock()
			es.Edge(evt.Timestamp, evt.Type == gpiocdev.LineEventRisingEdge)
			mu.Unlock()
		}),
	}
	if g.PullUp {
		opts = append(opts, gpiocdev.WithPullUp)
	}
	if g.ActiveLow {
		opts = append(opts, gpiocdev.AsActiveLow)
	}

	line, err := gpiocdev.RequestLine(g.Chip, g.Line, opts...)
	if err != nil {
		return fmt.Errorf("failed to request %s line %d: %w", g.Chip, g.Line, err)
	}
	defer line.Close()

	v, err := line.Value()
	if err != nil {
		return fmt.Errorf("failed to read %s line %d: %w", g.Chip, g.Line, err)
	}
	mu.Lock()
	es.Start(monotonic(), v == 1)
	mu.Unlock()
	g.debug("gpio: %s line %d started at level %d", g.Chip, g.Line, v)

	ticker := time.NewTicker(idleFlush)
	defer ticker.Stop()
	settle := g.settle()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			mu.Lock()
			es.Advance(monotonic() - settle)
			mu.Unlock()
		}
	}
}
