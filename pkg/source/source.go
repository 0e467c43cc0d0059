// Package source produces the sampler input. A source runs in the
// sampler's context: it is the only goroutine that may feed the sampler it
// is given.
package source

import (
	"context"

	"github.com/herlein/rfalarm/pkg/sampler"
)

// Source feeds levels into s until ctx is cancelled or its input ends.
// A finite source returns nil at the end of its input; a cancelled one
// returns ctx.Err().
type Source interface {
	Run(ctx context.Context, s *sampler.Sampler) error
}

var (
	_ Source = (*GPIO)(nil)
	_ Source = (*YardStick)(nil)
	_ Source = (*Capture)(nil)
)
