//go:build !linux

package source

import (
	"context"
	"fmt"

	"github.com/herlein/rfalarm/pkg/sampler"
)

// Run fails: the GPIO character device only exists on Linux.
func (g *GPIO) Run(ctx context.Context, s *sampler.Sampler) error {
	return fmt.Errorf("%w: gpio needs linux", ErrUnsupported)
}
