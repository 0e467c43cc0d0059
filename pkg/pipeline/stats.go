package pipeline

import (
	"fmt"

	"github.com/herlein/rfalarm/pkg/confirm"
	"github.com/herlein/rfalarm/pkg/decoder"
)

// Stats is a snapshot of the pipeline counters
type Stats struct {
	RawDropped   uint64 // packed sample bytes overwritten before encoding
	PulseDropped uint64 // pulse records overwritten before decoding
	Decoder      decoder.Stats
	Filter       confirm.Stats
}

func (s Stats) String() string {
	return fmt.Sprintf(
		"raw drops %d, pulse drops %d, pulses %d, syncs %d (rejected %d), bit errors %d, frames %d, confirmed %d, suppressed %d, delivered %d",
		s.RawDropped, s.PulseDropped,
		s.Decoder.Pulses, s.Decoder.SyncFound, s.Decoder.SyncRejected,
		s.Decoder.BitErrors, s.Decoder.Frames,
		s.Filter.Confirmed, s.Filter.Suppressed, s.Filter.Delivered,
	)
}
