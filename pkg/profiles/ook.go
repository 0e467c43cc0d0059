package profiles

import (
	"fmt"
	"time"

	"github.com/herlein/rfalarm/pkg/registers"
)

// OOKChannelBWHz is wide enough for the drift of cheap 433 MHz sensors
const OOKChannelBWHz = 203000

// NewOOKSampler returns a profile that makes the radio a raw OOK
// demodulator: one data bit per sampling tick, no preamble or sync word,
// packets started by carrier sense and delivered as fixed 255-byte blocks.
// Each payload byte carries eight consecutive samples, first in the MSB.
func NewOOKSampler(freqHz float64, tick time.Duration) *Profile {
	rate := float64(time.Second) / float64(tick)
	return &Profile{
		Name:          fmt.Sprintf("ook-sampler-%.0fus", float64(tick)/float64(time.Microsecond)),
		Description:   fmt.Sprintf("%.2f MHz ASK/OOK sampled every %s", freqHz/1e6, tick),
		FrequencyHz:   freqHz,
		Modulation:    registers.ModASKOOK,
		DataRateBaud:  rate,
		ChannelBWHz:   OOKChannelBWHz,
		SyncMode:      registers.SyncCarrier,
		PktLenMode:    registers.PktLenFixed,
		PktLen:        255,
		PreambleBytes: 2,
	}
}
