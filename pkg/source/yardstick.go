package source

import (
	"context"
	"fmt"
	"time"

	"github.com/herlein/rfalarm/pkg/profiles"
	"github.com/herlein/rfalarm/pkg/registers"
	"github.com/herlein/rfalarm/pkg/sampler"
)

// Radio is the part of a YardStick One the source drives.
// *yardstick.Device implements it.
type Radio interface {
	registers.Memory
	SetAmplifier(on bool) error
	GetAmpMode() (uint8, error)
	Stream(ctx context.Context, fn func(packet []byte)) error
}

// YardStick uses a YardStick One as an OOK demodulator clocked at the
// sampling tick. Every payload byte is eight samples, MSB first.
type YardStick struct {
	Radio       Radio
	FrequencyHz uint32
	Tick        time.Duration
	Amplifier   bool

	// Registers, when set, are applied instead of the generated profile
	Registers *registers.RegisterMap

	DebugLog func(format string, args ...interface{})
}

func (y *YardStick) debug(format string, args ...interface{}) {
	if y.DebugLog != nil {
		y.DebugLog(format, args...)
	}
}

// Profile returns the register map Run applies.
func (y *YardStick) Profile() *registers.RegisterMap {
	if y.Registers != nil {
		return y.Registers
	}
	tick := y.Tick
	if tick <= 0 {
		tick = sampler.DefaultTick
	}
	return profiles.NewOOKSampler(float64(y.FrequencyHz), tick).ToRegisters()
}

// Run configures the radio and streams packets into s until ctx is
// cancelled.
func (y *YardStick) Run(ctx context.Context, s *sampler.Sampler) error {
	if y.Radio == nil {
		return ErrNoRadio
	}

	reg := y.Profile()
	if err := registers.Apply(y.Radio, reg); err != nil {
		return fmt.Errorf("failed to apply OOK profile: %w", err)
	}
	if err := y.Radio.SetAmplifier(y.Amplifier); err != nil {
		return fmt.Errorf("failed to set amplifier: %w", err)
	}
	mode, err := y.Radio.GetAmpMode()
	if err != nil {
		return fmt.Errorf("failed to read amplifier mode: %w", err)
	}
	if (mode != 0) != y.Amplifier {
		return fmt.Errorf("%w: mode 0x%02X, want amplifier %v", ErrAmplifierState, mode, y.Amplifier)
	}
	y.debug("yardstick: %s at %.3f MHz, amplifier %v",
		reg.ModulationString(), reg.Frequency(profiles.CrystalMHz*1e6)/1e6, y.Amplifier)

	var packets int
	// Packets are concatenated: the quiet time between carrier-sense
	// packets is not replayed, and a frame cut at a boundary is dropped
	// by the decoder and recovered by the next repeat.
	err = y.Radio.Stream(ctx, func(packet []byte) {
		for _, b := range packet {
			s.SampleByte(b)
		}
		packets++
	})
	y.debug("yardstick: %d packets", packets)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("failed to stream: %w", err)
	}
	return nil
}
