// ook-synth writes a capture file of synthesized EV1527 transmissions
//
// The file replays through alarm-rx -capture, which makes it handy for
// checking a config or the decoder tolerances without a radio.
package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/herlein/rfalarm/pkg/ev1527"
	"github.com/herlein/rfalarm/pkg/rle"
	"github.com/herlein/rfalarm/pkg/sampler"
	"github.com/herlein/rfalarm/pkg/source"
)

var (
	outputFile = flag.String("o", "synth.ook", "Output capture file")
	codes      = flag.String("codes", "0CBBAA", "Comma-separated codes, 6 hex digits each")
	repeat     = flag.Int("repeat", 4, "Frames per burst")
	bursts     = flag.Int("bursts", 1, "Bursts per code")
	gap        = flag.Duration("gap", 0, "Silence between bursts (default: 1.5s)")
	tick       = flag.Duration("tick", sampler.DefaultTick, "Sampling period")
	scale      = flag.Float64("scale", 1.0, "Stretch every pulse width by this factor")
	verbose    = flag.Bool("v", false, "Verbose output")
)

func main() {
	flag.Parse()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func scaled(ticks uint16) uint16 {
	v := math.Round(float64(ticks) * *scale)
	if v < 1 {
		return 1
	}
	if v > rle.MaxTicks {
		return rle.MaxTicks
	}
	return uint16(v)
}

func silence(d time.Duration) []rle.Pulse {
	n := int(d / *tick)
	var pulses []rle.Pulse
	for n > 0 {
		run := n
		if run > rle.MaxTicks {
			run = rle.MaxTicks
		}
		pulses = append(pulses, rle.Pulse{High: false, Ticks: uint16(run)})
		n -= run
	}
	return pulses
}

func run() error {
	if *repeat < 1 || *bursts < 1 {
		return fmt.Errorf("repeat and bursts must be at least 1")
	}
	if *scale <= 0 {
		return fmt.Errorf("scale must be positive")
	}

	var list []ev1527.Code
	for _, s := range strings.Split(*codes, ",") {
		code, err := ev1527.ParseCode(strings.TrimSpace(s))
		if err != nil {
			return err
		}
		list = append(list, code)
	}

	t := ev1527.Timing{
		SyncHigh: scaled(ev1527.DefaultTiming.SyncHigh),
		SyncLow:  scaled(ev1527.DefaultTiming.SyncLow),
		Long:     scaled(ev1527.DefaultTiming.Long),
		Short:    scaled(ev1527.DefaultTiming.Short),
	}

	pause := *gap
	if pause <= 0 {
		pause = 1500 * time.Millisecond
	}
	quiet := silence(pause)

	pulses := append([]rle.Pulse(nil), quiet...)
	for _, code := range list {
		for i := 0; i < *bursts; i++ {
			pulses = append(pulses, code.Transmission(t, *repeat)...)
			pulses = append(pulses, quiet...)
		}
		if *verbose {
			fmt.Printf("  %s  addr=%05X key=%s  x%d bursts of %d frames\n",
				code, code.Address(), code.Key(), *bursts, *repeat)
		}
	}

	cw, err := source.CreateCapture(*outputFile, *tick)
	if err != nil {
		return err
	}
	if _, err := cw.Write(ev1527.Pack(ev1527.Samples(pulses))); err != nil {
		cw.Close()
		return err
	}
	if err := cw.Close(); err != nil {
		return err
	}

	fmt.Printf("Wrote %d bytes (%v of samples) to %s\n",
		cw.Bytes(), *tick*8*time.Duration(cw.Bytes()), *outputFile)
	fmt.Printf("Timing: sync %d/%d, long %d, short %d ticks\n", t.SyncHigh, t.SyncLow, t.Long, t.Short)
	return nil
}
