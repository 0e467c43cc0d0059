// ook-capture records a capture file from a YardStick One
//
// The radio is configured as an OOK demodulator clocked at the sampling tick
// and every received sample is written to the file. Replay it with
// alarm-rx -capture.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/gousb"

	"github.com/herlein/rfalarm/pkg/config"
	"github.com/herlein/rfalarm/pkg/registers"
	"github.com/herlein/rfalarm/pkg/sampler"
	"github.com/herlein/rfalarm/pkg/source"
	"github.com/herlein/rfalarm/pkg/yardstick"
)

func main() {
	outputFile := flag.String("o", "capture.ook", "Output capture file")
	deviceSel := flag.String("d", "", yardstick.DeviceFlagUsage())
	freqMHz := flag.Float64("freq", float64(config.DefaultFrequencyHz)/1e6, "Frequency in MHz")
	tick := flag.Duration("tick", sampler.DefaultTick, "Sampling period")
	amp := flag.Bool("amp", false, "Enable the RX amplifier")
	duration := flag.Duration("duration", 10*time.Second, "Recording length (0 = until Ctrl+C)")
	snapshot := flag.String("snapshot", "", "Also save the radio registers to this JSON file")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Parse()

	usb := gousb.NewContext()
	defer usb.Close()

	device, err := yardstick.Open(usb, *deviceSel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer device.Close()

	if *verbose {
		fmt.Printf("Connected to: %s\n", device)
	}

	cw, err := source.CreateCapture(*outputFile, *tick)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	y := &source.YardStick{
		Radio:       device,
		FrequencyHz: uint32(*freqMHz * 1e6),
		Tick:        *tick,
		Amplifier:   *amp,
	}
	if *verbose {
		y.DebugLog = func(format string, args ...interface{}) {
			fmt.Printf("[debug] "+format+"\n", args...)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if *duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *duration)
		defer cancel()
		fmt.Printf("Recording %.3f MHz for %v...\n", *freqMHz, *duration)
	} else {
		fmt.Printf("Recording %.3f MHz... (Press Ctrl+C to stop)\n", *freqMHz)
	}

	// the capture writer stands in for the raw ring
	runErr := y.Run(ctx, sampler.New(cw))
	if err := cw.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) && !errors.Is(runErr, context.DeadlineExceeded) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", runErr)
		os.Exit(1)
	}

	fmt.Printf("Wrote %d bytes (%v of samples) to %s\n",
		cw.Bytes(), *tick*8*time.Duration(cw.Bytes()), *outputFile)

	if *snapshot != "" {
		reg, err := registers.Snapshot(device)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: Failed to read registers: %v\n", err)
			os.Exit(1)
		}
		snap := &registers.RadioSnapshot{
			Serial:    device.Serial,
			Timestamp: time.Now(),
			Registers: *reg,
		}
		if err := registers.SaveSnapshot(snap, *snapshot); err != nil {
			fmt.Fprintf(os.Stderr, "Error: Failed to save snapshot: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Radio registers saved to: %s\n", *snapshot)
		if *verbose {
			fmt.Printf("  Modulation: %s, sync mode %d, packet length %d\n",
				reg.ModulationString(), reg.SyncMode(), reg.PKTLEN)
		}
	}
}
