// alarm-rx receives EV1527 sensor codes and delivers them to the configured
// sinks
//
// Samples come from a receiver module on a GPIO line, a YardStick One used
// as an OOK demodulator, or a capture file. Each confirmed code is printed,
// forwarded to the host controller UART and appended to the journal.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/google/gousb"

	"github.com/herlein/rfalarm/pkg/config"
	"github.com/herlein/rfalarm/pkg/ev1527"
	"github.com/herlein/rfalarm/pkg/irq"
	"github.com/herlein/rfalarm/pkg/pipeline"
	"github.com/herlein/rfalarm/pkg/registers"
	"github.com/herlein/rfalarm/pkg/sink"
	"github.com/herlein/rfalarm/pkg/source"
	"github.com/herlein/rfalarm/pkg/yardstick"
)

var (
	configFile  = flag.String("c", "", "Config file (default: etc/rfalarm/alarm-rx.yaml if present)")
	sourceType  = flag.String("source", "", "Override source type: gpio, yardstick, capture")
	capturePath = flag.String("capture", "", "Replay this capture file (implies -source capture)")
	deviceSel   = flag.String("d", "", yardstick.DeviceFlagUsage())
	listOnly    = flag.Bool("list", false, "List YardStick One devices and exit")
	duration    = flag.Duration("duration", 0, "Stop after this long (0 = until Ctrl+C)")
	mlock       = flag.Bool("mlock", false, "Lock memory so sampling never page-faults (needs CAP_IPC_LOCK)")
	verbose     = flag.Bool("v", false, "Verbose output")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "EV1527 alarm sensor receiver\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s -c alarm.yaml              # Run with a config file\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -d \"#1\" -v                 # Second YardStick One, verbose\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -capture door.ook          # Decode a recorded capture\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -list                      # List YardStick One devices\n", os.Args[0])
	}
	flag.Parse()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func debugf(format string, args ...interface{}) {
	fmt.Printf("[debug] "+format+"\n", args...)
}

func loadConfig() (*config.Config, error) {
	path := *configFile
	if path == "" {
		path = config.DefaultPath("alarm-rx")
		if _, err := os.Stat(path); err != nil {
			return config.Default(), nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if *verbose {
		fmt.Printf("Loaded config: %s\n", path)
	}
	return cfg, nil
}

func applyFlags(cfg *config.Config) error {
	if *sourceType != "" {
		cfg.Source.Type = *sourceType
	}
	if *capturePath != "" {
		cfg.Source.Type = config.SourceCapture
		cfg.Source.Capture.Path = *capturePath
	}
	if *deviceSel != "" {
		cfg.Source.YardStick.Device = *deviceSel
	}
	return cfg.Validate()
}

func run() error {
	if *listOnly {
		usb := gousb.NewContext()
		defer usb.Close()
		return listDevices(usb)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := applyFlags(cfg); err != nil {
		return err
	}

	if *mlock {
		if err := lockMemory(); err != nil {
			return fmt.Errorf("failed to lock memory: %w", err)
		}
	}

	pc := cfg.ToPipelineConfig()
	if *verbose {
		pc.DebugLog = debugf
	}
	p, err := pipeline.New(pc, &irq.Lock{})
	if err != nil {
		return err
	}

	sinks, err := openSinks(cfg)
	if err != nil {
		return err
	}
	d := sink.NewDispatcher(sinks, cfg.Sinks.QueueDepth())
	d.Name = func(code ev1527.Code) string {
		if dev, ok := cfg.Devices.Match(code); ok {
			return dev.Name
		}
		return ""
	}
	if *verbose {
		d.DebugLog = debugf
	}
	if err := p.Register(d.Deliver); err != nil {
		d.Close()
		return err
	}

	src, closeSource, err := openSource(cfg, p)
	if err != nil {
		d.Close()
		return err
	}
	defer closeSource()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if *duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *duration)
		defer cancel()
	}

	fmt.Printf("Receiving from %s (tick %v, refractory %d ticks of %v)\n",
		cfg.Source.Type, pc.SampleTick, pc.RefractoryTicks, pc.PollInterval)
	if *duration == 0 {
		fmt.Println("Press Ctrl+C to stop")
	}

	runCtx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	if c, ok := src.(*source.Capture); !ok || !c.Stepped() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.Run(runCtx)
		}()
	}

	// the source owns this goroutine: it is the sampler's context
	srcErr := src.Run(runCtx, p.Sampler())
	cancel()
	wg.Wait()
	p.Flush()

	if err := d.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to close sinks: %v\n", err)
	}

	fmt.Printf("\n--- Summary ---\n")
	fmt.Printf("Pipeline: %s\n", p.Stats())
	fmt.Printf("Sinks:    %s\n", d.Stats())

	if srcErr != nil && !errors.Is(srcErr, context.Canceled) && !errors.Is(srcErr, context.DeadlineExceeded) {
		return fmt.Errorf("source stopped: %w", srcErr)
	}
	return nil
}

func openSinks(cfg *config.Config) (sink.Multi, error) {
	var sinks sink.Multi
	if cfg.Sinks.Console {
		sinks = append(sinks, sink.NewConsole(os.Stdout))
	}
	if s := cfg.Sinks.Serial; s != nil {
		port, err := sink.OpenSerial(s.Port, s.BaudRate())
		if err != nil {
			sinks.Close()
			return nil, err
		}
		sinks = append(sinks, port)
		if *verbose {
			fmt.Printf("Forwarding codes to %s at %d baud\n", s.Port, s.BaudRate())
		}
	}
	if j := cfg.Sinks.Journal; j != nil {
		journal, err := sink.OpenJournal(j.Path)
		if err != nil {
			sinks.Close()
			return nil, err
		}
		sinks = append(sinks, journal)
		if *verbose {
			fmt.Printf("Journal: %s\n", j.Path)
		}
	}
	return sinks, nil
}

func openSource(cfg *config.Config, p *pipeline.Pipeline) (source.Source, func(), error) {
	tick := p.Config().SampleTick
	var debug func(string, ...interface{})
	if *verbose {
		debug = debugf
	}

	switch cfg.Source.Type {
	case config.SourceGPIO:
		g := cfg.Source.GPIO
		return &source.GPIO{
			Chip:      g.Chip,
			Line:      g.Line,
			PullUp:    g.PullUp,
			ActiveLow: g.ActiveLow,
			Tick:      tick,
			DebugLog:  debug,
		}, func() {}, nil

	case config.SourceYardStick:
		ys := cfg.Source.YardStick
		usb := gousb.NewContext()
		device, err := yardstick.Open(usb, ys.Device)
		if err != nil {
			usb.Close()
			return nil, nil, fmt.Errorf("failed to open device: %w", err)
		}
		fmt.Printf("Connected to: %s\n", device)

		y := &source.YardStick{
			Radio:       device,
			FrequencyHz: ys.Frequency(),
			Tick:        tick,
			Amplifier:   ys.Amplifier,
			DebugLog:    debug,
		}
		if ys.Profile != "" {
			snap, err := registers.LoadSnapshot(ys.Profile)
			if err != nil {
				device.Close()
				usb.Close()
				return nil, nil, err
			}
			y.Registers = &snap.Registers
		}
		return y, func() {
			device.Close()
			usb.Close()
		}, nil

	case config.SourceCapture:
		capture, err := source.OpenCapture(cfg.Source.Capture.Path)
		if err != nil {
			return nil, nil, err
		}
		if capture.Tick() != tick {
			fmt.Fprintf(os.Stderr, "Warning: capture recorded at %v, sampler tick is %v\n", capture.Tick(), tick)
		}
		capture.Realtime = cfg.Source.Capture.Realtime
		if !capture.Realtime {
			// replay as fast as possible, keeping the refractory clock
			// in recorded time
			capture.Step = p.Poll
			capture.Clock = p.Tick
			capture.ClockPeriod = p.Config().PollInterval
		}
		return capture, func() { capture.Close() }, nil
	}

	return nil, nil, fmt.Errorf("%w: %q", config.ErrUnknownSource, cfg.Source.Type)
}

func listDevices(usb *gousb.Context) error {
	devices, err := yardstick.FindAllDevices(usb)
	if err != nil {
		return fmt.Errorf("failed to enumerate devices: %w", err)
	}

	if len(devices) == 0 {
		fmt.Println("No YardStick One devices found")
		return nil
	}

	fmt.Printf("Found %d YardStick One device(s):\n\n", len(devices))
	for i, device := range devices {
		defer device.Close()

		if !*verbose {
			fmt.Printf("  #%d  %s  %d:%d\n", i, device.Serial, device.Bus, device.Address)
			continue
		}

		fmt.Printf("Device #%d:\n", i)
		fmt.Printf("  Serial:       %s\n", device.Serial)
		fmt.Printf("  Bus:Address:  %d:%d\n", device.Bus, device.Address)
		fmt.Printf("  Manufacturer: %s\n", device.Manufacturer)
		fmt.Printf("  Product:      %s\n", device.Product)

		if buildType, err := device.GetBuildType(); err == nil {
			fmt.Printf("  Firmware:     %s\n", buildType)
		} else {
			fmt.Printf("  Firmware:     (error: %v)\n", err)
		}

		if partNum, err := device.GetPartNum(); err == nil {
			fmt.Printf("  Chip:         %s (0x%02X)\n", chipName(partNum), partNum)
		} else {
			fmt.Printf("  Chip:         (error: %v)\n", err)
		}

		if freq, err := device.GetFrequency(); err == nil {
			fmt.Printf("  Frequency:    %.3f MHz\n", float64(freq)/1e6)
		}

		if mode, err := device.GetAmpMode(); err == nil {
			fmt.Printf("  Amplifier:    %v\n", mode != yardstick.AmpModeOff)
		}

		if st, err := device.GetRadioStatus(); err == nil {
			fmt.Printf("  RSSI:         %d dBm\n", st.RSSIdBm)
			fmt.Printf("  LQI:          %d (CRC ok: %v)\n", st.LQI, st.CRCOk)
			fmt.Printf("  MARCSTATE:    0x%02X\n", st.MARCSTATE)
		} else {
			fmt.Printf("  Status:       (error: %v)\n", err)
		}
		fmt.Println()
	}

	fmt.Println("Use -d to select a device:")
	fmt.Println("  -d \"#0\"      Select by index")
	fmt.Println("  -d \"1:10\"    Select by bus:address")
	fmt.Println("  -d \"009a\"    Select by serial (if unique)")
	return nil
}

func chipName(partNum uint8) string {
	switch partNum {
	case yardstick.PartNumCC1110:
		return "CC1110"
	case yardstick.PartNumCC1111:
		return "CC1111"
	case yardstick.PartNumCC2510:
		return "CC2510"
	case yardstick.PartNumCC2511:
		return "CC2511"
	}
	return "Unknown"
}
