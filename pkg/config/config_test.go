package config

import (
	"path/filepath"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"

	"github.com/herlein/rfalarm/pkg/decoder"
	"github.com/herlein/rfalarm/pkg/ev1527"
)

const sample = `
version: "1.0"
sampler:
  tick_us: 100
decoder:
  sync_max_ratio: 40
filter:
  refractory_ms: 500
  poll_interval_ms: 20
source:
  type: gpio
  gpio:
    chip: gpiochip0
    line: 17
    active_low: true
sinks:
  console: false
  serial:
    port: /dev/ttyS1
  journal:
    path: /var/lib/rfalarm/events.msgpack
devices:
  - name: front door
    address: 0CBBA
    type: door
  - name: keyfob
    address: 0x12345
    type: remote
`

func TestParse(t *testing.T) {
	c := qt.New(t)

	cfg, err := Parse([]byte(sample))
	c.Assert(err, qt.IsNil)

	c.Assert(cfg.Source.Type, qt.Equals, SourceGPIO)
	c.Assert(cfg.Source.GPIO, qt.DeepEquals, GPIOConfig{Chip: "gpiochip0", Line: 17, ActiveLow: true})
	c.Assert(cfg.Sinks.Console, qt.IsFalse)
	c.Assert(cfg.Sinks.Serial.Port, qt.Equals, "/dev/ttyS1")
	c.Assert(cfg.Sinks.Serial.BaudRate(), qt.Equals, DefaultBaud)
	c.Assert(cfg.Sinks.QueueDepth(), qt.Equals, DefaultQueue)
	c.Assert(cfg.Devices, qt.HasLen, 2)
	c.Assert(cfg.Devices[1].Address, qt.Equals, Address(0x12345))

	pc := cfg.ToPipelineConfig()
	c.Assert(pc.SampleTick, qt.Equals, 100*time.Microsecond)
	c.Assert(pc.PollInterval, qt.Equals, 20*time.Millisecond)
	c.Assert(pc.RefractoryTicks, qt.Equals, uint32(25))
	c.Assert(pc.Decoder.SyncMin, qt.Equals, uint32(decoder.DefaultSyncMin))
	c.Assert(pc.Decoder.SyncMax, qt.Equals, uint32(40))
	c.Assert(pc.Validate(), qt.IsNil)
}

func TestDefaults(t *testing.T) {
	c := qt.New(t)

	cfg := Default()
	c.Assert(cfg.Validate(), qt.IsNil)

	pc := cfg.ToPipelineConfig()
	c.Assert(pc.SampleTick, qt.Equals, 50*time.Microsecond)
	c.Assert(pc.RefractoryTicks, qt.Equals, uint32(100))
	c.Assert(cfg.Source.YardStick.Frequency(), qt.Equals, uint32(DefaultFrequencyHz))

	// an empty file is the default configuration
	empty, err := Parse(nil)
	c.Assert(err, qt.IsNil)
	c.Assert(empty.Source.Type, qt.Equals, SourceYardStick)
}

func TestValidateErrors(t *testing.T) {
	c := qt.New(t)

	tests := []struct {
		name string
		yaml string
		want error
	}{
		{"version", `version: "2.0"`, ErrConfigVersion},
		{"source type", "source:\n  type: sdr", ErrUnknownSource},
		{"gpio without chip", "source:\n  type: gpio", ErrInvalidConfig},
		{"capture without path", "source:\n  type: capture", ErrInvalidConfig},
		{"ratios", "decoder:\n  data_min_ratio: 9", ErrInvalidConfig},
		{"serial without port", "sinks:\n  serial: {baud: 9600}", ErrInvalidConfig},
		{"device type", "devices:\n  - {name: x, address: 1, type: siren}", ErrInvalidDevice},
		{"device address", "devices:\n  - {name: x, address: zz, type: pir}", ErrInvalidDevice},
		{"device too wide", "devices:\n  - {name: x, address: 123456, type: pir}", ErrInvalidDevice},
		{"duplicate", "devices:\n  - {name: a, address: 1, type: pir}\n  - {name: b, address: 1, type: door}", ErrDuplicateDevice},
	}
	for _, tt := range tests {
		c.Run(tt.name, func(c *qt.C) {
			_, err := Parse([]byte(tt.yaml))
			c.Assert(err, qt.ErrorIs, tt.want)
		})
	}
}

func TestMatch(t *testing.T) {
	c := qt.New(t)

	cfg, err := Parse([]byte(sample))
	c.Assert(err, qt.IsNil)

	dev, ok := cfg.Devices.Match(ev1527.Code{0x0C, 0xBB, 0xAA})
	c.Assert(ok, qt.IsTrue)
	c.Assert(dev.Name, qt.Equals, "front door")

	dev, ok = cfg.Devices.Match(ev1527.NewCode(0x12345, ev1527.KeySOS))
	c.Assert(ok, qt.IsTrue)
	c.Assert(dev.Type, qt.Equals, DeviceRemote)

	_, ok = cfg.Devices.Match(ev1527.Code{0xFF, 0xFF, 0xF0})
	c.Assert(ok, qt.IsFalse)
}

func TestSaveLoad(t *testing.T) {
	c := qt.New(t)

	cfg, err := Parse([]byte(sample))
	c.Assert(err, qt.IsNil)

	path := filepath.Join(c.TempDir(), "nested", "rx.yaml")
	c.Assert(Save(cfg, path), qt.IsNil)

	loaded, err := Load(path)
	c.Assert(err, qt.IsNil)
	c.Assert(loaded, qt.DeepEquals, cfg)

	_, err = Load(filepath.Join(c.TempDir(), "missing.yaml"))
	c.Assert(err, qt.ErrorMatches, "failed to read config file: .*")
}
