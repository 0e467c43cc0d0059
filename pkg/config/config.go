// Package config loads the receiver configuration file.
package config

import (
	"fmt"
	"time"

	"github.com/herlein/rfalarm/pkg/decoder"
	"github.com/herlein/rfalarm/pkg/pipeline"
	"github.com/herlein/rfalarm/pkg/sampler"
)

// ConfigVersion is the configuration file version this package writes
const ConfigVersion = "1.0"

// Source types
const (
	SourceGPIO      = "gpio"
	SourceYardStick = "yardstick"
	SourceCapture   = "capture"
)

// Config is the complete receiver configuration
type Config struct {
	Version string        `yaml:"version"`
	Sampler SamplerConfig `yaml:"sampler"`
	Decoder DecoderConfig `yaml:"decoder"`
	Filter  FilterConfig  `yaml:"filter"`
	Source  SourceConfig  `yaml:"source"`
	Sinks   SinksConfig   `yaml:"sinks"`
	Devices Devices       `yaml:"devices,omitempty"`
}

// SamplerConfig sets the sampling tick and buffer sizes
type SamplerConfig struct {
	TickUS      int `yaml:"tick_us"`      // sampling period in microseconds (default: 50)
	RawBuffer   int `yaml:"raw_buffer"`   // packed sample bytes (default: 64)
	PulseBuffer int `yaml:"pulse_buffer"` // pulse records (default: 256)
}

// DecoderConfig sets the pulse ratio tolerances
type DecoderConfig struct {
	SyncMinRatio uint32 `yaml:"sync_min_ratio"`
	SyncMaxRatio uint32 `yaml:"sync_max_ratio"`
	DataMinRatio uint32 `yaml:"data_min_ratio"`
	DataMaxRatio uint32 `yaml:"data_max_ratio"`
}

// FilterConfig sets the confirmation filter timing
type FilterConfig struct {
	RefractoryMS   int `yaml:"refractory_ms"`    // suppression after a delivery (default: 1000)
	PollIntervalMS int `yaml:"poll_interval_ms"` // scheduler period (default: 10)
}

// SourceConfig selects where samples come from
type SourceConfig struct {
	Type      string          `yaml:"type"` // gpio, yardstick, capture
	GPIO      GPIOConfig      `yaml:"gpio,omitempty"`
	YardStick YardStickConfig `yaml:"yardstick,omitempty"`
	Capture   CaptureConfig   `yaml:"capture,omitempty"`
}

// GPIOConfig describes a receiver module wired to a GPIO line
type GPIOConfig struct {
	Chip      string `yaml:"chip"` // e.g. gpiochip0
	Line      int    `yaml:"line"`
	PullUp    bool   `yaml:"pull_up"`
	ActiveLow bool   `yaml:"active_low"`
}

// YardStickConfig describes a YardStick One used as an OOK demodulator
type YardStickConfig struct {
	Device      string `yaml:"device"`       // selector: serial, bus:addr or #index
	FrequencyHz uint32 `yaml:"frequency_hz"` // default: 433920000
	Amplifier   bool   `yaml:"amplifier"`
	Profile     string `yaml:"profile,omitempty"` // optional register snapshot to apply instead
}

// CaptureConfig describes a packed-sample capture file to replay
type CaptureConfig struct {
	Path     string `yaml:"path"`
	Realtime bool   `yaml:"realtime"`
}

// SinksConfig lists where delivered events go
type SinksConfig struct {
	Console bool           `yaml:"console"`
	Serial  *SerialConfig  `yaml:"serial,omitempty"`
	Journal *JournalConfig `yaml:"journal,omitempty"`
	Queue   int            `yaml:"queue"` // dispatcher queue depth (default: 16)
}

// SerialConfig is a UART link to the host controller
type SerialConfig struct {
	Port string `yaml:"port"`
	Baud int    `yaml:"baud"` // default: 115200
}

// JournalConfig is the append-only event journal
type JournalConfig struct {
	Path string `yaml:"path"`
}

// Defaults applied by ToPipelineConfig and Default
const (
	DefaultFrequencyHz  = 433920000
	DefaultBaud         = 115200
	DefaultQueue        = 16
	DefaultRefractoryMS = 1000
	DefaultPollMS       = 10
)

// Default returns a configuration with every field set to its default
func Default() *Config {
	return &Config{
		Version: ConfigVersion,
		Sampler: SamplerConfig{
			TickUS:      int(sampler.DefaultTick / time.Microsecond),
			RawBuffer:   pipeline.DefaultRawCapacity,
			PulseBuffer: pipeline.DefaultPulseCapacity,
		},
		Decoder: DecoderConfig{
			SyncMinRatio: decoder.DefaultSyncMin,
			SyncMaxRatio: decoder.DefaultSyncMax,
			DataMinRatio: decoder.DefaultDataMin,
			DataMaxRatio: decoder.DefaultDataMax,
		},
		Filter: FilterConfig{
			RefractoryMS:   DefaultRefractoryMS,
			PollIntervalMS: DefaultPollMS,
		},
		Source: SourceConfig{
			Type: SourceYardStick,
			YardStick: YardStickConfig{
				FrequencyHz: DefaultFrequencyHz,
			},
		},
		Sinks: SinksConfig{
			Console: true,
			Queue:   DefaultQueue,
		},
	}
}

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	if c.Version != "" && c.Version != ConfigVersion {
		return fmt.Errorf("%w: %s", ErrConfigVersion, c.Version)
	}
	if c.Sampler.TickUS < 0 || c.Sampler.RawBuffer < 0 || c.Sampler.PulseBuffer < 0 {
		return fmt.Errorf("%w: sampler values must not be negative", ErrInvalidConfig)
	}
	if c.Filter.RefractoryMS < 0 || c.Filter.PollIntervalMS < 0 {
		return fmt.Errorf("%w: filter values must not be negative", ErrInvalidConfig)
	}

	if err := c.ToPipelineConfig().Decoder.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	switch c.Source.Type {
	case SourceGPIO:
		if c.Source.GPIO.Chip == "" {
			return fmt.Errorf("%w: gpio source needs a chip", ErrInvalidConfig)
		}
		if c.Source.GPIO.Line < 0 {
			return fmt.Errorf("%w: gpio line %d", ErrInvalidConfig, c.Source.GPIO.Line)
		}
	case SourceYardStick:
	case SourceCapture:
		if c.Source.Capture.Path == "" {
			return fmt.Errorf("%w: capture source needs a path", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSource, c.Source.Type)
	}

	if c.Sinks.Serial != nil && c.Sinks.Serial.Port == "" {
		return fmt.Errorf("%w: serial sink needs a port", ErrInvalidConfig)
	}
	if c.Sinks.Journal != nil && c.Sinks.Journal.Path == "" {
		return fmt.Errorf("%w: journal sink needs a path", ErrInvalidConfig)
	}

	return c.Devices.Validate()
}

// ToPipelineConfig converts the file form to a pipeline configuration,
// falling back to defaults for zero fields
func (c *Config) ToPipelineConfig() *pipeline.Config {
	pc := pipeline.DefaultConfig()

	if c.Sampler.TickUS > 0 {
		pc.SampleTick = time.Duration(c.Sampler.TickUS) * time.Microsecond
	}
	if c.Sampler.RawBuffer > 0 {
		pc.RawCapacity = c.Sampler.RawBuffer
	}
	if c.Sampler.PulseBuffer > 0 {
		pc.PulseCapacity = c.Sampler.PulseBuffer
	}

	if c.Decoder.SyncMinRatio > 0 {
		pc.Decoder.SyncMin = c.Decoder.SyncMinRatio
	}
	if c.Decoder.SyncMaxRatio > 0 {
		pc.Decoder.SyncMax = c.Decoder.SyncMaxRatio
	}
	if c.Decoder.DataMinRatio > 0 {
		pc.Decoder.DataMin = c.Decoder.DataMinRatio
	}
	if c.Decoder.DataMaxRatio > 0 {
		pc.Decoder.DataMax = c.Decoder.DataMaxRatio
	}

	if c.Filter.PollIntervalMS > 0 {
		pc.PollInterval = time.Duration(c.Filter.PollIntervalMS) * time.Millisecond
	}
	refractory := pipeline.DefaultRefractory
	if c.Filter.RefractoryMS > 0 {
		refractory = time.Duration(c.Filter.RefractoryMS) * time.Millisecond
	}
	pc.RefractoryTicks = pipeline.TicksFor(refractory, pc.PollInterval)

	return pc
}

// Frequency returns the YardStick frequency, or the default
func (c *YardStickConfig) Frequency() uint32 {
	if c.FrequencyHz == 0 {
		return DefaultFrequencyHz
	}
	return c.FrequencyHz
}

// BaudRate returns the serial baud rate, or the default
func (c *SerialConfig) BaudRate() int {
	if c.Baud == 0 {
		return DefaultBaud
	}
	return c.Baud
}

// QueueDepth returns the dispatcher queue depth, or the default
func (c *SinksConfig) QueueDepth() int {
	if c.Queue <= 0 {
		return DefaultQueue
	}
	return c.Queue
}
