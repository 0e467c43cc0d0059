package decoder

import "fmt"

// Default tolerance ratios for EV1527-style remotes.
const (
	DefaultSyncMin = 20
	DefaultSyncMax = 44
	DefaultDataMin = 2
	DefaultDataMax = 5

	// MaxRatio keeps ratio*ticks inside uint32 for 15-bit pulse durations
	MaxRatio = 0xFFFF
)

// Config holds the duty-ratio tolerances used to classify pulse pairs.
type Config struct {
	// Sync: low duration must lie in [high*SyncMin, high*SyncMax]
	SyncMin uint32 `yaml:"sync_min_ratio"`
	SyncMax uint32 `yaml:"sync_max_ratio"`

	// Data: the longer half must exceed the shorter by more than DataMin and
	// by at most DataMax
	DataMin uint32 `yaml:"data_min_ratio"`
	DataMax uint32 `yaml:"data_max_ratio"`

	// Debug callback (optional)
	DebugLog func(format string, args ...interface{}) `yaml:"-"`
}

// DefaultConfig returns a Config with the reference ratios.
func DefaultConfig() Config {
	return Config{
		SyncMin: DefaultSyncMin,
		SyncMax: DefaultSyncMax,
		DataMin: DefaultDataMin,
		DataMax: DefaultDataMax,
	}
}

// Validate checks that every ratio window is non-empty.
func (c Config) Validate() error {
	if c.SyncMax > MaxRatio {
		return fmt.Errorf("%w: sync max %d above %d", ErrInvalidRatio, c.SyncMax, MaxRatio)
	}
	if c.SyncMin == 0 || c.SyncMax < c.SyncMin {
		return fmt.Errorf("%w: sync window [%d, %d]", ErrInvalidRatio, c.SyncMin, c.SyncMax)
	}
	if c.DataMax <= c.DataMin {
		return fmt.Errorf("%w: data window (%d, %d]", ErrInvalidRatio, c.DataMin, c.DataMax)
	}
	// the data windows for 0 and 1 must not overlap the sync window
	if c.DataMax >= c.SyncMin {
		return fmt.Errorf("%w: data max %d reaches sync min %d", ErrInvalidRatio, c.DataMax, c.SyncMin)
	}
	return nil
}

func (c Config) debugf(format string, args ...interface{}) {
	if c.DebugLog != nil {
		c.DebugLog(format, args...)
	}
}
