package source

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/herlein/rfalarm/pkg/sampler"
)

// Capture files hold a 12-byte header followed by packed samples, eight per
// byte, first sample in the MSB:
//
//	"OOKC" | version (1 byte) | reserved (3 bytes) | tick in ns (uint32 LE)
const (
	captureMagic   = "OOKC"
	captureVersion = 1
	headerSize     = 12

	// 32 bytes stays under the default raw ring between two polls
	captureChunk = 32
)

// Capture replays a capture file.
type Capture struct {
	r    io.Reader
	c    io.Closer
	tick time.Duration

	// Realtime paces the replay at the recorded tick
	Realtime bool

	// Step, when set, runs after every chunk of a non-realtime replay so the
	// caller can drain the pipeline synchronously
	Step func()

	// Clock, when set, runs once per ClockPeriod of replayed sample time in
	// a non-realtime replay. It stands in for the scheduler tick, which
	// would otherwise advance in wall time.
	Clock       func()
	ClockPeriod time.Duration
}

// NewCapture reads the capture header from r.
func NewCapture(r io.Reader) (*Capture, error) {
	var hdr [headerSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadCapture, err)
	}
	if string(hdr[:4]) != captureMagic {
		return nil, fmt.Errorf("%w: bad magic %q", ErrBadCapture, hdr[:4])
	}
	if hdr[4] != captureVersion {
		return nil, fmt.Errorf("%w: version %d", ErrBadCapture, hdr[4])
	}
	tick := time.Duration(binary.LittleEndian.Uint32(hdr[8:]))
	if tick <= 0 {
		return nil, fmt.Errorf("%w: zero tick", ErrBadCapture)
	}
	return &Capture{r: r, tick: tick}, nil
}

// OpenCapture opens a capture file for replay.
func OpenCapture(path string) (*Capture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open capture: %w", err)
	}
	c, err := NewCapture(bufio.NewReader(f))
	if err != nil {
		f.Close()
		return nil, err
	}
	c.c = f
	return c, nil
}

// Tick returns the sampling period the capture was recorded at.
func (c *Capture) Tick() time.Duration {
	return c.tick
}

// Close closes the underlying file, if any.
func (c *Capture) Close() error {
	if c.c == nil {
		return nil
	}
	return c.c.Close()
}

// Stepped reports whether the replay drives the pipeline itself rather
// than leaving it to a free-running scheduler.
func (c *Capture) Stepped() bool {
	return !c.Realtime && c.Step != nil
}

// Run replays the capture into s and returns nil at its end.
func (c *Capture) Run(ctx context.Context, s *sampler.Sampler) error {
	buf := make([]byte, captureChunk)
	var elapsed time.Duration

	var pace <-chan time.Time
	if c.Realtime {
		ticker := time.NewTicker(c.tick * 8 * captureChunk)
		defer ticker.Stop()
		pace = ticker.C
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, err := io.ReadFull(c.r, buf)
		for _, b := range buf[:n] {
			s.SampleByte(b)
		}
		if pace == nil && n > 0 {
			if c.Step != nil {
				c.Step()
			}
			if c.Clock != nil && c.ClockPeriod > 0 {
				elapsed += time.Duration(n) * 8 * c.tick
				for elapsed >= c.ClockPeriod {
					elapsed -= c.ClockPeriod
					c.Clock()
				}
			}
		}
		switch {
		case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
			return nil
		case err != nil:
			return fmt.Errorf("failed to read capture: %w", err)
		}

		if pace != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-pace:
			}
		}
	}
}

// CaptureWriter records packed samples. It is a ring.Writer[byte], so a
// sampler can produce straight into it.
type CaptureWriter struct {
	w   *bufio.Writer
	c   io.Closer
	n   int64
	err error
}

// NewCaptureWriter writes the header for tick to w.
func NewCaptureWriter(w io.Writer, tick time.Duration) (*CaptureWriter, error) {
	if tick <= 0 || tick > time.Duration(^uint32(0)) {
		return nil, fmt.Errorf("invalid capture tick %v", tick)
	}
	var hdr [headerSize]byte
	copy(hdr[:], captureMagic)
	hdr[4] = captureVersion
	binary.LittleEndian.PutUint32(hdr[8:], uint32(tick))

	bw := bufio.NewWriter(w)
	if _, err := bw.Write(hdr[:]); err != nil {
		return nil, fmt.Errorf("failed to write capture header: %w", err)
	}
	return &CaptureWriter{w: bw}, nil
}

// CreateCapture creates a capture file at path.
func CreateCapture(path string, tick time.Duration) (*CaptureWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create capture: %w", err)
	}
	cw, err := NewCaptureWriter(f, tick)
	if err != nil {
		f.Close()
		return nil, err
	}
	cw.c = f
	return cw, nil
}

// Push records one packed byte. The first write error sticks and is
// returned by Close.
func (cw *CaptureWriter) Push(b byte) {
	if cw.err != nil {
		return
	}
	if err := cw.w.WriteByte(b); err != nil {
		cw.err = err
		return
	}
	cw.n++
}

// Write records already packed bytes.
func (cw *CaptureWriter) Write(p []byte) (int, error) {
	for _, b := range p {
		cw.Push(b)
	}
	if cw.err != nil {
		return 0, cw.err
	}
	return len(p), nil
}

// Bytes returns the number of sample bytes recorded.
func (cw *CaptureWriter) Bytes() int64 {
	return cw.n
}

// Close flushes the capture and closes the file, if any.
func (cw *CaptureWriter) Close() error {
	err := cw.err
	if ferr := cw.w.Flush(); err == nil && ferr != nil {
		err = ferr
	}
	if cw.c != nil {
		if cerr := cw.c.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}
	if err != nil {
		return fmt.Errorf("failed to write capture: %w", err)
	}
	return nil
}
