package sink

import (
	"fmt"
	"io"
	"time"

	"github.com/tarm/serial"
)

// SerialMarker starts every code frame on the UART
const SerialMarker = '#'

// Serial forwards codes to a host controller as '#' followed by the three
// code bytes.
type Serial struct {
	port io.WriteCloser
}

// NewSerial wraps an already open port
func NewSerial(port io.WriteCloser) *Serial {
	return &Serial{port: port}
}

// OpenSerial opens a UART at baud, 8N1
func OpenSerial(name string, baud int) (*Serial, error) {
	port, err := serial.OpenPort(&serial.Config{
		Name:        name,
		Baud:        baud,
		ReadTimeout: 500 * time.Millisecond,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", name, err)
	}
	return NewSerial(port), nil
}

func (s *Serial) Deliver(ev Event) error {
	frame := []byte{SerialMarker, ev.Code[0], ev.Code[1], ev.Code[2]}
	n, err := s.port.Write(frame)
	if err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}
	if n != len(frame) {
		return fmt.Errorf("short write: %d of %d bytes", n, len(frame))
	}
	return nil
}

func (s *Serial) Close() error {
	return s.port.Close()
}
