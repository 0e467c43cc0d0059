package sink

import (
	"fmt"
	"io"
)

// Console prints one line per event
type Console struct {
	w io.Writer
}

// NewConsole returns a console sink writing to w
func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

func (c *Console) Deliver(ev Event) error {
	_, err := fmt.Fprintln(c.w, ev)
	return err
}

func (c *Console) Close() error {
	return nil
}
