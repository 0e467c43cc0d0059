package yardstick

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/gousb"
)

// Selector identifies one YardStick One among those connected.
// Supported formats:
//   - ""           : first available device
//   - "serial"     : match by serial number (e.g. "009a")
//   - "bus:addr"   : match by USB bus and address (e.g. "1:10")
//   - "#N"         : Nth device, 0-indexed (e.g. "#0", "#1")
type Selector struct {
	Serial string
	Bus    int
	Addr   int
	Index  int // -1 unless "#N"
	byLoc  bool
}

// ParseSelector parses a -d flag value
func ParseSelector(s string) (Selector, error) {
	sel := Selector{Index: -1}

	switch {
	case s == "":
		return sel, nil

	case strings.HasPrefix(s, "#"):
		index, err := strconv.Atoi(s[1:])
		if err != nil || index < 0 {
			return sel, fmt.Errorf("%w: index %q", ErrInvalidSelector, s)
		}
		sel.Index = index

	case strings.Contains(s, ":"):
		parts := strings.SplitN(s, ":", 2)
		bus, err := strconv.Atoi(parts[0])
		if err != nil {
			return sel, fmt.Errorf("%w: bus %q", ErrInvalidSelector, parts[0])
		}
		addr, err := strconv.Atoi(parts[1])
		if err != nil {
			return sel, fmt.Errorf("%w: address %q", ErrInvalidSelector, parts[1])
		}
		sel.Bus, sel.Addr, sel.byLoc = bus, addr, true

	default:
		sel.Serial = s
	}
	return sel, nil
}

// pick returns the index into devices that sel chooses.
func (sel Selector) pick(devices []*Device) (int, error) {
	if len(devices) == 0 {
		return -1, ErrNoDevice
	}

	switch {
	case sel.Index >= 0:
		if sel.Index >= len(devices) {
			return -1, fmt.Errorf("device index %d out of range (found %d devices)", sel.Index, len(devices))
		}
		return sel.Index, nil

	case sel.byLoc:
		for i, d := range devices {
			if d.Bus == sel.Bus && d.Address == sel.Addr {
				return i, nil
			}
		}
		return -1, fmt.Errorf("%w at bus %d address %d", ErrNoDevice, sel.Bus, sel.Addr)

	case sel.Serial != "":
		found := -1
		for i, d := range devices {
			if d.Serial != sel.Serial {
				continue
			}
			if found >= 0 {
				return -1, fmt.Errorf("multiple devices found with serial %s; use bus:addr (e.g. 1:10) or #N", sel.Serial)
			}
			found = i
		}
		if found < 0 {
			return -1, fmt.Errorf("%w with serial %s", ErrNoDevice, sel.Serial)
		}
		return found, nil

	default:
		return 0, nil
	}
}

// Open opens the YardStick One chosen by the selector string and closes the
// others.
func Open(usb *gousb.Context, selector string) (*Device, error) {
	sel, err := ParseSelector(selector)
	if err != nil {
		return nil, err
	}

	devices, err := FindAllDevices(usb)
	if err != nil {
		return nil, err
	}

	chosen, err := sel.pick(devices)
	for i, d := range devices {
		if i != chosen {
			d.Close()
		}
	}
	if err != nil {
		return nil, err
	}
	return devices[chosen], nil
}

// DeviceFlagUsage returns the usage string for a -d flag
func DeviceFlagUsage() string {
	return `Device selector. Formats:
    ""        - Use first available device
    "serial"  - Match by serial number (e.g., "009a")
    "bus:addr"- Match by USB location (e.g., "1:10")
    "#N"      - Use Nth device, 0-indexed (e.g., "#0", "#1")`
}
