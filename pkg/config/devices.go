package config

import (
	"fmt"
	"strconv"

	"github.com/herlein/rfalarm/pkg/ev1527"
)

// Device types
const (
	DeviceDoor   = "door"
	DevicePIR    = "pir"
	DeviceRemote = "remote"
)

// Device is a paired sensor or remote
type Device struct {
	Name    string  `yaml:"name"`
	Address Address `yaml:"address"` // 20-bit transmitter address, hex
	Type    string  `yaml:"type"`    // door, pir, remote
}

// Address is a transmitter address written in hex in the config file
type Address uint32

// UnmarshalText parses "0CBBA" or "0x0CBBA".
func (a *Address) UnmarshalText(text []byte) error {
	s := string(text)
	if len(s) > 2 && (s[:2] == "0x" || s[:2] == "0X") {
		s = s[2:]
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return fmt.Errorf("%w: address %q", ErrInvalidDevice, string(text))
	}
	*a = Address(v)
	return nil
}

// MarshalText writes the address as five hex digits.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(fmt.Sprintf("%05X", uint32(a))), nil
}

// Devices is the paired device table
type Devices []Device

// Validate checks every entry and rejects duplicate addresses
func (d Devices) Validate() error {
	seen := make(map[Address]string, len(d))
	for _, dev := range d {
		if dev.Name == "" {
			return fmt.Errorf("%w: device %05X has no name", ErrInvalidDevice, uint32(dev.Address))
		}
		if uint32(dev.Address) > ev1527.AddressMask {
			return fmt.Errorf("%w: %s address %X exceeds 20 bits", ErrInvalidDevice, dev.Name, uint32(dev.Address))
		}
		switch dev.Type {
		case DeviceDoor, DevicePIR, DeviceRemote:
		default:
			return fmt.Errorf("%w: %s has type %q", ErrInvalidDevice, dev.Name, dev.Type)
		}
		if other, ok := seen[dev.Address]; ok {
			return fmt.Errorf("%w: %s and %s", ErrDuplicateDevice, other, dev.Name)
		}
		seen[dev.Address] = dev.Name
	}
	return nil
}

// Match returns the device whose address sent code
func (d Devices) Match(code ev1527.Code) (*Device, bool) {
	addr := Address(code.Address())
	for i := range d {
		if d[i].Address == addr {
			return &d[i], true
		}
	}
	return nil, false
}
