// Package ev1527 describes the 24-bit codes sent by EV1527-style alarm
// sensors and remotes, and synthesizes their OOK frames.
//
// A code is a 20-bit transmitter address followed by a 4-bit key field. The
// key tells what happened (door opened, tamper, remote button, ...).
package ev1527

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidCode indicates a code string that is not six hex digits
var ErrInvalidCode = errors.New("invalid code: want 6 hex digits")

// AddressMask covers the 20 address bits returned by Code.Address.
const AddressMask = 0xFFFFF

// Code is one decoded frame, first received bit in the MSB of byte 0.
type Code [3]byte

// NewCode builds a code from an address and a key.
func NewCode(addr uint32, key Key) Code {
	addr &= AddressMask
	return Code{
		byte(addr >> 12),
		byte(addr >> 4),
		byte(addr<<4) | byte(key&0x0F),
	}
}

// ParseCode parses a code written as six hex digits, e.g. "0CBBAA".
func ParseCode(s string) (Code, error) {
	var c Code
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(s) != 6 {
		return c, fmt.Errorf("%w: %q", ErrInvalidCode, s)
	}
	if _, err := hex.Decode(c[:], []byte(s)); err != nil {
		return c, fmt.Errorf("%w: %q", ErrInvalidCode, s)
	}
	return c, nil
}

// Address returns the 20-bit transmitter address.
func (c Code) Address() uint32 {
	return uint32(c[0])<<12 | uint32(c[1])<<4 | uint32(c[2]>>4)
}

// Key returns the 4-bit key field.
func (c Code) Key() Key {
	return Key(c[2] & 0x0F)
}

func (c Code) String() string {
	return fmt.Sprintf("%02X%02X%02X", c[0], c[1], c[2])
}

// Key is the 4-bit function field of a code.
type Key byte

// Keys sent by the supported sensors.
const (
	KeyDisarm     Key = 0x01
	KeyArm        Key = 0x02
	KeyHomeArm    Key = 0x04
	KeyLowBattery Key = 0x06
	KeyTamper     Key = 0x07
	KeySOS        Key = 0x08
	KeyDoorOpen   Key = 0x0A
	KeyDoorClose  Key = 0x0E
)

var keyNames = map[Key]string{
	KeyDisarm:     "disarm",
	KeyArm:        "arm",
	KeyHomeArm:    "home-arm",
	KeyLowBattery: "low-battery",
	KeyTamper:     "tamper",
	KeySOS:        "sos",
	KeyDoorOpen:   "door-open",
	KeyDoorClose:  "door-close",
}

func (k Key) String() string {
	if name, ok := keyNames[k]; ok {
		return name
	}
	return fmt.Sprintf("key-0x%X", byte(k))
}

// Known reports whether k is one of the keys listed above.
func (k Key) Known() bool {
	_, ok := keyNames[k]
	return ok
}

// IsRemote reports whether k comes from a keyfob rather than a sensor.
func (k Key) IsRemote() bool {
	switch k {
	case KeyDisarm, KeyArm, KeyHomeArm, KeySOS:
		return true
	}
	return false
}
