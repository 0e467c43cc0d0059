package registers

import (
	"fmt"
	"time"
)

// Memory is device memory reachable by peek and poke. *yardstick.Device
// implements it.
type Memory interface {
	Peek(address uint16, length uint16) ([]byte, error)
	Poke(address uint16, data []byte) error
}

// Strobe sends a radio strobe command
func Strobe(m Memory, command uint8) error {
	return m.Poke(RegRFST, []byte{command})
}

// GetRadioState reads the current radio state
func GetRadioState(m Memory) (RadioState, error) {
	b, err := m.Peek(RegMARCSTATE, 1)
	if err != nil {
		return 0, fmt.Errorf("failed to read radio state: %w", err)
	}
	return RadioState(b[0] & 0x1F), nil // MARCSTATE is only 5 bits
}

func peekBlock(m Memory, address uint16, length int) ([]byte, error) {
	b, err := m.Peek(address, uint16(length))
	if err != nil {
		return nil, err
	}
	if len(b) < length {
		return nil, fmt.Errorf("short read at 0x%04X: %d of %d bytes", address, len(b), length)
	}
	return b, nil
}

// Read reads every radio register, status included
func Read(m Memory) (*RegisterMap, error) {
	reg := &RegisterMap{}

	config, err := peekBlock(m, blockConfig, 32)
	if err != nil {
		return nil, fmt.Errorf("failed to read config registers: %w", err)
	}
	reg.setConfigBlock(config)

	test, err := peekBlock(m, blockTest, 3)
	if err != nil {
		return nil, fmt.Errorf("failed to read TEST registers: %w", err)
	}
	reg.TEST2, reg.TEST1, reg.TEST0 = test[0], test[1], test[2]

	pa, err := peekBlock(m, blockPA, 11)
	if err != nil {
		return nil, fmt.Errorf("failed to read PA_TABLE/IOCFG: %w", err)
	}
	reg.setPABlock(pa)

	status, err := peekBlock(m, blockStatus, 8)
	if err != nil {
		return nil, fmt.Errorf("failed to read status registers: %w", err)
	}
	reg.PARTNUM, reg.CHIPID, reg.FREQEST, reg.LQI = status[0], status[1], status[2], status[3]
	reg.RSSI, reg.MARCSTATE, reg.PKTSTATUS, reg.VCO_VC_DAC = status[4], status[5], status[6], status[7]

	return reg, nil
}

// Write writes every writable radio register
func Write(m Memory, reg *RegisterMap) error {
	if err := m.Poke(blockConfig, reg.configBlock()); err != nil {
		return fmt.Errorf("failed to write config registers: %w", err)
	}
	if err := m.Poke(blockTest, []byte{reg.TEST2, reg.TEST1, reg.TEST0}); err != nil {
		return fmt.Errorf("failed to write TEST registers: %w", err)
	}
	if err := m.Poke(blockPA, reg.paBlock()); err != nil {
		return fmt.Errorf("failed to write PA_TABLE/IOCFG: %w", err)
	}
	return nil
}

// inIdle runs fn with the radio in IDLE and then restores RX or TX.
func inIdle(m Memory, fn func() error) error {
	state, err := GetRadioState(m)
	if err != nil {
		return err
	}

	if state != StateIDLE {
		if err := Strobe(m, StrobeSIDLE); err != nil {
			return fmt.Errorf("failed to set IDLE state: %w", err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	if err := fn(); err != nil {
		return err
	}

	switch state {
	case StateRX:
		return Strobe(m, StrobeSRX)
	case StateTX:
		return Strobe(m, StrobeSTX)
	}
	return nil
}

// Apply writes reg with the radio idled, restoring its previous state
func Apply(m Memory, reg *RegisterMap) error {
	return inIdle(m, func() error {
		return Write(m, reg)
	})
}

// Snapshot reads the registers with the radio idled, restoring its
// previous state
func Snapshot(m Memory) (*RegisterMap, error) {
	var reg *RegisterMap
	err := inIdle(m, func() error {
		var err error
		reg, err = Read(m)
		return err
	})
	if err != nil {
		return nil, err
	}
	return reg, nil
}
