package yardstick

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// SetModeRX puts the radio into receive mode through the firmware, which
// also sets MCSM1 so the radio stays in RX after each packet.
func (d *Device) SetModeRX() error {
	// pass through IDLE so the firmware resets its rf state
	if _, err := d.Send(AppSystem, SysCmdRFMode, []byte{RFSTSidle}, USBDefaultTimeout); err != nil {
		return fmt.Errorf("failed to set IDLE before RX: %w", err)
	}
	time.Sleep(5 * time.Millisecond)

	if _, err := d.Send(AppSystem, SysCmdRFMode, []byte{RFSTSrx}, USBDefaultTimeout); err != nil {
		return fmt.Errorf("failed to set RX mode: %w", err)
	}

	return d.WaitForState(MarcStateRX, 100*time.Millisecond)
}

// SetModeIDLE puts the radio into idle mode
func (d *Device) SetModeIDLE() error {
	if _, err := d.Send(AppSystem, SysCmdRFMode, []byte{RFSTSidle}, USBDefaultTimeout); err != nil {
		return fmt.Errorf("failed to set IDLE mode: %w", err)
	}
	return nil
}

// GetMARCSTATE returns the current radio state machine state
func (d *Device) GetMARCSTATE() (uint8, error) {
	state, err := d.PeekByte(RegMARCSTATE)
	return state & 0x1F, err
}

// WaitForState polls MARCSTATE until the desired state is reached or timeout
func (d *Device) WaitForState(state uint8, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		current, err := d.GetMARCSTATE()
		if err != nil {
			return fmt.Errorf("failed to read MARCSTATE: %w", err)
		}
		if current == state {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("%w: radio in state 0x%02X, want 0x%02X", ErrTimeout, current, state)
		}
		time.Sleep(time.Millisecond)
	}
}

// RFRecv waits for one received packet. ErrTimeout means nothing arrived.
func (d *Device) RFRecv(ctx context.Context, timeout time.Duration) ([]byte, error) {
	return d.Recv(ctx, AppNIC, NICRecv, timeout)
}

// Stream enters RX and hands every received packet to fn until ctx is
// cancelled. fn runs on the calling goroutine.
func (d *Device) Stream(ctx context.Context, fn func(packet []byte)) error {
	if err := d.SetModeRX(); err != nil {
		return fmt.Errorf("failed to enter RX mode: %w", err)
	}
	defer d.SetModeIDLE()

	for {
		packet, err := d.RFRecv(ctx, USBRXWaitTimeout)
		switch {
		case err == nil:
			fn(packet)
		case errors.Is(err, ErrTimeout):
			// quiet air
		case ctx.Err() != nil:
			return ctx.Err()
		default:
			return err
		}
	}
}

// SetAmpMode enables (AmpModeOn) or bypasses (AmpModeOff) the front-end
// amplifiers. The RX amplifier matters for weak sensors.
func (d *Device) SetAmpMode(mode uint8) error {
	if _, err := d.Send(AppNIC, NICSetAmpMode, []byte{mode}, USBDefaultTimeout); err != nil {
		return fmt.Errorf("failed to set amplifier mode: %w", err)
	}
	return nil
}

// SetAmplifier is SetAmpMode for a boolean flag
func (d *Device) SetAmplifier(on bool) error {
	if on {
		return d.SetAmpMode(AmpModeOn)
	}
	return d.SetAmpMode(AmpModeOff)
}

// GetAmpMode returns the current amplifier mode
func (d *Device) GetAmpMode() (uint8, error) {
	response, err := d.Send(AppNIC, NICGetAmpMode, nil, USBDefaultTimeout)
	if err != nil {
		return 0, fmt.Errorf("failed to get amplifier mode: %w", err)
	}
	if len(response) < 1 {
		return 0, fmt.Errorf("%w: empty amplifier mode", ErrBadResponse)
	}
	return response[0], nil
}

// GetFrequency returns the tuned frequency in Hz
func (d *Device) GetFrequency() (uint32, error) {
	regs, err := d.Peek(RegFREQ2, 3)
	if err != nil {
		return 0, fmt.Errorf("failed to read frequency: %w", err)
	}
	w := uint64(regs[0])<<16 | uint64(regs[1])<<8 | uint64(regs[2])
	return uint32((w * CrystalFreqHz) >> 16), nil
}

// RSSIToDBm converts a raw RSSI register value to dBm
func RSSIToDBm(rssi uint8) int {
	return int(int8(rssi))/2 - 74
}

// RadioStatus holds link diagnostics
type RadioStatus struct {
	RSSI      uint8
	RSSIdBm   int
	LQI       uint8
	CRCOk     bool
	MARCSTATE uint8
	PKTSTATUS uint8
}

// GetRadioStatus reads the link quality registers in one peek
func (d *Device) GetRadioStatus() (*RadioStatus, error) {
	regs, err := d.Peek(RegLQI, 4)
	if err != nil {
		return nil, fmt.Errorf("failed to read radio status: %w", err)
	}
	lqi, rssi := regs[0], regs[1]
	return &RadioStatus{
		RSSI:      rssi,
		RSSIdBm:   RSSIToDBm(rssi),
		LQI:       lqi & 0x7F,
		CRCOk:     lqi&0x80 != 0,
		MARCSTATE: regs[2] & 0x1F,
		PKTSTATUS: regs[3],
	}, nil
}
