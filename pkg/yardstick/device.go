// Package yardstick drives a YardStick One (CC1111 running RfCat firmware)
// over its EP5 bulk protocol. Only what the receiver needs is implemented:
// memory peek/poke for register access, radio mode changes and packet receive.
package yardstick

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/gousb"
)

// inEndpoint and outEndpoint are the parts of gousb's EP5 endpoints we use.
type inEndpoint interface {
	ReadContext(ctx context.Context, buf []byte) (int, error)
}

type outEndpoint interface {
	WriteContext(ctx context.Context, buf []byte) (int, error)
}

// Device represents a YardStick One USB device
type Device struct {
	usbDevice    *gousb.Device
	usbConfig    *gousb.Config
	usbInterface *gousb.Interface
	epIn         inEndpoint
	epOut        outEndpoint

	Serial       string
	Manufacturer string
	Product      string
	Bus          int
	Address      int

	// one command in flight at a time
	cmdMu   sync.Mutex
	recvBuf []byte
}

// FindAllDevices opens every connected YardStick One
func FindAllDevices(usb *gousb.Context) ([]*Device, error) {
	usbDevices, err := usb.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return desc.Vendor == gousb.ID(VendorID) && desc.Product == gousb.ID(ProductID)
	})
	if err != nil && len(usbDevices) == 0 {
		return nil, fmt.Errorf("failed to enumerate devices: %w", err)
	}

	devices := make([]*Device, 0, len(usbDevices))
	for _, usbDev := range usbDevices {
		device, err := wrapDevice(usbDev)
		if err != nil {
			usbDev.Close()
			continue
		}
		devices = append(devices, device)
	}
	return devices, nil
}

func wrapDevice(usbDev *gousb.Device) (*Device, error) {
	manufacturer, _ := usbDev.Manufacturer()
	product, _ := usbDev.Product()
	serial, _ := usbDev.SerialNumber()

	usbDev.SetAutoDetach(true)

	cfg, err := usbDev.Config(1)
	if err != nil {
		return nil, fmt.Errorf("failed to get configuration: %w", err)
	}

	iface, err := cfg.Interface(0, 0)
	if err != nil {
		cfg.Close()
		return nil, fmt.Errorf("failed to claim interface: %w", err)
	}

	epIn, err := iface.InEndpoint(EP5Number)
	if err != nil {
		iface.Close()
		cfg.Close()
		return nil, fmt.Errorf("failed to get IN endpoint: %w", err)
	}

	epOut, err := iface.OutEndpoint(EP5Number)
	if err != nil {
		iface.Close()
		cfg.Close()
		return nil, fmt.Errorf("failed to get OUT endpoint: %w", err)
	}

	d := &Device{
		usbDevice:    usbDev,
		usbConfig:    cfg,
		usbInterface: iface,
		epIn:         epIn,
		epOut:        epOut,
		Serial:       serial,
		Manufacturer: manufacturer,
		Product:      product,
		Bus:          usbDev.Desc.Bus,
		Address:      usbDev.Desc.Address,
		recvBuf:      make([]byte, 0, EP5OutBufferSize),
	}

	// stale packets from a previous session would confuse the first command
	d.drain()

	return d, nil
}

// Close idles the radio and releases the USB device
func (d *Device) Close() error {
	if d.epOut != nil {
		// best effort: leave the radio in a known state for the next user
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		d.epOut.WriteContext(ctx, encodeCommand(AppSystem, SysCmdPoke, pokePayload(RegRFST, []byte{RFSTSidle})))
		cancel()
	}

	if d.usbInterface != nil {
		d.usbInterface.Close()
	}
	if d.usbConfig != nil {
		d.usbConfig.Close()
	}
	if d.usbDevice != nil {
		return d.usbDevice.Close()
	}
	return nil
}

func (d *Device) drain() {
	buf := make([]byte, 512)
	for i := 0; i < 5; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		n, err := d.epIn.ReadContext(ctx, buf)
		cancel()
		if err != nil || n == 0 {
			break
		}
	}
	d.recvBuf = d.recvBuf[:0]
}

// String returns a human-readable description of the device
func (d *Device) String() string {
	return fmt.Sprintf("%s %s (Serial: %s, %d:%d)", d.Manufacturer, d.Product, d.Serial, d.Bus, d.Address)
}

// Send writes a command to EP5 and waits for its response
func (d *Device) Send(app uint8, cmd uint8, payload []byte, timeout time.Duration) ([]byte, error) {
	if timeout == 0 {
		timeout = USBDefaultTimeout
	}

	d.cmdMu.Lock()
	defer d.cmdMu.Unlock()

	packet := encodeCommand(app, cmd, payload)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	n, err := d.epOut.WriteContext(ctx, packet)
	cancel()
	if err != nil {
		if ctx.Err() != nil || isTransient(err) {
			return nil, fmt.Errorf("write: %w: %v", ErrTimeout, err)
		}
		return nil, fmt.Errorf("failed to write to EP5: %w", err)
	}
	if n != len(packet) {
		return nil, fmt.Errorf("%w: wrote %d of %d bytes", ErrShortWrite, n, len(packet))
	}

	return d.recv(context.Background(), app, cmd, timeout)
}

// Recv waits for an unsolicited response such as a received RF packet
func (d *Device) Recv(ctx context.Context, app uint8, cmd uint8, timeout time.Duration) ([]byte, error) {
	if timeout == 0 {
		timeout = USBDefaultTimeout
	}

	d.cmdMu.Lock()
	defer d.cmdMu.Unlock()
	return d.recv(ctx, app, cmd, timeout)
}

func (d *Device) recv(ctx context.Context, app, cmd uint8, timeout time.Duration) ([]byte, error) {
	deadline := time.Now().Add(timeout)
	buf := make([]byte, 512)

	for {
		payload, rest, err := parseFrame(d.recvBuf, app, cmd)
		d.recvBuf = append(d.recvBuf[:0], rest...)
		if err == nil {
			return payload, nil
		}
		if errors.Is(err, errMismatch) {
			continue
		}

		left := time.Until(deadline)
		if left <= 0 {
			return nil, ErrTimeout
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		// short reads so the deadline and ctx are checked regularly
		slice := usbReadSlice
		if left < slice {
			slice = left
		}
		readCtx, cancel := context.WithTimeout(ctx, slice)
		n, err := d.epIn.ReadContext(readCtx, buf)
		cancel()

		if err != nil {
			if readCtx.Err() != nil || isTransient(err) {
				continue
			}
			return nil, fmt.Errorf("failed to read from EP5: %w", err)
		}
		d.recvBuf = append(d.recvBuf, buf[:n]...)
	}
}

// isTransient reports whether a libusb error is a timeout or cancellation
// that the receive loop should simply retry.
func isTransient(err error) bool {
	s := strings.ToLower(err.Error())
	for _, sub := range []string{"timeout", "timed out", "cancel", "context"} {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// Ping sends data and checks that it is echoed back
func (d *Device) Ping(data []byte) error {
	response, err := d.Send(AppSystem, SysCmdPing, data, USBDefaultTimeout)
	if err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}
	if string(response) != string(data) {
		return fmt.Errorf("%w: ping echoed % X, sent % X", ErrBadResponse, response, data)
	}
	return nil
}

// Peek reads bytes from device memory
func (d *Device) Peek(address uint16, length uint16) ([]byte, error) {
	payload := make([]byte, 4)
	binary.LittleEndian.PutUint16(payload[0:2], length)
	binary.LittleEndian.PutUint16(payload[2:4], address)

	response, err := d.Send(AppSystem, SysCmdPeek, payload, USBDefaultTimeout)
	if err != nil {
		return nil, fmt.Errorf("peek failed at 0x%04X: %w", address, err)
	}
	if len(response) < int(length) {
		return nil, fmt.Errorf("%w: peek at 0x%04X returned %d of %d bytes", ErrBadResponse, address, len(response), length)
	}
	return response, nil
}

// PeekByte reads a single byte from device memory
func (d *Device) PeekByte(address uint16) (uint8, error) {
	data, err := d.Peek(address, 1)
	if err != nil {
		return 0, err
	}
	return data[0], nil
}

func pokePayload(address uint16, data []byte) []byte {
	payload := make([]byte, 2+len(data))
	binary.LittleEndian.PutUint16(payload[0:2], address)
	copy(payload[2:], data)
	return payload
}

// Poke writes bytes to device memory
func (d *Device) Poke(address uint16, data []byte) error {
	response, err := d.Send(AppSystem, SysCmdPoke, pokePayload(address, data), USBDefaultTimeout)
	if err != nil {
		return fmt.Errorf("poke failed at 0x%04X: %w", address, err)
	}

	// response is the number of bytes left unwritten
	if len(response) >= 2 {
		if left := binary.LittleEndian.Uint16(response[0:2]); left != 0 {
			return fmt.Errorf("poke incomplete at 0x%04X: %d bytes left", address, left)
		}
	}
	return nil
}

// GetBuildType returns the firmware build type string
func (d *Device) GetBuildType() (string, error) {
	response, err := d.Send(AppSystem, SysCmdBuildType, nil, USBDefaultTimeout)
	if err != nil {
		return "", fmt.Errorf("failed to get build type: %w", err)
	}
	if i := strings.IndexByte(string(response), 0); i >= 0 {
		response = response[:i]
	}
	return string(response), nil
}

// GetPartNum returns the chip part number
func (d *Device) GetPartNum() (uint8, error) {
	response, err := d.Send(AppSystem, SysCmdPartNum, nil, USBDefaultTimeout)
	if err != nil {
		return 0, fmt.Errorf("failed to get part number: %w", err)
	}
	if len(response) < 1 {
		return 0, fmt.Errorf("%w: empty part number", ErrBadResponse)
	}
	return response[0], nil
}
