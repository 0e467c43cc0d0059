package yardstick

import "time"

// USB Device Identifiers
const (
	VendorID  = 0x1D50
	ProductID = 0x605B // YardStick One
)

// USB Endpoint Configuration
const (
	EP5Number        = 5 // EP5 IN 0x85, OUT 0x05
	EP5OutBufferSize = 516
	ResponseMarker   = 0x40 // '@' character marks start of response
	headerLen        = 5    // marker + app + cmd + length(2 LE)
)

// USB Timeouts
const (
	USBDefaultTimeout = 1000 * time.Millisecond
	USBRXWaitTimeout  = 1000 * time.Millisecond
	usbReadSlice      = 100 * time.Millisecond
)

// Application IDs for EP5 protocol
const (
	AppNIC    = 0x42 // Radio NIC operations
	AppSystem = 0xFF // System/administrative commands
)

// System Commands (APP_SYSTEM = 0xFF)
const (
	SysCmdPeek      = 0x80 // Read memory
	SysCmdPoke      = 0x81 // Write memory
	SysCmdPing      = 0x82 // Echo test
	SysCmdBuildType = 0x86 // Get firmware build info
	SysCmdRFMode    = 0x88 // Set radio mode
	SysCmdPartNum   = 0x8E // Get chip part number
)

// NIC Commands (APP_NIC = 0x42)
const (
	NICRecv         = 0x01 // Receive RF data
	NICSetAmpMode   = 0x0A // Set amplifier mode
	NICGetAmpMode   = 0x0B // Get amplifier mode
)

// Radio Strobe Commands (RFST register values)
const (
	RFSTSrx   = 0x02 // Enable RX
	RFSTSidle = 0x04 // Idle mode
)

// Radio registers touched directly by the driver
const (
	RegFREQ2     = 0xDF09
	RegFREQ1     = 0xDF0A
	RegFREQ0     = 0xDF0B
	RegLQI       = 0xDF39
	RegRSSI      = 0xDF3A
	RegMARCSTATE = 0xDF3B
	RegPKTSTATUS = 0xDF3C
	RegRFST      = 0xDFE1
)

// MARCSTATE values
const (
	MarcStateIdle = 0x01
	MarcStateRX   = 0x0D
)

// Crystal frequency for YardStick One (CC1111)
const CrystalFreqHz = 24000000

// Chip Part Numbers
const (
	PartNumCC1110 = 0x01
	PartNumCC1111 = 0x11
	PartNumCC2510 = 0x81
	PartNumCC2511 = 0x91
)

// Amplifier Mode values
const (
	AmpModeOff = 0x00 // Amplifier bypassed
	AmpModeOn  = 0x01 // Amplifier enabled
)
