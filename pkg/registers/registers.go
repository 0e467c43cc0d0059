// Package registers models the CC1111 radio configuration registers and
// moves them to and from a device's memory.
package registers

import "fmt"

// RegisterMap holds the CC1111 radio configuration registers
type RegisterMap struct {
	// Sync word
	SYNC1 uint8 `json:"sync1"` // 0xDF00
	SYNC0 uint8 `json:"sync0"` // 0xDF01

	// Packet control
	PKTLEN   uint8 `json:"pktlen"`   // 0xDF02
	PKTCTRL1 uint8 `json:"pktctrl1"` // 0xDF03
	PKTCTRL0 uint8 `json:"pktctrl0"` // 0xDF04
	ADDR     uint8 `json:"addr"`     // 0xDF05
	CHANNR   uint8 `json:"channr"`   // 0xDF06

	// Frequency synthesizer
	FSCTRL1 uint8 `json:"fsctrl1"` // 0xDF07
	FSCTRL0 uint8 `json:"fsctrl0"` // 0xDF08
	FREQ2   uint8 `json:"freq2"`   // 0xDF09
	FREQ1   uint8 `json:"freq1"`   // 0xDF0A
	FREQ0   uint8 `json:"freq0"`   // 0xDF0B

	// Modem
	MDMCFG4 uint8 `json:"mdmcfg4"` // 0xDF0C
	MDMCFG3 uint8 `json:"mdmcfg3"` // 0xDF0D
	MDMCFG2 uint8 `json:"mdmcfg2"` // 0xDF0E
	MDMCFG1 uint8 `json:"mdmcfg1"` // 0xDF0F
	MDMCFG0 uint8 `json:"mdmcfg0"` // 0xDF10
	DEVIATN uint8 `json:"deviatn"` // 0xDF11

	// Main radio control state machine
	MCSM2 uint8 `json:"mcsm2"` // 0xDF12
	MCSM1 uint8 `json:"mcsm1"` // 0xDF13
	MCSM0 uint8 `json:"mcsm0"` // 0xDF14

	FOCCFG uint8 `json:"foccfg"` // 0xDF15
	BSCFG  uint8 `json:"bscfg"`  // 0xDF16

	// AGC
	AGCCTRL2 uint8 `json:"agcctrl2"` // 0xDF17
	AGCCTRL1 uint8 `json:"agcctrl1"` // 0xDF18
	AGCCTRL0 uint8 `json:"agcctrl0"` // 0xDF19

	FREND1 uint8 `json:"frend1"` // 0xDF1A
	FREND0 uint8 `json:"frend0"` // 0xDF1B

	FSCAL3 uint8 `json:"fscal3"` // 0xDF1C
	FSCAL2 uint8 `json:"fscal2"` // 0xDF1D
	FSCAL1 uint8 `json:"fscal1"` // 0xDF1E
	FSCAL0 uint8 `json:"fscal0"` // 0xDF1F

	TEST2 uint8 `json:"test2"` // 0xDF23
	TEST1 uint8 `json:"test1"` // 0xDF24
	TEST0 uint8 `json:"test0"` // 0xDF25

	// PA_TABLE[0] is PA_TABLE0; memory holds PA_TABLE7 first
	PA_TABLE [8]uint8 `json:"pa_table"` // 0xDF27-0xDF2E

	IOCFG2 uint8 `json:"iocfg2"` // 0xDF2F
	IOCFG1 uint8 `json:"iocfg1"` // 0xDF30
	IOCFG0 uint8 `json:"iocfg0"` // 0xDF31

	// Read-only status, captured by Read and never written back
	PARTNUM    uint8 `json:"partnum"`    // 0xDF36
	CHIPID     uint8 `json:"chipid"`     // 0xDF37
	FREQEST    uint8 `json:"freqest"`    // 0xDF38
	LQI        uint8 `json:"lqi"`        // 0xDF39
	RSSI       uint8 `json:"rssi"`       // 0xDF3A
	MARCSTATE  uint8 `json:"marcstate"`  // 0xDF3B
	PKTSTATUS  uint8 `json:"pktstatus"`  // 0xDF3C
	VCO_VC_DAC uint8 `json:"vco_vc_dac"` // 0xDF3D
}

// Register block addresses. The map is read and written in these four
// contiguous runs, skipping the reserved holes between them.
const (
	blockConfig = 0xDF00 // SYNC1..FSCAL0, 32 bytes
	blockTest   = 0xDF23 // TEST2..TEST0, 3 bytes
	blockPA     = 0xDF27 // PA_TABLE7..IOCFG0, 11 bytes
	blockStatus = 0xDF36 // PARTNUM..VCO_VC_DAC, 8 bytes
)

// Single registers used on their own
const (
	RegMDMCFG2   = 0xDF0E
	RegMARCSTATE = 0xDF3B
	RegRFST      = 0xDFE1
)

// RadioState is the MARCSTATE radio state machine value
type RadioState uint8

const (
	StateSLEEP      RadioState = 0x00
	StateIDLE       RadioState = 0x01
	StateRX         RadioState = 0x0D
	StateRX_END     RadioState = 0x0E
	StateRXFIFO_OVF RadioState = 0x11
	StateFSTXON     RadioState = 0x12
	StateTX         RadioState = 0x13
)

func (s RadioState) String() string {
	switch s {
	case StateSLEEP:
		return "SLEEP"
	case StateIDLE:
		return "IDLE"
	case StateRX:
		return "RX"
	case StateRX_END:
		return "RX_END"
	case StateRXFIFO_OVF:
		return "RXFIFO_OVERFLOW"
	case StateFSTXON:
		return "FSTXON"
	case StateTX:
		return "TX"
	}
	if s >= 0x03 && s <= 0x0C {
		return fmt.Sprintf("CAL(0x%02X)", uint8(s))
	}
	return fmt.Sprintf("UNKNOWN(0x%02X)", uint8(s))
}

// Radio strobe commands (RFST register values)
const (
	StrobeSRX   = 0x02
	StrobeSTX   = 0x03
	StrobeSIDLE = 0x04
)

// Modulation formats (MDMCFG2[6:4])
const (
	Mod2FSK   = 0x00
	ModGFSK   = 0x10
	ModASKOOK = 0x30
	Mod4FSK   = 0x40
	ModMSK    = 0x70
)

// Sync mode (MDMCFG2[2:0])
const (
	SyncNone          = 0x00
	Sync15of16        = 0x01
	Sync16of16        = 0x02
	Sync30of32        = 0x03
	SyncCarrier       = 0x04 // carrier sense only: every packet starts on energy
	SyncCarrier15of16 = 0x05
	SyncCarrier16of16 = 0x06
	SyncCarrier30of32 = 0x07
)

// Packet length config (PKTCTRL0[1:0])
const (
	PktLenFixed    = 0x00
	PktLenVariable = 0x01
	PktLenInfinite = 0x02
)

// PKTCTRL0 / PKTCTRL1 flags
const (
	CRCEnabled       = 0x04 // PKTCTRL0[2]
	WhiteningEnabled = 0x40 // PKTCTRL0[6]
	AppendStatus     = 0x04 // PKTCTRL1[2]: two status bytes after each packet
)

// Frequency returns the carrier frequency in Hz for the given crystal
func (r *RegisterMap) Frequency(crystalHz float64) float64 {
	freq := uint32(r.FREQ2)<<16 | uint32(r.FREQ1)<<8 | uint32(r.FREQ0)
	return float64(freq) * crystalHz / 65536.0
}

// Modulation returns the MDMCFG2 modulation format
func (r *RegisterMap) Modulation() uint8 {
	return r.MDMCFG2 & 0x70
}

// ModulationString returns a human-readable modulation format
func (r *RegisterMap) ModulationString() string {
	switch r.Modulation() {
	case Mod2FSK:
		return "2-FSK"
	case ModGFSK:
		return "GFSK"
	case ModASKOOK:
		return "ASK/OOK"
	case Mod4FSK:
		return "4-FSK"
	case ModMSK:
		return "MSK"
	default:
		return fmt.Sprintf("Unknown (0x%02X)", r.Modulation())
	}
}

// SyncMode returns the MDMCFG2 sync mode
func (r *RegisterMap) SyncMode() uint8 {
	return r.MDMCFG2 & 0x07
}

// SyncWord returns the 16-bit sync word
func (r *RegisterMap) SyncWord() uint16 {
	return uint16(r.SYNC1)<<8 | uint16(r.SYNC0)
}

func (r *RegisterMap) configBlock() []byte {
	return []byte{
		r.SYNC1, r.SYNC0,
		r.PKTLEN, r.PKTCTRL1, r.PKTCTRL0, r.ADDR, r.CHANNR,
		r.FSCTRL1, r.FSCTRL0,
		r.FREQ2, r.FREQ1, r.FREQ0,
		r.MDMCFG4, r.MDMCFG3, r.MDMCFG2, r.MDMCFG1, r.MDMCFG0,
		r.DEVIATN,
		r.MCSM2, r.MCSM1, r.MCSM0,
		r.FOCCFG, r.BSCFG,
		r.AGCCTRL2, r.AGCCTRL1, r.AGCCTRL0,
		r.FREND1, r.FREND0,
		r.FSCAL3, r.FSCAL2, r.FSCAL1, r.FSCAL0,
	}
}

func (r *RegisterMap) setConfigBlock(b []byte) {
	fields := []*uint8{
		&r.SYNC1, &r.SYNC0,
		&r.PKTLEN, &r.PKTCTRL1, &r.PKTCTRL0, &r.ADDR, &r.CHANNR,
		&r.FSCTRL1, &r.FSCTRL0,
		&r.FREQ2, &r.FREQ1, &r.FREQ0,
		&r.MDMCFG4, &r.MDMCFG3, &r.MDMCFG2, &r.MDMCFG1, &r.MDMCFG0,
		&r.DEVIATN,
		&r.MCSM2, &r.MCSM1, &r.MCSM0,
		&r.FOCCFG, &r.BSCFG,
		&r.AGCCTRL2, &r.AGCCTRL1, &r.AGCCTRL0,
		&r.FREND1, &r.FREND0,
		&r.FSCAL3, &r.FSCAL2, &r.FSCAL1, &r.FSCAL0,
	}
	for i, f := range fields {
		*f = b[i]
	}
}

func (r *RegisterMap) paBlock() []byte {
	b := make([]byte, 0, 11)
	for i := 7; i >= 0; i-- {
		b = append(b, r.PA_TABLE[i])
	}
	return append(b, r.IOCFG2, r.IOCFG1, r.IOCFG0)
}

func (r *RegisterMap) setPABlock(b []byte) {
	for i := 0; i < 8; i++ {
		r.PA_TABLE[7-i] = b[i]
	}
	r.IOCFG2, r.IOCFG1, r.IOCFG0 = b[8], b[9], b[10]
}
