// Package profiles turns a high-level radio description into a CC1111
// register map for the YardStick One.
package profiles

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/herlein/rfalarm/pkg/registers"
)

// CrystalMHz is the crystal frequency for CC1111 (YardStick One)
const CrystalMHz = 24.0

// Preamble lengths (MDMCFG1[6:4])
const (
	Preamble2  = 0x00 << 4
	Preamble4  = 0x02 << 4
	Preamble8  = 0x04 << 4
	Preamble16 = 0x06 << 4
)

// Profile represents a complete radio configuration profile
type Profile struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	FrequencyHz float64 `json:"frequency_hz"`

	Modulation   uint8   `json:"modulation"`
	DataRateBaud float64 `json:"data_rate_baud"`
	ChannelBWHz  float64 `json:"channel_bandwidth_hz"`

	SyncWord uint16 `json:"sync_word,omitempty"`
	SyncMode uint8  `json:"sync_mode"`

	PktLenMode    uint8 `json:"packet_length_mode"`
	PktLen        uint8 `json:"packet_length"`
	PreambleBytes uint8 `json:"preamble_bytes"`
	CRCEn         bool  `json:"crc_enabled"`
	AppendStatus  bool  `json:"append_status"`
}

// ProfileConfig is the JSON format for storing profile configurations
type ProfileConfig struct {
	Profile   Profile               `json:"profile"`
	Registers registers.RegisterMap `json:"registers"`
	Timestamp time.Time             `json:"timestamp"`
}

// CalcFreqRegs calculates FREQ2/1/0 register values for a given frequency
func CalcFreqRegs(freqHz float64) (freq2, freq1, freq0 uint8) {
	freqMult := (65536.0 / 1000000.0) / CrystalMHz
	num := uint32(freqHz * freqMult)
	freq2 = uint8((num >> 16) & 0xFF)
	freq1 = uint8((num >> 8) & 0xFF)
	freq0 = uint8(num & 0xFF)
	return
}

// CalcDataRateRegs calculates MDMCFG4[3:0] (DRATE_E) and MDMCFG3 (DRATE_M) for a given data rate
func CalcDataRateRegs(drateBaud float64) (drateE, drateM uint8) {
	crystalHz := CrystalMHz * 1000000.0
	for e := uint8(0); e < 16; e++ {
		m := int((drateBaud*math.Pow(2, 28)/(math.Pow(2, float64(e))*crystalHz) - 256) + 0.5)
		if m >= 0 && m < 256 {
			drateE = e
			drateM = uint8(m)
			return
		}
	}
	return 15, 255
}

// DataRate is the inverse of CalcDataRateRegs
func DataRate(drateE, drateM uint8) float64 {
	crystalHz := CrystalMHz * 1000000.0
	return (256 + float64(drateM)) * math.Pow(2, float64(drateE)) * crystalHz / math.Pow(2, 28)
}

// CalcChannelBWRegs calculates MDMCFG4[7:4] for channel bandwidth
func CalcChannelBWRegs(bwHz float64) (chanbwE, chanbwM uint8) {
	crystalHz := CrystalMHz * 1000000.0
	for e := uint8(0); e < 4; e++ {
		m := int((crystalHz/(bwHz*math.Pow(2, float64(e))*8.0) - 4) + 0.5)
		if m >= 0 && m < 4 {
			chanbwE = e
			chanbwM = uint8(m)
			return
		}
	}
	// Fallback to widest bandwidth
	return 0, 0
}

// GetMaxPower returns the maximum PA_TABLE value for a given frequency
func GetMaxPower(freqHz float64) uint8 {
	if freqHz <= 400000000 {
		return 0xC2
	} else if freqHz <= 464000000 {
		return 0xC0
	} else if freqHz <= 849000000 {
		return 0xC2
	}
	return 0xC0
}

// GetVCOSelection returns FSCAL2 value based on frequency
func GetVCOSelection(freqHz float64) uint8 {
	if freqHz < 318000000 || (freqHz >= 391000000 && freqHz < 424000000) || (freqHz >= 782000000 && freqHz < 848000000) {
		return 0x0A // Low VCO
	}
	return 0x2A // High VCO
}

// PreambleBytesToReg converts preamble byte count to register value
func PreambleBytesToReg(bytes uint8) uint8 {
	switch bytes {
	case 2:
		return Preamble2
	case 8:
		return Preamble8
	case 16:
		return Preamble16
	default:
		return Preamble4
	}
}

// ToRegisters converts a Profile to a RegisterMap
func (p *Profile) ToRegisters() *registers.RegisterMap {
	reg := &registers.RegisterMap{}

	reg.FREQ2, reg.FREQ1, reg.FREQ0 = CalcFreqRegs(p.FrequencyHz)
	reg.FSCAL2 = GetVCOSelection(p.FrequencyHz)

	drateE, drateM := CalcDataRateRegs(p.DataRateBaud)
	chanbwE, chanbwM := CalcChannelBWRegs(p.ChannelBWHz)
	reg.MDMCFG4 = (chanbwE << 6) | (chanbwM << 4) | drateE
	reg.MDMCFG3 = drateM
	reg.MDMCFG2 = p.Modulation | p.SyncMode
	reg.MDMCFG1 = PreambleBytesToReg(p.PreambleBytes)
	reg.MDMCFG0 = 0xF8

	reg.SYNC1 = uint8(p.SyncWord >> 8)
	reg.SYNC0 = uint8(p.SyncWord)

	reg.PKTLEN = p.PktLen
	reg.PKTCTRL0 = p.PktLenMode
	if p.CRCEn {
		reg.PKTCTRL0 |= registers.CRCEnabled
	}
	if p.AppendStatus {
		reg.PKTCTRL1 = registers.AppendStatus
	}

	maxPower := GetMaxPower(p.FrequencyHz)
	if p.Modulation == registers.ModASKOOK {
		// ASK/OOK uses PA_TABLE0 for the off level
		reg.PA_TABLE[1] = maxPower
		reg.FREND0 = 0x11
	} else {
		reg.PA_TABLE[0] = maxPower
		reg.FREND0 = 0x10
	}

	if p.ChannelBWHz > 102000 {
		reg.FREND1 = 0xB6
	} else {
		reg.FREND1 = 0x56
	}

	if p.ChannelBWHz > 325000 {
		reg.TEST2 = 0x88
		reg.TEST1 = 0x31
	} else {
		reg.TEST2 = 0x81
		reg.TEST1 = 0x35
	}
	reg.TEST0 = 0x09

	reg.FSCTRL1 = 0x06
	reg.FSCAL3 = 0xE9
	reg.FSCAL0 = 0x1F

	// AGC tuned for OOK: hold gain through the off periods
	reg.AGCCTRL2 = 0x03
	reg.AGCCTRL1 = 0x00
	reg.AGCCTRL0 = 0x91

	reg.FOCCFG = 0x16
	reg.BSCFG = 0x6C

	reg.MCSM0 = 0x18 // calibrate on IDLE->RX
	reg.MCSM1 = 0x3C // stay in RX after a packet
	reg.MCSM2 = 0x07

	reg.IOCFG2 = 0x29
	reg.IOCFG1 = 0x2E
	reg.IOCFG0 = 0x06

	return reg
}

// SaveToFile saves a profile configuration to a JSON file
func (p *Profile) SaveToFile(path string) error {
	config := ProfileConfig{
		Profile:   *p,
		Registers: *p.ToRegisters(),
		Timestamp: time.Now(),
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// LoadProfileFromFile loads a profile configuration from a JSON file
func LoadProfileFromFile(path string) (*ProfileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile file: %w", err)
	}

	var config ProfileConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal profile: %w", err)
	}

	return &config, nil
}
