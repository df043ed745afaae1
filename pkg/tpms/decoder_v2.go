package tpms

import (
	"strconv"
	"strings"

	"github.com/velomon/tpms-monitor-golang/pkg/entities"
)

const (
	v2FrameLength = 11

	// VendorAddressPrefix is the first two address octets of the 11-byte
	// format sensor family. The dispatcher gates on it when no service
	// hint is present.
	VendorAddressPrefix = "37:39"

	// Linear calibration fit from a four-point pressure measurement,
	// quoted accuracy +/-0.14 PSI. Empirical constants, do not derive.
	v2PressureSlope  = 0.10223139
	v2PressureOffset = 14.61232950
)

// IsV2Frame checks the only structural property the 11-byte format has.
// Vendor gating happens at the dispatcher, it needs radio metadata the
// payload does not carry.
func IsV2Frame(payload []byte) bool {
	return len(payload) == v2FrameLength
}

// DecodeV2 parses an 11-byte format advertisement. Wheel index and
// sensor id live in the source address, octet 2 and octets 3-5. An
// address that does not split into six hex octets soft-fails both to
// zero instead of rejecting the reading.
func DecodeV2(payload []byte, address string, nowMS int64) (*entities.ReadingV2, bool) {
	if !IsV2Frame(payload) {
		return nil, false
	}

	reading := &entities.ReadingV2{
		Addr:        address,
		Alarm:       payload[0]&0x02 != 0,
		BatteryByte: payload[1],
		TempC:       float64(payload[2]),
		Timestamp:   nowMS,
	}

	reading.BatteryVoltage = float64(payload[1]) * 0.1
	percentage := (reading.BatteryVoltage - 2.0) * 100.0
	if percentage > 100.0 {
		percentage = 100.0
	}
	if percentage < 0.0 {
		percentage = 0.0
	}
	reading.BatteryPct = uint8(percentage)

	raw := uint16(payload[4]) + uint16(payload[3])<<8
	reading.PSI = v2PressureSlope*float64(raw) - v2PressureOffset

	if octets, ok := parseAddressOctets(address); ok {
		reading.Wheel = octets[2]
		copy(reading.ID[:], octets[3:6])
	}

	return reading, true
}

func parseAddressOctets(address string) ([6]byte, bool) {
	var octets [6]byte
	parts := strings.Split(address, ":")
	if len(parts) != 6 {
		return octets, false
	}
	for i, part := range parts {
		value, err := strconv.ParseUint(part, 16, 8)
		if err != nil {
			return [6]byte{}, false
		}
		octets[i] = byte(value)
	}
	return octets, true
}
