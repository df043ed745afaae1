package tpms

import (
	"encoding/binary"

	"github.com/velomon/tpms-monitor-golang/pkg/entities"
)

const (
	v1FrameLength = 18
	v1SlotMarker  = 0x80

	// psiPerKPa keeps the precision the sensor firmware transmits with.
	psiPerKPa = 0.14503773773020923
)

// IsV1Frame checks the fixed header, the format magic and the
// sensor-slot marker bit of the 18-byte format.
func IsV1Frame(payload []byte) bool {
	if len(payload) != v1FrameLength {
		return false
	}
	if payload[0] != 0x00 || payload[1] != 0x01 {
		return false
	}
	if payload[3] != 0xEA || payload[4] != 0xCA {
		return false
	}
	if payload[2] < v1SlotMarker {
		return false
	}
	return true
}

// DecodeV1 parses an 18-byte format advertisement. A false return means
// the payload is not this format, not that decoding failed.
func DecodeV1(payload []byte, address string, nowMS int64) (*entities.ReadingV1, bool) {
	if !IsV1Frame(payload) {
		return nil, false
	}

	reading := &entities.ReadingV1{
		Addr:      address,
		Wheel:     payload[2] - v1SlotMarker,
		Battery:   payload[16],
		Alarm:     payload[17] == 1,
		Timestamp: nowMS,
	}
	copy(reading.ID[:], payload[5:8])

	// pressure is kPa x 1000; BAR is carried next to PSI on purpose, the
	// two conversions keep different reference precision
	kPa := float64(binary.LittleEndian.Uint32(payload[8:12])) / 1000.0
	reading.PSI = kPa * psiPerKPa
	reading.Bar = kPa / 100.0

	// temperature is degrees Celsius x 100, signed
	reading.TempC = float64(int32(binary.LittleEndian.Uint32(payload[12:16]))) / 100.0

	return reading, true
}
