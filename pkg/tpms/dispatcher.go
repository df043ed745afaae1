package tpms

import (
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/velomon/tpms-monitor-golang/pkg/entities"
)

// ChangeHandler receives a reading whose values differ from the previous
// one for the same address. isNew marks a first-time address.
type ChangeHandler func(reading entities.SensorReading, isNew bool)

// Dispatcher routes raw advertisements to the two decoders and upserts
// every successful decode into the registry. The change handler only
// fires when a surfaced field moved, to bound outward notifications
// under continuous radio chatter; the registry is updated regardless.
type Dispatcher struct {
	registry *Registry
	clock    func() int64
	onChange ChangeHandler
	log      *logrus.Entry
}

func NewDispatcher(registry *Registry, clock func() int64, onChange ChangeHandler, log *logrus.Entry) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		clock:    clock,
		onChange: onChange,
		log:      log,
	}
}

// HandleAdvertisement consumes one discovered advertisement. Payloads
// that match neither wire format are discarded silently, that is the
// expected outcome for radio noise and foreign devices.
func (d *Dispatcher) HandleAdvertisement(address string, payload []byte, hasServiceHint bool) {
	nowMS := d.clock()

	if reading, ok := DecodeV1(payload, address, nowMS); ok {
		d.upsert(reading)
		return
	}

	if hasServiceHint || hasVendorPrefix(address) {
		if reading, ok := DecodeV2(payload, address, nowMS); ok {
			d.upsert(reading)
			return
		}
	}

	d.log.Debugf("discarded advertisement from %s (%d bytes)", address, len(payload))
}

func (d *Dispatcher) upsert(reading entities.SensorReading) {
	previous := d.registry.Upsert(reading)
	isNew := previous == nil

	if !isNew && !readingChanged(reading, previous) {
		return
	}

	id := reading.SensorID()
	d.log.Infof("sensor %s id 0x%02x%02x%02x wheel %d: %.1f PSI, %.1f C, battery %d%%, alert %t",
		reading.Address(), id[0], id[1], id[2], reading.WheelIndex(),
		reading.PressurePSI(), reading.TemperatureC(), reading.BatteryPercent(), reading.Alert())

	if d.onChange != nil {
		d.onChange(reading, isNew)
	}
}

func readingChanged(current, previous entities.SensorReading) bool {
	return current.PressurePSI() != previous.PressurePSI() ||
		current.TemperatureC() != previous.TemperatureC() ||
		current.BatteryPercent() != previous.BatteryPercent() ||
		current.Alert() != previous.Alert()
}

func hasVendorPrefix(address string) bool {
	return strings.HasPrefix(strings.ToLower(address), VendorAddressPrefix)
}
