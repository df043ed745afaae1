package tpms

import (
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/velomon/tpms-monitor-golang/pkg/entities"
)

// StaleThresholdMS is how long a sensor may stay silent before the sweep
// drops it. On idle the sensors refresh roughly every five minutes.
const StaleThresholdMS int64 = 7 * 60000

// Registry is the single owner of the latest reading per sensor address.
// The dispatcher writes it from the radio callback context and the sweep
// runs on the display timer, so every access takes the lock.
type Registry struct {
	mutex    sync.Mutex
	readings map[string]entities.SensorReading
	log      *logrus.Entry
}

func NewRegistry(log *logrus.Entry) *Registry {
	return &Registry{
		readings: make(map[string]entities.SensorReading),
		log:      log,
	}
}

// Upsert stores the reading under its address, replacing any previous
// one. It returns the replaced reading, nil when the address is new.
func (r *Registry) Upsert(reading entities.SensorReading) entities.SensorReading {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	previous := r.readings[reading.Address()]
	r.readings[reading.Address()] = reading
	return previous
}

// Get returns the latest reading for an address.
func (r *Registry) Get(address string) (entities.SensorReading, bool) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	reading, ok := r.readings[address]
	return reading, ok
}

// Count returns the number of live registry entries.
func (r *Registry) Count() int {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	return len(r.readings)
}

// Addresses returns a copy of the currently known addresses.
func (r *Registry) Addresses() []string {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	addresses := make([]string, 0, len(r.readings))
	for address := range r.readings {
		addresses = append(addresses, address)
	}
	return addresses
}

// Sweep removes every entry whose last reading is older than
// StaleThresholdMS and returns how many were removed.
func (r *Registry) Sweep(nowMS int64) int {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	removed := 0
	for address, reading := range r.readings {
		if nowMS-reading.TimestampMS() > StaleThresholdMS {
			delete(r.readings, address)
			removed++
			r.log.Infof("removed stale sensor %s", address)
		}
	}
	if removed > 0 {
		r.log.Infof("sweep complete: removed %d sensors, %d remaining", removed, len(r.readings))
	}
	return removed
}
