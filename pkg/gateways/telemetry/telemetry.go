package telemetry

import (
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	bloomFilter "github.com/bits-and-blooms/bloom/v3"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/velomon/tpms-monitor-golang/pkg/entities"
	"github.com/velomon/tpms-monitor-golang/pkg/gateways/telemetry/network"
	"github.com/velomon/tpms-monitor-golang/pkg/utils"
)

const (
	FILTER_CAPACITY               = "100000"
	DUPLICATION_PROBABILITY       = "0.01"
	RESET_FILTER_USAGE_PERCENTAGE = "0.75"
)

// SettingsHandler receives settings pushed from the broker.
type SettingsHandler func(network.SettingsUpdatedMessage)

// Exporter forwards significant reading changes and pairing results to
// the broker. Repeated measurements are suppressed with one bloom filter
// per sensor address, keyed on the capture timestamp.
type Exporter struct {
	userToken                    string
	publisher                    network.Publisher
	subscriber                   network.Subscriber
	amqp                         network.Messaging
	filters                      map[string]*bloomFilter.BloomFilter
	filterMutex                  sync.Mutex
	maximumPercentageFilterUsage float32
	filterCapacity               uint
	duplicationProbability       float64
	onSettings                   SettingsHandler
	msgChan                      chan network.InMsg
	log                          *logrus.Entry
}

func NewExporter(conf entities.TelemetryConfig, onSettings SettingsHandler, log *logrus.Entry) (*Exporter, error) {
	amqp := network.NewAMQP(conf.URL)
	if err := amqp.Start(); err != nil {
		return nil, errors.Wrap(err, "telemetry broker connection")
	}
	log.Info("telemetry broker connected")

	exporter := &Exporter{
		userToken:  conf.UserToken,
		publisher:  network.NewMsgPublisher(amqp),
		subscriber: network.NewMsgSubscriber(amqp),
		amqp:       amqp,
		filters:    make(map[string]*bloomFilter.BloomFilter),
		onSettings: onSettings,
		msgChan:    make(chan network.InMsg),
		log:        log,
	}
	if err := exporter.loadFilterTuning(); err != nil {
		return nil, err
	}

	if err := exporter.subscriber.SubscribeToSettingsMessages(exporter.msgChan); err != nil {
		return nil, errors.Wrap(err, "subscribe to settings updates")
	}
	go exporter.consumeSettingsMessages()

	return exporter, nil
}

func (e *Exporter) loadFilterTuning() error {
	maximumPercentageFilterUsage, err := strconv.ParseFloat(utils.GetEnvOrDefault("RESET_FILTER_USAGE_PERCENTAGE", RESET_FILTER_USAGE_PERCENTAGE), 32)
	if err != nil {
		return errors.Wrap(err, "RESET_FILTER_USAGE_PERCENTAGE environment variable with invalid value")
	}
	filterCapacity, err := strconv.ParseUint(utils.GetEnvOrDefault("FILTER_CAPACITY", FILTER_CAPACITY), 10, 0)
	if err != nil {
		return errors.Wrap(err, "FILTER_CAPACITY environment variable with invalid value")
	}
	duplicationProbability, err := strconv.ParseFloat(utils.GetEnvOrDefault("DUPLICATION_PROBABILITY", DUPLICATION_PROBABILITY), 64)
	if err != nil {
		return errors.Wrap(err, "DUPLICATION_PROBABILITY environment variable with invalid value")
	}

	e.maximumPercentageFilterUsage = float32(maximumPercentageFilterUsage)
	e.filterCapacity = uint(filterCapacity)
	e.duplicationProbability = duplicationProbability
	return nil
}

// ExportReading publishes one reading unless an identical capture for
// the same address already went out.
func (e *Exporter) ExportReading(reading entities.SensorReading) error {
	if e.isMeasurementDuplicated(reading) {
		return nil
	}
	e.updateDuplicationFilter(reading)

	id := reading.SensorID()
	message := network.SensorReadingMessage{
		Address:        reading.Address(),
		Protocol:       reading.ProtocolVariant(),
		WheelIndex:     reading.WheelIndex(),
		SensorID:       fmt.Sprintf("%02x%02x%02x", id[0], id[1], id[2]),
		PressurePSI:    reading.PressurePSI(),
		PressureBar:    reading.PressureBar(),
		TemperatureC:   reading.TemperatureC(),
		BatteryPercent: reading.BatteryPercent(),
		Alert:          reading.Alert(),
		Timestamp:      reading.TimestampMS(),
	}

	err := e.publisher.PublishSensorReading(e.userToken, message)
	if err != nil {
		e.log.Errorln(err)
		return err
	}
	return nil
}

// ExportPairingResult announces the two confirmed addresses.
func (e *Exporter) ExportPairingResult(front, rear string) error {
	message := network.PairingCompletedMessage{FrontAddress: front, RearAddress: rear}
	err := e.publisher.PublishPairingResult(e.userToken, message)
	if err != nil {
		e.log.Errorln(err)
		return err
	}
	return nil
}

func (e *Exporter) Close() error {
	return e.amqp.Stop()
}

func (e *Exporter) isMeasurementDuplicated(reading entities.SensorReading) bool {
	e.filterMutex.Lock()
	defer e.filterMutex.Unlock()

	filter, ok := e.filters[reading.Address()]
	if !ok {
		return false
	}
	return filter.Test(measurementKey(reading))
}

func (e *Exporter) updateDuplicationFilter(reading entities.SensorReading) {
	e.filterMutex.Lock()
	defer e.filterMutex.Unlock()

	filter, ok := e.filters[reading.Address()]
	if !ok {
		filter = bloomFilter.NewWithEstimates(e.filterCapacity, e.duplicationProbability)
		e.filters[reading.Address()] = filter
	}
	e.resetDuplicationFilter(filter)
	filter.Add(measurementKey(reading))
}

func (e *Exporter) resetDuplicationFilter(filter *bloomFilter.BloomFilter) {
	currentPercentageFilterUsage := float32(filter.ApproximatedSize()) / float32(filter.Cap())
	if currentPercentageFilterUsage >= e.maximumPercentageFilterUsage {
		filter.ClearAll()
	}
}

func measurementKey(reading entities.SensorReading) []byte {
	return []byte(fmt.Sprintf("%d_%s", reading.TimestampMS(), reading.Address()))
}

func (e *Exporter) consumeSettingsMessages() {
	for message := range e.msgChan {
		if message.RoutingKey != network.BindingKeySettingsUpdated {
			continue
		}
		settings := network.SettingsUpdatedMessage{}
		if err := json.Unmarshal(message.Body, &settings); err != nil {
			e.log.Errorln(err)
			continue
		}
		if settings.Error != "" {
			e.log.Errorf("settings update rejected upstream: %s", settings.Error)
			continue
		}
		e.log.Info("received a settings update")
		if e.onSettings != nil {
			e.onSettings(settings)
		}
	}
}
