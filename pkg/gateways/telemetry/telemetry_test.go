package telemetry

import (
	"encoding/json"
	"testing"
	"time"

	bloomFilter "github.com/bits-and-blooms/bloom/v3"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"github.com/velomon/tpms-monitor-golang/pkg/entities"
	"github.com/velomon/tpms-monitor-golang/pkg/gateways/telemetry/network"
	"github.com/velomon/tpms-monitor-golang/pkg/gateways/telemetry/network/mocks"
)

type exporterSuite struct {
	suite.Suite
	exporter  *Exporter
	publisher *mocks.PublisherMock
}

func (s *exporterSuite) SetupTest() {
	logger, _ := test.NewNullLogger()
	s.publisher = new(mocks.PublisherMock)
	s.exporter = &Exporter{
		userToken:                    "token",
		publisher:                    s.publisher,
		filters:                      map[string]*bloomFilter.BloomFilter{},
		maximumPercentageFilterUsage: 0.75,
		filterCapacity:               1000,
		duplicationProbability:       0.01,
		msgChan:                      make(chan network.InMsg),
		log:                          logger.WithField("Component", "Telemetry"),
	}
}

func fakeReading(address string, timestampMS int64) entities.SensorReading {
	return &entities.ReadingV2{
		Addr:       address,
		Wheel:      1,
		ID:         [3]byte{0x00, 0xD7, 0x6A},
		PSI:        30,
		TempC:      23,
		BatteryPct: 80,
		Timestamp:  timestampMS,
	}
}

func (s *exporterSuite) TestExportReadingPublishes() {
	s.publisher.On("PublishSensorReading", "token", mock.Anything).Return(nil)

	err := s.exporter.ExportReading(fakeReading("37:39:01:00:d7:6a", 1000))

	assert.NoError(s.T(), err)
	s.publisher.AssertNumberOfCalls(s.T(), "PublishSensorReading", 1)
}

func (s *exporterSuite) TestExportDuplicateReadingOmitted() {
	s.publisher.On("PublishSensorReading", "token", mock.Anything).Return(nil)

	assert.NoError(s.T(), s.exporter.ExportReading(fakeReading("37:39:01:00:d7:6a", 1000)))
	assert.NoError(s.T(), s.exporter.ExportReading(fakeReading("37:39:01:00:d7:6a", 1000)))

	s.publisher.AssertNumberOfCalls(s.T(), "PublishSensorReading", 1)
}

func (s *exporterSuite) TestExportNewCaptureOfSameSensorPublishes() {
	s.publisher.On("PublishSensorReading", "token", mock.Anything).Return(nil)

	assert.NoError(s.T(), s.exporter.ExportReading(fakeReading("37:39:01:00:d7:6a", 1000)))
	assert.NoError(s.T(), s.exporter.ExportReading(fakeReading("37:39:01:00:d7:6a", 2000)))

	s.publisher.AssertNumberOfCalls(s.T(), "PublishSensorReading", 2)
}

func (s *exporterSuite) TestExportPairingResultPublishes() {
	expected := network.PairingCompletedMessage{
		FrontAddress: "aa:bb:cc:dd:ee:01",
		RearAddress:  "aa:bb:cc:dd:ee:02",
	}
	s.publisher.On("PublishPairingResult", "token", expected).Return(nil)

	err := s.exporter.ExportPairingResult(expected.FrontAddress, expected.RearAddress)

	assert.NoError(s.T(), err)
	s.publisher.AssertExpectations(s.T())
}

func (s *exporterSuite) TestSettingsMessageReachesHandler() {
	received := make(chan network.SettingsUpdatedMessage, 1)
	s.exporter.onSettings = func(message network.SettingsUpdatedMessage) { received <- message }
	go s.exporter.consumeSettingsMessages()
	defer close(s.exporter.msgChan)

	body, err := json.Marshal(network.SettingsUpdatedMessage{FrontIdealPSI: 34, PressureUnit: "PSI"})
	assert.NoError(s.T(), err)
	s.exporter.msgChan <- network.InMsg{RoutingKey: network.BindingKeySettingsUpdated, Body: body}

	select {
	case message := <-received:
		assert.Equal(s.T(), 34.0, message.FrontIdealPSI)
		assert.Equal(s.T(), "PSI", message.PressureUnit)
	case <-time.After(time.Second):
		s.T().Fatal("settings handler was not invoked")
	}
}

func (s *exporterSuite) TestForeignRoutingKeyIgnored() {
	received := make(chan network.SettingsUpdatedMessage, 1)
	s.exporter.onSettings = func(message network.SettingsUpdatedMessage) { received <- message }
	go s.exporter.consumeSettingsMessages()
	defer close(s.exporter.msgChan)

	s.exporter.msgChan <- network.InMsg{RoutingKey: "something.else", Body: []byte("{}")}

	select {
	case <-received:
		s.T().Fatal("handler must not fire for foreign routing keys")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestExporterSuite(t *testing.T) {
	suite.Run(t, new(exporterSuite))
}

func TestGivenDefaultEnvironmentThenFilterTuningParses(t *testing.T) {
	t.Setenv("RESET_FILTER_USAGE_PERCENTAGE", "")
	t.Setenv("FILTER_CAPACITY", "")
	t.Setenv("DUPLICATION_PROBABILITY", "")

	logger, _ := test.NewNullLogger()
	exporter := &Exporter{log: logger.WithField("Component", "Telemetry")}

	assert.NoError(t, exporter.loadFilterTuning())
	assert.Equal(t, float32(0.75), exporter.maximumPercentageFilterUsage)
	assert.Equal(t, uint(100000), exporter.filterCapacity)
	assert.Equal(t, 0.01, exporter.duplicationProbability)
}

func TestGivenInvalidCapacityThenFilterTuningFails(t *testing.T) {
	t.Setenv("FILTER_CAPACITY", "not-a-number")

	logger, _ := test.NewNullLogger()
	exporter := &Exporter{log: logger.WithField("Component", "Telemetry")}

	assert.Error(t, exporter.loadFilterTuning())
}
