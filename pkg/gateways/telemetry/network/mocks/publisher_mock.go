package mocks

import (
	"github.com/stretchr/testify/mock"
	"github.com/velomon/tpms-monitor-golang/pkg/gateways/telemetry/network"
)

type PublisherMock struct {
	mock.Mock
}

func (p *PublisherMock) PublishSensorReading(userToken string, message network.SensorReadingMessage) error {
	args := p.Called(userToken, message)
	return args.Error(0)
}

func (p *PublisherMock) PublishPairingResult(userToken string, message network.PairingCompletedMessage) error {
	args := p.Called(userToken, message)
	return args.Error(0)
}
