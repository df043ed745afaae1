package mocks

import (
	"github.com/stretchr/testify/mock"
	"github.com/velomon/tpms-monitor-golang/pkg/gateways/telemetry/network"
)

type SubscriberMock struct {
	mock.Mock
}

func (s *SubscriberMock) SubscribeToSettingsMessages(msgChan chan network.InMsg) error {
	args := s.Called(msgChan)
	return args.Error(0)
}
