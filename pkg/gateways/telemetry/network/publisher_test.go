package network

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestGivenReadingThenPublishOnReadingKey(t *testing.T) {
	amqpMock := new(AmqpMock)
	publisher := NewMsgPublisher(amqpMock)
	message := SensorReadingMessage{Address: "37:39:01:00:d7:6a", PressurePSI: 30}
	amqpMock.On("PublishPersistentMessage", ExchangeTPMS, ExchangeTypeDirect, RoutingKeyReading, message, mock.Anything).Return(nil)

	err := publisher.PublishSensorReading("token", message)

	assert.NoError(t, err)
	amqpMock.AssertExpectations(t)
}

func TestGivenReadingThenAuthorizationAndExpirationSet(t *testing.T) {
	amqpMock := new(AmqpMock)
	publisher := NewMsgPublisher(amqpMock)
	message := SensorReadingMessage{Address: "37:39:01:00:d7:6a"}
	amqpMock.On("PublishPersistentMessage", ExchangeTPMS, ExchangeTypeDirect, RoutingKeyReading, message,
		&MessageOptions{Authorization: "token", Expiration: defaultExpirationTime}).Return(nil)

	err := publisher.PublishSensorReading("token", message)

	assert.NoError(t, err)
	amqpMock.AssertExpectations(t)
}

func TestGivenPairingResultThenPublishOnPairingKey(t *testing.T) {
	amqpMock := new(AmqpMock)
	publisher := NewMsgPublisher(amqpMock)
	message := PairingCompletedMessage{FrontAddress: "aa:bb:cc:dd:ee:01", RearAddress: "aa:bb:cc:dd:ee:02"}
	amqpMock.On("PublishPersistentMessage", ExchangeTPMS, ExchangeTypeDirect, RoutingKeyPairing, message, mock.Anything).Return(nil)

	err := publisher.PublishPairingResult("token", message)

	assert.NoError(t, err)
	amqpMock.AssertExpectations(t)
}

func TestGivenBrokerFailureThenPublishReturnsError(t *testing.T) {
	amqpMock := new(AmqpMock)
	publisher := NewMsgPublisher(amqpMock)
	amqpMock.On("PublishPersistentMessage", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("channel closed"))

	err := publisher.PublishSensorReading("token", SensorReadingMessage{})

	assert.Error(t, err)
}
