package network

const (
	RoutingKeyReading = "sensor.reading"
	RoutingKeyPairing = "sensor.paired"

	defaultExpirationTime = "2000"
)

type Publisher interface {
	PublishSensorReading(userToken string, message SensorReadingMessage) error
	PublishPairingResult(userToken string, message PairingCompletedMessage) error
}

type msgPublisher struct {
	amqp Messaging
}

func NewMsgPublisher(amqp Messaging) Publisher {
	return &msgPublisher{amqp}
}

func (mp *msgPublisher) PublishSensorReading(userToken string, message SensorReadingMessage) error {
	options := MessageOptions{
		Authorization: userToken,
		Expiration:    defaultExpirationTime,
	}

	return mp.amqp.PublishPersistentMessage(ExchangeTPMS, ExchangeTypeDirect, RoutingKeyReading, message, &options)
}

func (mp *msgPublisher) PublishPairingResult(userToken string, message PairingCompletedMessage) error {
	options := MessageOptions{
		Authorization: userToken,
	}

	return mp.amqp.PublishPersistentMessage(ExchangeTPMS, ExchangeTypeDirect, RoutingKeyPairing, message, &options)
}
