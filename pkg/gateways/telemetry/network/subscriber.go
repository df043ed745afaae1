package network

const (
	queueName                 = "tpms-monitor-settings"
	BindingKeySettingsUpdated = "settings.updated"
)

type Subscriber interface {
	SubscribeToSettingsMessages(msgChan chan InMsg) error
}

type msgSubscriber struct {
	amqp Messaging
}

func NewMsgSubscriber(amqp Messaging) Subscriber {
	return &msgSubscriber{amqp}
}

func (ms *msgSubscriber) SubscribeToSettingsMessages(msgChan chan InMsg) error {
	return ms.amqp.OnMessage(msgChan, queueName, ExchangeTPMS, ExchangeTypeDirect, BindingKeySettingsUpdated)
}
