package network

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	ExchangeTPMS       = "tpms"
	ExchangeTypeDirect = "direct"

	durable          = true
	deleteWhenUnused = false
	exclusive        = false
	noWait           = false
	internal         = false
	noAck            = true
	noLocal          = false
	consumerTag      = ""
)

// Messaging is the broker surface the telemetry exporter talks to.
type Messaging interface {
	Start() error
	Stop() error
	OnMessage(msgChan chan InMsg, queueName, exchangeName, exchangeType, key string) error
	PublishPersistentMessage(exchange, exchangeType, key string, data interface{}, options *MessageOptions) error
}

// InMsg is a consumed broker message.
type InMsg struct {
	Exchange      string
	RoutingKey    string
	ReplyTo       string
	CorrelationID string
	Headers       map[string]interface{}
	Body          []byte
}

// MessageOptions represents the message publishing options
type MessageOptions struct {
	Authorization string
	CorrelationID string
	ReplyTo       string
	Expiration    string
}

var exchangeLock *sync.Mutex = &sync.Mutex{}

type AMQP struct {
	url               string
	conn              *amqp.Connection
	channel           *amqp.Channel
	declaredExchanges map[string]struct{}
}

func NewAMQP(url string) *AMQP {
	return &AMQP{url: url, declaredExchanges: make(map[string]struct{})}
}

func (a *AMQP) Start() error {
	err := backoff.Retry(a.connect, backoff.NewExponentialBackOff())
	if err != nil {
		return err
	}
	go a.notifyWhenClosed()
	return nil
}

func (a *AMQP) Stop() error {
	if a.channel != nil {
		defer a.channel.Close()
	}
	if a.conn != nil && !a.conn.IsClosed() {
		defer a.conn.Close()
	}
	return nil
}

func (a *AMQP) OnMessage(msgChan chan InMsg, queueName, exchangeName, exchangeType, key string) error {
	err := a.declareExchange(exchangeName, exchangeType)
	if err != nil {
		return err
	}

	err = a.declareQueue(queueName)
	if err != nil {
		return err
	}

	err = a.channel.QueueBind(
		queueName,
		key,
		exchangeName,
		noWait,
		nil, // arguments
	)
	if err != nil {
		return err
	}

	deliveries, err := a.channel.Consume(
		queueName,
		consumerTag,
		noAck,
		exclusive,
		noLocal,
		noWait,
		nil, // arguments
	)
	if err != nil {
		return err
	}

	go convertDeliveryToInMsg(deliveries, msgChan)

	return nil
}

func (a *AMQP) PublishPersistentMessage(exchange, exchangeType, key string, data interface{}, options *MessageOptions) error {
	var headers map[string]interface{}
	var corrID, expTime, replyTo string

	if options != nil {
		headers = map[string]interface{}{
			"Authorization": options.Authorization,
		}
		corrID = options.CorrelationID
		replyTo = options.ReplyTo
		expTime = options.Expiration
	}

	body, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("error encoding JSON message: %w", err)
	}

	// Avoids redeclaring an exchange of the same type on every publish.
	if !a.exchangeAlreadyDeclared(exchange) {
		err = a.declareExchange(exchange, exchangeType)
		if err != nil {
			return fmt.Errorf("error declaring exchange: %w", err)
		}
		exchangeLock.Lock()
		a.declaredExchanges[exchange] = struct{}{}
		exchangeLock.Unlock()
	}

	err = a.channel.Publish(
		exchange,
		key,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			Headers:       headers,
			ContentType:   "text/plain",
			DeliveryMode:  amqp.Persistent,
			CorrelationId: corrID,
			ReplyTo:       replyTo,
			Body:          body,
			Expiration:    expTime,
		},
	)
	if err != nil {
		return fmt.Errorf("error publishing message in channel: %w", err)
	}

	return nil
}

func (a *AMQP) exchangeAlreadyDeclared(exchangeName string) bool {
	exchangeLock.Lock()
	_, ok := a.declaredExchanges[exchangeName]
	exchangeLock.Unlock()
	return ok
}

func (a *AMQP) notifyWhenClosed() {
	errReason := <-a.conn.NotifyClose(make(chan *amqp.Error))
	if errReason == nil {
		return
	}

	reconnectionBackOff := backoff.NewExponentialBackOff()
	reconnectionBackOff.InitialInterval = 30 * time.Second
	reconnectionBackOff.MaxInterval = 5 * time.Minute
	reconnectionBackOff.Multiplier = 1.7
	reconnectionBackOff.MaxElapsedTime = 0 // never stop retrying

	err := backoff.Retry(a.connect, reconnectionBackOff)
	if err != nil {
		return
	}
	go a.notifyWhenClosed()
}

func (a *AMQP) connect() error {
	conn, err := amqp.Dial(a.url)
	if err != nil {
		return err
	}

	a.conn = conn
	channel, err := a.conn.Channel()
	if err != nil {
		return err
	}

	a.channel = channel

	return nil
}

func (a *AMQP) declareExchange(name, exchangeType string) error {
	return a.channel.ExchangeDeclare(
		name,
		exchangeType,
		durable,
		deleteWhenUnused,
		internal,
		noWait,
		nil, // arguments
	)
}

func (a *AMQP) declareQueue(name string) error {
	_, err := a.channel.QueueDeclare(
		name,
		durable,
		deleteWhenUnused,
		exclusive,
		noWait,
		nil, // arguments
	)
	return err
}

func convertDeliveryToInMsg(deliveries <-chan amqp.Delivery, outMsg chan InMsg) {
	for d := range deliveries {
		outMsg <- InMsg{d.Exchange, d.RoutingKey, d.ReplyTo, d.CorrelationId, d.Headers, d.Body}
	}
}
