package mq

import (
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

const (
	ExchangeName = "projecthub.events"
	exchangeKind = "topic"
	heartbeat    = 10 * time.Second
)

// connectionConfig names the connection so it shows up in the management UI.
func connectionConfig(name string) amqp091.Config {
	props := amqp091.NewConnectionProperties()
	props.SetClientConnectionName(name)
	return amqp091.Config{
		Heartbeat:  heartbeat,
		Locale:     "en_US",
		Properties: props,
	}
}

// open dials the broker, opens one channel and runs each declaration on it.
// Nothing is left open when any step fails.
func open(url, name string, declare ...func(*amqp091.Channel) error) (*amqp091.Connection, *amqp091.Channel, error) {
	conn, err := amqp091.DialConfig(url, connectionConfig(name))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("failed to open channel: %w", err)
	}
	for _, d := range declare {
		if err := d(ch); err != nil {
			ch.Close()
			conn.Close()
			return nil, nil, err
		}
	}
	return conn, ch, nil
}

// DeclareExchange declares the durable events exchange.
func DeclareExchange(ch *amqp091.Channel) error {
	if err := ch.ExchangeDeclare(ExchangeName, exchangeKind, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange %s: %w", ExchangeName, err)
	}
	return nil
}
