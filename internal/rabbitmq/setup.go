package rabbitmq

import (
	"fmt"

	"github.com/streadway/amqp"
)

// QueueConfig описывает очередь и ключ маршрутизации, которым она привязана к обменнику.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// Topology описывает обменник и очереди, которые объявляются при старте.
type Topology struct {
	Exchange string
	Queues   []QueueConfig
}

// EmailTopology возвращает топологию очереди писем.
func EmailTopology(exchange, queue, routingKey string) Topology {
	return Topology{
		Exchange: exchange,
		Queues:   []QueueConfig{{QueueName: queue, RoutingKey: routingKey}},
	}
}

// Declarer — часть amqp.Channel, необходимая для объявления топологии.
type Declarer interface {
	Qos(prefetchCount, prefetchSize int, global bool) error
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
}

// Declare объявляет direct-обменник и привязанные к нему durable-очереди.
func Declare(ch Declarer, topo Topology) error {
	const op = "rabbitmq.Declare"

	if err := ch.Qos(10, 0, false); err != nil {
		return fmt.Errorf("%s: failed to set QoS: %w", op, err)
	}

	err := ch.ExchangeDeclare(
		topo.Exchange,
		"direct", // тип
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	for _, q := range topo.Queues {
		_, err := ch.QueueDeclare(
			q.QueueName,
			true,
			false,
			false,
			false,
			nil,
		)
		if err != nil {
			return fmt.Errorf("%s: failed to declare queue %s: %w", op, q.QueueName, err)
		}

		err = ch.QueueBind(
			q.QueueName,
			q.RoutingKey,
			topo.Exchange,
			false,
			nil,
		)
		if err != nil {
			return fmt.Errorf("%s: failed to bind queue %s with routing key %s: %w", op, q.QueueName, q.RoutingKey, err)
		}
	}
	return nil
}

// SetupChannel открывает канал и объявляет на нём топологию.
func SetupChannel(conn *amqp.Connection, topo Topology) (*amqp.Channel, error) {
	const op = "rabbitmq.SetupChannel"

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := Declare(ch, topo); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ch, nil
}
