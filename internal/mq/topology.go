package mq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange — тип для имени обменника.
type Exchange string

// Queue — тип для имени очереди.
type Queue string

// RoutingKey — тип для ключа маршрутизации.
type RoutingKey string

// Exchanges — имена обменников.
const (
	ExchangeProcesses Exchange = "trinity.processes"
	ExchangeDLQ       Exchange = "trinity.dlq"
)

// Queues — имена очередей.
const (
	QueueVersionCreated Queue = "processes.version_created"
	QueueDLQProcesses   Queue = "dlq.processes"
)

// Routing keys.
const (
	RoutingKeyVersionCreated RoutingKey = "version_created"
	RoutingKeyDLQProcesses   RoutingKey = "processes"
)

// binding — привязка очереди к обменнику.
type binding struct {
	queue      Queue
	routingKey RoutingKey
	exchange   Exchange
}

var (
	exchanges = []Exchange{ExchangeProcesses, ExchangeDLQ}

	bindings = []binding{
		{QueueVersionCreated, RoutingKeyVersionCreated, ExchangeProcesses},
		{QueueDLQProcesses, RoutingKeyDLQProcesses, ExchangeDLQ},
	}
)

// queueArgs возвращает аргументы объявления очереди.
// Рабочие очереди отправляют отвергнутые сообщения в trinity.dlq.
func queueArgs(q Queue) amqp.Table {
	if q == QueueDLQProcesses {
		return nil
	}
	return amqp.Table{
		"x-dead-letter-exchange":    string(ExchangeDLQ),
		"x-dead-letter-routing-key": string(RoutingKeyDLQProcesses),
	}
}

// SetupTopology объявляет exchanges, очереди и привязки. Идемпотентна.
func SetupTopology(ctx context.Context, conn *Connection) error {
	return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		for _, ex := range exchanges {
			err := ch.ExchangeDeclare(
				string(ex), // name
				"direct",   // type
				true,       // durable
				false,      // auto-deleted
				false,      // internal
				false,      // no-wait
				nil,        // arguments
			)
			if err != nil {
				return fmt.Errorf("declare exchange %s: %w", ex, err)
			}
		}

		for _, b := range bindings {
			_, err := ch.QueueDeclare(
				string(b.queue), // name
				true,            // durable
				false,           // delete when unused
				false,           // exclusive
				false,           // no-wait
				queueArgs(b.queue),
			)
			if err != nil {
				return fmt.Errorf("declare queue %s: %w", b.queue, err)
			}

			err = ch.QueueBind(
				string(b.queue),
				string(b.routingKey),
				string(b.exchange),
				false,
				nil,
			)
			if err != nil {
				return fmt.Errorf("bind queue %s to %s: %w", b.queue, b.exchange, err)
			}
		}

		return nil
	})
}

// TopologyInfo возвращает описание топологии для логирования.
func TopologyInfo() string {
	return `
  Trinity RabbitMQ Topology:

    trinity.processes (direct)
    └── processes.version_created [routing: version_created]
            Consumer: trinity-indexer
            DLQ: dlq.processes

    trinity.dlq (direct)
    └── dlq.processes [routing: processes]
            Manual processing
`
}
