package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/shaiso/Trinity/internal/telemetry"
)

// MessageType — тип сообщения в очереди.
type MessageType string

// MessageTypeVersionCreated — опубликована новая версия процесса.
const MessageTypeVersionCreated MessageType = "process.version_created"

// Message — конверт сообщения.
type Message struct {
	// ID — уникальный идентификатор сообщения.
	ID string `json:"id"`

	// Type — тип сообщения.
	Type MessageType `json:"type"`

	// Payload — полезная нагрузка. При чтении остаётся сырым JSON.
	Payload any `json:"payload"`

	// Timestamp — время создания.
	Timestamp time.Time `json:"timestamp"`
}

// VersionCreatedPayload — payload события о новой версии процесса.
type VersionCreatedPayload struct {
	ProcessID uuid.UUID `json:"process_id"`
	Version   int       `json:"version"`
}

// Publisher публикует сообщения в RabbitMQ.
type Publisher struct {
	conn   *Connection
	logger *slog.Logger
}

// NewPublisher создаёт новый Publisher.
func NewPublisher(conn *Connection, logger *slog.Logger) *Publisher {
	return &Publisher{
		conn:   conn,
		logger: logger,
	}
}

// NewMessage собирает конверт с новым ID и текущим временем.
func NewMessage(msgType MessageType, payload any) *Message {
	return &Message{
		ID:        uuid.New().String(),
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// Publish публикует сообщение в указанный exchange с routing key.
func (p *Publisher) Publish(ctx context.Context, exchange Exchange, routingKey RoutingKey, msg *Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	err = p.conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		return ch.PublishWithContext(
			ctx,
			string(exchange),
			string(routingKey),
			false, // mandatory
			false, // immediate
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent, // сообщение переживёт рестарт RabbitMQ
				MessageId:    msg.ID,
				Type:         string(msg.Type),
				Timestamp:    msg.Timestamp,
				Body:         body,
			},
		)
	})
	if err != nil {
		telemetry.EventsPublishedTotal.WithLabelValues(string(msg.Type), "error").Inc()
		return fmt.Errorf("publish to %s/%s: %w", exchange, routingKey, err)
	}
	telemetry.EventsPublishedTotal.WithLabelValues(string(msg.Type), "ok").Inc()

	p.logger.Debug("published message",
		"exchange", exchange,
		"routing_key", routingKey,
		"message_id", msg.ID,
		"type", msg.Type,
	)
	return nil
}

// PublishVersionCreated публикует событие о новой версии процесса.
// Потребитель: trinity-indexer.
func (p *Publisher) PublishVersionCreated(ctx context.Context, processID uuid.UUID, version int) error {
	msg := NewMessage(MessageTypeVersionCreated, VersionCreatedPayload{
		ProcessID: processID,
		Version:   version,
	})
	return p.Publish(ctx, ExchangeProcesses, RoutingKeyVersionCreated, msg)
}
