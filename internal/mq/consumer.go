package mq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/shaiso/Trinity/internal/telemetry"
)

// Handler — функция обработки сообщения.
//
// nil — ack. Ошибка, обёрнутая в Drop, — ack без повтора (сообщение
// некорректно и повтор не поможет). Любая другая ошибка — nack с requeue.
type Handler func(ctx context.Context, msg *Delivery) error

// ErrDropped — маркер сообщений, которые подтверждаются без обработки.
var ErrDropped = errors.New("message dropped")

// Drop помечает ошибку как неповторяемую.
func Drop(err error) error {
	return errors.Join(ErrDropped, err)
}

// Исходы обработки (label outcome).
const (
	outcomeAck        = "ack"
	outcomeDrop       = "drop"
	outcomeRequeue    = "requeue"
	outcomeDeadLetter = "dead_letter"
)

// Delivery — доставленное сообщение с методами ack/nack.
type Delivery struct {
	Message Message
	Raw     amqp.Delivery
}

// Ack подтверждает успешную обработку сообщения.
func (d *Delivery) Ack() error {
	return d.Raw.Ack(false)
}

// Nack отклоняет сообщение.
// requeue=true — вернуть в очередь, false — отправить в DLQ.
func (d *Delivery) Nack(requeue bool) error {
	return d.Raw.Nack(false, requeue)
}

// Consumer читает одну очередь и передаёт конверты в Handler.
// После обрыва соединения ждёт переподключения и подписывается заново.
type Consumer struct {
	conn     *Connection
	logger   *slog.Logger
	queue    string
	handler  Handler
	prefetch int

	cancelFunc context.CancelFunc
}

// ConsumerConfig — конфигурация consumer.
type ConsumerConfig struct {
	Queue   string
	Handler Handler

	// Prefetch — сколько неподтверждённых сообщений держать; по умолчанию 1.
	Prefetch int
}

// NewConsumer создаёт новый Consumer.
func NewConsumer(conn *Connection, logger *slog.Logger, cfg ConsumerConfig) *Consumer {
	return &Consumer{
		conn:     conn,
		logger:   logger.With("queue", cfg.Queue),
		queue:    cfg.Queue,
		handler:  cfg.Handler,
		prefetch: max(cfg.Prefetch, 1),
	}
}

// Start блокируется, пока не отменён ctx или не вызван Stop.
func (c *Consumer) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	c.cancelFunc = cancel

	for {
		deliveries, err := c.subscribe()
		if err != nil {
			c.logger.Error("failed to setup consume", "error", err)
		} else {
			c.logger.Info("consumer started")
			err = c.drain(ctx, deliveries)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Warn("deliveries channel closed, reconnecting", "error", err)
		}

		if err := c.waitReconnect(ctx); err != nil {
			return err
		}
	}
}

func (c *Consumer) waitReconnect(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.conn.ReconnectNotify():
		c.logger.Info("reconnected, restarting consumer")
		return nil
	}
}

func (c *Consumer) subscribe() (<-chan amqp.Delivery, error) {
	ch := c.conn.Channel()
	if ch == nil {
		return nil, ErrNoChannel
	}

	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		return nil, fmt.Errorf("set qos: %w", err)
	}

	// auto-ack выключен: подтверждаем в settle
	deliveries, err := ch.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("consume: %w", err)
	}
	return deliveries, nil
}

func (c *Consumer) drain(ctx context.Context, deliveries <-chan amqp.Delivery) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case raw, ok := <-deliveries:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			c.handleDelivery(ctx, raw)
		}
	}
}

// handleDelivery разбирает конверт, вызывает Handler и подтверждает сообщение.
func (c *Consumer) handleDelivery(ctx context.Context, raw amqp.Delivery) {
	var msg Message
	if err := json.Unmarshal(raw.Body, &msg); err != nil {
		c.logger.Error("failed to unmarshal message", "error", err, "body", string(raw.Body))
		c.settle(&Delivery{Raw: raw}, outcomeDeadLetter)
		return
	}

	delivery := &Delivery{Message: msg, Raw: raw}
	logger := c.logger.With("message_id", msg.ID, "type", msg.Type)
	logger.Debug("received message")

	err := c.handler(ctx, delivery)
	switch {
	case err == nil:
		c.settle(delivery, outcomeAck)
	case errors.Is(err, ErrDropped):
		logger.Warn("message dropped", "error", err)
		c.settle(delivery, outcomeDrop)
	default:
		// Временная ошибка (БД недоступна) — возвращаем в очередь
		logger.Error("handler failed", "error", err)
		c.settle(delivery, outcomeRequeue)
	}
}

func (c *Consumer) settle(d *Delivery, outcome string) {
	var err error
	switch outcome {
	case outcomeAck, outcomeDrop:
		err = d.Ack()
	case outcomeRequeue:
		err = d.Nack(true)
	default:
		err = d.Nack(false)
	}
	if err != nil {
		c.logger.Warn("settle failed", "outcome", outcome, "message_id", d.Message.ID, "error", err)
	}
	telemetry.EventsConsumedTotal.WithLabelValues(c.queue, outcome).Inc()
}

// Stop останавливает consumer.
func (c *Consumer) Stop() {
	if c.cancelFunc != nil {
		c.cancelFunc()
	}
}

// ParsePayload парсит payload сообщения в указанный тип.
// После разбора конверта Payload — map[string]any, поэтому он
// перекодируется через JSON.
func ParsePayload[T any](msg *Message) (T, error) {
	var result T

	payloadBytes, err := json.Marshal(msg.Payload)
	if err != nil {
		return result, fmt.Errorf("marshal payload: %w", err)
	}
	if err := json.Unmarshal(payloadBytes, &result); err != nil {
		return result, fmt.Errorf("unmarshal payload: %w", err)
	}
	return result, nil
}
